// Package app wires configuration, the catalog database, the vector
// stores and the model clients into one application container.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdul-hamid-achik/veclite"
	"github.com/google/uuid"

	"github.com/abdulachik/booksouls/internal/chunker"
	"github.com/abdulachik/booksouls/internal/config"
	"github.com/abdulachik/booksouls/internal/db"
	"github.com/abdulachik/booksouls/internal/dialogue"
	"github.com/abdulachik/booksouls/internal/embedder"
	"github.com/abdulachik/booksouls/internal/llm"
	"github.com/abdulachik/booksouls/internal/vectorstore"
)

// App is the main application container holding all dependencies.
type App struct {
	Config    *config.Config
	Store     *db.Store
	Stores    *vectorstore.DualStore
	Completer llm.Completer
	Builder   *chunker.Builder
	Extractor *dialogue.Extractor
}

// New creates a new application instance with all dependencies wired up.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Create database connection
	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	narrativeEmb, err := buildEmbedder(cfg.NarrativeEmbedProvider, cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("narrative embedder: %w", err)
	}
	dialogueEmb, err := buildEmbedder(cfg.DialogueEmbedProvider, cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("dialogue embedder: %w", err)
	}

	stores, err := vectorstore.New(vectorstore.Config{
		BaseDir:             cfg.PersistDir,
		NarrativeCollection: cfg.NarrativeCollection,
		DialogueCollection:  cfg.DialogueCollection,
		NarrativeEmbedder:   narrativeEmb,
		DialogueEmbedder:    dialogueEmb,
		NarrativeResults:    cfg.NarrativeResults,
		DialogueResults:     cfg.DialogueResults,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	completer, err := buildCompleter(cfg)
	if err != nil {
		stores.Close()
		store.Close()
		return nil, err
	}

	builderCfg := chunker.DefaultConfig()
	builderCfg.MinSectionTokens = cfg.MinSectionTokens
	builderCfg.Timeout = cfg.ChapterTimeout

	extractorCfg := dialogue.DefaultConfig()
	extractorCfg.TopCharacters = cfg.TopCharacters
	extractorCfg.MaxSampleDialogues = cfg.MaxSampleDialogues
	extractorCfg.FuzzyThreshold = cfg.FuzzyThreshold
	extractorCfg.Timeout = cfg.DialogueTimeout

	return &App{
		Config:    cfg,
		Store:     store,
		Stores:    stores,
		Completer: completer,
		Builder:   chunker.NewBuilder(completer, builderCfg),
		Extractor: dialogue.NewExtractor(completer, extractorCfg),
	}, nil
}

// buildEmbedder resolves an embedding provider name. An empty result
// means the veclite.yaml default.
func buildEmbedder(provider string, cfg *config.Config) (veclite.Embedder, error) {
	switch provider {
	case "", "default":
		return nil, nil
	case "ollama":
		return embedder.NewOllama(embedder.OllamaConfig{
			Host:  cfg.OllamaHost,
			Model: cfg.OllamaModel,
		}), nil
	case "openai":
		return embedder.NewOpenAI(cfg.OpenAIAPIKey, ""), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

func buildCompleter(cfg *config.Config) (llm.Completer, error) {
	switch cfg.CompletionProvider {
	case "claude":
		return llm.NewClaudeClient(llm.ClaudeConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.CompletionModel,
		}), nil
	case "openai":
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.CompletionModel), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}
}

// RunSummary reports what an indexing run produced.
type RunSummary struct {
	RunID     string        `json:"run_id"`
	Chapters  int           `json:"chapters"`
	Sections  int           `json:"sections"`
	Scenes    int           `json:"scenes"`
	Dialogues int           `json:"dialogues"`
	Profiles  int           `json:"profiles"`
	Duration  time.Duration `json:"duration"`
}

// RunOptions controls an indexing run.
type RunOptions struct {
	// Reset drops existing vector store contents first.
	Reset bool
	// DialogueJSON, when set, exports the built dialogue index to this
	// path.
	DialogueJSON string
}

// RunIndex executes the full pipeline over extracted chapters: build
// both semantic indexes, write every record into the paired vector
// stores, and catalog what was produced.
func (a *App) RunIndex(ctx context.Context, chapters []chunker.Chapter, opts RunOptions) (*RunSummary, error) {
	start := time.Now()
	runID := uuid.New().String()

	if err := a.Store.CreateIndexRun(ctx, runID); err != nil {
		return nil, fmt.Errorf("create index run: %w", err)
	}

	summary, err := a.runIndex(ctx, runID, chapters, opts)
	if err != nil {
		if failErr := a.Store.FailIndexRun(ctx, runID, err.Error()); failErr != nil {
			slog.Error("failed to record run failure", "run_id", runID, "error", failErr)
		}
		return nil, err
	}

	summary.Duration = time.Since(start)
	if err := a.Store.FinishIndexRun(ctx, db.FinishIndexRunParams{
		ID:            runID,
		ChapterCount:  int64(summary.Chapters),
		SectionCount:  int64(summary.Sections),
		SceneCount:    int64(summary.Scenes),
		DialogueCount: int64(summary.Dialogues),
		ProfileCount:  int64(summary.Profiles),
	}); err != nil {
		return nil, fmt.Errorf("finish index run: %w", err)
	}

	slog.Info("indexing run complete",
		"run_id", runID,
		"chapters", summary.Chapters,
		"sections", summary.Sections,
		"scenes", summary.Scenes,
		"dialogues", summary.Dialogues,
		"profiles", summary.Profiles,
		"duration", summary.Duration,
	)
	return summary, nil
}

func (a *App) runIndex(ctx context.Context, runID string, chapters []chunker.Chapter, opts RunOptions) (*RunSummary, error) {
	if opts.Reset {
		if err := a.Stores.Reset(); err != nil {
			return nil, fmt.Errorf("reset stores: %w", err)
		}
	}

	chapterIndex, sectionIndex, err := a.Builder.BuildIndexes(ctx, chapters)
	if err != nil {
		return nil, fmt.Errorf("build narrative indexes: %w", err)
	}

	dialogueIndex, err := a.Extractor.BuildIndex(ctx, chapters)
	if err != nil {
		return nil, fmt.Errorf("build dialogue index: %w", err)
	}

	if opts.DialogueJSON != "" {
		if err := dialogueIndex.Save(opts.DialogueJSON); err != nil {
			return nil, fmt.Errorf("export dialogue index: %w", err)
		}
		slog.Info("exported dialogue index", "path", opts.DialogueJSON)
	}

	narrativeResult, err := a.Stores.IndexNarrative(ctx, sectionIndex)
	if err != nil {
		return nil, fmt.Errorf("index narrative: %w", err)
	}

	dialogueResult, err := a.Stores.IndexDialogue(ctx, dialogueIndex)
	if err != nil {
		return nil, fmt.Errorf("index dialogue: %w", err)
	}

	if err := a.Stores.Sync(); err != nil {
		return nil, err
	}

	if err := a.catalog(ctx, runID, chapterIndex, sectionIndex, dialogueIndex); err != nil {
		return nil, fmt.Errorf("catalog run: %w", err)
	}

	return &RunSummary{
		RunID:     runID,
		Chapters:  len(chapterIndex.Chapters),
		Sections:  narrativeResult.SectionChunks,
		Scenes:    dialogueResult.SceneChunks,
		Dialogues: dialogueResult.DialogueChunks,
		Profiles:  dialogueResult.ProfileChunks,
	}, nil
}

// catalog mirrors the indexed records into SQLite so runs can be
// inspected without touching the vector stores.
func (a *App) catalog(ctx context.Context, runID string, chapterIndex *chunker.ChapterIndex, sectionIndex *chunker.SectionIndex, dialogueIndex *dialogue.Index) error {
	for _, ch := range chapterIndex.Chapters {
		if err := a.Store.InsertChapter(ctx, db.InsertChapterParams{
			ID:            ch.ChapterID,
			RunID:         runID,
			ChapterNumber: int64(ch.ChapterNumber),
			Title:         ch.ChapterTitle,
			Summary:       ch.Summary,
			SectionCount:  int64(ch.SectionCount),
			TokenCount:    int64(ch.TokenCount),
			Tags:          jsonList(ch.Themes),
		}); err != nil {
			return fmt.Errorf("insert chapter %s: %w", ch.ChapterID, err)
		}
	}

	for _, section := range sectionIndex.Sections {
		if err := a.Store.InsertSection(ctx, db.InsertSectionParams{
			ID:            section.SectionID,
			RunID:         runID,
			ChapterNumber: int64(section.ChapterNumber),
			SectionIndex:  int64(section.SectionIndex),
			SemanticType:  section.SemanticType,
			TokenCount:    int64(section.TokenCount),
			Entities:      jsonList(section.Entities),
			Themes:        jsonList(section.Themes),
		}); err != nil {
			return fmt.Errorf("insert section %s: %w", section.SectionID, err)
		}
	}

	for _, scene := range dialogueIndex.Scenes {
		if err := a.Store.InsertScene(ctx, db.InsertSceneParams{
			ID:            scene.SceneID,
			RunID:         runID,
			ChapterNumber: int64(scene.ChapterNumber),
			Setting:       scene.Setting,
			Participants:  jsonList(scene.Participants),
			DialogueCount: int64(len(scene.Dialogues)),
		}); err != nil {
			return fmt.Errorf("insert scene %s: %w", scene.SceneID, err)
		}

		for _, d := range scene.Dialogues {
			if err := a.Store.InsertDialogue(ctx, db.InsertDialogueParams{
				RunID:         runID,
				SceneID:       scene.SceneID,
				ChapterNumber: int64(d.ChapterNumber),
				Character:     d.Character,
				Addressee:     d.Addressee,
				Emotion:       d.Emotion,
				Utterance:     d.Utterance,
			}); err != nil {
				return fmt.Errorf("insert dialogue in %s: %w", scene.SceneID, err)
			}
		}
	}

	for character, profiles := range dialogueIndex.Profiles {
		for _, profile := range profiles {
			doc, err := profile.JSONString()
			if err != nil {
				return fmt.Errorf("render profile for %s: %w", character, err)
			}
			if err := a.Store.InsertProfile(ctx, db.InsertProfileParams{
				ID:             fmt.Sprintf("profile_%s_ch%d", character, profile.ChapterNumber),
				RunID:          runID,
				Character:      profile.Name,
				ChapterNumber:  int64(profile.ChapterNumber),
				EmotionalState: profile.EmotionalState,
				DialogueCount:  int64(profile.DialogueCount),
				ProfileJSON:    doc,
			}); err != nil {
				return fmt.Errorf("insert profile for %s: %w", character, err)
			}
		}
	}

	return nil
}

func jsonList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Close closes all resources.
func (a *App) Close() error {
	var firstErr error
	if a.Stores != nil {
		if err := a.Stores.Close(); err != nil {
			firstErr = err
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
