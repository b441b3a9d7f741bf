package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/abdulachik/booksouls/internal/chunker"
	"github.com/abdulachik/booksouls/internal/llm"
)

// quoteMarkers are the characters that suggest a segment contains speech.
// Covers straight and typographic quotes.
const quoteMarkers = "\"'“”‘’"

// contextChars is how much of the source segment is kept as scene context.
const contextChars = 200

// Config holds settings for dialogue extraction and character profiling.
type Config struct {
	// SkipNonDialogue skips segments without quote characters before any
	// model call.
	SkipNonDialogue bool
	// TopCharacters is how many characters per chapter get profiled,
	// ranked by dialogue count.
	TopCharacters int
	// MaxSampleDialogues caps the dialogue samples per profile. Zero means
	// no limit.
	MaxSampleDialogues int
	// FuzzyThreshold is the token-sort similarity (0-100) needed to merge
	// character name variants.
	FuzzyThreshold int
	// Sampling parameters for extraction and analysis calls.
	Temperature float32
	TopP        float32
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultConfig returns the standard extraction settings.
func DefaultConfig() Config {
	return Config{
		SkipNonDialogue:    true,
		TopCharacters:      4,
		MaxSampleDialogues: 7,
		FuzzyThreshold:     85,
		Temperature:        0.1,
		TopP:               0.7,
		MaxTokens:          1200,
		Timeout:            180 * time.Second,
	}
}

// Extractor builds dialogue indexes from chapters. Extraction failures on
// individual segments degrade to skipping the segment.
type Extractor struct {
	completer llm.Completer
	config    Config
}

// NewExtractor creates a new dialogue extractor.
func NewExtractor(completer llm.Completer, config Config) *Extractor {
	if config.TopCharacters == 0 {
		config.TopCharacters = DefaultConfig().TopCharacters
	}
	if config.FuzzyThreshold == 0 {
		config.FuzzyThreshold = DefaultConfig().FuzzyThreshold
	}
	return &Extractor{completer: completer, config: config}
}

// sceneData is the JSON shape the extraction prompt asks for.
type sceneData struct {
	Dialogues []struct {
		Speaker   string   `json:"speaker"`
		Dialogue  string   `json:"dialogue"`
		Addressee string   `json:"addressee"`
		Context   string   `json:"context"`
		Emotion   string   `json:"emotion"`
		Actions   []string `json:"actions"`
	} `json:"dialogues"`
	SceneSetting string   `json:"scene_setting"`
	Participants []string `json:"participants"`
}

// BuildIndex extracts dialogue from all chapters and assembles the full
// index with normalized character names and per-chapter profiles.
func (e *Extractor) BuildIndex(ctx context.Context, chapters []chunker.Chapter) (*Index, error) {
	start := time.Now()

	var allScenes []Scene
	totalDialogues := 0

	for _, chapter := range chapters {
		slog.Info("extracting dialogue",
			"chapter", chapter.Number,
			"title", chapter.Title,
			"segments", len(chapter.Chunks))

		sceneCounter := 0
		for i, segment := range chapter.Chunks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if e.config.SkipNonDialogue && !hasDialogueMarkers(segment.Text) {
				continue
			}

			sceneID := fmt.Sprintf("ch%d_scene%d", chapter.Number, sceneCounter)
			sectionID := chunker.SectionID(chapter.Number, i)

			scene := e.extractScene(ctx, segment.Text, chapter.Number, sceneID, sectionID)
			if scene == nil || len(scene.Dialogues) == 0 {
				continue
			}

			allScenes = append(allScenes, *scene)
			totalDialogues += len(scene.Dialogues)
			sceneCounter++
		}
	}

	// Resolve name variants before any grouping so scenes, the character
	// index and the profiles all carry canonical names only.
	_, rawOrder := organizeByCharacter(allScenes)
	canon, _ := canonicalNames(rawOrder, e.config.FuzzyThreshold)
	applyCanonicalNames(allScenes, canon)

	byCharacter, order := organizeByCharacter(allScenes)
	byChapter := organizeByChapter(allScenes)

	chaptersCovered := make([]int, 0, len(chapters))
	for _, ch := range chapters {
		chaptersCovered = append(chaptersCovered, ch.Number)
	}

	profiles := e.buildProfiles(ctx, byChapter)

	totalProfiles := 0
	for _, ps := range profiles {
		totalProfiles += len(ps)
	}

	idx := &Index{
		Scenes:          allScenes,
		ByCharacter:     byCharacter,
		ByChapter:       byChapter,
		Profiles:        profiles,
		TotalDialogues:  totalDialogues,
		TotalScenes:     len(allScenes),
		Characters:      order,
		ChaptersCovered: chaptersCovered,
		Metadata: IndexMetadata{
			ProcessingTime:     time.Since(start),
			CreatedAt:          time.Now(),
			CharactersAnalyzed: len(profiles),
			TotalProfiles:      totalProfiles,
			TopCharacters:      e.config.TopCharacters,
			MaxSampleDialogues: e.config.MaxSampleDialogues,
		},
	}

	slog.Info("built dialogue index",
		"scenes", idx.TotalScenes,
		"dialogues", idx.TotalDialogues,
		"characters", len(idx.Characters),
		"profiles", totalProfiles,
		"duration", idx.Metadata.ProcessingTime)

	return idx, nil
}

// extractScene runs one model call over a segment and parses the result.
// Any failure is logged and reported as a nil scene.
func (e *Extractor) extractScene(ctx context.Context, text string, chapterNum int, sceneID, sectionID string) *Scene {
	prompt := fmt.Sprintf(dialogueExtractionPrompt, text)

	response, err := e.completer.Complete(ctx, extractionSystemPrompt, prompt, llm.Options{
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
		TopP:        e.config.TopP,
		Timeout:     e.config.Timeout,
	})
	if err != nil {
		slog.Warn("dialogue extraction failed", "scene", sceneID, "error", err)
		return nil
	}

	payload := llm.Extract(response)
	if payload.Status != llm.Parsed {
		slog.Warn("unusable extraction response", "scene", sceneID, "status", payload.Status)
		return nil
	}

	var data sceneData
	if err := payload.Decode(&data); err != nil {
		slog.Warn("unexpected extraction schema", "scene", sceneID, "error", err)
		return nil
	}

	dialogues := make([]Dialogue, 0, len(data.Dialogues))
	for _, entry := range data.Dialogues {
		speaker := entry.Speaker
		if speaker == "" {
			speaker = "Unknown"
		}
		addressee := entry.Addressee
		if addressee == "" {
			addressee = "Unknown"
		}
		emotion := entry.Emotion
		if emotion == "" {
			emotion = "neutral"
		}

		dialogues = append(dialogues, Dialogue{
			Character:     speaker,
			Utterance:     entry.Dialogue,
			Addressee:     addressee,
			Context:       entry.Context,
			Emotion:       emotion,
			Actions:       entry.Actions,
			SceneID:       sceneID,
			ChapterNumber: chapterNum,
			SectionID:     sectionID,
		})
	}

	return &Scene{
		SceneID:       sceneID,
		Participants:  data.Participants,
		Dialogues:     dialogues,
		Setting:       data.SceneSetting,
		Context:       truncateContext(text),
		ChapterNumber: chapterNum,
	}
}

// hasDialogueMarkers is a cheap prefilter for segments likely to contain
// quoted speech.
func hasDialogueMarkers(text string) bool {
	return strings.ContainsAny(text, quoteMarkers)
}

// truncateContext keeps the first part of the source segment as scene
// context.
func truncateContext(text string) string {
	runes := []rune(text)
	if len(runes) <= contextChars {
		return text
	}
	return string(runes[:contextChars]) + "..."
}

// organizeByCharacter groups all dialogues by speaker. The returned order
// slice preserves first appearance, which keeps downstream name
// normalization deterministic.
func organizeByCharacter(scenes []Scene) (map[string][]Dialogue, []string) {
	index := make(map[string][]Dialogue)
	var order []string

	for _, scene := range scenes {
		for _, d := range scene.Dialogues {
			if _, ok := index[d.Character]; !ok {
				order = append(order, d.Character)
			}
			index[d.Character] = append(index[d.Character], d)
		}
	}

	for character := range index {
		dialogues := index[character]
		sort.SliceStable(dialogues, func(i, j int) bool {
			return dialogues[i].ChapterNumber < dialogues[j].ChapterNumber
		})
	}

	return index, order
}

// organizeByChapter groups scenes by chapter number.
func organizeByChapter(scenes []Scene) map[int][]Scene {
	byChapter := make(map[int][]Scene)
	for _, scene := range scenes {
		byChapter[scene.ChapterNumber] = append(byChapter[scene.ChapterNumber], scene)
	}
	return byChapter
}
