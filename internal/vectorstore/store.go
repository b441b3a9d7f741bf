// Package vectorstore maintains the paired VecLite stores for narrative
// sections and dialogue records, and serves filtered semantic queries
// over both.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/veclite"

	"github.com/abdulachik/booksouls/internal/chunker"
	"github.com/abdulachik/booksouls/internal/dialogue"
)

const (
	defaultNarrativeCollection = "narrative"
	defaultDialogueCollection  = "dialogue"
	defaultResults             = 5

	storeFile = "store.veclite"
)

// Config holds configuration for the DualStore.
type Config struct {
	// BaseDir is the directory holding both stores. The narrative store
	// lives under BaseDir/narrative and the dialogue store under
	// BaseDir/dialogue.
	BaseDir string

	// Collection names. Defaults apply when empty.
	NarrativeCollection string
	DialogueCollection  string

	// Embedders for each store. When nil, the embedder configured in
	// veclite.yaml is used.
	NarrativeEmbedder veclite.Embedder
	DialogueEmbedder  veclite.Embedder

	// Default result counts for queries that don't specify one.
	NarrativeResults int
	DialogueResults  int

	// ConfigPath is the path to veclite.yaml (optional). If empty,
	// searches ./veclite.yaml, ~/.veclite/config.yaml.
	ConfigPath string
}

func (c *Config) applyDefaults() {
	if c.NarrativeCollection == "" {
		c.NarrativeCollection = defaultNarrativeCollection
	}
	if c.DialogueCollection == "" {
		c.DialogueCollection = defaultDialogueCollection
	}
	if c.NarrativeResults <= 0 {
		c.NarrativeResults = defaultResults
	}
	if c.DialogueResults <= 0 {
		c.DialogueResults = defaultResults
	}
}

// store bundles one VecLite database with its collection and embedder.
type store struct {
	db       *veclite.DB
	coll     *veclite.Collection
	embedder veclite.Embedder
	name     string
	path     string
}

// DualStore manages the narrative and dialogue vector stores as a pair.
type DualStore struct {
	cfg       Config
	narrative *store
	dialogue  *store
}

// New opens (or creates) both stores under cfg.BaseDir.
func New(cfg Config) (*DualStore, error) {
	cfg.applyDefaults()

	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	ds := &DualStore{cfg: cfg}
	if err := ds.open(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (ds *DualStore) open() error {
	narrative, err := openStore(
		filepath.Join(ds.cfg.BaseDir, "narrative"),
		ds.cfg.NarrativeCollection,
		ds.cfg.NarrativeEmbedder,
		ds.cfg.ConfigPath,
		[]string{"semantic_type", "entities", "themes"},
	)
	if err != nil {
		return fmt.Errorf("open narrative store: %w", err)
	}

	dialogueStore, err := openStore(
		filepath.Join(ds.cfg.BaseDir, "dialogue"),
		ds.cfg.DialogueCollection,
		ds.cfg.DialogueEmbedder,
		ds.cfg.ConfigPath,
		[]string{"type", "character", "emotion", "setting"},
	)
	if err != nil {
		narrative.db.Close()
		return fmt.Errorf("open dialogue store: %w", err)
	}

	ds.narrative = narrative
	ds.dialogue = dialogueStore
	return nil
}

func openStore(dir, collection string, embedder veclite.Embedder, configPath string, textFields []string) (*store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	if embedder == nil {
		vecliteCfg, err := veclite.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("load veclite config: %w", err)
		}
		embedder, err = veclite.NewEmbedderFromConfig(vecliteCfg.Embedder)
		if err != nil {
			return nil, fmt.Errorf("create embedder: %w", err)
		}
	}

	path := filepath.Join(dir, storeFile)
	vecdb, err := veclite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open veclite database: %w", err)
	}

	coll, err := vecdb.CreateCollection(collection,
		veclite.WithDimension(embedder.Dimension()),
		veclite.WithDistanceType(veclite.DistanceCosine),
		veclite.WithHNSW(16, 200),
		veclite.WithTextIndex(textFields...),
		veclite.WithEmbedder(embedder),
	)
	if err != nil {
		// Collection likely exists already, try getting it
		coll, err = vecdb.GetCollection(collection)
		if err != nil {
			vecdb.Close()
			return nil, fmt.Errorf("get collection %q: %w", collection, err)
		}
		slog.Debug("using existing collection", "name", collection, "count", coll.Count())
	} else {
		slog.Info("created collection",
			"name", collection,
			"dimension", embedder.Dimension(),
			"path", path,
		)
	}

	return &store{
		db:       vecdb,
		coll:     coll,
		embedder: embedder,
		name:     collection,
		path:     path,
	}, nil
}

// IndexResult summarizes what an indexing pass wrote.
type IndexResult struct {
	SectionChunks     int           `json:"section_chunks"`
	SceneChunks       int           `json:"scene_chunks"`
	DialogueChunks    int           `json:"dialogue_chunks"`
	ProfileChunks     int           `json:"profile_chunks"`
	CharactersIndexed int           `json:"characters_indexed"`
	Duration          time.Duration `json:"duration"`
}

// Total returns the total number of records written.
func (r IndexResult) Total() int {
	return r.SectionChunks + r.SceneChunks + r.DialogueChunks + r.ProfileChunks
}

// IndexNarrative writes every section of the index into the narrative
// store. Each record carries the section's classification, entities and
// themes so queries can filter on them.
func (ds *DualStore) IndexNarrative(ctx context.Context, idx *chunker.SectionIndex) (IndexResult, error) {
	start := time.Now()
	var result IndexResult

	for _, section := range idx.Sections {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		payload := map[string]any{
			"type":              "section",
			"section_id":        section.SectionID,
			"chapter_number":    section.ChapterNumber,
			"section_index":     section.SectionIndex,
			"semantic_type":     section.SemanticType,
			"entities":          jsonList(section.Entities),
			"themes":            jsonList(section.Themes),
			"token_count":       section.TokenCount,
			"parent_chapter_id": section.ParentChapterID,
		}

		if _, err := ds.narrative.coll.InsertText(sectionContent(section), payload); err != nil {
			return result, fmt.Errorf("insert section %s: %w", section.SectionID, err)
		}
		result.SectionChunks++
	}

	result.Duration = time.Since(start)
	slog.Info("indexed narrative sections",
		"sections", result.SectionChunks,
		"duration", result.Duration,
	)
	return result, nil
}

// IndexDialogue writes three kinds of records into the dialogue store:
// whole scenes, individual character utterances, and character profiles.
func (ds *DualStore) IndexDialogue(ctx context.Context, idx *dialogue.Index) (IndexResult, error) {
	start := time.Now()
	var result IndexResult

	for _, scene := range idx.Scenes {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		payload := map[string]any{
			"type":           "scene",
			"scene_id":       scene.SceneID,
			"chapter_number": scene.ChapterNumber,
			"participants":   jsonList(scene.Participants),
			"setting":        scene.Setting,
			"dialogue_count": len(scene.Dialogues),
		}

		if _, err := ds.dialogue.coll.InsertText(sceneContent(scene), payload); err != nil {
			return result, fmt.Errorf("insert scene %s: %w", scene.SceneID, err)
		}
		result.SceneChunks++
	}

	for _, character := range idx.Characters {
		dialogues := idx.ByCharacter[character]
		if len(dialogues) == 0 {
			continue
		}
		result.CharactersIndexed++

		for i, d := range dialogues {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			payload := map[string]any{
				"type":           "character_dialogue",
				"character":      d.Character,
				"addressee":      d.Addressee,
				"emotion":        d.Emotion,
				"chapter_number": d.ChapterNumber,
				"scene_id":       d.SceneID,
				"section_id":     d.SectionID,
				"actions":        jsonList(d.Actions),
			}

			if _, err := ds.dialogue.coll.InsertText(characterDialogueContent(d), payload); err != nil {
				return result, fmt.Errorf("insert dialogue %s_%s_%d: %w", character, d.SceneID, i, err)
			}
			result.DialogueChunks++
		}
	}

	for _, character := range sortedProfileNames(idx.Profiles) {
		for _, profile := range idx.Profiles[character] {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			payload := map[string]any{
				"type":               "character_profile",
				"character":          profile.Name,
				"chapter_number":     profile.ChapterNumber,
				"personality_traits": strings.Join(profile.PersonalityTraits, ", "),
				"motivations":        strings.Join(profile.Motivations, ", "),
				"emotional_state":    profile.EmotionalState,
				"dialogue_count":     profile.DialogueCount,
			}

			doc, err := profile.JSONString()
			if err != nil {
				return result, fmt.Errorf("render profile for %s chapter %d: %w", profile.Name, profile.ChapterNumber, err)
			}
			if _, err := ds.dialogue.coll.InsertText(doc, payload); err != nil {
				return result, fmt.Errorf("insert profile for %s chapter %d: %w", profile.Name, profile.ChapterNumber, err)
			}
			result.ProfileChunks++
		}
	}

	result.Duration = time.Since(start)
	slog.Info("indexed dialogue records",
		"scenes", result.SceneChunks,
		"dialogues", result.DialogueChunks,
		"profiles", result.ProfileChunks,
		"characters", result.CharactersIndexed,
		"duration", result.Duration,
	)
	return result, nil
}

// Reset drops both stores from disk and reopens them empty. Safe to call
// on a store that was never populated.
func (ds *DualStore) Reset() error {
	ds.closeStores()

	for _, dir := range []string{
		filepath.Join(ds.cfg.BaseDir, "narrative"),
		filepath.Join(ds.cfg.BaseDir, "dialogue"),
	} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
	}

	if err := ds.open(); err != nil {
		return fmt.Errorf("reopen stores: %w", err)
	}

	slog.Info("reset vector stores", "base_dir", ds.cfg.BaseDir)
	return nil
}

// CollectionStats describes one store.
type CollectionStats struct {
	Collection string `json:"collection"`
	Documents  int    `json:"document_count"`
	Path       string `json:"path"`
}

// Stats reports document counts for both stores.
type Stats struct {
	Narrative      CollectionStats `json:"narrative"`
	Dialogue       CollectionStats `json:"dialogue"`
	TotalDocuments int             `json:"total_documents"`
}

// GetStats returns current document counts for both stores.
func (ds *DualStore) GetStats() Stats {
	s := Stats{
		Narrative: CollectionStats{
			Collection: ds.narrative.name,
			Documents:  ds.narrative.coll.Count(),
			Path:       ds.narrative.path,
		},
		Dialogue: CollectionStats{
			Collection: ds.dialogue.name,
			Documents:  ds.dialogue.coll.Count(),
			Path:       ds.dialogue.path,
		},
	}
	s.TotalDocuments = s.Narrative.Documents + s.Dialogue.Documents
	return s
}

// Sync flushes both stores to disk.
func (ds *DualStore) Sync() error {
	if err := ds.narrative.db.Sync(); err != nil {
		return fmt.Errorf("sync narrative store: %w", err)
	}
	if err := ds.dialogue.db.Sync(); err != nil {
		return fmt.Errorf("sync dialogue store: %w", err)
	}
	return nil
}

// Close closes both stores.
func (ds *DualStore) Close() error {
	return ds.closeStores()
}

func (ds *DualStore) closeStores() error {
	var firstErr error
	if ds.narrative != nil {
		if err := ds.narrative.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close narrative store: %w", err)
		}
		ds.narrative = nil
	}
	if ds.dialogue != nil {
		if err := ds.dialogue.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close dialogue store: %w", err)
		}
		ds.dialogue = nil
	}
	return firstErr
}

// jsonList serializes a string slice for storage in a payload field.
// Payload values must be scalar, so lists are stored as JSON text.
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

func sortedProfileNames(profiles map[string][]dialogue.Profile) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
