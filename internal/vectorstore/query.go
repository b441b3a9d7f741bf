package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abdul-hamid-achik/veclite"
)

// Result is a single retrieved record.
type Result struct {
	ID      uint64         `json:"id"`
	Content string         `json:"content"`
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload,omitempty"`
}

// QueryResult carries the hits along with how the query was actually
// executed: the expanded query text, the filters applied, and whether
// they had to be dropped.
type QueryResult struct {
	Query          string    `json:"query"`
	OriginalQuery  string    `json:"original_query"`
	Filters        Predicate `json:"-"`
	FiltersText    string    `json:"filters_applied"`
	FiltersDropped bool      `json:"filters_dropped"`
	StoreType      string    `json:"store_type"`
	Results        []Result  `json:"results"`
}

// NarrativeQuery selects narrative sections.
type NarrativeQuery struct {
	// Query is the free-text search.
	Query string

	// NResults caps how many hits to return. Zero means the store
	// default.
	NResults int

	// Facet filters. Zero values are not applied.
	SemanticType  string
	ChapterNumber int
	Entity        string
	Theme         string
}

func (q NarrativeQuery) predicate() Predicate {
	b := NewFilter()
	if q.SemanticType != "" {
		b.Equal("semantic_type", q.SemanticType)
	}
	if q.ChapterNumber > 0 {
		b.Equal("chapter_number", q.ChapterNumber)
	}
	return b.Build()
}

func (q NarrativeQuery) queryText() string {
	parts := []string{q.Query}
	if q.Entity != "" {
		parts = append(parts, fmt.Sprintf("entity %s", q.Entity))
	}
	if q.Theme != "" {
		parts = append(parts, fmt.Sprintf("theme %s", q.Theme))
	}
	return strings.Join(parts, " ")
}

// DialogueQuery selects dialogue records. Facet fields become metadata
// filters; the descriptive fields only enrich the embedded query text.
type DialogueQuery struct {
	// Query is the free-text search.
	Query string

	// NResults caps how many hits to return. Zero means the store
	// default.
	NResults int

	// Facet filters. Zero values are not applied.
	Type           string
	Character      string
	Addressee      string
	Emotion        string
	ChapterNumber  int
	SceneID        string
	EmotionalState string

	// Query enrichment only, never filtered on.
	Setting           string
	Participants      []string
	PersonalityTraits []string
}

// predicate collects the facet conditions in a fixed order so filter
// shape and logging stay deterministic.
func (q DialogueQuery) predicate() Predicate {
	b := NewFilter()
	if q.Type != "" {
		b.Equal("type", q.Type)
	}
	if q.Character != "" {
		b.Equal("character", q.Character)
	}
	if q.Addressee != "" {
		b.Equal("addressee", q.Addressee)
	}
	if q.Emotion != "" {
		b.Equal("emotion", q.Emotion)
	}
	if q.ChapterNumber > 0 {
		b.Equal("chapter_number", q.ChapterNumber)
	}
	if q.SceneID != "" {
		b.Equal("scene_id", q.SceneID)
	}
	if q.EmotionalState != "" {
		b.Equal("emotional_state", q.EmotionalState)
	}
	return b.Build()
}

// queryText expands the free-text query with the descriptive fields so
// the embedding leans toward the requested scene shape.
func (q DialogueQuery) queryText() string {
	parts := []string{q.Query}
	if q.Setting != "" {
		parts = append(parts, fmt.Sprintf("setting %s", q.Setting))
	}
	for _, p := range q.Participants {
		parts = append(parts, fmt.Sprintf("participant %s", p))
	}
	parts = append(parts, q.PersonalityTraits...)
	if q.Character != "" && q.Addressee != "" {
		parts = append(parts, fmt.Sprintf("%s speaking to %s", q.Character, q.Addressee))
	}
	if q.Emotion != "" {
		parts = append(parts, fmt.Sprintf("emotion %s", q.Emotion))
	}
	return strings.Join(parts, " ")
}

// searcher is the slice of the collection API queries need.
type searcher interface {
	Search(vector []float32, opts ...veclite.SearchOption) ([]veclite.Result, error)
}

// searchWithFallback runs a filtered search, and when the filtered form
// fails retries unfiltered so a bad filter degrades results instead of
// failing the query.
func searchWithFallback(coll searcher, vector []float32, n int, pred Predicate) ([]veclite.Result, bool, error) {
	if !pred.IsEmpty() {
		results, err := coll.Search(vector, veclite.TopK(n), veclite.WithFilter(pred.vecliteFilter()))
		if err == nil {
			return results, false, nil
		}
		slog.Warn("filtered search failed, retrying without filters",
			"filters", pred.String(),
			"error", err,
		)
		results, err = coll.Search(vector, veclite.TopK(n))
		return results, true, err
	}

	results, err := coll.Search(vector, veclite.TopK(n))
	return results, false, err
}

// QueryNarrative searches the narrative store.
func (ds *DualStore) QueryNarrative(ctx context.Context, q NarrativeQuery) (*QueryResult, error) {
	if q.NResults <= 0 {
		q.NResults = ds.cfg.NarrativeResults
	}
	return ds.query(ctx, ds.narrative, "narrative", q.queryText(), q.Query, q.NResults, q.predicate())
}

// QueryDialogue searches the dialogue store.
func (ds *DualStore) QueryDialogue(ctx context.Context, q DialogueQuery) (*QueryResult, error) {
	if q.NResults <= 0 {
		q.NResults = ds.cfg.DialogueResults
	}
	return ds.query(ctx, ds.dialogue, "dialogue", q.queryText(), q.Query, q.NResults, q.predicate())
}

func (ds *DualStore) query(ctx context.Context, s *store, storeType, queryText, original string, n int, pred Predicate) (*QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, dropped, err := searchWithFallback(s.coll, vector, n, pred)
	if err != nil {
		return nil, fmt.Errorf("search %s store: %w", storeType, err)
	}

	result := &QueryResult{
		Query:          queryText,
		OriginalQuery:  original,
		Filters:        pred,
		FiltersText:    pred.String(),
		FiltersDropped: dropped,
		StoreType:      storeType,
		Results:        convertResults(hits),
	}

	slog.Debug("vector query",
		"store", storeType,
		"query", queryText,
		"filters", pred.String(),
		"filters_dropped", dropped,
		"hits", len(result.Results),
	)
	return result, nil
}

func convertResults(hits []veclite.Result) []Result {
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		out = append(out, Result{
			ID:      h.Record.ID,
			Content: h.Record.Content,
			Score:   h.Score,
			Payload: h.Record.Payload,
		})
	}
	return out
}

// CharacterDialogues fetches a character's utterances, optionally only
// those spoken to a particular addressee.
func (ds *DualStore) CharacterDialogues(ctx context.Context, character, addressee string, limit int) (*QueryResult, error) {
	return ds.QueryDialogue(ctx, DialogueQuery{
		Query:     fmt.Sprintf("%s: all dialogues", character),
		NResults:  limit,
		Type:      "character_dialogue",
		Character: character,
		Addressee: addressee,
	})
}

// ChapterContent fetches narrative sections belonging to one chapter.
func (ds *DualStore) ChapterContent(ctx context.Context, chapter, limit int) (*QueryResult, error) {
	return ds.QueryNarrative(ctx, NarrativeQuery{
		Query:         fmt.Sprintf("chapter %d", chapter),
		NResults:      limit,
		ChapterNumber: chapter,
	})
}

// NarrativeByTheme fetches sections matching a theme, optionally within
// one chapter.
func (ds *DualStore) NarrativeByTheme(ctx context.Context, theme string, chapter, limit int) (*QueryResult, error) {
	return ds.QueryNarrative(ctx, NarrativeQuery{
		Query:         fmt.Sprintf("theme %s", theme),
		NResults:      limit,
		ChapterNumber: chapter,
	})
}

// CharacterProfiles fetches profile records for a character, optionally
// scoped to one chapter.
func (ds *DualStore) CharacterProfiles(ctx context.Context, character string, chapter, limit int) (*QueryResult, error) {
	return ds.QueryDialogue(ctx, DialogueQuery{
		Query:         fmt.Sprintf("%s character profile traits personality", character),
		NResults:      limit,
		Type:          "character_profile",
		Character:     character,
		ChapterNumber: chapter,
	})
}
