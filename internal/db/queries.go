package db

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the subset of database/sql used by query methods, satisfied by
// both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries provides typed access to the catalog tables.
type Queries struct {
	db DBTX
}

// New creates Queries over a database or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// IndexRun records one indexing pass over the book.
type IndexRun struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    sql.NullTime
	Status        string
	ChapterCount  int64
	SectionCount  int64
	SceneCount    int64
	DialogueCount int64
	ProfileCount  int64
	ErrorMessage  sql.NullString
}

// CreateIndexRun opens a new run in the running state.
func (q *Queries) CreateIndexRun(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO index_runs (id, status) VALUES (?, ?)`,
		id, RunStatusRunning,
	)
	return err
}

// FinishIndexRunParams carries the final counts for a completed run.
type FinishIndexRunParams struct {
	ID            string
	ChapterCount  int64
	SectionCount  int64
	SceneCount    int64
	DialogueCount int64
	ProfileCount  int64
}

// FinishIndexRun marks a run completed and records its counts.
func (q *Queries) FinishIndexRun(ctx context.Context, params FinishIndexRunParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE index_runs
		SET status = ?, finished_at = CURRENT_TIMESTAMP,
		    chapter_count = ?, section_count = ?, scene_count = ?,
		    dialogue_count = ?, profile_count = ?
		WHERE id = ?`,
		RunStatusCompleted,
		params.ChapterCount, params.SectionCount, params.SceneCount,
		params.DialogueCount, params.ProfileCount,
		params.ID,
	)
	return err
}

// FailIndexRun marks a run failed with an error message.
func (q *Queries) FailIndexRun(ctx context.Context, id, message string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE index_runs
		SET status = ?, finished_at = CURRENT_TIMESTAMP, error_message = ?
		WHERE id = ?`,
		RunStatusFailed, message, id,
	)
	return err
}

// GetIndexRun fetches one run by id.
func (q *Queries) GetIndexRun(ctx context.Context, id string) (IndexRun, error) {
	var run IndexRun
	err := q.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, status,
		       chapter_count, section_count, scene_count, dialogue_count, profile_count,
		       error_message
		FROM index_runs WHERE id = ?`, id,
	).Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status,
		&run.ChapterCount, &run.SectionCount, &run.SceneCount,
		&run.DialogueCount, &run.ProfileCount,
		&run.ErrorMessage,
	)
	return run, err
}

// LatestIndexRun fetches the most recently started run.
func (q *Queries) LatestIndexRun(ctx context.Context) (IndexRun, error) {
	var run IndexRun
	err := q.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, status,
		       chapter_count, section_count, scene_count, dialogue_count, profile_count,
		       error_message
		FROM index_runs ORDER BY started_at DESC, id DESC LIMIT 1`,
	).Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status,
		&run.ChapterCount, &run.SectionCount, &run.SceneCount,
		&run.DialogueCount, &run.ProfileCount,
		&run.ErrorMessage,
	)
	return run, err
}

// InsertChapterParams describes one chapter row.
type InsertChapterParams struct {
	ID            string
	RunID         string
	ChapterNumber int64
	Title         string
	Summary       string
	SectionCount  int64
	TokenCount    int64
	Tags          string
}

// InsertChapter records a chapter's summary row.
func (q *Queries) InsertChapter(ctx context.Context, params InsertChapterParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO chapters (id, run_id, chapter_number, title, summary, section_count, token_count, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		params.ID, params.RunID, params.ChapterNumber, params.Title,
		params.Summary, params.SectionCount, params.TokenCount, params.Tags,
	)
	return err
}

// InsertSectionParams describes one section row.
type InsertSectionParams struct {
	ID            string
	RunID         string
	ChapterNumber int64
	SectionIndex  int64
	SemanticType  string
	TokenCount    int64
	Entities      string
	Themes        string
}

// InsertSection records a section's catalog row.
func (q *Queries) InsertSection(ctx context.Context, params InsertSectionParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO sections (id, run_id, chapter_number, section_index, semantic_type, token_count, entities, themes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		params.ID, params.RunID, params.ChapterNumber, params.SectionIndex,
		params.SemanticType, params.TokenCount, params.Entities, params.Themes,
	)
	return err
}

// InsertSceneParams describes one scene row.
type InsertSceneParams struct {
	ID            string
	RunID         string
	ChapterNumber int64
	Setting       string
	Participants  string
	DialogueCount int64
}

// InsertScene records a scene's catalog row.
func (q *Queries) InsertScene(ctx context.Context, params InsertSceneParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO scenes (id, run_id, chapter_number, setting, participants, dialogue_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		params.ID, params.RunID, params.ChapterNumber,
		params.Setting, params.Participants, params.DialogueCount,
	)
	return err
}

// InsertDialogueParams describes one utterance row.
type InsertDialogueParams struct {
	RunID         string
	SceneID       string
	ChapterNumber int64
	Character     string
	Addressee     string
	Emotion       string
	Utterance     string
}

// InsertDialogue records one utterance.
func (q *Queries) InsertDialogue(ctx context.Context, params InsertDialogueParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO dialogues (run_id, scene_id, chapter_number, character, addressee, emotion, utterance)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		params.RunID, params.SceneID, params.ChapterNumber,
		params.Character, params.Addressee, params.Emotion, params.Utterance,
	)
	return err
}

// InsertProfileParams describes one character profile row.
type InsertProfileParams struct {
	ID             string
	RunID          string
	Character      string
	ChapterNumber  int64
	EmotionalState string
	DialogueCount  int64
	ProfileJSON    string
}

// InsertProfile records a character profile snapshot.
func (q *Queries) InsertProfile(ctx context.Context, params InsertProfileParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO profiles (id, run_id, character, chapter_number, emotional_state, dialogue_count, profile_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		params.ID, params.RunID, params.Character, params.ChapterNumber,
		params.EmotionalState, params.DialogueCount, params.ProfileJSON,
	)
	return err
}

// CountSections returns the number of section rows.
func (q *Queries) CountSections(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sections`).Scan(&count)
	return count, err
}

// CountScenes returns the number of scene rows.
func (q *Queries) CountScenes(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenes`).Scan(&count)
	return count, err
}

// CountDialogues returns the number of utterance rows.
func (q *Queries) CountDialogues(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dialogues`).Scan(&count)
	return count, err
}

// CountProfiles returns the number of profile rows.
func (q *Queries) CountProfiles(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	return count, err
}

// ListCharacters returns distinct character names ordered by how often
// they speak.
func (q *Queries) ListCharacters(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT character FROM dialogues
		GROUP BY character ORDER BY COUNT(*) DESC, character`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ChapterRow is a chapter summary row.
type ChapterRow struct {
	ID            string
	ChapterNumber int64
	Title         string
	Summary       string
	SectionCount  int64
	TokenCount    int64
	Tags          string
}

// ListChapters returns the chapters of one run ordered by number.
func (q *Queries) ListChapters(ctx context.Context, runID string) ([]ChapterRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, chapter_number, title, summary, section_count, token_count, tags
		FROM chapters WHERE run_id = ? ORDER BY chapter_number`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []ChapterRow
	for rows.Next() {
		var ch ChapterRow
		if err := rows.Scan(&ch.ID, &ch.ChapterNumber, &ch.Title, &ch.Summary,
			&ch.SectionCount, &ch.TokenCount, &ch.Tags); err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}
