package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexRunLifecycle(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	t.Run("create and fetch", func(t *testing.T) {
		require.NoError(t, store.CreateIndexRun(ctx, "run-1"))

		run, err := store.GetIndexRun(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, "run-1", run.ID)
		assert.Equal(t, RunStatusRunning, run.Status)
		assert.False(t, run.FinishedAt.Valid)
	})

	t.Run("finish records counts", func(t *testing.T) {
		require.NoError(t, store.FinishIndexRun(ctx, FinishIndexRunParams{
			ID:            "run-1",
			ChapterCount:  3,
			SectionCount:  12,
			SceneCount:    5,
			DialogueCount: 40,
			ProfileCount:  4,
		}))

		run, err := store.GetIndexRun(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, RunStatusCompleted, run.Status)
		assert.True(t, run.FinishedAt.Valid)
		assert.Equal(t, int64(12), run.SectionCount)
		assert.Equal(t, int64(40), run.DialogueCount)
	})

	t.Run("fail records message", func(t *testing.T) {
		require.NoError(t, store.CreateIndexRun(ctx, "run-2"))
		require.NoError(t, store.FailIndexRun(ctx, "run-2", "model unavailable"))

		run, err := store.GetIndexRun(ctx, "run-2")
		require.NoError(t, err)
		assert.Equal(t, RunStatusFailed, run.Status)
		assert.Equal(t, "model unavailable", run.ErrorMessage.String)
	})

	t.Run("latest run", func(t *testing.T) {
		run, err := store.LatestIndexRun(ctx)
		require.NoError(t, err)
		assert.Equal(t, "run-2", run.ID)
	})
}

func TestCatalogInserts(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateIndexRun(ctx, "run-1"))

	require.NoError(t, store.InsertChapter(ctx, InsertChapterParams{
		ID: "chapter_1", RunID: "run-1", ChapterNumber: 1,
		Title: "The Gathering", Summary: "The family meets.",
		SectionCount: 2, TokenCount: 900, Tags: `["family","conflict"]`,
	}))

	require.NoError(t, store.InsertSection(ctx, InsertSectionParams{
		ID: "ch1_sec0", RunID: "run-1", ChapterNumber: 1, SectionIndex: 0,
		SemanticType: "narrative", TokenCount: 450,
		Entities: `["Ivan"]`, Themes: `["doubt"]`,
	}))
	require.NoError(t, store.InsertSection(ctx, InsertSectionParams{
		ID: "ch1_sec1", RunID: "run-1", ChapterNumber: 1, SectionIndex: 1,
		SemanticType: "dialogue", TokenCount: 450,
	}))

	require.NoError(t, store.InsertScene(ctx, InsertSceneParams{
		ID: "ch1_scene0", RunID: "run-1", ChapterNumber: 1,
		Setting: "the tavern", Participants: `["Ivan","Alyosha"]`, DialogueCount: 2,
	}))

	require.NoError(t, store.InsertDialogue(ctx, InsertDialogueParams{
		RunID: "run-1", SceneID: "ch1_scene0", ChapterNumber: 1,
		Character: "Ivan", Addressee: "Alyosha", Emotion: "anxious",
		Utterance: "I must tell you something.",
	}))
	require.NoError(t, store.InsertDialogue(ctx, InsertDialogueParams{
		RunID: "run-1", SceneID: "ch1_scene0", ChapterNumber: 1,
		Character: "Alyosha", Addressee: "Ivan", Emotion: "curious",
		Utterance: "What is it?",
	}))
	require.NoError(t, store.InsertDialogue(ctx, InsertDialogueParams{
		RunID: "run-1", SceneID: "ch1_scene0", ChapterNumber: 1,
		Character: "Ivan", Addressee: "Alyosha", Emotion: "defiant",
		Utterance: "Everything is permitted.",
	}))

	require.NoError(t, store.InsertProfile(ctx, InsertProfileParams{
		ID: "profile_ivan_ch1", RunID: "run-1", Character: "Ivan",
		ChapterNumber: 1, EmotionalState: "tormented", DialogueCount: 2,
		ProfileJSON: `{"name":"Ivan"}`,
	}))

	sections, err := store.CountSections(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sections)

	scenes, err := store.CountScenes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), scenes)

	dialogues, err := store.CountDialogues(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), dialogues)

	profiles, err := store.CountProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profiles)

	characters, err := store.ListCharacters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ivan", "Alyosha"}, characters)

	chapters, err := store.ListChapters(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.Equal(t, "The Gathering", chapters[0].Title)
	assert.Equal(t, int64(2), chapters[0].SectionCount)
}

func TestRunDeleteCascades(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateIndexRun(ctx, "run-1"))
	require.NoError(t, store.InsertSection(ctx, InsertSectionParams{
		ID: "ch1_sec0", RunID: "run-1", ChapterNumber: 1, SemanticType: "narrative",
	}))

	_, err := store.ExecContext(ctx, "DELETE FROM index_runs WHERE id = ?", "run-1")
	require.NoError(t, err)

	count, err := store.CountSections(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
