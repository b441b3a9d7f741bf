package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulachik/booksouls/internal/chunker"
	"github.com/abdulachik/booksouls/internal/llm"
)

// fakeCompleter routes extraction and analysis prompts to canned responses.
type fakeCompleter struct {
	extraction        string
	extractionErr     error
	analysis          string
	analysisErr       error
	extractionCalls   int
	analysisCalls     int
	perCallExtraction []string          // overrides extraction per call when set
	analysisByName    map[string]string // overrides analysis per character when set
}

func (f *fakeCompleter) Complete(ctx context.Context, system, prompt string, opts llm.Options) (string, error) {
	if strings.Contains(prompt, "Extract from this text") {
		f.extractionCalls++
		if f.extractionErr != nil {
			return "", f.extractionErr
		}
		if len(f.perCallExtraction) > 0 {
			response := f.perCallExtraction[0]
			f.perCallExtraction = f.perCallExtraction[1:]
			return response, nil
		}
		return f.extraction, nil
	}
	f.analysisCalls++
	if f.analysisErr != nil {
		return "", f.analysisErr
	}
	for name, response := range f.analysisByName {
		if strings.Contains(prompt, name) {
			return response, nil
		}
	}
	return f.analysis, nil
}

const sceneResponse = `{
  "dialogues": [
    {
      "speaker": "Ivan",
      "dialogue": "Why is such a child made to suffer?",
      "addressee": "Alyosha",
      "emotion": "anguished",
      "actions": ["pacing"],
      "context": "arguing about faith"
    },
    {
      "speaker": "Alyosha",
      "dialogue": "I do not know, brother.",
      "addressee": "Ivan",
      "emotion": "sorrowful",
      "actions": [],
      "context": "listening"
    }
  ],
  "scene_setting": "the tavern",
  "participants": ["Ivan", "Alyosha"]
}`

const profileResponse = `{
  "character_name": "Ivan",
  "personality_traits": [
    {"trait": "intellectual", "manifestation": "argues from first principles"},
    "tormented"
  ],
  "motivations": ["understanding suffering"],
  "voice": {"vocabulary": "sophisticated"},
  "emotional_profile": {"current_state": "anguished"},
  "relationships": {"Alyosha": {"dynamic": "protective older brother"}}
}`

func dialogueChapter(number int, segments ...string) chunker.Chapter {
	chunks := make([]chunker.Segment, len(segments))
	for i, s := range segments {
		chunks[i] = chunker.Segment{Text: s, TokenCount: 200}
	}
	return chunker.Chapter{
		Number: number,
		Title:  "Rebellion",
		Chunks: chunks,
	}
}

func TestHasDialogueMarkers(t *testing.T) {
	assert.True(t, hasDialogueMarkers(`"Hello," said Tom.`))
	assert.True(t, hasDialogueMarkers(`'Hello,' said Tom.`))
	assert.True(t, hasDialogueMarkers("“Hello,” said Tom."))
	assert.True(t, hasDialogueMarkers("‘Hello’"))
	assert.False(t, hasDialogueMarkers("The rain fell on the monastery roof."))
	assert.False(t, hasDialogueMarkers(""))
}

func TestBuildIndex(t *testing.T) {
	t.Run("builds scenes and character groupings", func(t *testing.T) {
		completer := &fakeCompleter{extraction: sceneResponse, analysis: profileResponse}
		extractor := NewExtractor(completer, DefaultConfig())

		chapter := dialogueChapter(5, `"Why is such a child made to suffer?" Ivan asked.`)
		idx, err := extractor.BuildIndex(context.Background(), []chunker.Chapter{chapter})
		require.NoError(t, err)

		require.Len(t, idx.Scenes, 1)
		scene := idx.Scenes[0]
		assert.Equal(t, "ch5_scene0", scene.SceneID)
		assert.Equal(t, "the tavern", scene.Setting)
		assert.Equal(t, []string{"Ivan", "Alyosha"}, scene.Participants)
		assert.Equal(t, 5, scene.ChapterNumber)
		require.Len(t, scene.Dialogues, 2)
		assert.Equal(t, "ch5_sec0", scene.Dialogues[0].SectionID)

		assert.Equal(t, 2, idx.TotalDialogues)
		assert.Equal(t, 1, idx.TotalScenes)
		assert.Equal(t, []string{"Ivan", "Alyosha"}, idx.Characters)
		assert.Len(t, idx.ByCharacter["Ivan"], 1)
		assert.Len(t, idx.ByChapter[5], 1)
		assert.Equal(t, []int{5}, idx.ChaptersCovered)
	})

	t.Run("skips segments without quote markers", func(t *testing.T) {
		completer := &fakeCompleter{extraction: sceneResponse, analysis: profileResponse}
		extractor := NewExtractor(completer, DefaultConfig())

		chapter := dialogueChapter(1,
			"Pure narration with no speech at all.",
			`"Spoken words," she said.`)
		_, err := extractor.BuildIndex(context.Background(), []chunker.Chapter{chapter})
		require.NoError(t, err)
		assert.Equal(t, 1, completer.extractionCalls)
	})

	t.Run("scene ids are monotonic and skip failed segments", func(t *testing.T) {
		completer := &fakeCompleter{
			analysis: profileResponse,
			perCallExtraction: []string{
				sceneResponse,
				"no json here at all",
				sceneResponse,
			},
		}
		extractor := NewExtractor(completer, DefaultConfig())

		chapter := dialogueChapter(2,
			`"First," he said.`,
			`"Second," he said.`,
			`"Third," he said.`)
		idx, err := extractor.BuildIndex(context.Background(), []chunker.Chapter{chapter})
		require.NoError(t, err)

		require.Len(t, idx.Scenes, 2)
		// The failed middle segment does not consume a scene number, but
		// section ids still reflect segment position.
		assert.Equal(t, "ch2_scene0", idx.Scenes[0].SceneID)
		assert.Equal(t, "ch2_scene1", idx.Scenes[1].SceneID)
		assert.Equal(t, "ch2_sec0", idx.Scenes[0].Dialogues[0].SectionID)
		assert.Equal(t, "ch2_sec2", idx.Scenes[1].Dialogues[0].SectionID)
	})

	t.Run("scene counters reset per chapter", func(t *testing.T) {
		completer := &fakeCompleter{extraction: sceneResponse, analysis: profileResponse}
		extractor := NewExtractor(completer, DefaultConfig())

		chapters := []chunker.Chapter{
			dialogueChapter(1, `"One," he said.`),
			dialogueChapter(2, `"Two," he said.`),
		}
		idx, err := extractor.BuildIndex(context.Background(), chapters)
		require.NoError(t, err)

		require.Len(t, idx.Scenes, 2)
		assert.Equal(t, "ch1_scene0", idx.Scenes[0].SceneID)
		assert.Equal(t, "ch2_scene0", idx.Scenes[1].SceneID)
	})

	t.Run("name variants merge across chapters", func(t *testing.T) {
		sceneA := `{
  "dialogues": [{"speaker": "Ivan Karamazov", "dialogue": "It is hot.", "addressee": "Alyosha", "emotion": "calm"}],
  "participants": ["Ivan Karamazov"]
}`
		sceneB := `{
  "dialogues": [{"speaker": "Karamazov Ivan", "dialogue": "It is cold.", "addressee": "Alyosha", "emotion": "calm"}],
  "participants": ["Karamazov Ivan"]
}`
		completer := &fakeCompleter{
			analysis:          profileResponse,
			perCallExtraction: []string{sceneA, sceneB},
		}
		extractor := NewExtractor(completer, DefaultConfig())

		chapters := []chunker.Chapter{
			dialogueChapter(1, `"It is hot," said Ivan Karamazov.`),
			dialogueChapter(2, `"It is cold," said Karamazov Ivan.`),
		}
		idx, err := extractor.BuildIndex(context.Background(), chapters)
		require.NoError(t, err)

		// The first-seen spelling wins everywhere: the character list, the
		// dialogue grouping, the scenes, and the profile keys.
		assert.Equal(t, []string{"Ivan Karamazov"}, idx.Characters)
		assert.Len(t, idx.ByCharacter["Ivan Karamazov"], 2)
		assert.NotContains(t, idx.ByCharacter, "Karamazov Ivan")

		require.Len(t, idx.Scenes, 2)
		assert.Equal(t, "Ivan Karamazov", idx.Scenes[1].Dialogues[0].Character)
		assert.Equal(t, []string{"Ivan Karamazov"}, idx.Scenes[1].Participants)

		require.Contains(t, idx.Profiles, "Ivan Karamazov")
		assert.NotContains(t, idx.Profiles, "Karamazov Ivan")
		assert.Len(t, idx.Profiles["Ivan Karamazov"], 2)

		evolution := idx.GetCharacterEvolution("Ivan Karamazov")
		require.Len(t, evolution, 2)
		assert.Equal(t, 1, evolution[0].ChapterNumber)
		assert.Equal(t, 2, evolution[1].ChapterNumber)
	})

	t.Run("extraction failures skip the segment", func(t *testing.T) {
		completer := &fakeCompleter{extractionErr: errors.New("model down")}
		extractor := NewExtractor(completer, DefaultConfig())

		chapter := dialogueChapter(1, `"Hello," he said.`)
		idx, err := extractor.BuildIndex(context.Background(), []chunker.Chapter{chapter})
		require.NoError(t, err)
		assert.Empty(t, idx.Scenes)
		assert.Zero(t, idx.TotalDialogues)
	})

	t.Run("cancelled context aborts the build", func(t *testing.T) {
		completer := &fakeCompleter{extraction: sceneResponse}
		extractor := NewExtractor(completer, DefaultConfig())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		chapter := dialogueChapter(1, `"Hello," he said.`)
		_, err := extractor.BuildIndex(ctx, []chunker.Chapter{chapter})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestExtractScene(t *testing.T) {
	t.Run("missing fields get defaults", func(t *testing.T) {
		completer := &fakeCompleter{extraction: `{
  "dialogues": [{"dialogue": "A voice in the dark."}],
  "participants": []
}`}
		extractor := NewExtractor(completer, DefaultConfig())

		scene := extractor.extractScene(context.Background(), "some text", 3, "ch3_scene0", "ch3_sec0")
		require.NotNil(t, scene)
		require.Len(t, scene.Dialogues, 1)
		d := scene.Dialogues[0]
		assert.Equal(t, "Unknown", d.Character)
		assert.Equal(t, "Unknown", d.Addressee)
		assert.Equal(t, "neutral", d.Emotion)
		assert.Equal(t, "ch3_scene0", d.SceneID)
	})

	t.Run("malformed JSON yields nil", func(t *testing.T) {
		completer := &fakeCompleter{extraction: `{"dialogues": [}`}
		extractor := NewExtractor(completer, DefaultConfig())

		scene := extractor.extractScene(context.Background(), "text", 1, "s", "sec")
		assert.Nil(t, scene)
	})

	t.Run("response without JSON yields nil", func(t *testing.T) {
		completer := &fakeCompleter{extraction: "I found no dialogue in this passage."}
		extractor := NewExtractor(completer, DefaultConfig())

		scene := extractor.extractScene(context.Background(), "text", 1, "s", "sec")
		assert.Nil(t, scene)
	})

	t.Run("scene context is the truncated source text", func(t *testing.T) {
		completer := &fakeCompleter{extraction: sceneResponse}
		extractor := NewExtractor(completer, DefaultConfig())

		long := strings.Repeat("a", 300)
		scene := extractor.extractScene(context.Background(), long, 1, "s", "sec")
		require.NotNil(t, scene)
		assert.Equal(t, strings.Repeat("a", 200)+"...", scene.Context)

		short := "short text"
		scene = extractor.extractScene(context.Background(), short, 1, "s", "sec")
		require.NotNil(t, scene)
		assert.Equal(t, short, scene.Context)
	})
}
