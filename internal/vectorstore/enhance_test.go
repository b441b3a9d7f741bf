package vectorstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdulachik/booksouls/internal/chunker"
	"github.com/abdulachik/booksouls/internal/dialogue"
)

func TestSectionContent(t *testing.T) {
	t.Run("full header", func(t *testing.T) {
		content := sectionContent(chunker.SectionChunk{
			ChapterNumber: 3,
			SectionIndex:  2,
			SemanticType:  "dialogue",
			Entities:      []string{"Ivan", "Alyosha"},
			Themes:        []string{"doubt", "faith"},
			Content:       "The brothers spoke late into the night.",
		})

		assert.True(t, strings.HasPrefix(content, "Chapter 3 - Section 2\n[DIALOGUE]\n"))
		assert.Contains(t, content, "Entities: Ivan, Alyosha\n")
		assert.Contains(t, content, "Themes: doubt, faith\n")
		assert.Contains(t, content, "\n--- Section Content ---\nThe brothers spoke late into the night.")
	})

	t.Run("omits empty entity and theme lines", func(t *testing.T) {
		content := sectionContent(chunker.SectionChunk{
			ChapterNumber: 1,
			SectionIndex:  0,
			SemanticType:  "narrative",
			Content:       "It was a dark morning.",
		})

		assert.NotContains(t, content, "Entities:")
		assert.NotContains(t, content, "Themes:")
		assert.Contains(t, content, "[NARRATIVE]")
	})
}

func TestSceneContent(t *testing.T) {
	scene := dialogue.Scene{
		SceneID:       "ch2_scene0",
		Setting:       "the tavern",
		Participants:  []string{"Ivan", "Alyosha"},
		ChapterNumber: 2,
		Dialogues: []dialogue.Dialogue{
			{Character: "Ivan", Utterance: "I must tell you something.", Addressee: "Alyosha", Emotion: "anxious", Actions: []string{"leans forward"}},
			{Character: "Alyosha", Utterance: "What is it?", Addressee: "Unknown", Emotion: "curious"},
		},
	}

	content := sceneContent(scene)

	assert.True(t, strings.HasPrefix(content, "Scene: the tavern\nParticipants: Ivan, Alyosha\n\n"))
	assert.Contains(t, content, "[Ivan]: \"I must tell you something.\"\nActions: leans forward\nEmotion: anxious\nSpeaking to: Alyosha\n")
	// unknown addressee is not rendered
	assert.Contains(t, content, "[Alyosha]: \"What is it?\"\nEmotion: curious\n")
	assert.NotContains(t, content, "Speaking to: Unknown")
}

func TestSceneContentNoSetting(t *testing.T) {
	content := sceneContent(dialogue.Scene{
		Dialogues: []dialogue.Dialogue{
			{Character: "Tom", Utterance: "Hello.", Addressee: "Mary", Emotion: "neutral"},
		},
	})

	assert.True(t, strings.HasPrefix(content, "[Tom]: \"Hello.\"\n"))
	assert.NotContains(t, content, "Scene:")
	assert.NotContains(t, content, "Participants:")
}

func TestCharacterDialogueContent(t *testing.T) {
	t.Run("with actions and scene context", func(t *testing.T) {
		content := characterDialogueContent(dialogue.Dialogue{
			Character:     "Ivan",
			Utterance:     "Everything is permitted.",
			Addressee:     "Alyosha",
			Emotion:       "defiant",
			Actions:       []string{"stands abruptly", "paces the room"},
			Context:       "The brothers argue about faith.",
			ChapterNumber: 5,
		})

		assert.True(t, strings.HasPrefix(content, "[Ivan]: \"Everything is permitted.\"\n\n"))
		assert.Contains(t, content, "Context: Chapter 5\n")
		assert.Contains(t, content, "Speaking to: Alyosha\n")
		assert.Contains(t, content, "Emotion: defiant\n")
		assert.Contains(t, content, "Actions: stands abruptly, paces the room\n")
		assert.Contains(t, content, "Scene Context: The brothers argue about faith.\n")
	})

	t.Run("minimal", func(t *testing.T) {
		content := characterDialogueContent(dialogue.Dialogue{
			Character:     "Mary",
			Utterance:     "Yes.",
			Addressee:     "Unknown",
			Emotion:       "neutral",
			ChapterNumber: 1,
		})

		assert.NotContains(t, content, "Actions:")
		assert.NotContains(t, content, "Scene Context:")
		assert.Contains(t, content, "Speaking to: Unknown\n")
	})
}
