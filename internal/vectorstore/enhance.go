package vectorstore

import (
	"fmt"
	"strings"

	"github.com/abdulachik/booksouls/internal/chunker"
	"github.com/abdulachik/booksouls/internal/dialogue"
)

// sectionContent renders a narrative section with a structured header so
// the embedding captures its position, classification, entities and
// themes alongside the prose.
func sectionContent(section chunker.SectionChunk) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Chapter %d - Section %d\n", section.ChapterNumber, section.SectionIndex)
	fmt.Fprintf(&sb, "[%s]\n", strings.ToUpper(section.SemanticType))

	if len(section.Entities) > 0 {
		fmt.Fprintf(&sb, "Entities: %s\n", strings.Join(section.Entities, ", "))
	}
	if len(section.Themes) > 0 {
		fmt.Fprintf(&sb, "Themes: %s\n", strings.Join(section.Themes, ", "))
	}

	sb.WriteString("\n--- Section Content ---\n")
	sb.WriteString(section.Content)

	return sb.String()
}

// sceneContent renders a full scene as a transcript with setting,
// participants and per-line emotion annotations.
func sceneContent(scene dialogue.Scene) string {
	var sb strings.Builder

	if scene.Setting != "" {
		fmt.Fprintf(&sb, "Scene: %s\n", scene.Setting)
	}
	if len(scene.Participants) > 0 {
		fmt.Fprintf(&sb, "Participants: %s\n\n", strings.Join(scene.Participants, ", "))
	}

	for _, d := range scene.Dialogues {
		fmt.Fprintf(&sb, "[%s]: \"%s\"\n", d.Character, d.Utterance)
		if len(d.Actions) > 0 {
			fmt.Fprintf(&sb, "Actions: %s\n", strings.Join(d.Actions, ", "))
		}
		fmt.Fprintf(&sb, "Emotion: %s\n", d.Emotion)
		if d.Addressee != "" && d.Addressee != "Unknown" {
			fmt.Fprintf(&sb, "Speaking to: %s\n", d.Addressee)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// characterDialogueContent renders a single utterance with enough
// surrounding context to stand alone as a retrieval unit.
func characterDialogueContent(d dialogue.Dialogue) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%s]: \"%s\"\n\n", d.Character, d.Utterance)
	fmt.Fprintf(&sb, "Context: Chapter %d\n", d.ChapterNumber)
	fmt.Fprintf(&sb, "Speaking to: %s\n", d.Addressee)
	fmt.Fprintf(&sb, "Emotion: %s\n", d.Emotion)

	if len(d.Actions) > 0 {
		fmt.Fprintf(&sb, "Actions: %s\n", strings.Join(d.Actions, ", "))
	}
	if d.Context != "" {
		fmt.Fprintf(&sb, "Scene Context: %s\n", d.Context)
	}

	return sb.String()
}
