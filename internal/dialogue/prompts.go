package dialogue

import (
	"fmt"
	"strings"
)

const extractionSystemPrompt = `You are an expert at extracting dialogue from novels. Always return valid JSON.`

const analysisSystemPrompt = `You are an expert literary analyst specializing in character psychology and development. Always return valid JSON.`

const dialogueExtractionPrompt = `You are extracting dialogue from a novel. Find ALL quoted speech and identify speakers.

KEY RULES:
1. Extract ALL dialogue in quotes ("..." or '...').
2. Combine multiple sentences from same speaker.
3. Only identify individual speakers who speaks to whom.
4. Do not use pronouns like "he","she", "them" etc. as speaker, use the actual name of the character, skip the dialogue if you are not sure about the speaker.
5. Note emotions and actions.
6. RESOLVE METAPHORS: Connect descriptions ("the old woman"), roles ("the captain"), and relationships ("her brother") to proper names using dialogue context and scene continuity. If "the [descriptor]" appears after "Sarah" speaks, likely same person - group them under the proper name.

Example:
'Hello there!' said Tom to Mary, smiling. 'How are you today?'
Mary replied nervously, 'I'm fine, thank you.'
The young woman then added, 'Please come visit soon.'

Expected JSON (note: "The young woman" = Mary):
{
  "dialogues": [
    {
      "speaker": "Tom",
      "dialogue": "Hello there! How are you today?",
      "addressee": "Mary",
      "emotion": "friendly",
      "actions": ["smiling"],
      "context": "greeting Mary"
    },
    {
      "speaker": "Mary",
      "dialogue": "I'm fine, thank you. Please come visit soon.",
      "addressee": "Tom",
      "emotion": "nervous",
      "actions": [],
      "context": "responding to Tom and inviting him"
    }
  ],
  "scene_setting": "conversation between Tom and Mary",
  "participants": ["Tom", "Mary"]
}

Extract from this text:

%s

Return only valid JSON:`

const characterAnalysisPrompt = `Analyze the character **%s** from Chapter %d to create a living, breathing persona.

You are crafting a character persona, not just summarizing text. This character should feel real, with depth, contradictions, and authentic humanity.

For this character, extract:

1. Core Personality (1-3 traits)
   - Traits shown through actions, not just stated
   - Include contradictions (e.g., "brave but insecure")
   - Note how traits manifest under pressure

2. Voice & Speaking Style
   - Vocabulary level (simple/sophisticated/mixed)
   - Sentence patterns (short and punchy vs elaborate)
   - Verbal tics, catch-phrases, repeated expressions
   - How they address others (formally/casually/uniquely)

3. Emotional Landscape
   - Current emotional state in this chapter
   - Emotional triggers (what sparks anger/sadness/joy)
   - How they express vs hide emotions

4. Relationships & Power Dynamics
   - How they relate to key characters
   - Power stance (defer/dominate/negotiate)
   - Who they trust/distrust and why

Character Data:
%s

Return as valid JSON:

{
    "character_name": "<name>",
    "personality_traits": [
        {
            "trait": "brave",
            "manifestation": "stands up to authority",
            "contradiction": "but freezes when personally attacked"
        }
    ],
    "motivations": ["motivation1", "motivation2"],
    "voice": {
        "vocabulary": "simple/sophisticated/mixed",
        "sentence_style": "short and direct with occasional passionate outbursts",
        "verbal_tics": ["you know", "I mean"],
        "unique_phrases": ["phrase1", "phrase2"]
    },
    "emotional_profile": {
        "current_state": "anxious beneath cheerful facade",
        "triggers": {
            "anger": ["injustice", "betrayal"],
            "joy": ["recognition", "friendship"]
        },
        "expression_style": "masks pain with humour"
    },
    "relationships": {
        "OtherCharacter": {
            "dynamic": "protective older sibling",
            "power": "defers in crisis, leads in calm",
            "trust_level": 8
        }
    },
    "chapter_specific_growth": "Started confident, ended questioning everything"
}`

// formatCharacterData renders the sampled dialogue evidence for one
// character into the analysis prompt's data section.
func formatCharacterData(name string, samples []Dialogue, addressees, emotions []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n**%s**:\n", name)

	for i, d := range samples {
		fmt.Fprintf(&b, "  %d. %s", i+1, name)
		if d.Addressee != "" {
			fmt.Fprintf(&b, " to %s", d.Addressee)
		}
		fmt.Fprintf(&b, ": %q", d.Utterance)
		if len(d.Actions) > 0 {
			fmt.Fprintf(&b, " (while %s)", strings.Join(d.Actions, ", "))
		}
		if d.Emotion != "" {
			fmt.Fprintf(&b, " [emotion: %s]", d.Emotion)
		}
		b.WriteString("\n")
	}

	if len(addressees) > 0 {
		fmt.Fprintf(&b, "  Interacts with: %s\n", strings.Join(addressees, ", "))
	}
	if len(emotions) > 0 {
		fmt.Fprintf(&b, "  Overall emotions: %s\n", strings.Join(emotions, ", "))
	}

	return b.String()
}
