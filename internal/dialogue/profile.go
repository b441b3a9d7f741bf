package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/abdulachik/booksouls/internal/llm"
)

// buildProfiles analyzes the most talkative characters of each chapter,
// one model call per character. Failed analyses skip only that character.
// Profiles accumulate per character across chapters, so later chapters
// extend a character's record rather than replacing it.
func (e *Extractor) buildProfiles(ctx context.Context, byChapter map[int][]Scene) map[string][]Profile {
	profiles := make(map[string][]Profile)

	chapterNums := make([]int, 0, len(byChapter))
	for n := range byChapter {
		chapterNums = append(chapterNums, n)
	}
	sort.Ints(chapterNums)

	for _, chapterNum := range chapterNums {
		scenes := byChapter[chapterNum]
		selected := selectCharacters(scenes, e.config.TopCharacters)
		if len(selected) == 0 {
			continue
		}

		slog.Info("analyzing chapter characters",
			"chapter", chapterNum,
			"characters", selected)

		for _, character := range selected {
			if err := ctx.Err(); err != nil {
				return profiles
			}

			profile := e.analyzeCharacter(ctx, character, scenes, chapterNum)
			if profile == nil {
				continue
			}
			profiles[character] = append(profiles[character], *profile)
		}
	}

	return profiles
}

// selectCharacters ranks a chapter's speakers by dialogue count and returns
// the top N. Ties keep first-appearance order.
func selectCharacters(scenes []Scene, topN int) []string {
	counts := make(map[string]int)
	var order []string

	for _, scene := range scenes {
		for _, d := range scene.Dialogues {
			if _, ok := counts[d.Character]; !ok {
				order = append(order, d.Character)
			}
			counts[d.Character]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > topN {
		order = order[:topN]
	}
	return order
}

// sampleDialogues selects representative dialogues for analysis using
// emotion-stratified sampling: the longest utterance per emotion, sorted
// longest first, truncated to maxSamples when positive. This spreads the
// evidence across the character's emotional range instead of taking the
// first N chronological lines.
func sampleDialogues(character string, scenes []Scene, maxSamples int) (samples []Dialogue, addressees, emotions []string) {
	emotionGroups := make(map[string]Dialogue)
	var emotionOrder []string
	seenAddressees := make(map[string]bool)

	for _, scene := range scenes {
		for _, d := range scene.Dialogues {
			if d.Character != character {
				continue
			}

			if current, ok := emotionGroups[d.Emotion]; !ok {
				emotionGroups[d.Emotion] = d
				emotionOrder = append(emotionOrder, d.Emotion)
			} else if len(d.Utterance) > len(current.Utterance) {
				emotionGroups[d.Emotion] = d
			}

			if !seenAddressees[d.Addressee] {
				seenAddressees[d.Addressee] = true
				addressees = append(addressees, d.Addressee)
			}
			emotions = append(emotions, d.Emotion)
		}
	}

	for _, emotion := range emotionOrder {
		samples = append(samples, emotionGroups[emotion])
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return len(samples[i].Utterance) > len(samples[j].Utterance)
	})

	if maxSamples > 0 && len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples, addressees, emotions
}

// analyzeCharacter runs one analysis call for a character and parses the
// profile. Returns nil when the character has no dialogue, the call fails,
// or the response is unusable.
func (e *Extractor) analyzeCharacter(ctx context.Context, character string, scenes []Scene, chapterNum int) *Profile {
	samples, addressees, emotions := sampleDialogues(character, scenes, e.config.MaxSampleDialogues)
	if len(samples) == 0 {
		slog.Warn("no dialogue data for character", "character", character, "chapter", chapterNum)
		return nil
	}

	dataSection := formatCharacterData(character, samples, addressees, emotions)
	prompt := fmt.Sprintf(characterAnalysisPrompt, character, chapterNum, dataSection)

	response, err := e.completer.Complete(ctx, analysisSystemPrompt, prompt, llm.Options{
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
		TopP:        e.config.TopP,
		Timeout:     e.config.Timeout,
	})
	if err != nil {
		slog.Warn("character analysis failed", "character", character, "chapter", chapterNum, "error", err)
		return nil
	}

	return parseProfile(response, character, chapterNum, countDialogues(character, scenes))
}

// parseProfile converts an analysis response into a Profile. The parse is
// permissive: it unwraps a payload nested under the character's name,
// requires only personality_traits, and defaults everything else. The
// dialogue count is always recomputed from the scenes rather than trusted
// from the model.
func parseProfile(response, character string, chapterNum, dialogueCount int) *Profile {
	payload := llm.Extract(response)
	if payload.Status != llm.Parsed {
		slog.Warn("unusable character analysis response",
			"character", character, "chapter", chapterNum, "status", payload.Status)
		return nil
	}

	var raw map[string]any
	if err := payload.Decode(&raw); err != nil {
		slog.Warn("unexpected analysis schema", "character", character, "error", err)
		return nil
	}

	// Some models wrap the profile under the character's name.
	if nested, ok := raw[character]; ok {
		m, ok := nested.(map[string]any)
		if !ok {
			slog.Warn("unexpected analysis schema", "character", character, "chapter", chapterNum)
			return nil
		}
		raw = m
	}

	if _, ok := raw["personality_traits"]; !ok {
		slog.Warn("analysis missing personality_traits", "character", character, "chapter", chapterNum)
		return nil
	}

	return &Profile{
		Name:              character,
		ChapterNumber:     chapterNum,
		PersonalityTraits: flattenTraits(raw["personality_traits"]),
		Motivations:       toStringSlice(raw["motivations"]),
		SpeechStyle:       toMap(raw["voice"]),
		DialogueCount:     dialogueCount,
		KeyRelationships:  toMap(raw["relationships"]),
		EmotionalState:    emotionalState(raw),
	}
}

func countDialogues(character string, scenes []Scene) int {
	count := 0
	for _, scene := range scenes {
		for _, d := range scene.Dialogues {
			if d.Character == character {
				count++
			}
		}
	}
	return count
}

// flattenTraits accepts either plain strings or trait objects with a
// "trait" key, since models return both shapes.
func flattenTraits(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	var traits []string
	for _, item := range items {
		switch t := item.(type) {
		case string:
			traits = append(traits, t)
		case map[string]any:
			if name, ok := t["trait"].(string); ok {
				traits = append(traits, name)
			}
		}
	}
	return traits
}

func toStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func emotionalState(raw map[string]any) string {
	if profile, ok := raw["emotional_profile"].(map[string]any); ok {
		if state, ok := profile["current_state"].(string); ok && state != "" {
			return state
		}
	}
	return "neutral"
}
