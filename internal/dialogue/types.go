// Package dialogue extracts quoted speech from novel chapters, groups it
// into conversation scenes, resolves character name variants, and builds
// per-chapter character profiles.
package dialogue

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Dialogue is a single attributed utterance.
type Dialogue struct {
	Character     string   `json:"character"`
	Utterance     string   `json:"dialogue"`
	Addressee     string   `json:"addressee"`
	Context       string   `json:"context"`
	Emotion       string   `json:"emotion"`
	Actions       []string `json:"actions"`
	SceneID       string   `json:"scene_id"`
	ChapterNumber int      `json:"chapter_number"`
	SectionID     string   `json:"section_id"`
}

// Scene is a conversation involving one or more characters.
type Scene struct {
	SceneID       string     `json:"scene_id"`
	Participants  []string   `json:"participants"`
	Dialogues     []Dialogue `json:"dialogues"`
	Setting       string     `json:"setting"`
	Context       string     `json:"context"`
	ChapterNumber int        `json:"chapter_number"`
}

// Profile captures how a character comes across in one chapter.
type Profile struct {
	Name              string         `json:"name"`
	ChapterNumber     int            `json:"chapter_number"`
	PersonalityTraits []string       `json:"personality_traits"`
	Motivations       []string       `json:"motivations"`
	SpeechStyle       map[string]any `json:"speech_style"`
	DialogueCount     int            `json:"dialogue_count"`
	KeyRelationships  map[string]any `json:"key_relationships"`
	EmotionalState    string         `json:"emotional_state"`
}

// JSONString renders the profile as indented JSON for document indexing.
func (p Profile) JSONString() (string, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile for %s: %w", p.Name, err)
	}
	return string(data), nil
}

// IndexMetadata records how and when a dialogue index was built.
type IndexMetadata struct {
	ProcessingTime     time.Duration `json:"processing_time_ns"`
	CreatedAt          time.Time     `json:"created_at"`
	CharactersAnalyzed int           `json:"characters_analyzed"`
	TotalProfiles      int           `json:"total_character_profiles"`
	TopCharacters      int           `json:"top_characters_per_chapter"`
	MaxSampleDialogues int           `json:"max_sample_dialogues"`
}

// Index is the complete dialogue index for character-level retrieval.
type Index struct {
	Scenes          []Scene               `json:"scenes"`
	ByCharacter     map[string][]Dialogue `json:"by_character"`
	ByChapter       map[int][]Scene       `json:"by_chapter"`
	Profiles        map[string][]Profile  `json:"character_profiles"`
	TotalDialogues  int                   `json:"total_dialogues"`
	TotalScenes     int                   `json:"total_scenes"`
	Characters      []string              `json:"characters"`
	ChaptersCovered []int                 `json:"chapters_covered"`
	Metadata        IndexMetadata         `json:"metadata"`
}

// GetCharacterProfile returns the profile for a character in a specific
// chapter. Chapter 0 means the latest profile.
func (idx *Index) GetCharacterProfile(character string, chapter int) *Profile {
	profiles := idx.Profiles[character]
	if len(profiles) == 0 {
		return nil
	}

	if chapter == 0 {
		latest := profiles[0]
		for _, p := range profiles[1:] {
			if p.ChapterNumber > latest.ChapterNumber {
				latest = p
			}
		}
		return &latest
	}

	for _, p := range profiles {
		if p.ChapterNumber == chapter {
			return &p
		}
	}
	return nil
}

// GetCharacterEvolution returns all profiles for a character in chapter order.
func (idx *Index) GetCharacterEvolution(character string) []Profile {
	profiles := idx.Profiles[character]
	if len(profiles) == 0 {
		return nil
	}

	out := make([]Profile, len(profiles))
	copy(out, profiles)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ChapterNumber < out[j].ChapterNumber
	})
	return out
}

// Save writes the index to a JSON file.
func (idx *Index) Save(path string) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dialogue index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dialogue index: %w", err)
	}
	return nil
}

// LoadIndex reads a dialogue index from a JSON file.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dialogue index: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse dialogue index: %w", err)
	}
	return &idx, nil
}
