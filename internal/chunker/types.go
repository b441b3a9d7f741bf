package chunker

import (
	"fmt"
	"time"
)

// Segment is a pre-split portion of a chapter, as produced by the upstream
// chapter extractor.
type Segment struct {
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
	WordCount  int    `json:"word_count"`
}

// Chapter is an extracted chapter with its pre-split segments.
type Chapter struct {
	Number     int       `json:"chapter_number"`
	Title      string    `json:"chapter_title"`
	StartPage  int       `json:"start_page"`
	EndPage    int       `json:"end_page"`
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"`
	WordCount  int       `json:"word_count"`
	Chunks     []Segment `json:"chunks"`
}

// SectionChunk is a granular section within a chapter for detailed search.
type SectionChunk struct {
	SectionID       string   `json:"section_id"` // "ch1_sec3"
	Content         string   `json:"content"`
	ChapterNumber   int      `json:"chapter_number"`
	SectionIndex    int      `json:"section_index"`
	TokenCount      int      `json:"token_count"`
	WordCount       int      `json:"word_count"`
	SemanticType    string   `json:"semantic_type"` // narrative, dialogue, description, action
	Entities        []string `json:"entities"`
	Themes          []string `json:"themes"`
	ParentChapterID string   `json:"parent_chapter_id"` // "chapter_1"
}

// ChapterChunk is a complete chapter enriched for high-level search.
type ChapterChunk struct {
	ChapterID     string         `json:"chapter_id"` // "chapter_1"
	Content       string         `json:"content"`
	Sections      []SectionChunk `json:"-"`
	SectionCount  int            `json:"section_count"`
	ChapterNumber int            `json:"chapter_number"`
	ChapterTitle  string         `json:"chapter_title"`
	StartPage     int            `json:"start_page"`
	EndPage       int            `json:"end_page"`
	TokenCount    int            `json:"token_count"`
	WordCount     int            `json:"word_count"`
	Summary       string         `json:"summary"`
	Entities      []string       `json:"entities"`
	Themes        []string       `json:"themes"`
}

// ChapterIndex is the chapter-level index for strategic search.
type ChapterIndex struct {
	Chapters      []ChapterChunk `json:"chapters"`
	TotalChapters int            `json:"total_chapters"`
	TotalTokens   int            `json:"total_tokens"`
	Entities      map[string]int `json:"entities"` // frequency across chapters
	Themes        map[string]int `json:"themes"`
	Metadata      IndexMetadata  `json:"metadata"`
}

// SectionIndex is the section-level index for granular search.
type SectionIndex struct {
	Sections        []SectionChunk `json:"sections"`
	TotalSections   int            `json:"total_sections"`
	TotalTokens     int            `json:"total_tokens"`
	ChaptersCovered []int          `json:"chapters_covered"`
	Entities        map[string]int `json:"entities"`
	Themes          map[string]int `json:"themes"`
	Metadata        IndexMetadata  `json:"metadata"`
}

// IndexMetadata records how and when an index was built.
type IndexMetadata struct {
	ProcessingTime   time.Duration `json:"processing_time_ns"`
	CreatedAt        time.Time     `json:"created_at"`
	MinSectionTokens int           `json:"min_section_tokens"`
	SemanticTypes    []string      `json:"semantic_types"`
}

// SectionID formats the identifier for a section within a chapter.
func SectionID(chapterNumber, sectionIndex int) string {
	return fmt.Sprintf("ch%d_sec%d", chapterNumber, sectionIndex)
}

// ChapterID formats the identifier for a chapter.
func ChapterID(chapterNumber int) string {
	return fmt.Sprintf("chapter_%d", chapterNumber)
}
