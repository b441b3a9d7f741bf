package chunker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abdulachik/booksouls/internal/llm"
)

// Config holds settings for hierarchical index construction.
type Config struct {
	// MinSectionTokens skips micro-sections below this size.
	MinSectionTokens int
	// SemanticTypes lists the recognized content types. The first entry is
	// the fallback when classification fails.
	SemanticTypes []string
	// Sampling parameters for analysis calls.
	Temperature float32
	TopP        float32
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultConfig returns the standard analysis settings.
func DefaultConfig() Config {
	return Config{
		MinSectionTokens: 100,
		SemanticTypes:    []string{"narrative", "dialogue", "description", "action"},
		Temperature:      0.1,
		TopP:             0.7,
		MaxTokens:        400,
		Timeout:          30 * time.Second,
	}
}

// Builder creates chapter and section indexes from extracted chapters.
// Analysis failures degrade to defaults rather than aborting the build.
type Builder struct {
	completer llm.Completer
	config    Config
}

// NewBuilder creates a new index builder.
func NewBuilder(completer llm.Completer, config Config) *Builder {
	if len(config.SemanticTypes) == 0 {
		config.SemanticTypes = DefaultConfig().SemanticTypes
	}
	return &Builder{completer: completer, config: config}
}

// BuildIndexes creates both chapter and section indexes from extracted
// chapters. When ctx is cancelled mid-build, the indexes built so far are
// returned alongside the context error.
func (b *Builder) BuildIndexes(ctx context.Context, chapters []Chapter) (*ChapterIndex, *SectionIndex, error) {
	start := time.Now()

	var processedChapters []ChapterChunk
	var allSections []SectionChunk

	chapterEntities := make(map[string]int)
	chapterThemes := make(map[string]int)
	sectionEntities := make(map[string]int)
	sectionThemes := make(map[string]int)

	var totalChapterTokens, totalSectionTokens int
	var buildErr error

chapters:
	for _, chapter := range chapters {
		slog.Info("processing chapter",
			"chapter", chapter.Number,
			"title", chapter.Title,
			"segments", len(chapter.Chunks))

		var sections []SectionChunk

		for i, segment := range chapter.Chunks {
			if err := ctx.Err(); err != nil {
				buildErr = err
				break chapters
			}

			tokenCount := segment.TokenCount
			if tokenCount == 0 {
				tokenCount = estimateTokens(segment.Text)
			}
			if tokenCount < b.config.MinSectionTokens {
				continue
			}

			entities := b.extractEntities(ctx, segment.Text)
			semanticType := b.classifySemanticType(ctx, segment.Text)
			themes := b.extractThemes(ctx, segment.Text)

			section := SectionChunk{
				SectionID:       SectionID(chapter.Number, i),
				Content:         segment.Text,
				ChapterNumber:   chapter.Number,
				SectionIndex:    i,
				TokenCount:      tokenCount,
				WordCount:       len(strings.Fields(segment.Text)),
				SemanticType:    semanticType,
				Entities:        entities,
				Themes:          themes,
				ParentChapterID: ChapterID(chapter.Number),
			}

			sections = append(sections, section)
			allSections = append(allSections, section)
			totalSectionTokens += tokenCount

			for _, entity := range entities {
				sectionEntities[entity]++
			}
			for _, theme := range themes {
				sectionThemes[theme]++
			}
		}

		// Chapter metadata is the union of its sections' tags.
		uniqueEntities := uniqueStrings(sections, func(s SectionChunk) []string { return s.Entities })
		uniqueThemes := uniqueStrings(sections, func(s SectionChunk) []string { return s.Themes })

		summary := b.summarizeChapter(ctx, chapter.Content)

		processedChapters = append(processedChapters, ChapterChunk{
			ChapterID:     ChapterID(chapter.Number),
			Content:       chapter.Content,
			Sections:      sections,
			SectionCount:  len(sections),
			ChapterNumber: chapter.Number,
			ChapterTitle:  chapter.Title,
			StartPage:     chapter.StartPage,
			EndPage:       chapter.EndPage,
			TokenCount:    chapter.TokenCount,
			WordCount:     chapter.WordCount,
			Summary:       summary,
			Entities:      uniqueEntities,
			Themes:        uniqueThemes,
		})
		totalChapterTokens += chapter.TokenCount

		for _, entity := range uniqueEntities {
			chapterEntities[entity]++
		}
		for _, theme := range uniqueThemes {
			chapterThemes[theme]++
		}
	}

	elapsed := time.Since(start)
	metadata := IndexMetadata{
		ProcessingTime:   elapsed,
		CreatedAt:        time.Now(),
		MinSectionTokens: b.config.MinSectionTokens,
		SemanticTypes:    b.config.SemanticTypes,
	}

	chaptersCovered := make([]int, 0, len(processedChapters))
	for _, ch := range processedChapters {
		chaptersCovered = append(chaptersCovered, ch.ChapterNumber)
	}

	chapterIndex := &ChapterIndex{
		Chapters:      processedChapters,
		TotalChapters: len(processedChapters),
		TotalTokens:   totalChapterTokens,
		Entities:      chapterEntities,
		Themes:        chapterThemes,
		Metadata:      metadata,
	}

	sectionIndex := &SectionIndex{
		Sections:        allSections,
		TotalSections:   len(allSections),
		TotalTokens:     totalSectionTokens,
		ChaptersCovered: chaptersCovered,
		Entities:        sectionEntities,
		Themes:          sectionThemes,
		Metadata:        metadata,
	}

	slog.Info("built hierarchical indexes",
		"chapters", len(processedChapters),
		"sections", len(allSections),
		"entities", len(chapterEntities),
		"themes", len(chapterThemes),
		"duration", elapsed)

	return chapterIndex, sectionIndex, buildErr
}

// summarizeChapter generates a chapter summary. Failures degrade to an
// empty summary.
func (b *Builder) summarizeChapter(ctx context.Context, content string) string {
	prompt := fmt.Sprintf(chapterSummaryPrompt, content)
	result, err := b.complete(ctx, prompt, b.maxTokens())
	if err != nil {
		slog.Warn("chapter summary failed", "error", err)
		return ""
	}
	return strings.TrimSpace(result)
}

// classifySemanticType labels a section with one of the configured types.
// Unrecognized or failed responses fall back to the first type.
func (b *Builder) classifySemanticType(ctx context.Context, text string) string {
	prompt := fmt.Sprintf(semanticClassificationPrompt, strings.Join(b.config.SemanticTypes, ", "), text)
	result, err := b.complete(ctx, prompt, 5)
	if err != nil {
		slog.Warn("semantic classification failed", "error", err)
		return b.config.SemanticTypes[0]
	}

	label := strings.ToLower(strings.TrimSpace(result))
	for _, t := range b.config.SemanticTypes {
		if label == t {
			return label
		}
	}
	return b.config.SemanticTypes[0]
}

// extractThemes pulls up to 3 lowercased themes from a section.
func (b *Builder) extractThemes(ctx context.Context, text string) []string {
	prompt := fmt.Sprintf(themeExtractionPrompt, text)
	result, err := b.complete(ctx, prompt, 50)
	if err != nil {
		slog.Warn("theme extraction failed", "error", err)
		return nil
	}
	return splitList(strings.ToLower(result), 3)
}

// extractEntities pulls up to 8 proper names from a section.
func (b *Builder) extractEntities(ctx context.Context, text string) []string {
	prompt := fmt.Sprintf(entityExtractionPrompt, text)
	result, err := b.complete(ctx, prompt, 100)
	if err != nil {
		slog.Warn("entity extraction failed", "error", err)
		return nil
	}
	return splitList(result, 8)
}

func (b *Builder) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return b.completer.Complete(ctx, systemPrompt, prompt, llm.Options{
		MaxTokens:   maxTokens,
		Temperature: b.config.Temperature,
		TopP:        b.config.TopP,
		Timeout:     b.config.Timeout,
	})
}

func (b *Builder) maxTokens() int {
	if b.config.MaxTokens > 0 {
		return b.config.MaxTokens
	}
	return DefaultConfig().MaxTokens
}

// splitList parses a comma-separated model response into at most limit
// trimmed, non-empty items.
func splitList(s string, limit int) []string {
	var items []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		items = append(items, part)
		if len(items) == limit {
			break
		}
	}
	return items
}

// uniqueStrings collects the deduplicated union of tags across sections,
// preserving first-seen order.
func uniqueStrings(sections []SectionChunk, get func(SectionChunk) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, section := range sections {
		for _, s := range get(section) {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// estimateTokens approximates a token count when the upstream extractor did
// not provide one. English text averages about 4 characters per token.
func estimateTokens(text string) int {
	return len(text) / 4
}
