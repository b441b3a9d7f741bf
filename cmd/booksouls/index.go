package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abdulachik/booksouls/internal/app"
	"github.com/abdulachik/booksouls/internal/chunker"
	"github.com/abdulachik/booksouls/internal/config"
)

var (
	indexInput        string
	indexReset        bool
	indexDialogueJSON string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build both vector indexes from extracted chapters",
	Long: `Build the narrative and dialogue indexes from a chapters JSON file.

Sections are classified, tagged with entities and themes, and embedded
into the narrative store. Dialogue is extracted scene by scene, speaker
names are reconciled, and the most talkative characters get per-chapter
profiles, all embedded into the dialogue store.

Examples:
  booksouls index --input data/chapters.json
  booksouls index --input data/chapters.json --reset`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexInput, "input", "", "Path to extracted chapters JSON (required)")
	indexCmd.Flags().BoolVar(&indexReset, "reset", false, "Drop existing vector store contents first")
	indexCmd.Flags().StringVar(&indexDialogueJSON, "export-dialogue", "", "Also write the dialogue index to this JSON file")
	indexCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateForIndexing(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	chapters, err := chunker.LoadChapters(indexInput)
	if err != nil {
		return fmt.Errorf("load chapters: %w", err)
	}

	slog.Info("starting indexing run",
		"input", indexInput,
		"chapters", len(chapters),
		"reset", indexReset,
	)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer a.Close()

	summary, err := a.RunIndex(ctx, chapters, app.RunOptions{
		Reset:        indexReset,
		DialogueJSON: indexDialogueJSON,
	})
	if err != nil {
		return fmt.Errorf("run indexing: %w", err)
	}

	fmt.Println("=== Indexing Run ===")
	fmt.Printf("Run ID:    %s\n", summary.RunID)
	fmt.Printf("Chapters:  %d\n", summary.Chapters)
	fmt.Printf("Sections:  %d\n", summary.Sections)
	fmt.Printf("Scenes:    %d\n", summary.Scenes)
	fmt.Printf("Dialogues: %d\n", summary.Dialogues)
	fmt.Printf("Profiles:  %d\n", summary.Profiles)
	fmt.Printf("Duration:  %s\n", summary.Duration)

	return nil
}
