package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abdulachik/booksouls/internal/app"
	"github.com/abdulachik/booksouls/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog and vector store statistics",
	Long:  `Display statistics about indexed chapters, sections, dialogue and the vector stores.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer a.Close()

	sections, err := a.Store.CountSections(ctx)
	if err != nil {
		return fmt.Errorf("count sections: %w", err)
	}
	scenes, err := a.Store.CountScenes(ctx)
	if err != nil {
		return fmt.Errorf("count scenes: %w", err)
	}
	dialogues, err := a.Store.CountDialogues(ctx)
	if err != nil {
		return fmt.Errorf("count dialogues: %w", err)
	}
	profiles, err := a.Store.CountProfiles(ctx)
	if err != nil {
		return fmt.Errorf("count profiles: %w", err)
	}

	fmt.Println("=== BookSouls Statistics ===")
	fmt.Println()
	fmt.Printf("Database: %s\n", cfg.DatabasePath)
	fmt.Println()
	fmt.Println("Catalog:")
	fmt.Printf("  Sections:  %d\n", sections)
	fmt.Printf("  Scenes:    %d\n", scenes)
	fmt.Printf("  Dialogues: %d\n", dialogues)
	fmt.Printf("  Profiles:  %d\n", profiles)
	fmt.Println()

	if run, err := a.Store.LatestIndexRun(ctx); err == nil {
		fmt.Println("Latest run:")
		fmt.Printf("  ID:      %s\n", run.ID)
		fmt.Printf("  Status:  %s\n", run.Status)
		fmt.Printf("  Started: %s\n", run.StartedAt)
		if run.ErrorMessage.Valid {
			fmt.Printf("  Error:   %s\n", run.ErrorMessage.String)
		}
		fmt.Println()
	} else {
		slog.Debug("no indexing runs recorded", "error", err)
	}

	stores := a.Stores.GetStats()
	fmt.Println("Vector stores:")
	fmt.Printf("  Narrative: %d documents (%s)\n", stores.Narrative.Documents, stores.Narrative.Path)
	fmt.Printf("  Dialogue:  %d documents (%s)\n", stores.Dialogue.Documents, stores.Dialogue.Path)
	fmt.Printf("  Total:     %d documents\n", stores.TotalDocuments)

	return nil
}
