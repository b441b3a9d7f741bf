package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abdulachik/booksouls/internal/app"
	"github.com/abdulachik/booksouls/internal/config"
	"github.com/abdulachik/booksouls/internal/vectorstore"
)

var (
	chapterTheme string
	chapterLimit int
)

var chapterCmd = &cobra.Command{
	Use:   "chapter [number]",
	Short: "Fetch narrative sections from one chapter",
	Long: `Fetch the narrative sections of a chapter, or the sections matching a
theme.

Examples:
  booksouls chapter 3
  booksouls chapter 3 --theme guilt`,
	Args: cobra.ExactArgs(1),
	RunE: runChapter,
}

func init() {
	chapterCmd.Flags().StringVar(&chapterTheme, "theme", "", "Only sections matching this theme")
	chapterCmd.Flags().IntVar(&chapterLimit, "limit", 0, "Number of results (0 uses the configured default)")
	rootCmd.AddCommand(chapterCmd)
}

func runChapter(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	number, err := strconv.Atoi(args[0])
	if err != nil || number < 1 {
		return fmt.Errorf("invalid chapter number %q", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateForQuery(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer a.Close()

	var result *vectorstore.QueryResult
	if chapterTheme != "" {
		result, err = a.Stores.NarrativeByTheme(ctx, chapterTheme, number, chapterLimit)
	} else {
		result, err = a.Stores.ChapterContent(ctx, number, chapterLimit)
	}
	if err != nil {
		return fmt.Errorf("fetch chapter content: %w", err)
	}

	printQueryResult(result)
	return nil
}
