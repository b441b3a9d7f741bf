package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdulachik/booksouls/internal/app"
	"github.com/abdulachik/booksouls/internal/config"
	"github.com/abdulachik/booksouls/internal/dialogue"
	"github.com/abdulachik/booksouls/internal/vectorstore"
)

var (
	charAddressee string
	charChapter   int
	charLimit     int
	charProfiles  bool
	charFromJSON  string
)

var charactersCmd = &cobra.Command{
	Use:   "characters [name]",
	Short: "Fetch a character's dialogues or profiles",
	Long: `Fetch everything a character says, or their per-chapter profiles.

Examples:
  booksouls characters Ivan
  booksouls characters Ivan --addressee Alyosha
  booksouls characters Ivan --profiles --chapter 5
  booksouls characters Ivan --from-json data/dialogue_index.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCharacters,
}

func init() {
	charactersCmd.Flags().StringVar(&charAddressee, "addressee", "", "Only dialogues spoken to this character")
	charactersCmd.Flags().IntVar(&charChapter, "chapter", 0, "Limit profiles to one chapter")
	charactersCmd.Flags().IntVar(&charLimit, "limit", 0, "Number of results (0 uses the configured default)")
	charactersCmd.Flags().BoolVar(&charProfiles, "profiles", false, "Show character profiles instead of dialogues")
	charactersCmd.Flags().StringVar(&charFromJSON, "from-json", "", "Read profiles from an exported dialogue index instead of the store")
	rootCmd.AddCommand(charactersCmd)
}

func runCharacters(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	character := args[0]

	if charFromJSON != "" {
		return printProfilesFromJSON(charFromJSON, character)
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
	if charProfiles {
		result, err = a.Stores.CharacterProfiles(ctx, character, charChapter, charLimit)
	} else {
		result, err = a.Stores.CharacterDialogues(ctx, character, charAddressee, charLimit)
	}
	if err != nil {
		return fmt.Errorf("fetch character records: %w", err)
	}

	printQueryResult(result)
	return nil
}

func printProfilesFromJSON(path, character string) error {
	idx, err := dialogue.LoadIndex(path)
	if err != nil {
		return fmt.Errorf("load dialogue index: %w", err)
	}

	if charChapter > 0 {
		profile := idx.GetCharacterProfile(character, charChapter)
		if profile == nil {
			return fmt.Errorf("no profile for %s in chapter %d", character, charChapter)
		}
		printProfile(*profile)
		return nil
	}

	profiles := idx.GetCharacterEvolution(character)
	if len(profiles) == 0 {
		return fmt.Errorf("no profiles for %s", character)
	}
	for _, profile := range profiles {
		printProfile(profile)
		fmt.Println()
	}
	return nil
}

func printProfile(p dialogue.Profile) {
	fmt.Printf("=== %s (chapter %d) ===\n", p.Name, p.ChapterNumber)
	if len(p.PersonalityTraits) > 0 {
		fmt.Printf("Traits:      %s\n", strings.Join(p.PersonalityTraits, ", "))
	}
	if len(p.Motivations) > 0 {
		fmt.Printf("Motivations: %s\n", strings.Join(p.Motivations, ", "))
	}
	fmt.Printf("State:       %s\n", p.EmotionalState)
	fmt.Printf("Dialogues:   %d\n", p.DialogueCount)
}
