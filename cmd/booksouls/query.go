package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdulachik/booksouls/internal/app"
	"github.com/abdulachik/booksouls/internal/config"
	"github.com/abdulachik/booksouls/internal/vectorstore"
)

var (
	queryStore        string
	queryResults      int
	queryType         string
	queryCharacter    string
	queryAddressee    string
	queryEmotion      string
	queryChapter      int
	querySceneID      string
	queryState        string
	querySetting      string
	queryParticipants []string
	queryTraits       []string
	querySemanticType string
	queryEntity       string
	queryTheme        string
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the narrative or dialogue store",
	Long: `Search one of the vector stores semantically. Facet flags narrow the
results by metadata; descriptive flags only steer the embedding.

Examples:
  booksouls query "faith and doubt"
  booksouls query "the confession" --store dialogue --character Ivan --emotion angry
  booksouls query "the storm" --store narrative --semantic-type description --chapter 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryStore, "store", "narrative", "Store to search: narrative or dialogue")
	queryCmd.Flags().IntVar(&queryResults, "results", 0, "Number of results (0 uses the configured default)")
	queryCmd.Flags().StringVar(&queryType, "type", "", "Dialogue record type: scene, character_dialogue or character_profile")
	queryCmd.Flags().StringVar(&queryCharacter, "character", "", "Filter by speaking character")
	queryCmd.Flags().StringVar(&queryAddressee, "addressee", "", "Filter by who is being spoken to")
	queryCmd.Flags().StringVar(&queryEmotion, "emotion", "", "Filter by emotion")
	queryCmd.Flags().IntVar(&queryChapter, "chapter", 0, "Filter by chapter number")
	queryCmd.Flags().StringVar(&querySceneID, "scene", "", "Filter by scene id")
	queryCmd.Flags().StringVar(&queryState, "state", "", "Filter profiles by emotional state")
	queryCmd.Flags().StringVar(&querySetting, "setting", "", "Steer toward a scene setting")
	queryCmd.Flags().StringSliceVar(&queryParticipants, "participant", nil, "Steer toward scenes with these participants")
	queryCmd.Flags().StringSliceVar(&queryTraits, "trait", nil, "Steer toward these personality traits")
	queryCmd.Flags().StringVar(&querySemanticType, "semantic-type", "", "Filter narrative sections by semantic type")
	queryCmd.Flags().StringVar(&queryEntity, "entity", "", "Steer narrative search toward an entity")
	queryCmd.Flags().StringVar(&queryTheme, "theme", "", "Steer narrative search toward a theme")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	text := strings.Join(args, " ")

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
	switch queryStore {
	case "narrative":
		result, err = a.Stores.QueryNarrative(ctx, vectorstore.NarrativeQuery{
			Query:         text,
			NResults:      queryResults,
			SemanticType:  querySemanticType,
			ChapterNumber: queryChapter,
			Entity:        queryEntity,
			Theme:         queryTheme,
		})
	case "dialogue":
		result, err = a.Stores.QueryDialogue(ctx, vectorstore.DialogueQuery{
			Query:             text,
			NResults:          queryResults,
			Type:              queryType,
			Character:         queryCharacter,
			Addressee:         queryAddressee,
			Emotion:           queryEmotion,
			ChapterNumber:     queryChapter,
			SceneID:           querySceneID,
			EmotionalState:    queryState,
			Setting:           querySetting,
			Participants:      queryParticipants,
			PersonalityTraits: queryTraits,
		})
	default:
		return fmt.Errorf("unknown store %q (use narrative or dialogue)", queryStore)
	}
	if err != nil {
		return fmt.Errorf("query %s store: %w", queryStore, err)
	}

	printQueryResult(result)
	return nil
}

func printQueryResult(result *vectorstore.QueryResult) {
	fmt.Printf("Store:   %s\n", result.StoreType)
	fmt.Printf("Query:   %s\n", result.Query)
	if result.FiltersText != "none" {
		fmt.Printf("Filters: %s\n", result.FiltersText)
	}
	if result.FiltersDropped {
		fmt.Println("Note: filters could not be applied, showing unfiltered results")
	}
	fmt.Println()

	if len(result.Results) == 0 {
		fmt.Println("No results.")
		return
	}

	for i, r := range result.Results {
		fmt.Printf("--- Result %d (score %.3f) ---\n", i+1, r.Score)
		fmt.Println(strings.TrimSpace(r.Content))
		fmt.Println()
	}
}
