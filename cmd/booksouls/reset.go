package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdulachik/booksouls/internal/app"
	"github.com/abdulachik/booksouls/internal/config"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop both vector stores",
	Long: `Delete all documents from the narrative and dialogue stores and
recreate them empty. The SQLite catalog is untouched.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Skip confirmation")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if !resetYes {
		fmt.Printf("This deletes everything under %s. Continue? [y/N] ", cfg.PersistDir)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer a.Close()

	if err := a.Stores.Reset(); err != nil {
		return fmt.Errorf("reset stores: %w", err)
	}

	fmt.Println("Vector stores reset.")
	return nil
}
