package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/breachlens/breachlens-api/internal/config"
	"github.com/breachlens/breachlens-api/internal/database"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured OAuth providers",
		Long:  "List all configured OAuth providers. Client secrets are never printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			repo := database.NewOAuthConfigRepository(db)
			configs, err := repo.List(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list OAuth configs: %w", err)
			}

			if len(configs) == 0 {
				fmt.Println("No OAuth providers configured")
				return nil
			}

			fmt.Println("Configured OAuth providers:")
			for _, c := range configs {
				fmt.Printf("  - Provider: %s\n", c.Provider)
				fmt.Printf("    Client ID: %s\n", c.ClientID)
				fmt.Printf("    Redirect URI: %s\n", c.RedirectURI)
				if c.ClientSecret != nil {
					fmt.Println("    Client Secret: (set)")
				} else {
					fmt.Println("    Client Secret: (none, public client)")
				}
				fmt.Println()
			}

			return nil
		},
	}

	return cmd
}
