package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/breachlens/breachlens-api/internal/config"
	"github.com/breachlens/breachlens-api/internal/database"
	"github.com/breachlens/breachlens-api/internal/models"
)

// NewOAuthCmd creates the OAuth provider configuration command
func NewOAuthCmd() *cobra.Command {
	var clientID, clientSecret, redirectURI string

	cmd := &cobra.Command{
		Use:   "oauth <provider-name>",
		Short: "Configure an OAuth provider",
		Long:  "Store or update OAuth provider credentials used for sign-in (e.g. 'google')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := args[0]
			if provider == "" {
				return fmt.Errorf("provider name cannot be empty")
			}
			if clientID == "" || redirectURI == "" {
				return fmt.Errorf("required flags: --client-id, --redirect-uri (--client-secret is optional for public clients)")
			}

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
			ctx := context.Background()

			existing, err := repo.GetByProvider(ctx, provider)
			if err == nil && existing != nil {
				existing.ClientID = clientID
				if clientSecret != "" {
					existing.ClientSecret = &clientSecret
				} else {
					existing.ClientSecret = nil
				}
				existing.RedirectURI = redirectURI

				if err := repo.Update(ctx, existing); err != nil {
					return fmt.Errorf("failed to update OAuth config: %w", err)
				}
				fmt.Printf("Updated OAuth configuration for provider: %s\n", provider)
				return nil
			}

			record := &models.OAuthConfig{
				ID:          uuid.New(),
				Provider:    provider,
				ClientID:    clientID,
				RedirectURI: redirectURI,
			}
			if clientSecret != "" {
				record.ClientSecret = &clientSecret
			}

			if err := repo.Create(ctx, record); err != nil {
				return fmt.Errorf("failed to create OAuth config: %w", err)
			}
			fmt.Printf("Created OAuth configuration for provider: %s\n", provider)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID (required)")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret (optional for public clients)")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "OAuth2 redirect URI (required)")

	return cmd
}
