package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/breachlens/breachlens-api/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "breachlens-configure",
		Short: "Configuration tool for the BreachLens API",
		Long:  "CLI tool for configuring OAuth providers and managing the database schema",
	}

	rootCmd.AddCommand(commands.NewOAuthCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
