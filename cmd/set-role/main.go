package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dimitrije/adme-site/internal/database"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/services"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var databaseURL string

var rootCmd = &cobra.Command{
	Use:   "set-role <email> <client|admin|developer>",
	Short: "Set the role of an existing profile",
	Long:  "Updates the role column of the profile registered with the given email, directly in Postgres.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]
		role := models.Role(args[1])
		if !role.Valid() {
			return fmt.Errorf("unknown role %q, expected client, admin or developer", args[1])
		}
		if databaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set and --database-url was not given")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := database.New(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		profile, err := services.NewProfileService(db).SetRoleByEmail(ctx, email, role)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s (%s)\n", profile.Email, profile.Role.Label(), profile.ID)
		return nil
	},
}

func main() {
	_ = godotenv.Load()

	rootCmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
