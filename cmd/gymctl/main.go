package main

import (
	"context"
	"fmt"
	"os"

	"gymcore-backend-go/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	databaseURL string
	logger      = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "gymctl",
	Short:         "Operator tooling for the gymcore backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := zap.NewProduction()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func init() {
	_ = godotenv.Load()
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	rootCmd.AddCommand(migrateCmd, pointsCmd, tokenCmd)
}

func openDB(ctx context.Context) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	return db.Open(ctx, databaseURL)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gymctl:", err)
		os.Exit(1)
	}
}
