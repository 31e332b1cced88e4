package main

import (
	"fmt"

	"gymcore-backend-go/internal/points"

	"github.com/spf13/cobra"
)

var verifyUser string

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Inspect and repair point balances",
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report users whose cached total disagrees with the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()
		engine := points.NewEngine(points.PostgresLedger{}, logger)
		drift, err := engine.Verify(cmd.Context(), database, verifyUser)
		if err != nil {
			return err
		}
		for _, d := range drift {
			fmt.Fprintln(cmd.OutOrStdout(), d.Error())
		}
		if len(drift) > 0 {
			return fmt.Errorf("%d users drifted", len(drift))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "all balances reconcile")
		return nil
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Reset cached totals to their ledger sums",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()
		engine := points.NewEngine(points.PostgresLedger{}, logger)
		n, err := engine.Rebuild(cmd.Context(), database)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rebuilt %d users\n", n)
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyUser, "user", "", "check a single user id")
	pointsCmd.AddCommand(verifyCmd, rebuildCmd)
}
