package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire stale blood units and emergency requests once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		services, cleanup, err := buildServices(db)
		if err != nil {
			return err
		}
		defer cleanup()

		counts, err := services.Sweeper(cfg.SweepInterval, logger).RunOnce(cmd.Context())

		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", name, counts[name])
		}
		return err
	},
}
