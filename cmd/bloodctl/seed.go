package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed blood types and regenerate the compatibility table",
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

		n, err := services.BloodType.Seed(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d compatibility pair(s)\n", n)
		return nil
	},
}
