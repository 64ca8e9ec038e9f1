package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"blood-donation/internal/service/auth"
)

var tokenTTL time.Duration

// tokenCmd signs an access token for an existing account. Useful for local
// testing when the identity provider is not reachable.
var tokenCmd = &cobra.Command{
	Use:   "token <account-id>",
	Short: "Issue an access token for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid account id: %w", err)
		}

		token, err := auth.NewService(nil, cfg).IssueAccessToken(id, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
}
