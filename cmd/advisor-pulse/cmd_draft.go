package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mjcarver/advisor-pulse/internal/alerts"
)

func draftCmd() *cobra.Command {
	var (
		draftType string
		extra     string
	)

	cmd := &cobra.Command{
		Use:   "draft <client-id>",
		Short: "Draft an email for a client",
		Long: `Drafts an email using the client's full record for context. Types:
birthday, check_in, review_reminder, follow_up, policy_renewal,
policy_maturity, retirement_planning, general_update.

Without a configured Claude API key a template skeleton is produced
instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			source, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("draft: connecting to client source: %w", err)
			}
			defer func() { _ = source.Close(ctx) }()

			client, err := source.GetByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("draft: loading client %s: %w", args[0], err)
			}

			narrator := newNarrator(logger)
			email := narrator.DraftEmail(ctx, *client, alerts.EmailDraftType(draftType), extra)

			fmt.Println(email)
			return nil
		},
	}

	cmd.Flags().StringVar(&draftType, "type", string(alerts.DraftGeneralUpdate), "email type")
	cmd.Flags().StringVar(&extra, "context", "", "extra context for the draft")
	return cmd
}
