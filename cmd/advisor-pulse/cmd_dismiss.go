package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func dismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <alert-id>",
		Short: "Dismiss an alert so it stops appearing",
		Long: `Dismisses an alert by ID. Alert IDs are deterministic per occurrence
(e.g. a birthday alert includes the year), so a dismissal lasts for the
occurrence and the alert comes back naturally the next time round.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			newDismissals(logger).Dismiss(args[0])
			fmt.Printf("Dismissed %s\n", args[0])
			return nil
		},
	}
}

func undismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undismiss <alert-id>",
		Short: "Restore a previously dismissed alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			newDismissals(logger).Undismiss(args[0])
			fmt.Printf("Restored %s\n", args[0])
			return nil
		},
	}
}

func deactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <client-id>",
		Short: "Mark a client inactive, suppressing all their alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			source, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("deactivate: connecting to client source: %w", err)
			}
			defer func() { _ = source.Close(ctx) }()

			client, err := source.GetByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("deactivate: loading client %s: %w", args[0], err)
			}

			newDismissals(logger).MarkInactive(client.ID, client.FullName())
			fmt.Printf("Marked %s inactive\n", client.FullName())
			return nil
		},
	}
}

func reactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reactivate <client-id>",
		Short: "Reactivate an inactive client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			newDismissals(logger).Reactivate(args[0])
			fmt.Printf("Reactivated %s\n", args[0])
			return nil
		},
	}
}

func dismissalsCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "dismissals",
		Short: "Show dismissal and inactive-client state",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			store := newDismissals(logger)

			if clear {
				store.ClearAll()
				fmt.Println("Cleared all dismissals and inactive clients.")
				return nil
			}

			stats := store.GetStats()
			fmt.Printf("Dismissed alerts: %d\n", stats.DismissedAlertsCount)
			for _, id := range store.DismissedIDs() {
				fmt.Printf("  %s\n", id)
			}
			fmt.Printf("Inactive clients: %d\n", stats.InactiveClientsCount)
			for id, name := range store.InactiveWithNames() {
				fmt.Printf("  %s (%s)\n", name, id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "clear all dismissals and inactive clients")
	return cmd
}
