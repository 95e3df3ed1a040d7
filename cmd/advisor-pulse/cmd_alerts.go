package main

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mjcarver/advisor-pulse/internal/alerts"
	"github.com/mjcarver/advisor-pulse/internal/models"
)

func alertsCmd() *cobra.Command {
	var (
		alertType        string
		priority         string
		clientID         string
		includeDismissed bool
		asJSON           bool
	)

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Scan the client book and list active alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			today, err := effectiveDate()
			if err != nil {
				return err
			}

			source, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("alerts: connecting to client source: %w", err)
			}
			defer func() { _ = source.Close(ctx) }()

			clients, err := source.Load(ctx)
			if err != nil {
				return fmt.Errorf("alerts: loading clients: %w", err)
			}

			detector := alerts.NewDetector(logger)
			agg := newAggregator(logger)

			all := detector.Scan(clients, today)
			filtered := agg.FilterActive(all, includeDismissed)
			if alertType != "" {
				filtered = alerts.ByType(filtered, alertType)
			}
			if priority != "" {
				filtered = alerts.ByPriority(filtered, priority)
			}
			if clientID != "" {
				filtered = alerts.ForClient(filtered, clientID)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(filtered)
			}

			if len(filtered) == 0 {
				fmt.Println("No active alerts.")
				return nil
			}

			fmt.Printf("%d alert(s) for %s:\n\n", len(filtered), today)
			for _, a := range filtered {
				printAlert(a, today)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&alertType, "type", "", "filter by alert type (e.g. birthday, policy_renewal)")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority: urgent, high, medium, low")
	cmd.Flags().StringVar(&clientID, "client", "", "filter by client ID")
	cmd.Flags().BoolVar(&includeDismissed, "include-dismissed", false, "include dismissed alerts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printAlert(a models.Alert, today models.Date) {
	marker := " "
	if a.Overdue(today) {
		marker = "!"
	}
	fmt.Printf("%s %s [%s] %s\n", marker, alerts.Emoji(a.Type), a.Priority, a.Title)
	fmt.Printf("    %s\n", truncate(a.Description, 120))
	if a.DueDate != nil {
		fmt.Printf("    Due: %s | ID: %s\n", a.DueDate, a.ID)
	} else {
		fmt.Printf("    ID: %s\n", a.ID)
	}
	fmt.Println()
}
