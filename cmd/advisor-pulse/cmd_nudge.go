package main

import (
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mjcarver/advisor-pulse/internal/alerts"
)

func nudgeCmd() *cobra.Command {
	var (
		clientID string
		hour     int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "nudge",
		Short: "Show the tiered proactive nudge for the day",
		Long: `Partitions active alerts into three tiers:
  red        needs action within 5 days (or overdue)
  yellow     coming up within two weeks
  aggregate  later this month, rolled up by category

The output is formatted for the current time of day; evening and night
runs show a shorter digest.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			today, err := effectiveDate()
			if err != nil {
				return err
			}

			source, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("nudge: connecting to client source: %w", err)
			}
			defer func() { _ = source.Close(ctx) }()

			clients, err := source.Load(ctx)
			if err != nil {
				return fmt.Errorf("nudge: loading clients: %w", err)
			}

			detector := alerts.NewDetector(logger)
			agg := newAggregator(logger)

			all := detector.Scan(clients, today)
			active := agg.FilterActive(all, false)

			if clientID != "" {
				upcoming := agg.ForClient(active, clientID)
				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(upcoming)
				}
				if len(upcoming) == 0 {
					fmt.Printf("Nothing coming up for client %s in the next two weeks.\n", clientID)
					return nil
				}
				fmt.Printf("Coming up for client %s:\n\n", clientID)
				for _, a := range upcoming {
					printAlert(a, today)
				}
				return nil
			}

			if hour < 0 {
				hour = time.Now().Hour()
			}
			result := agg.Build(active, today, hour)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Println(result.Formatted)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "", "show upcoming items for one client instead")
	cmd.Flags().IntVar(&hour, "hour", -1, "hour of day 0-23 for greeting and verbosity (default: now)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
