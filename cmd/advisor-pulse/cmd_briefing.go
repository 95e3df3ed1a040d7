package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mjcarver/advisor-pulse/internal/alerts"
	"github.com/mjcarver/advisor-pulse/internal/clientstore"
)

func briefingCmd() *cobra.Command {
	var narrate bool

	cmd := &cobra.Command{
		Use:   "briefing",
		Short: "Print the daily briefing",
		Long: `Prints a markdown briefing of everything that needs attention today:
urgent items, items due today, and this week's pipeline. With --narrate and
a configured Claude API key, the briefing is rewritten as conversational
prose from the full book context.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			today, err := effectiveDate()
			if err != nil {
				return err
			}

			source, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("briefing: connecting to client source: %w", err)
			}
			defer func() { _ = source.Close(ctx) }()

			clients, err := source.Load(ctx)
			if err != nil {
				return fmt.Errorf("briefing: loading clients: %w", err)
			}

			detector := alerts.NewDetector(logger)
			agg := newAggregator(logger)

			all := detector.Scan(clients, today)
			active := agg.FilterActive(all, false)
			md := alerts.DailyBriefing(active, today)

			if narrate {
				narrator := newNarrator(logger)
				data := clientstore.DailyBriefingData(clients, today)
				fmt.Println(narrator.NarrateBriefing(ctx, data, md))
				return nil
			}

			fmt.Println(md)
			return nil
		},
	}

	cmd.Flags().BoolVar(&narrate, "narrate", false, "rewrite the briefing as prose using Claude")
	return cmd
}
