package main

import (
	"fmt"
	"os"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mjcarver/advisor-pulse/internal/compliance"
)

func complianceCmd() *cobra.Command {
	var (
		clientID string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "compliance",
		Short: "Score compliance for one client or the whole book",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			today, err := effectiveDate()
			if err != nil {
				return err
			}

			source, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("compliance: connecting to client source: %w", err)
			}
			defer func() { _ = source.Close(ctx) }()

			scorer := compliance.NewScorer(logger)

			if clientID != "" {
				client, err := source.GetByID(ctx, clientID)
				if err != nil {
					return fmt.Errorf("compliance: loading client %s: %w", clientID, err)
				}
				score := scorer.ScoreClient(client, today)

				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(score)
				}

				fmt.Printf("%s — %.1f (%s)\n\n", client.FullName(), score.OverallScore, score.Status)
				fmt.Println("Breakdown:")
				dims := make([]string, 0, len(score.Breakdown))
				for dim := range score.Breakdown {
					dims = append(dims, dim)
				}
				sort.Strings(dims)
				for _, dim := range dims {
					fmt.Printf("  %-20s %d\n", dim, score.Breakdown[dim])
				}
				if len(score.Issues) > 0 {
					fmt.Println("\nIssues:")
					for _, issue := range score.Issues {
						fmt.Printf("  - %s\n", issue)
					}
				}
				if len(score.Recommendations) > 0 {
					fmt.Println("\nRecommendations:")
					for _, rec := range score.Recommendations {
						fmt.Printf("  - %s\n", rec)
					}
				}
				return nil
			}

			clients, err := source.Load(ctx)
			if err != nil {
				return fmt.Errorf("compliance: loading clients: %w", err)
			}
			summary, err := scorer.ScorePortfolio(clients, today)
			if err != nil {
				return fmt.Errorf("compliance: scoring portfolio: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}

			fmt.Printf("Portfolio: %d clients, average %.1f, %.1f%% compliant\n\n",
				summary.TotalClients, summary.AverageScore, summary.ComplianceRate)
			fmt.Printf("  compliant      %d\n", summary.Compliant)
			fmt.Printf("  at risk        %d\n", summary.AtRisk)
			fmt.Printf("  non-compliant  %d\n", summary.NonCompliant)

			if len(summary.LowestScoring) > 0 {
				fmt.Println("\nLowest scoring:")
				for _, cs := range summary.LowestScoring {
					fmt.Printf("  %-30s %.1f (%s)\n", cs.ClientName, cs.Score.OverallScore, cs.Score.Status)
				}
			}
			if len(summary.CommonIssues) > 0 {
				fmt.Println("\nCommon issues:")
				for _, ic := range summary.CommonIssues {
					fmt.Printf("  %3d  %s\n", ic.Count, ic.Issue)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "", "score a single client by ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the markdown compliance report for the whole book",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			today, err := effectiveDate()
			if err != nil {
				return err
			}

			source, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("report: connecting to client source: %w", err)
			}
			defer func() { _ = source.Close(ctx) }()

			clients, err := source.Load(ctx)
			if err != nil {
				return fmt.Errorf("report: loading clients: %w", err)
			}

			report, err := compliance.NewScorer(logger).Report(clients, today)
			if err != nil {
				return fmt.Errorf("report: building report: %w", err)
			}

			fmt.Println(report)
			return nil
		},
	}
}
