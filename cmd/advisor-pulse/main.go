package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mjcarver/advisor-pulse/internal/briefing"
	"github.com/mjcarver/advisor-pulse/internal/clientstore"
	"github.com/mjcarver/advisor-pulse/internal/config"
	"github.com/mjcarver/advisor-pulse/internal/dismissal"
	"github.com/mjcarver/advisor-pulse/internal/models"
	"github.com/mjcarver/advisor-pulse/internal/nudge"
)

var (
	cfg *config.Config

	// dateFlag overrides "today" for every date-driven command, so the same
	// client book can be inspected for any day.
	dateFlag string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:   "advisor-pulse",
		Short: "Proactive alerting and compliance scoring for a financial advisor's client book",
		Long:  "Advisor Pulse scans a client book for birthdays, renewals, maturities, follow-ups, reviews, dormancy and concerns, surfaces them as tiered nudges, and scores each client's compliance posture.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return cfg.Validate()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dateFlag, "date", "", "effective date YYYY-MM-DD (default: today)")

	rootCmd.AddCommand(
		alertsCmd(),
		nudgeCmd(),
		briefingCmd(),
		complianceCmd(),
		reportCmd(),
		clientsCmd(),
		dismissCmd(),
		undismissCmd(),
		deactivateCmd(),
		reactivateCmd(),
		dismissalsCmd(),
		draftCmd(),
		serveCmd(),
		mcpCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil && cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newSource builds the configured client source. The graph source dials
// Neo4j eagerly so misconfiguration fails at startup, not mid-command.
func newSource(ctx context.Context, logger *slog.Logger) (clientstore.Source, error) {
	switch cfg.Data.Source {
	case "graph":
		return clientstore.NewGraphSource(
			ctx,
			cfg.Neo4j.URI,
			cfg.Neo4j.Username,
			cfg.Neo4j.Password,
			cfg.Neo4j.Database,
			logger,
		)
	default:
		return clientstore.NewFileSource(cfg.Data.ClientsFile, logger), nil
	}
}

func newDismissals(logger *slog.Logger) *dismissal.Store {
	return dismissal.NewStore(cfg.Data.DismissalsFile, logger)
}

func newAggregator(logger *slog.Logger) *nudge.Aggregator {
	return nudge.NewAggregator(newDismissals(logger), logger)
}

func newNarrator(logger *slog.Logger) *briefing.Narrator {
	return briefing.NewNarrator(cfg.Claude.APIKey, cfg.Claude.Model, logger)
}

// effectiveDate resolves the --date flag, defaulting to today.
func effectiveDate() (models.Date, error) {
	if dateFlag == "" {
		return models.DateOf(time.Now()), nil
	}
	t, err := time.Parse("2006-01-02", dateFlag)
	if err != nil {
		return models.Date{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", dateFlag)
	}
	return models.DateOf(t), nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
