package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mjcarver/advisor-pulse/internal/alerts"
	"github.com/mjcarver/advisor-pulse/internal/compliance"
	pulsemcp "github.com/mjcarver/advisor-pulse/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  get_alerts                — scan the book for active alerts
  get_nudge                 — the tiered daily nudge
  get_client_nudge          — upcoming items for one client
  dismiss_alert             — dismiss an alert by ID
  undismiss_alert           — restore a dismissed alert
  mark_client_inactive      — suppress all alerts for a client
  reactivate_client         — restore an inactive client
  get_client_compliance     — score one client
  get_portfolio_compliance  — score the whole book
  draft_email               — draft a client email`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			source, err := newSource(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("mcp: connecting to client source: %w", err)
			}
			defer func() { _ = source.Close(cmd.Context()) }()

			srv := pulsemcp.NewServer(
				source,
				alerts.NewDetector(logger),
				newAggregator(logger),
				compliance.NewScorer(logger),
				newDismissals(logger),
				newNarrator(logger),
				logger,
			)

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: advisor-pulse MCP server starting", "transport", "stdio")

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
