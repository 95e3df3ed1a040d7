package main

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mjcarver/advisor-pulse/internal/clientstore"
	"github.com/mjcarver/advisor-pulse/internal/models"
)

func clientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Inspect and manage the client book",
	}

	cmd.AddCommand(
		clientsListCmd(),
		clientsShowCmd(),
		clientsSummaryCmd(),
		clientsAddCmd(),
	)
	return cmd
}

func clientsListCmd() *cobra.Command {
	var (
		query   string
		concern string
		dormant int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			today, err := effectiveDate()
			if err != nil {
				return err
			}

			source, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("clients list: connecting to client source: %w", err)
			}
			defer func() { _ = source.Close(ctx) }()

			clients, err := source.Load(ctx)
			if err != nil {
				return fmt.Errorf("clients list: loading clients: %w", err)
			}

			if query != "" {
				clients = clientstore.SearchByName(clients, query)
			}
			if concern != "" {
				clients = clientstore.SearchByConcern(clients, concern)
			}
			if dormant > 0 {
				clients = clientstore.Dormant(clients, today, dormant)
			}

			if len(clients) == 0 {
				fmt.Println("No clients found.")
				return nil
			}

			for i, c := range clients {
				line := fmt.Sprintf("[%d] %s", i+1, c.FullName())
				if since, ok := c.DaysSinceLastContact(today); ok {
					line += fmt.Sprintf(" — last contact %d days ago", since)
				} else {
					line += " — never contacted"
				}
				fmt.Println(line)
				fmt.Printf("    ID: %s | Policies: %d | Occupation: %s\n", c.ID, len(c.Policies), c.Occupation)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "search", "", "filter by name")
	cmd.Flags().StringVar(&concern, "concern", "", "only clients with a concern matching this topic")
	cmd.Flags().IntVar(&dormant, "dormant", 0, "only clients not contacted for at least N days")
	return cmd
}

func clientsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <client-id>",
		Short: "Show one client record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			source, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("clients show: connecting to client source: %w", err)
			}
			defer func() { _ = source.Close(ctx) }()

			client, err := source.GetByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("clients show: loading client %s: %w", args[0], err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(client)
		},
	}
}

func clientsSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <client-id>",
		Short: "Show a condensed client summary as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			today, err := effectiveDate()
			if err != nil {
				return err
			}

			source, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("clients summary: connecting to client source: %w", err)
			}
			defer func() { _ = source.Close(ctx) }()

			client, err := source.GetByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("clients summary: loading client %s: %w", args[0], err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(clientstore.ClientSummary(client, today))
		},
	}
}

func clientsAddCmd() *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a client from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			if fromFile == "" {
				return fmt.Errorf("clients add: --file is required")
			}

			data, err := os.ReadFile(fromFile)
			if err != nil {
				return fmt.Errorf("clients add: reading %s: %w", fromFile, err)
			}

			var client models.Client
			if err := json.Unmarshal(data, &client); err != nil {
				return fmt.Errorf("clients add: parsing %s: %w", fromFile, err)
			}
			if client.FirstName == "" || client.LastName == "" {
				return fmt.Errorf("clients add: first_name and last_name are required")
			}

			source, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("clients add: connecting to client source: %w", err)
			}
			defer func() { _ = source.Close(ctx) }()

			added, err := source.Add(ctx, client)
			if err != nil {
				return fmt.Errorf("clients add: %w", err)
			}

			fmt.Printf("Added %s (ID: %s)\n", added.FullName(), added.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFile, "file", "", "path to a JSON client record")
	return cmd
}
