package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/PlayaETL/internal/config"
)

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("PlayaETL %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Catalog:\n")
			fmt.Printf("  Base URL:          %s\n", cfg.Catalog.BaseURL)
			fmt.Printf("  Pages:             %d\n", cfg.Catalog.Pages)
			fmt.Printf("  Wait Timeout:      %s\n", cfg.Catalog.WaitTimeout)
			fmt.Printf("  Page Delay:        %s\n", cfg.Catalog.PageDelay)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Driver:            %s\n", cfg.Browser.Driver)
			fmt.Printf("  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Printf("  Stealth:           %v\n", cfg.Browser.Stealth)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Detail Delay:      %s\n", cfg.Fetcher.DetailDelay)
			fmt.Printf("  User Agents File:  %s\n", cfg.Fetcher.UserAgentsFile)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Printf("  Proxies:           %d (%s)\n", len(cfg.Fetcher.Proxies), cfg.Fetcher.ProxyRotation)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Listing:           %s\n", cfg.Storage.ListingFile)
			fmt.Printf("  Details:           %s\n", cfg.Storage.DetailsFile)
			fmt.Printf("  Duplicates:        %s\n", cfg.Storage.DuplicatesFile)
			fmt.Printf("  Deduplicated:      %s\n", cfg.Storage.DeduplicatedFile)
			fmt.Printf("  Enriched:          %s\n", cfg.Storage.EnrichedFile)
			fmt.Printf("  JSONL:             %s\n", cfg.Storage.JSONLFile)
			fmt.Printf("  MongoDB:           %v\n", cfg.Storage.Mongo.URI != "")
			fmt.Printf("  PostgreSQL:        %v\n", cfg.Storage.Postgres.DSN != "")
			fmt.Printf("\nAI:\n")
			fmt.Printf("  Provider:          %s\n", cfg.AI.Provider)
			fmt.Printf("  Model:             %s\n", cfg.AI.Model)
			fmt.Printf("  API Key:           %v\n", cfg.AI.APIKey != "")
			fmt.Printf("  Batch Size:        %d\n", cfg.AI.BatchSize)
			fmt.Printf("  Relation Delay:    %s\n", cfg.AI.RelationDelay)
			fmt.Printf("  Clarity Delay:     %s\n", cfg.AI.ClarityDelay)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}
