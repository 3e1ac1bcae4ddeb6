package main

import (
	"context"

	"github.com/spf13/cobra"

	"vulnhawk/cmd/vulnhawk/report"
	"vulnhawk/cmd/vulnhawk/scan"
	"vulnhawk/cmd/vulnhawk/server"
)

func Execute() error {
	var rootCmd = &cobra.Command{
		Use:   "vulnhawk",
		Short: "A vulnerability scan orchestrator",
		Long:  `Vulnhawk orchestrates external security scanners against a target and aggregates their findings into unified reports`,
	}

	rootCmd.AddCommand(scan.NewScanCommand())
	rootCmd.AddCommand(scan.NewToolsCommand())
	rootCmd.AddCommand(scan.NewHistoryCommand())
	rootCmd.AddCommand(report.NewReportCommand())
	rootCmd.AddCommand(server.NewServerCommand())
	return rootCmd.ExecuteContext(context.Background())
}
