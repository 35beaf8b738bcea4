package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/closure-importer/internal/cli"
)

const version = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "closure-importer",
		Short:   "Import technicians' daily closure reports into one deduplicated record",
		Version: version,
		Long: `closure-importer reads the daily closure PDFs that field technicians send,
extracts every billable work item, and keeps a single record per intervention
even when several technicians report the same job.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.ImportCmd())
	rootCmd.AddCommand(cli.ServeCmd())

	// Queries
	rootCmd.AddCommand(cli.InterventionsCmd())
	rootCmd.AddCommand(cli.ClientCmd())
	rootCmd.AddCommand(cli.DashboardCmd())
	rootCmd.AddCommand(cli.ImportsCmd())

	// Data out and back in
	rootCmd.AddCommand(cli.ExportCmd())
	rootCmd.AddCommand(cli.BackupCmd())
	rootCmd.AddCommand(cli.RestoreCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
