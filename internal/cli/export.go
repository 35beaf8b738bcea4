package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/closure-importer/internal/models"
	"github.com/insightdelivered/closure-importer/internal/store"
	"github.com/insightdelivered/closure-importer/internal/writer"
)

// ExportCmd returns the export command.
func ExportCmd() *cobra.Command {
	var outPath, date, from, to string

	cmd := &cobra.Command{
		Use:   "export <csv|xlsx>",
		Short: "Export interventions of a day or a date range",
		Long: `Export interventions to CSV or XLSX.

Examples:
  closure-importer export csv --date 2024-03-10
  closure-importer export xlsx --from 2024-03-01 --to 2024-03-31 --out marzo.xlsx`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"csv", "xlsx"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format := args[0]
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("unknown format: %s\nValid formats: csv, xlsx", format)
			}

			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			var items []models.Intervention
			if date != "" {
				items, err = e.store.ListByDate(cmd.Context(), date)
			} else {
				items, err = e.store.Search(cmd.Context(), store.Filter{From: from, To: to})
			}
			if err != nil {
				return fmt.Errorf("failed to load interventions: %w", err)
			}

			if outPath == "" {
				outPath = writer.ExportFilename(date, from, to, format)
			}
			if format == "csv" {
				err = (&writer.CSVWriter{}).WriteToFile(outPath, items)
			} else {
				err = (&writer.XLSXWriter{}).WriteToFile(outPath, items)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %d intervention(s) to %s\n",
				color.New(color.FgGreen).Sprint("✓"), len(items), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default intervenciones_<range>.<format>)")
	cmd.Flags().StringVar(&date, "date", "", "Single day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&from, "from", "", "First date of the range")
	cmd.Flags().StringVar(&to, "to", "", "Last date of the range")

	return cmd
}

// BackupCmd returns the backup command.
func BackupCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a JSON backup of every import and intervention",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			dump, err := e.store.Dump(cmd.Context(), timeNow())
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = writer.BackupFilename(dump.ExportedAt)
			}
			if err := writer.WriteBackupFile(outPath, dump); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Backup written to %s (%d interventions, %d imports)\n",
				color.New(color.FgGreen).Sprint("✓"), outPath, len(dump.Interventions), len(dump.Imports))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default backup_gp_<date>.json)")

	return cmd
}

// RestoreCmd returns the restore command.
func RestoreCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <backup.json>",
		Short: "Replace the whole database with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("restore replaces every stored record\nHint: re-run with --yes to confirm")
			}

			dump, err := writer.ReadBackupFile(args[0])
			if err != nil {
				return err
			}

			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.Replace(cmd.Context(), dump); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Restored %d interventions and %d imports from %s\n",
				color.New(color.FgGreen).Sprint("✓"), len(dump.Interventions), len(dump.Imports), args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm replacing all data")

	return cmd
}
