package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/closure-importer/internal/extractor"
	"github.com/insightdelivered/closure-importer/internal/importer"
)

// ImportCmd returns the import command.
func ImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <report.pdf|report.txt>...",
		Short: "Import daily closure reports",
		Long: `Parse one or more technician closure reports, show how many work items
are new and how many were already imported, then record them.

Reports with errors block the whole import. Totals that differ from the
declared day total are flagged MISMATCH but still imported.

Examples:
  closure-importer import ana.pdf luis.pdf
  closure-importer import --dry-run ana.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			docs := make([]importer.Document, 0, len(args))
			for _, path := range args {
				doc, err := importer.DocumentFromFile(path)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
			}

			imp := importer.New(e.store, extractor.PDFExtractor{}, e.log)
			previews, err := imp.Preview(cmd.Context(), docs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printPreviews(out, previews)

			if dryRun {
				fmt.Fprintln(out, "\nDry run: nothing was imported.")
				return nil
			}

			outcome, err := imp.Commit(cmd.Context(), previews)
			if errors.Is(err, importer.ErrBlocked) {
				fmt.Fprintln(out, color.New(color.FgRed).Sprint("\n✗ Import blocked: fix the reports marked ERROR and try again."))
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\n%s Imported %d report(s): %d new, %d duplicate(s).\n",
				color.New(color.FgGreen).Sprint("✓"), len(outcome.Batches), outcome.New, outcome.Duplicates)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview only, do not import")

	return cmd
}

func printPreviews(out io.Writer, previews []importer.Preview) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tDATE\tTECHNICIAN\tPARTS\tNEW\tDUPES\tPDF TOTAL\tCALC TOTAL\tSTATUS")
	for _, p := range previews {
		r := p.Report
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			p.Label, dash(r.Header.Date), dash(r.Header.Technician), len(r.Items), p.New, p.Duplicates,
			eur(r.Header.DeclaredTotalCents), eur(r.ComputedTotalCents), statusBadge(p.Status))
	}
	w.Flush()

	for _, p := range previews {
		for _, msg := range p.Report.Errors {
			fmt.Fprintf(out, "  %s: %s\n", p.Label, msg)
		}
	}
}
