package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/closure-importer/internal/models"
	"github.com/insightdelivered/closure-importer/internal/store"
	"github.com/insightdelivered/closure-importer/internal/summary"
)

func addFilterFlags(cmd *cobra.Command, f *store.Filter, typ *string) {
	cmd.Flags().StringVar(typ, "type", "", "Work type: INSTALACION, REPARACION or MANTENIMIENTO")
	cmd.Flags().StringVar(&f.From, "from", "", "First date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.To, "to", "", "Last date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "Maximum rows (0 = all)")
}

func parseType(s string) (models.WorkType, error) {
	t := models.WorkType(strings.ToUpper(s))
	if t != "" && !t.Valid() {
		return "", fmt.Errorf("invalid type: %s\nValid types: INSTALACION, REPARACION, MANTENIMIENTO", s)
	}
	return t, nil
}

func printInterventions(out io.Writer, items []models.Intervention) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No interventions found")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTYPE\tCLIENT\tTOTAL\tTECHNICIANS\tSOURCES\tUID")
	for _, iv := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			iv.Date, iv.Type, iv.ClientID, eur(iv.TotalCents),
			dash(strings.Join(iv.Technicians, " + ")), len(iv.Sources), iv.UID)
	}
	w.Flush()
}

// InterventionsCmd returns the interventions search command.
func InterventionsCmd() *cobra.Command {
	var (
		filter store.Filter
		typ    string
	)

	cmd := &cobra.Command{
		Use:   "interventions",
		Short: "Search imported interventions",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(typ)
			if err != nil {
				return err
			}
			filter.Type = t

			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			items, err := e.store.Search(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to search interventions: %w", err)
			}
			printInterventions(cmd.OutOrStdout(), items)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Client, "client", "", "Client id (substring)")
	addFilterFlags(cmd, &filter, &typ)

	return cmd
}

// ClientCmd returns the client history command.
func ClientCmd() *cobra.Command {
	var (
		filter store.Filter
		typ    string
	)

	cmd := &cobra.Command{
		Use:   "client <client-id>",
		Short: "Show the interventions of one client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(typ)
			if err != nil {
				return err
			}
			filter.Type = t

			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			items, err := e.store.ListByClient(cmd.Context(), args[0], filter)
			if err != nil {
				return fmt.Errorf("failed to list client: %w", err)
			}

			out := cmd.OutOrStdout()
			c := summary.ForClient(args[0], items)
			fmt.Fprintf(out, "Client %s: %d intervention(s), %s, last %s\n\n",
				c.ClientID, c.Count, eur(c.TotalCents), dash(c.LastDate))
			printInterventions(out, items)
			return nil
		},
	}

	addFilterFlags(cmd, &filter, &typ)

	return cmd
}

// DashboardCmd returns the day summary command.
func DashboardCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the totals of one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := cmd.Context()

			dates, err := e.store.DistinctDates(ctx)
			if err != nil {
				return err
			}
			if date == "" {
				if _, err := e.store.MetaGet(ctx, store.MetaLastSelectedDate, &date); err != nil {
					return err
				}
			}
			date = summary.ResolveDate(date, dates, today())
			if err := e.store.MetaSet(ctx, store.MetaLastSelectedDate, date); err != nil {
				return err
			}

			items, err := e.store.ListByDate(ctx, date)
			if err != nil {
				return err
			}
			recent, err := e.store.RecentImports(ctx, 8)
			if err != nil {
				return err
			}
			d := summary.NewDay(date, items, recent)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Day %s\n", d.Date)
			fmt.Fprintf(out, "  Total:                  %s (%d intervention(s))\n", eur(d.TotalCents), d.Count)
			fmt.Fprintf(out, "  Installation:           %s\n", eur(d.InstallationCents))
			fmt.Fprintf(out, "  Repair + maintenance:   %s\n\n", eur(d.RepairMaintenanceCents))
			printImports(out, d.Imports)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to show (YYYY-MM-DD); defaults to the last one viewed")

	return cmd
}

// ImportsCmd returns the import history command.
func ImportsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "imports",
		Short: "List recent imports",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			imports, err := e.store.RecentImports(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list imports: %w", err)
			}
			printImports(cmd.OutOrStdout(), summary.ImportRows(imports))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows")

	return cmd
}

func printImports(out io.Writer, rows []summary.ImportRow) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No imports found")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTECHNICIAN\tFILE\tPARTS\tNEW\tDUPES\tPDF TOTAL\tCALC TOTAL\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			dash(r.DateDetected), dash(r.TechDetected), r.Filename, r.PartsDetected, r.NewInterventions,
			r.Duplicates, eur(r.DeclaredTotalCents), eur(r.ComputedTotalCents), statusBadge(r.Status))
	}
	w.Flush()
}
