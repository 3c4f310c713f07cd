// =============================================================================
// POS Sales Report - Analyze Command
// =============================================================================
//
// This file defines the 'analyze' command, which runs one export through the
// pipeline and prints the result as terminal tables. Nothing is written to
// disk and the input is not archived.
//
// COMMAND USAGE:
//   salesreport analyze <file> [--view daily] [--weekday wed]
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pos-sales-report/internal/normalize"
	"github.com/ginjaninja78/pos-sales-report/internal/pipeline"
	"github.com/ginjaninja78/pos-sales-report/internal/report"
	"github.com/ginjaninja78/pos-sales-report/internal/types"
)

var (
	analyzeView    string
	analyzeWeekday string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Print the report views of one export",
	Long: `The analyze command runs a single export through the pipeline and prints
the drop statistics followed by the requested view. Without --view every
view is printed. --weekday prints one weekday's store x hour customer
matrix instead; it accepts 0-6 (Monday first), an English weekday name or
the configured weekday label.

Views: ` + fmt.Sprint(report.Views),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := newConverter()
		if err != nil {
			return err
		}
		a, err := conv.AnalyzeFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printAnalysis(cmd.OutOrStdout(), conv, a)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeView, "view", "", "View to print (default: all)")
	analyzeCmd.Flags().StringVar(&analyzeWeekday, "weekday", "", "Print one weekday's store x hour matrix")
	analyzeCmd.Flags().Int("top-n", 0, "Number of products in the ranking")
	analyzeCmd.Flags().StringSlice("product-filter", nil, "Restrict the analysis to these products")
}

func printAnalysis(w io.Writer, conv *pipeline.Converter, a *pipeline.Analysis) error {
	printStats(w, a.Stats)
	opts := conv.TableOptions()

	if analyzeWeekday != "" {
		d, err := report.ParseWeekday(analyzeWeekday, opts.WeekdayLabels)
		if err != nil {
			return err
		}
		m := a.Report.WeekdayMatrix(d)
		fmt.Fprintf(w, "\n%s\n", opts.WeekdayLabel(d))
		if m.Empty() {
			fmt.Fprintln(w, "(no receipts)")
			return nil
		}
		renderTable(w, report.MatrixTable(m, opts))
		return nil
	}

	if analyzeView != "" {
		t, ok := a.Report.Table(analyzeView, opts)
		if !ok {
			return fmt.Errorf("unknown view %q, expected one of %v", analyzeView, report.Views)
		}
		fmt.Fprintf(w, "\n%s\n", conv.SheetName(t.View))
		renderTable(w, t)
		return nil
	}

	for _, t := range a.Report.Tables(opts) {
		fmt.Fprintf(w, "\n%s\n", conv.SheetName(t.View))
		renderTable(w, t)
	}
	return nil
}

func printStats(w io.Writer, s pipeline.Stats) {
	fmt.Fprintf(w, "%s (%s): %d rows, %d kept, %d dropped, %d receipts\n",
		s.Source, s.Format, s.Rows, s.Kept, s.Dropped, s.Receipts)

	reasons := make([]string, 0, len(s.Reasons))
	for reason := range s.Reasons {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "  dropped %-15s %d\n", reason+":", s.Reasons[normalize.DropReason(reason)])
	}
	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
}

func renderTable(w io.Writer, tbl types.Table) {
	if len(tbl.Rows) == 0 {
		fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(tbl.Columns))
	for i, col := range tbl.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, cells := range tbl.Rows {
		row := make(table.Row, len(cells))
		for i, cell := range cells {
			row[i] = formatCell(cell)
		}
		t.AppendRow(row)
	}

	t.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(tbl.Rows))
}

func formatCell(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
