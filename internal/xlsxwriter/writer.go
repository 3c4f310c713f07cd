// =============================================================================
// POS Sales Report - Workbook Writer Module
// =============================================================================
//
// This module serializes flattened report views into one xlsx workbook.
//
// WORKBOOK LAYOUT:
//   One sheet per view, in the order the tables are given:
//
//   Daily_ByStore             date x store measures
//   Monthly_ByStore           year-month x store measures
//   Monthly_ByHour            year-month x hour x store measures
//   Monthly_ByProduct         store x product quantity pivot
//   ProductRanking            top products by revenue
//   ByWeekday_Sales           store x weekday quantity and revenue
//   ByWeekday_ByHour_ByStore  (weekday, store) x hour customer counts
//   Charts                    optional, one picture per chart image
//
//   Row 1 of every data sheet is the header row; it is bold, filled and
//   frozen. Numeric cells are written as numbers, never as text.
//
// =============================================================================

package xlsxwriter

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/pos-sales-report/internal/chart"
	"github.com/ginjaninja78/pos-sales-report/internal/types"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DefaultFileName is the download name of the generated workbook.
const DefaultFileName = "SalesAnalysisReport.xlsx"

// ErrNoTables is returned when there is nothing to write.
var ErrNoTables = errors.New("no tables to write")

// =============================================================================
// OPTIONS
// =============================================================================

// Options control the workbook layout.
type Options struct {
	// SheetNames maps a view key to its sheet name. Views without an entry
	// use the view key itself.
	SheetNames map[string]string

	// Charts are embedded on ChartSheet when non-empty.
	Charts []chart.Image

	// ChartSheet is the name of the chart sheet.
	// Default: "Charts"
	ChartSheet string

	// Anchors are the top-left cells of the charts, in chart order. Charts
	// beyond the last anchor are stacked below column A.
	// Default: A1, N1, A32, N32
	Anchors []string

	// ChartScale scales chart images on the sheet.
	// Default: 0.6
	ChartScale float64

	// HeaderFill is the header row background color.
	// Default: "#E2E8F0"
	HeaderFill string
}

// DefaultSheetNames are the sheet names used for the seven report views.
var DefaultSheetNames = map[string]string{
	"daily":        "Daily_ByStore",
	"monthly":      "Monthly_ByStore",
	"hourly":       "Monthly_ByHour",
	"product":      "Monthly_ByProduct",
	"ranking":      "ProductRanking",
	"weekday":      "ByWeekday_Sales",
	"weekday_hour": "ByWeekday_ByHour_ByStore",
}

// DefaultOptions returns the default workbook layout.
func DefaultOptions() Options {
	return Options{
		SheetNames: DefaultSheetNames,
		ChartSheet: "Charts",
		Anchors:    []string{"A1", "N1", "A32", "N32"},
		ChartScale: 0.6,
		HeaderFill: "#E2E8F0",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SheetNames == nil {
		o.SheetNames = d.SheetNames
	}
	if o.ChartSheet == "" {
		o.ChartSheet = d.ChartSheet
	}
	if len(o.Anchors) == 0 {
		o.Anchors = d.Anchors
	}
	if o.ChartScale <= 0 {
		o.ChartScale = d.ChartScale
	}
	if o.HeaderFill == "" {
		o.HeaderFill = d.HeaderFill
	}
	return o
}

func (o Options) sheetName(view string) string {
	if name, ok := o.SheetNames[view]; ok && name != "" {
		return name
	}
	return view
}

func (o Options) anchor(i int) string {
	if i < len(o.Anchors) {
		return o.Anchors[i]
	}
	return fmt.Sprintf("A%d", 1+31*i)
}

// =============================================================================
// WRITING
// =============================================================================

// Write builds the workbook and writes it to w.
func Write(w io.Writer, tables []types.Table, opts Options) error {
	f, err := Build(tables, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Build assembles the workbook in memory. The caller owns the returned file.
func Build(tables []types.Table, opts Options) (*excelize.File, error) {
	if len(tables) == 0 {
		return nil, ErrNoTables
	}
	opts = opts.withDefaults()

	f := excelize.NewFile()
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{opts.HeaderFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	seen := make(map[string]bool, len(tables))
	for i, t := range tables {
		name := opts.sheetName(t.View)
		if seen[name] {
			f.Close()
			return nil, fmt.Errorf("duplicate sheet name %q for view %q", name, t.View)
		}
		seen[name] = true

		if i == 0 {
			err = f.SetSheetName("Sheet1", name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("creating sheet %q: %w", name, err)
		}
		if err := writeTable(f, name, t, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing sheet %q: %w", name, err)
		}
	}

	if len(opts.Charts) > 0 {
		if seen[opts.ChartSheet] {
			f.Close()
			return nil, fmt.Errorf("chart sheet %q collides with a view sheet", opts.ChartSheet)
		}
		if err := writeCharts(f, opts); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeTable(f *excelize.File, sheet string, t types.Table, headerStyle int) error {
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(t.Columns) > 0 {
		last, err := excelize.ColumnNumberToName(len(t.Columns))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, 14); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeCharts(f *excelize.File, opts Options) error {
	if _, err := f.NewSheet(opts.ChartSheet); err != nil {
		return fmt.Errorf("creating chart sheet: %w", err)
	}
	for i, img := range opts.Charts {
		err := f.AddPictureFromBytes(opts.ChartSheet, opts.anchor(i), &excelize.Picture{
			Extension: ".png",
			File:      img.PNG,
			Format: &excelize.GraphicOptions{
				AltText: img.Title,
				ScaleX:  opts.ChartScale,
				ScaleY:  opts.ChartScale,
			},
		})
		if err != nil {
			return fmt.Errorf("embedding chart %s: %w", img.Name, err)
		}
	}
	return nil
}
