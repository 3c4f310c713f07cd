// =============================================================================
// POS Sales Report - Pipeline Module
// =============================================================================
//
// This module orchestrates one run: a single uploaded or discovered export
// goes through every stage and produces the report views and the workbook.
//
// PIPELINE:
//   1. Detect the intake format (CSV or xlsx) from the file name
//   2. Read and decode the whole file once
//   3. Validate the header row (required columns present)
//   4. Normalize raw rows into transaction lines (malformed rows dropped)
//   5. Aggregate transaction lines into receipts
//   6. Build the report views
//   7. Optionally render charts, then write the workbook
//
// CONCURRENCY:
//   A run owns every table it builds; nothing is shared between runs except
//   the read-only configuration and store directory. The context is checked
//   between stages: a cancelled run is abandoned as a whole.
//
// =============================================================================

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/pos-sales-report/internal/aggregate"
	"github.com/ginjaninja78/pos-sales-report/internal/chart"
	"github.com/ginjaninja78/pos-sales-report/internal/config"
	"github.com/ginjaninja78/pos-sales-report/internal/csvparser"
	"github.com/ginjaninja78/pos-sales-report/internal/normalize"
	"github.com/ginjaninja78/pos-sales-report/internal/report"
	"github.com/ginjaninja78/pos-sales-report/internal/stores"
	"github.com/ginjaninja78/pos-sales-report/internal/types"
	"github.com/ginjaninja78/pos-sales-report/internal/validation"
	"github.com/ginjaninja78/pos-sales-report/internal/xlsxparser"
	"github.com/ginjaninja78/pos-sales-report/internal/xlsxwriter"
)

// ErrUnsupportedFormat is returned for inputs that are neither CSV nor xlsx.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// =============================================================================
// INTAKE FORMAT
// =============================================================================

// Format is the physical format of an export.
type Format int

const (
	FormatCSV Format = iota
	FormatXLSX
)

func (f Format) String() string {
	if f == FormatXLSX {
		return "xlsx"
	}
	return "csv"
}

// DetectFormat picks the intake format from a file name's extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(name))
	}
}

// IsFileLevel reports whether err is a failure of the input file itself
// (wrong format, undecodable or unopenable, empty, missing columns) rather
// than of the program.
func IsFileLevel(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, csvparser.ErrDecode) ||
		errors.Is(err, csvparser.ErrEmpty) ||
		errors.Is(err, xlsxparser.ErrOpen) ||
		errors.Is(err, xlsxparser.ErrNoSheets) ||
		errors.Is(err, validation.ErrMissingColumns)
}

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Stats describes one run.
type Stats struct {
	RunID    string                       `json:"run_id"`
	Source   string                       `json:"source"`
	Format   string                       `json:"format"`
	Rows     int                          `json:"rows"`
	Kept     int                          `json:"kept"`
	Dropped  int                          `json:"dropped"`
	Reasons  map[normalize.DropReason]int `json:"drop_reasons"`
	Receipts int                          `json:"receipts"`
	Warnings []string                     `json:"warnings,omitempty"`
	Duration time.Duration                `json:"duration_ns"`
}

// Analysis is everything one run produced before export.
type Analysis struct {
	Lines    []types.TransactionLine
	Receipts *aggregate.Table
	Report   *report.Report
	Stats    Stats
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs exports through the pipeline. It is safe for concurrent use.
type Converter struct {
	cfg    *config.Config
	dir    *stores.Directory
	logger zerolog.Logger
}

// New creates a Converter.
func New(cfg *config.Config, dir *stores.Directory, logger zerolog.Logger) *Converter {
	return &Converter{cfg: cfg, dir: dir, logger: logger}
}

// Directory returns the store directory used by every run.
func (c *Converter) Directory() *stores.Directory {
	return c.dir
}

// TableOptions returns the configured localization for flattened views.
func (c *Converter) TableOptions() report.TableOptions {
	return report.TableOptions{
		WeekdayLabels: c.cfg.Report.WeekdayLabels,
		DateLayout:    c.cfg.Report.DailyDateLayout,
		Headers:       c.cfg.Report.Headers,
	}
}

// =============================================================================
// ANALYSIS
// =============================================================================

// Analyze runs stages 1-6 on one export.
func (c *Converter) Analyze(ctx context.Context, r io.Reader, name string) (*Analysis, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := c.logger.With().Str("run_id", runID).Str("file", filepath.Base(name)).Logger()

	// =========================================================================
	// STEP 1-2: DETECT FORMAT AND READ
	// =========================================================================

	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("format", format.String()).Msg("reading export")
	var data *csvparser.CSVData
	switch format {
	case FormatXLSX:
		data, err = xlsxparser.Parse(r, c.cfg.CSV.SkipRows, name)
	default:
		data, err = csvparser.Parse(r, c.cfg.CSV, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(name), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 3: VALIDATE HEADER
	// =========================================================================

	result := validation.Validate(data.Headers, data.RowCount(), c.cfg.Columns)
	var warnings []string
	for _, w := range result.Warnings() {
		log.Warn().Str("rule", w.Rule).Str("field", w.Field).Msg(w.Message)
		warnings = append(warnings, w.Error())
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 4: NORMALIZE
	// =========================================================================

	lines, nstats := normalize.Normalize(data.Lines(c.cfg.Columns), c.dir, normalize.Options{
		ProductFilter: c.cfg.Report.ProductFilter,
	})
	log.Debug().Int("kept", nstats.Kept).Int("dropped", nstats.DroppedTotal()).Msg("normalized rows")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 5-6: AGGREGATE AND BUILD VIEWS
	// =========================================================================

	receipts := aggregate.NewTable(lines)
	log.Debug().Int("receipts", receipts.Len()).Msg("aggregated receipts")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := report.Build(lines, receipts.Rows(), c.dir, report.Options{TopN: c.cfg.Report.TopN})

	stats := Stats{
		RunID:    runID,
		Source:   filepath.Base(name),
		Format:   format.String(),
		Rows:     nstats.Total,
		Kept:     nstats.Kept,
		Dropped:  nstats.DroppedTotal(),
		Reasons:  nstats.Dropped,
		Receipts: receipts.Len(),
		Warnings: warnings,
		Duration: time.Since(start),
	}

	event := log.Info().
		Int("rows", stats.Rows).
		Int("kept", stats.Kept).
		Int("dropped", stats.Dropped).
		Int("receipts", stats.Receipts).
		Dur("duration", stats.Duration)
	for _, reason := range nstats.Reasons() {
		event = event.Int("dropped_"+string(reason), nstats.Dropped[reason])
	}
	event.Msg("analysis complete")

	return &Analysis{Lines: lines, Receipts: receipts, Report: rep, Stats: stats}, nil
}

// =============================================================================
// EXPORT
// =============================================================================

// Export writes the workbook of an analysis, embedding charts when the
// configuration asks for them.
func (c *Converter) Export(ctx context.Context, a *Analysis, w io.Writer) error {
	return c.ExportWithCharts(ctx, a, w, c.EmbedCharts())
}

// EmbedCharts reports whether exports embed charts by default.
func (c *Converter) EmbedCharts() bool {
	return c.cfg.Report.EmbedCharts
}

// ExportWithCharts writes the workbook, overriding the chart setting.
func (c *Converter) ExportWithCharts(ctx context.Context, a *Analysis, w io.Writer, charts bool) error {
	opts := xlsxwriter.Options{
		SheetNames: c.sheetNames(),
		ChartSheet: c.cfg.Chart.Sheet,
		Anchors:    c.cfg.Chart.Anchors,
	}

	if charts {
		images, err := chart.RenderAll(ctx, a.Report, c.dir, c.ChartOptions())
		if err != nil {
			return fmt.Errorf("failed to render charts: %w", err)
		}
		opts.Charts = images
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// w receives nothing unless the whole workbook was built.
	var buf bytes.Buffer
	if err := xlsxwriter.Write(&buf, a.Report.Tables(c.TableOptions()), opts); err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ChartOptions returns the configured canvas size.
func (c *Converter) ChartOptions() chart.Options {
	return chart.Options{Width: c.cfg.Chart.Width, Height: c.cfg.Chart.Height}
}

// SheetName returns the configured sheet name of a view.
func (c *Converter) SheetName(view string) string {
	return c.cfg.Report.SheetName(view)
}

func (c *Converter) sheetNames() map[string]string {
	names := make(map[string]string, len(report.Views))
	for _, view := range report.Views {
		names[view] = c.SheetName(view)
	}
	return names
}
