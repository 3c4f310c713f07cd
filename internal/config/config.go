// =============================================================================
// POS Sales Report - Configuration Module
// =============================================================================
//
// This module loads the application configuration and the store directory.
//
// CONFIGURATION SOURCES (lowest to highest precedence):
//   1. Built-in defaults
//   2. YAML config file (salesreport.yaml, or --config)
//   3. Environment variables prefixed SALESREPORT_ (nested keys use "__",
//      e.g. SALESREPORT_CSV__ENCODING=utf-8)
//   4. Command-line flags that were explicitly set
//
// The store directory and the weekday/sheet labels are business data, not
// logic; they are configuration so that a new store or a renamed sheet needs
// no code change.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "SALESREPORT_"

// DefaultConfigFile is looked up in the working directory when --config is not given.
const DefaultConfigFile = "salesreport.yaml"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// InputDir is scanned by the process command for POS exports.
	InputDir string `koanf:"input_dir"`

	// OutputDir receives one workbook per processed export.
	OutputDir string `koanf:"output_dir"`

	// InputArchiveDir receives exports after they were processed successfully.
	InputArchiveDir string `koanf:"input_archive_dir"`

	// OutputNameFormat names generated workbooks. Placeholders:
	// {uuid}, {timestamp}, {source} (input file name without extension).
	OutputNameFormat string `koanf:"output_name_format"`

	LogLevel  string `koanf:"log_level"`
	LogPretty bool   `koanf:"log_pretty"`

	// MaxConcurrency bounds how many files the process command handles at once.
	MaxConcurrency int `koanf:"max_concurrency"`

	ArchiveOnSuccess bool `koanf:"archive_on_success"`

	// ArchiveTimestampSubdirs files archived inputs under YYYY/MM/DD.
	ArchiveTimestampSubdirs bool `koanf:"archive_timestamp_subdirs"`

	// StoresFile optionally replaces the embedded store directory.
	StoresFile string `koanf:"stores_file"`

	CSV     CSVSettings    `koanf:"csv"`
	Columns ColumnSettings `koanf:"columns"`
	Report  ReportSettings `koanf:"report"`
	Chart   ChartSettings  `koanf:"chart"`
	Server  ServerSettings `koanf:"server"`
}

// CSVSettings describes the physical layout of an export.
type CSVSettings struct {
	// Encoding is "shift_jis" (cp932 exports) or "utf-8".
	Encoding string `koanf:"encoding"`

	// SkipRows is the number of boilerplate lines before the header line.
	SkipRows int `koanf:"skip_rows"`

	Delimiter string `koanf:"delimiter"`
}

// ColumnSettings names the header of each required column.
type ColumnSettings struct {
	SaleDateTime string `koanf:"sale_datetime"`
	ReceiptID    string `koanf:"receipt_id"`
	UnitPrice    string `koanf:"unit_price"`
	Quantity     string `koanf:"quantity"`
	Subtotal     string `koanf:"subtotal"`
	ProductName  string `koanf:"product_name"`
}

// Required returns the configured header names in a fixed order.
func (c ColumnSettings) Required() []string {
	return []string{c.SaleDateTime, c.ReceiptID, c.UnitPrice, c.Quantity, c.Subtotal, c.ProductName}
}

// ReportSettings controls the report views and the workbook layout.
type ReportSettings struct {
	TopN int `koanf:"top_n"`

	// ProductFilter keeps only lines whose product name contains one of
	// these substrings. Empty keeps everything.
	ProductFilter []string `koanf:"product_filter"`

	EmbedCharts bool `koanf:"embed_charts"`

	// SheetNames maps a view key to its sheet name.
	SheetNames map[string]string `koanf:"sheet_names"`

	// WeekdayLabels are the seven business labels, Monday first.
	WeekdayLabels []string `koanf:"weekday_labels"`

	UnknownStoreLabel string `koanf:"unknown_store_label"`

	// DailyDateLayout is a Go time layout; the default renders 2024/5/1.
	DailyDateLayout string `koanf:"daily_date_layout"`

	// Headers optionally localizes column headers, keyed by header id.
	Headers map[string]string `koanf:"headers"`
}

// ChartSettings controls chart rasterization and placement.
type ChartSettings struct {
	Width   int      `koanf:"width"`
	Height  int      `koanf:"height"`
	Sheet   string   `koanf:"sheet"`
	Anchors []string `koanf:"anchors"`
}

// ServerSettings controls the HTTP presentation server.
type ServerSettings struct {
	Addr           string   `koanf:"addr"`
	MaxUploadMB    int      `koanf:"max_upload_mb"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"input_dir":                 "./input",
		"output_dir":                "./output",
		"input_archive_dir":         "./input_archive",
		"output_name_format":        "{source}_SalesAnalysisReport.xlsx",
		"log_level":                 "info",
		"log_pretty":                true,
		"max_concurrency":           4,
		"archive_on_success":        false,
		"archive_timestamp_subdirs": false,
		"stores_file":               "",

		"csv.encoding":  "shift_jis",
		"csv.skip_rows": 2,
		"csv.delimiter": ",",

		"columns.sale_datetime": "販売日時",
		"columns.receipt_id":    "レシート番号",
		"columns.unit_price":    "販売単価",
		"columns.quantity":      "数量",
		"columns.subtotal":      "小計",
		"columns.product_name":  "商品名",

		"report.top_n":                    10,
		"report.product_filter":           []string{},
		"report.embed_charts":             false,
		"report.sheet_names.daily":        "Daily_ByStore",
		"report.sheet_names.monthly":      "Monthly_ByStore",
		"report.sheet_names.hourly":       "Monthly_ByHour",
		"report.sheet_names.product":      "Monthly_ByProduct",
		"report.sheet_names.ranking":      "ProductRanking",
		"report.sheet_names.weekday":      "ByWeekday_Sales",
		"report.sheet_names.weekday_hour": "ByWeekday_ByHour_ByStore",
		"report.weekday_labels":           []string{"月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日", "日曜日"},
		"report.unknown_store_label":      "不明",
		"report.daily_date_layout":        "2006/1/2",

		"chart.width":   1200,
		"chart.height":  600,
		"chart.sheet":   "Charts",
		"chart.anchors": []string{"A1", "N1", "A32", "N32"},

		"server.addr":            ":8080",
		"server.max_upload_mb":   32,
		"server.allowed_origins": []string{"http://localhost:5173"},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// flagKeys maps flag names that do not follow the kebab->snake rule to config keys.
var flagKeys = map[string]string{
	"embed-charts":   "report.embed_charts",
	"top-n":          "report.top_n",
	"product-filter": "report.product_filter",
	"addr":           "server.addr",
	"encoding":       "csv.encoding",
	"stores":         "stores_file",
}

// Default returns the built-in configuration, ignoring files, environment and flags.
func Default() *Config {
	k := koanf.New(".")
	_ = k.Load(confmap.Provider(defaults(), "."), nil)
	var cfg Config
	_ = k.Unmarshal("", &cfg)
	return &cfg
}

// Load builds the configuration from defaults, the config file, environment
// variables and explicitly set flags, in that order of precedence.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file; an explicit path must exist, the implicit one may not.
	if cfgFile == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			cfgFile = DefaultConfigFile
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment: SALESREPORT_REPORT__TOP_N -> report.top_n
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch strings.ToLower(c.CSV.Encoding) {
	case "shift_jis", "sjis", "cp932", "utf-8", "utf8":
	default:
		return fmt.Errorf("unsupported csv.encoding %q", c.CSV.Encoding)
	}
	if c.CSV.SkipRows < 0 {
		return fmt.Errorf("csv.skip_rows must not be negative")
	}
	if len(c.CSV.Delimiter) != 1 && c.CSV.Delimiter != "tab" && c.CSV.Delimiter != `\t` {
		return fmt.Errorf("csv.delimiter must be a single character, got %q", c.CSV.Delimiter)
	}
	for _, col := range c.Columns.Required() {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("every column header under columns.* must be set")
		}
	}
	if c.Report.TopN <= 0 {
		return fmt.Errorf("report.top_n must be positive")
	}
	if len(c.Report.WeekdayLabels) != 7 {
		return fmt.Errorf("report.weekday_labels needs 7 labels, got %d", len(c.Report.WeekdayLabels))
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive")
	}
	if c.Chart.Width < 200 || c.Chart.Height < 150 {
		return fmt.Errorf("chart size %dx%d is too small", c.Chart.Width, c.Chart.Height)
	}
	if len(c.Chart.Anchors) < 4 {
		return fmt.Errorf("chart.anchors needs 4 cells, got %d", len(c.Chart.Anchors))
	}
	return nil
}

// SheetName returns the configured sheet name for a view key.
func (r ReportSettings) SheetName(view string) string {
	if name, ok := r.SheetNames[view]; ok && name != "" {
		return name
	}
	return view
}
