package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "shift_jis", cfg.CSV.Encoding)
	assert.Equal(t, 2, cfg.CSV.SkipRows)
	assert.Equal(t, 10, cfg.Report.TopN)
	assert.Equal(t, "Daily_ByStore", cfg.Report.SheetName("daily"))
	assert.Equal(t, "ByWeekday_ByHour_ByStore", cfg.Report.SheetName("weekday_hour"))
	assert.Equal(t, "unmapped", cfg.Report.SheetName("unmapped"))
	assert.Len(t, cfg.Report.WeekdayLabels, 7)
	assert.Equal(t, "月曜日", cfg.Report.WeekdayLabels[0])
	assert.Equal(t, []string{"販売日時", "レシート番号", "販売単価", "数量", "小計", "商品名"}, cfg.Columns.Required())
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "salesreport.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
output_dir: ./reports
csv:
  encoding: utf-8
report:
  top_n: 5
  embed_charts: true
  sheet_names:
    daily: 日別_店舗別
`), 0o644))

	t.Setenv("SALESREPORT_REPORT__TOP_N", "7")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output-dir", "./output", "")
	flags.Bool("embed-charts", false, "")
	require.NoError(t, flags.Parse([]string{"--output-dir", "./from-flag"}))

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)

	// file
	assert.Equal(t, "utf-8", cfg.CSV.Encoding)
	assert.True(t, cfg.Report.EmbedCharts, "unchanged flag must not override the file")
	assert.Equal(t, "日別_店舗別", cfg.Report.SheetName("daily"))
	assert.Equal(t, "Monthly_ByStore", cfg.Report.SheetName("monthly"))
	// env over file
	assert.Equal(t, 7, cfg.Report.TopN)
	// flag over everything
	assert.Equal(t, "./from-flag", cfg.OutputDir)
}

func TestLoad_ArchiveTimestampSubdirs(t *testing.T) {
	assert.False(t, Default().ArchiveTimestampSubdirs)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "salesreport.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("archive_timestamp_subdirs: true\n"), 0o644))
	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)
	assert.True(t, cfg.ArchiveTimestampSubdirs)

	t.Setenv("SALESREPORT_ARCHIVE_TIMESTAMP_SUBDIRS", "false")
	cfg, err = Load(cfgPath, nil)
	require.NoError(t, err)
	assert.False(t, cfg.ArchiveTimestampSubdirs)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{"bad encoding", func(c *Config) { c.CSV.Encoding = "latin1" }, "unsupported csv.encoding"},
		{"negative skip", func(c *Config) { c.CSV.SkipRows = -1 }, "skip_rows"},
		{"long delimiter", func(c *Config) { c.CSV.Delimiter = ";;" }, "single character"},
		{"empty column", func(c *Config) { c.Columns.Quantity = " " }, "columns.*"},
		{"zero top n", func(c *Config) { c.Report.TopN = 0 }, "top_n"},
		{"six weekday labels", func(c *Config) { c.Report.WeekdayLabels = c.Report.WeekdayLabels[:6] }, "7 labels"},
		{"no concurrency", func(c *Config) { c.MaxConcurrency = 0 }, "max_concurrency"},
		{"tiny chart", func(c *Config) { c.Chart.Width = 10 }, "too small"},
		{"missing anchors", func(c *Config) { c.Chart.Anchors = []string{"A1"} }, "anchors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadDirectory_Embedded(t *testing.T) {
	dir, err := Default().LoadDirectory()
	require.NoError(t, err)

	assert.Equal(t, "隼人", dir.Name("2"))
	assert.Equal(t, "長嶺", dir.Name("25"))
	assert.Equal(t, "不明", dir.Name("99"))
	assert.Len(t, dir.Order(), 16)
	assert.Equal(t, "Hayato", dir.Label("隼人"))
}

func TestLoadDirectory_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stores:
  - { code: "1", name: "本店", label: "Main" }
display_order: [本店]
`), 0o644))

	cfg := Default()
	cfg.StoresFile = path
	dir, err := cfg.LoadDirectory()
	require.NoError(t, err)
	assert.Equal(t, "本店", dir.Name("1"))
	assert.Equal(t, "不明", dir.Name("2"))
}

func TestParseDirectory_Invalid(t *testing.T) {
	_, err := ParseDirectory([]byte("stores: []"), "")
	require.Error(t, err)

	_, err = ParseDirectory([]byte(`
stores:
  - { code: "1", name: "本店" }
display_order: [支店]
`), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmapped store")
}
