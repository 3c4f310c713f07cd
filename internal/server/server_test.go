package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"

	"github.com/ginjaninja78/pos-sales-report/internal/config"
	"github.com/ginjaninja78/pos-sales-report/internal/logger"
	"github.com/ginjaninja78/pos-sales-report/internal/pipeline"
)

const sampleExport = "売上明細一覧\r\n" +
	"期間: 2024年05月01日-2024年05月31日\r\n" +
	"販売日時,レシート番号,商品名,販売単価,数量,小計\r\n" +
	"2024年05月01日 10:15,No.2-0001,おにぎり,@500,2,1000\r\n" +
	"2024年05月01日 10:15,No.2-0001,お茶,@150,1,150\r\n" +
	"2024年05月01日 11:40,No.3-0007,弁当,@1280,1,1280\r\n" +
	"2024年05月04日 18:05,No.2-0002,おにぎり,@500,1,500\r\n"

func shiftJIS(t *testing.T, s string) []byte {
	t.Helper()
	b, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Chart.Width, cfg.Chart.Height = 600, 300
	if mutate != nil {
		mutate(cfg)
	}
	dir, err := cfg.LoadDirectory()
	require.NoError(t, err)
	return New(pipeline.New(cfg, dir, logger.Nop()), cfg, logger.Nop())
}

func upload(t *testing.T, s *Server, target, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, nil)
	rec := upload(t, s, "/api/analyze", "sales.csv", shiftJIS(t, sampleExport))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Stats struct {
			Rows     int `json:"rows"`
			Kept     int `json:"kept"`
			Receipts int `json:"receipts"`
		} `json:"stats"`
		Weekdays []struct {
			Index int    `json:"index"`
			Label string `json:"label"`
		} `json:"weekdays"`
		Tables []struct {
			View    string   `json:"view"`
			Sheet   string   `json:"sheet"`
			Columns []string `json:"columns"`
			Rows    [][]any  `json:"rows"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 4, resp.Stats.Rows)
	assert.Equal(t, 4, resp.Stats.Kept)
	assert.Equal(t, 3, resp.Stats.Receipts)

	require.Len(t, resp.Weekdays, 2)
	assert.Equal(t, 2, resp.Weekdays[0].Index)
	assert.Equal(t, "水曜日", resp.Weekdays[0].Label)
	assert.Equal(t, 5, resp.Weekdays[1].Index)

	require.Len(t, resp.Tables, 7)
	assert.Equal(t, "daily", resp.Tables[0].View)
	assert.Equal(t, "Daily_ByStore", resp.Tables[0].Sheet)
	assert.Equal(t, []any{"2024/5/1", "隼人", 1150.0, 1.0, 3.0, 1150.0, 383.3333}, resp.Tables[0].Rows[0])
}

func TestAnalyze_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("plain body"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req = httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"file is required"}`, rec.Body.String())
}

func TestAnalyze_FileLevelFailures(t *testing.T) {
	s := newTestServer(t, nil)

	rec := upload(t, s, "/api/analyze", "sales.pdf", shiftJIS(t, sampleExport))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = upload(t, s, "/api/analyze", "sales.csv", shiftJIS(t, "a\r\nb\r\n販売日時,商品名\r\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")

	rec = upload(t, s, "/api/analyze", "sales.csv", []byte{0x82, 0xff, '\n'})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = upload(t, s, "/api/analyze", "sales.xlsx", []byte("this is not a zip"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a readable xlsx workbook")
}

func TestAnalyze_UploadLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.MaxUploadMB = 1 })
	rec := upload(t, s, "/api/analyze", "sales.csv", bytes.Repeat([]byte("x"), 2<<20))
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge}, rec.Code)
}

func TestWeekdayMatrix(t *testing.T) {
	s := newTestServer(t, nil)
	rec := upload(t, s, "/api/analyze/weekday/wed", "sales.csv", shiftJIS(t, sampleExport))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.JSONEq(t, `{
		"weekday": {"index": 2, "label": "水曜日"},
		"stores": ["隼人", "鷹尾"],
		"hours": [10, 11],
		"counts": [[1, 0], [0, 1]]
	}`, rec.Body.String())

	rec = upload(t, s, "/api/analyze/weekday/0", "sales.csv", shiftJIS(t, sampleExport))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"weekday":{"index":0,"label":"月曜日"},"stores":[],"hours":[],"counts":[]}`, rec.Body.String())

	rec = upload(t, s, "/api/analyze/weekday/someday", "sales.csv", shiftJIS(t, sampleExport))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHeatmap(t *testing.T) {
	s := newTestServer(t, nil)
	rec := upload(t, s, "/api/heatmap/2", "sales.csv", shiftJIS(t, sampleExport))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))

	rec = upload(t, s, "/api/heatmap/mon", "sales.csv", shiftJIS(t, sampleExport))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReport(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		target string
		sheets int
	}{
		{"tables only", "/api/report", 7},
		{"with charts", "/api/report?charts=1", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(t, s, tt.target, "sales.csv", shiftJIS(t, sampleExport))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, `attachment; filename="SalesAnalysisReport.xlsx"`, rec.Header().Get("Content-Disposition"))
			assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))

			f, err := excelize.OpenReader(rec.Body)
			require.NoError(t, err)
			defer f.Close()
			assert.Len(t, f.GetSheetList(), tt.sheets)
		})
	}
}

func TestReport_ChartsDefaultFromConfig(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Report.EmbedCharts = true })

	tests := []struct {
		name   string
		target string
		sheets int
	}{
		{"configured default", "/api/report", 8},
		{"query turns charts off", "/api/report?charts=0", 7},
		{"query false", "/api/report?charts=false", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(t, s, tt.target, "sales.csv", shiftJIS(t, sampleExport))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			f, err := excelize.OpenReader(rec.Body)
			require.NoError(t, err)
			defer f.Close()
			sheets := f.GetSheetList()
			assert.Len(t, sheets, tt.sheets)
			if tt.sheets == 8 {
				assert.Equal(t, "Charts", sheets[len(sheets)-1])
			}
		})
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.AllowedOrigins = []string{"http://localhost:5173"} })

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogging(t *testing.T) {
	var logs bytes.Buffer
	cfg := config.Default()
	dir, err := cfg.LoadDirectory()
	require.NoError(t, err)
	s := New(pipeline.New(cfg, dir, logger.Nop()), cfg, logger.NewWithWriter(&logs))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	out := logs.String()
	assert.Contains(t, out, `"path":"/health"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"request_id":"`)
	assert.Contains(t, out, `"component":"server"`)
}
