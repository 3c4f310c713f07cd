package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ginjaninja78/pos-sales-report/internal/chart"
	"github.com/ginjaninja78/pos-sales-report/internal/logger"
	"github.com/ginjaninja78/pos-sales-report/internal/pipeline"
	"github.com/ginjaninja78/pos-sales-report/internal/report"
	"github.com/ginjaninja78/pos-sales-report/internal/types"
	"github.com/ginjaninja78/pos-sales-report/internal/xlsxwriter"
)

const defaultMaxUploadMB = 32

// =============================================================================
// RESPONSES
// =============================================================================

type analyzeResponse struct {
	Stats    pipeline.Stats `json:"stats"`
	Weekdays []weekdayRef   `json:"weekdays"`
	Tables   []sheetTable   `json:"tables"`
}

type weekdayRef struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

type sheetTable struct {
	types.Table
	Sheet string `json:"sheet"`
}

type matrixResponse struct {
	Weekday weekdayRef `json:"weekday"`
	Stores  []string   `json:"stores"`
	Hours   []int      `json:"hours"`
	Counts  [][]int    `json:"counts"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	a, ok := s.analyzeUpload(w, r)
	if !ok {
		return
	}

	opts := s.conv.TableOptions()
	resp := analyzeResponse{Stats: a.Stats, Weekdays: []weekdayRef{}}
	for _, d := range a.Report.Weekdays() {
		resp.Weekdays = append(resp.Weekdays, weekdayRef{Index: d, Label: opts.WeekdayLabel(d)})
	}
	for _, t := range a.Report.Tables(opts) {
		resp.Tables = append(resp.Tables, sheetTable{Table: t, Sheet: s.conv.SheetName(t.View)})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWeekday(w http.ResponseWriter, r *http.Request) {
	weekday, ok := s.weekdayParam(w, r)
	if !ok {
		return
	}
	a, ok := s.analyzeUpload(w, r)
	if !ok {
		return
	}

	m := a.Report.WeekdayMatrix(weekday)
	resp := matrixResponse{
		Weekday: weekdayRef{Index: weekday, Label: s.conv.TableOptions().WeekdayLabel(weekday)},
		Stores:  m.Stores,
		Hours:   m.Hours,
		Counts:  m.Counts,
	}
	if m.Empty() {
		resp.Stores, resp.Hours, resp.Counts = []string{}, []int{}, [][]int{}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	weekday, ok := s.weekdayParam(w, r)
	if !ok {
		return
	}
	a, ok := s.analyzeUpload(w, r)
	if !ok {
		return
	}

	m := a.Report.WeekdayMatrix(weekday)
	if m.Empty() {
		respondError(w, http.StatusNotFound, "no receipts on "+s.conv.TableOptions().WeekdayLabel(weekday))
		return
	}
	png, err := chart.Heatmap(chart.CountGrid(m, s.conv.Directory()), s.conv.ChartOptions())
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("failed to render heatmap")
		respondError(w, http.StatusInternalServerError, "failed to render heatmap")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	a, ok := s.analyzeUpload(w, r)
	if !ok {
		return
	}

	withCharts := s.conv.EmbedCharts()
	if charts := r.URL.Query().Get("charts"); charts != "" {
		withCharts = charts == "1" || charts == "true"
	}

	var buf bytes.Buffer
	if err := s.conv.ExportWithCharts(r.Context(), a, &buf, withCharts); err != nil {
		s.failed(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxwriter.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+xlsxwriter.DefaultFileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

// analyzeUpload runs the uploaded export through the pipeline. On failure the
// error response has already been written.
func (s *Server) analyzeUpload(w http.ResponseWriter, r *http.Request) (*pipeline.Analysis, bool) {
	mb := s.cfg.MaxUploadMB
	if mb <= 0 {
		mb = defaultMaxUploadMB
	}
	limit := int64(mb) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "upload exceeds "+strconv.Itoa(mb)+" MB")
			return nil, false
		}
		respondError(w, http.StatusBadRequest, "expected a multipart form upload")
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return nil, false
	}
	defer file.Close()

	a, err := s.conv.Analyze(r.Context(), file, header.Filename)
	if err != nil {
		s.failed(w, r, err)
		return nil, false
	}
	return a, true
}

// failed maps a pipeline error to a response.
func (s *Server) failed(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	switch {
	case pipeline.IsFileLevel(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled):
		// client went away
		log.Debug().Err(err).Msg("request cancelled")
	default:
		log.Error().Err(err).Msg("analysis failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) weekdayParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw, err := url.PathUnescape(chi.URLParam(r, "weekday"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed weekday")
		return 0, false
	}
	d, err := report.ParseWeekday(raw, s.labels)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return d, true
}
