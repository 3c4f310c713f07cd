// =============================================================================
// POS Sales Report - HTTP Presentation Server
// =============================================================================
//
// This module serves the report over HTTP. Every request that carries an
// export is one independent run: the upload is analyzed, the requested
// presentation is rendered, and nothing is kept afterwards.
//
// ROUTES:
//   GET  /health
//   POST /api/analyze                   stats, weekdays and every view (JSON)
//   POST /api/analyze/weekday/{weekday} one weekday's store x hour matrix (JSON)
//   POST /api/heatmap/{weekday}         the same matrix as a PNG heatmap
//   POST /api/report                    the workbook download (?charts=1|0,
//                                       report.embed_charts when absent)
//
// The export is sent as the multipart field "file".
//
// =============================================================================

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/pos-sales-report/internal/config"
	"github.com/ginjaninja78/pos-sales-report/internal/logger"
	"github.com/ginjaninja78/pos-sales-report/internal/pipeline"
	"github.com/ginjaninja78/pos-sales-report/internal/report"
)

// Server is the HTTP presentation layer over a Converter.
type Server struct {
	conv    *pipeline.Converter
	cfg     config.ServerSettings
	labels  []string
	logger  zerolog.Logger
	handler http.Handler
	server  *http.Server
}

// New creates a Server and builds its routes.
func New(conv *pipeline.Converter, cfg *config.Config, log zerolog.Logger) *Server {
	s := &Server{
		conv:   conv,
		cfg:    cfg.Server,
		labels: cfg.Report.WeekdayLabels,
		logger: log.With().Str("component", "server").Logger(),
	}
	if len(s.labels) != 7 {
		s.labels = report.DefaultWeekdayLabels
	}
	s.handler = s.routes()
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadTimeout:       2 * time.Minute,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/weekday/{weekday}", s.handleWeekday)
		r.Post("/heatmap/{weekday}", s.handleHeatmap)
		r.Post("/report", s.handleReport)
	})

	return r
}

// requestLogger puts a request-scoped logger in the context and logs one
// line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLog := logger.WithFields(s.logger, map[string]interface{}{
			"request_id": middleware.GetReqID(r.Context()),
		})
		r = r.WithContext(logger.WithContext(r.Context(), reqLog))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		reqLog.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on the configured address until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.cfg.Addr).Msg("starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
