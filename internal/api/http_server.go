package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"zolver/internal/config"
	"zolver/internal/domain"
	"zolver/internal/metrics"
	"zolver/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the scheduling API.
type HTTPServer struct {
	cfg          config.APIConfig
	appointments *service.AppointmentService
	schedules    *service.ScheduleService
	exporter     ScheduleExporter
	server       *http.Server
	auth         *HTTPAuth
	log          zerolog.Logger
}

// ScheduleExporter renders a professional's schedule as an .xlsx workbook.
type ScheduleExporter interface {
	ExcelSchedule(ctx context.Context, professionalID string, start, end time.Time) ([]byte, error)
}

func NewHTTPServer(cfg config.APIConfig, appointments *service.AppointmentService, schedules *service.ScheduleService, exporter ScheduleExporter, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:          cfg,
		appointments: appointments,
		schedules:    schedules,
		exporter:     exporter,
	}
	srv.auth = NewHTTPAuth(cfg)
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}

	mux.HandleFunc("POST /api/v1/appointments/external", srv.handleCreateExternal)
	mux.HandleFunc("POST /api/v1/appointments/job", srv.handleCreateFromJob)
	mux.HandleFunc("PATCH /api/v1/appointments/{id}/status", srv.handleUpdateStatus)
	mux.HandleFunc("DELETE /api/v1/appointments/{id}", srv.handleDelete)
	mux.HandleFunc("GET /api/v1/appointments/{id}/export/google", srv.handleExportGoogle)
	mux.HandleFunc("GET /api/v1/appointments/{id}/export.ics", srv.handleExportICS)
	mux.HandleFunc("GET /api/v1/professionals/{id}/appointments", srv.handleList)
	mux.HandleFunc("GET /api/v1/professionals/{id}/schedule", srv.handleSchedule)
	mux.HandleFunc("GET /api/v1/professionals/{id}/schedule.xlsx", srv.handleExportExcel)
	mux.HandleFunc("GET /api/v1/professionals/{id}/availability", srv.handleAvailability)
	mux.HandleFunc("GET /healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the full middleware-wrapped handler. Test hook.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// SetSharedLimiter routes rate limiting through the shared cache as a
// second layer behind the per-process token bucket.
func (s *HTTPServer) SetSharedLimiter(cache domain.ScheduleCache) {
	s.auth.SetSharedLimiter(cache)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("x-request-id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("x-request-id", requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		metrics.IncHTTP(r.URL.Path)
		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
