package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/vbonduro/plantcare/internal/domain"
	"github.com/vbonduro/plantcare/internal/portability"
	"github.com/vbonduro/plantcare/internal/service"
)

const maxJSONBody = 1 << 20 // 1 MiB

type Server struct {
	service *service.PlantService
	porter  *portability.Porter
	mux     *http.ServeMux
	logger  *slog.Logger
}

func NewServer(svc *service.PlantService, porter *portability.Porter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service: svc,
		porter:  porter,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /plants", s.handleListPlants)
	s.mux.HandleFunc("POST /plants", s.handleCreatePlant)
	s.mux.HandleFunc("GET /plants/{id}", s.handleGetPlant)
	s.mux.HandleFunc("PUT /plants/{id}", s.handleUpdatePlant)
	s.mux.HandleFunc("DELETE /plants/{id}", s.handleDeletePlant)
	s.mux.HandleFunc("POST /plants/{id}/water", s.handleWater)
	s.mux.HandleFunc("POST /plants/{id}/tasks", s.handleAddTask)
	s.mux.HandleFunc("PUT /plants/{id}/tasks/{index}", s.handleUpdateTask)
	s.mux.HandleFunc("DELETE /plants/{id}/tasks/{index}", s.handleRemoveTask)
	s.mux.HandleFunc("POST /plants/{id}/tasks/{index}/done", s.handleCompleteTask)
	s.mux.HandleFunc("POST /plants/{id}/observations", s.handleAddObservation)
	s.mux.HandleFunc("PUT /plants/{id}/cover", s.handleSetCover)
	s.mux.HandleFunc("PUT /plants/{id}/weather", s.handleSetWeather)
	s.mux.HandleFunc("DELETE /plants/{id}/weather", s.handleClearWeather)
	s.mux.HandleFunc("POST /plants/{id}/weather/refresh", s.handleRefreshWeather)
	s.mux.HandleFunc("POST /plants/{id}/plan", s.handleApplyPlan)
	s.mux.HandleFunc("GET /agenda", s.handleAgenda)
	s.mux.HandleFunc("GET /files/{id}", s.handleGetFile)
	s.mux.HandleFunc("GET /export", s.handleExport)
	s.mux.HandleFunc("POST /import", s.handleImport)
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("GET /settings", s.handleGetSettings)
	s.mux.HandleFunc("PUT /settings", s.handlePutSettings)
	s.mux.HandleFunc("POST /settings/weather", s.handleRefreshSettingsWeather)
	s.mux.HandleFunc("GET /suggest", s.handleSuggest)
	s.mux.HandleFunc("POST /plan", s.handlePlan)
	s.mux.HandleFunc("POST /demo", s.handleDemo)
}

// securityHeaders sets hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps classified errors to a status code. Anything unclassified
// is logged and reported as 500 with msg.
func (s *Server) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidSnapshot):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		s.logger.Error(msg, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: msg})
	}
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v)
}
