// Package server provides the HTTP server and routing for the monitoring service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/fabricpulse/rtms/internal/config"
	"github.com/fabricpulse/rtms/internal/database"
	"github.com/fabricpulse/rtms/internal/events"
	"github.com/fabricpulse/rtms/internal/modules/monitor"
	monitorhandlers "github.com/fabricpulse/rtms/internal/modules/monitor/handlers"
)

// Config holds server configuration
type Config struct {
	Log             zerolog.Logger
	Config          *config.Config
	CacheDB         *database.DB
	EventBus        *events.Bus
	Monitor         *monitor.Service
	MonitorHandlers *monitorhandlers.Handler
	Port            int
	DevMode         bool
}

// Server represents the HTTP server
type Server struct {
	router          *chi.Mux
	server          *http.Server
	log             zerolog.Logger
	cfg             *config.Config
	cacheDB         *database.DB
	monitor         *monitor.Service
	monitorHandlers *monitorhandlers.Handler
	systemHandlers  *SystemHandlers
	eventsStream    *EventsStreamHandler
	startedAt       time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:          chi.NewRouter(),
		log:             cfg.Log.With().Str("component", "server").Logger(),
		cfg:             cfg.Config,
		cacheDB:         cfg.CacheDB,
		monitor:         cfg.Monitor,
		monitorHandlers: cfg.MonitorHandlers,
		systemHandlers:  NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.CacheDB),
		eventsStream:    NewEventsStreamHandler(cfg.EventBus, cfg.Log),
		startedAt:       time.Now(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/status", s.handleStatus)

	s.router.Route("/api/rtms", func(r chi.Router) {
		s.monitorHandlers.RegisterRoutes(r)
	})

	s.router.Route("/api/reports", func(r chi.Router) {
		r.Get("/hourly", s.monitorHandlers.HandleHourlyReport)
	})

	s.router.Get("/api/events/stream", s.eventsStream.ServeHTTP)

	s.router.Route("/api/system", func(r chi.Router) {
		r.Get("/status", s.systemHandlers.HandleSystemStatus)
		r.Get("/database-stats", s.systemHandlers.HandleDatabaseStats)
		r.Get("/disk-usage", s.systemHandlers.HandleDiskUsage)
	})
}

// handleHealth is the liveness probe
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.cacheDB != nil {
		if err := s.cacheDB.HealthCheck(r.Context()); err != nil {
			s.log.Error().Err(err).Msg("Health check failed")
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"uptime":    time.Since(s.startedAt).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus reports the monitoring state: when the last snapshot was
// fetched, how many records it held, and the active filter selection.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":       "ok",
		"snapshot":     nil,
		"uptime":       time.Since(s.startedAt).String(),
		"dev_mode":     s.cfg.DevMode,
		"data_dir":     s.cfg.DataDir,
		"refresh_mins": int(s.cfg.RefreshInterval.Minutes()),
	}

	if st := s.monitor.State(); st != nil {
		sel := st.Selection
		response["snapshot"] = map[string]interface{}{
			"id":         st.SnapshotID,
			"fetched_at": st.FetchedAt.Format(time.RFC3339),
			"rebuilt_at": st.RebuiltAt.Format(time.RFC3339),
			"records":    len(st.Records),
			"alerts":     len(st.Alerts),
			"selection": map[string]string{
				"unit":  sel.Unit,
				"floor": sel.Floor,
				"line":  sel.Line,
				"part":  sel.Part,
			},
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
