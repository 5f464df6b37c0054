// Package server provides the HTTP server and routing for the risk engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/benupfin/riskengine/internal/api"
	"github.com/benupfin/riskengine/internal/config"
	indicatorshandlers "github.com/benupfin/riskengine/internal/modules/indicators/handlers"
	"github.com/benupfin/riskengine/internal/modules/performance"
	performancehandlers "github.com/benupfin/riskengine/internal/modules/performance/handlers"
	"github.com/benupfin/riskengine/internal/modules/returns"
	"github.com/benupfin/riskengine/internal/modules/risk"
	riskhandlers "github.com/benupfin/riskengine/internal/modules/risk/handlers"
	"github.com/benupfin/riskengine/internal/modules/simulation"
	simulationhandlers "github.com/benupfin/riskengine/internal/modules/simulation/handlers"
	"github.com/benupfin/riskengine/internal/modules/volatility"
	volatilityhandlers "github.com/benupfin/riskengine/internal/modules/volatility/handlers"
	"github.com/benupfin/riskengine/pkg/logger"
)

// RequestTimeout bounds every request, including long simulations.
const RequestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	Config  *config.Config
	Port    int
	DevMode bool
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	cfg     *config.Config
	port    int
	metrics *httpMetrics

	builder    *returns.Builder
	estimator  *risk.Estimator
	volatility *volatility.Service
	simulator  *simulation.Simulator
	reporter   *performance.Reporter
	codec      *api.Codec
}

// New creates a new HTTP server
func New(cfg Config) (*Server, error) {
	riskDefaults, err := cfg.Config.RiskOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid risk defaults: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		log:     logger.Component(cfg.Log, "server"),
		cfg:     cfg.Config,
		port:    cfg.Port,
		metrics: newHTTPMetrics(prometheus.NewRegistry()),

		builder:    returns.NewBuilder(cfg.Log),
		estimator:  risk.NewEstimator(cfg.Log, cfg.Config.Workers),
		volatility: volatility.NewService(cfg.Log),
		simulator:  simulation.NewSimulator(cfg.Log, cfg.Config.Workers),
		reporter:   performance.NewReporter(cfg.Log),
		codec:      api.NewCodec(cfg.Log),
	}

	s.setupMiddleware(cfg.DevMode, cfg.Config.AllowedOrigins)
	s.setupRoutes(riskDefaults)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool, origins []string) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Metrics
	s.router.Use(s.metrics.middleware)

	// Timeout
	s.router.Use(middleware.Timeout(RequestTimeout))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
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
func (s *Server) setupRoutes(riskDefaults risk.Options) {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.handler())

	s.router.Route("/api", func(r chi.Router) {
		riskhandlers.NewHandler(s.builder, s.estimator, s.codec, riskDefaults, s.log).
			RegisterRoutes(r)

		volatilityhandlers.NewHandler(s.builder, s.volatility, s.codec, s.cfg.VolatilityDefaults(), riskDefaults.Confidence, s.cfg.Seed, s.log).
			RegisterRoutes(r)

		simulationhandlers.NewHandler(s.builder, s.simulator, s.codec, s.cfg.SimulationDefaults(), s.log).
			RegisterRoutes(r)

		performancehandlers.NewHandler(s.reporter, s.codec, s.cfg.RiskFreeRate, s.log).
			RegisterRoutes(r)

		indicatorshandlers.NewHandler(s.codec, s.log).
			RegisterRoutes(r)
	})
}

// Router exposes the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
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
