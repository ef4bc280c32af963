package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Controller is the control surface of the scheduler exposed over HTTP
type Controller interface {
	Start()
	Stop()
	Enabled() bool
	RunCount() int64
	TickCount() int64
	CancelFutureTasks() int
}

type Server struct {
	router *chi.Mux
	http   *http.Server
}

type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// New creates a new API server instance. metrics is mounted on /metrics when not nil.
func New(controller Controller, metrics http.Handler, config *Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
	}

	// Set up middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		serveJson(w, HealthResponse{Status: "ok"})
	})
	if metrics != nil {
		s.router.Handle("/metrics", metrics)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Mount("/scheduler", NewSchedulerRouter(controller, chi.NewRouter()))
	})

	s.http = &http.Server{
		Addr:              config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe blocks until the server is shut down. A graceful shutdown is not an error.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.http.Addr).Msg("API server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx is done
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func readJson(w http.ResponseWriter, r *http.Request, payload any) error {
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Error().Err(err).Msg("Could not close request body")
		}
	}()

	err := json.NewDecoder(r.Body).Decode(payload)
	if err != nil {
		http.Error(w, "could not parse request body to payload", http.StatusBadRequest)
	}
	return err
}

func serveJson(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		http.Error(w, "Failed to encode payload", http.StatusInternalServerError)
		log.Error().Err(err).Msg("JSON encoding issue")
	}
}
