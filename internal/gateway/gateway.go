// File: internal/gateway/gateway.go
// Package gateway exposes the local HTTP control surface: run control,
// status, health, metrics, and the WebSocket event stream.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/loop"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RunController is the slice of the loop runner the gateway drives.
type RunController interface {
	Start(req schemas.RunTaskRequest) (string, error)
	Stop() error
	Status() schemas.StatusResponse
}

// Deps wires a Server. Events is the loop's stream; the hub fans it out to
// every connected WebSocket client. Metrics may be nil to disable /metrics.
type Deps struct {
	Config  config.GatewayConfig
	Runner  RunController
	Events  <-chan loop.Event
	Metrics http.Handler
	Logger  *zap.Logger
}

// Server is the control-surface HTTP server plus its WebSocket hub.
type Server struct {
	deps       Deps
	logger     *zap.Logger
	hub        *hub
	httpServer *http.Server
}

// New builds the server and its router.
func New(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		logger: deps.Logger.Named("gateway"),
	}
	s.hub = newHub(s.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// The WebSocket route is registered outside the timeout group; event
	// streams are long-lived by design.
	r.Get("/ws/events", s.handleEvents())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/run_task", s.handleRunTask())
		r.Post("/stop", s.handleStop())
		r.Get("/status", s.handleStatus())
		r.Get("/healthz", s.handleHealthz())
		if deps.Metrics != nil {
			r.Method(http.MethodGet, "/metrics", deps.Metrics)
		}
	})

	s.httpServer = &http.Server{
		Addr:              deps.Config.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for httptest-style in-process serving.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve runs the HTTP listener and the event fan-out until ctx is cancelled,
// then shuts down gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.hub.run(gctx, s.deps.Events)
		return nil
	})

	g.Go(func() error {
		s.logger.Info("Control gateway listening.", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		timeout := s.deps.Config.ShutdownTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.logger.Info("Shutting down control gateway...")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Gateway shutdown error", zap.Error(err))
			return err
		}
		s.hub.closeAll()
		return nil
	})

	return g.Wait()
}

func (s *Server) handleRunTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req schemas.RunTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.Task == "" {
			s.writeError(w, http.StatusBadRequest, "task must not be empty")
			return
		}

		taskID, err := s.deps.Runner.Start(req)
		if err != nil {
			if errors.Is(err, loop.ErrRunActive) {
				s.writeError(w, http.StatusConflict, err.Error())
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		s.logger.Info("Run accepted.", zap.String("task_id", taskID))
		s.writeJSON(w, http.StatusOK, schemas.RunTaskResponse{Status: "started", TaskID: taskID})
	}
}

func (s *Server) handleStop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.deps.Runner.Stop(); err != nil {
			if errors.Is(err, loop.ErrNoRun) {
				s.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, schemas.StopResponse{Status: "stopping"})
	}
}

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.deps.Runner.Status())
	}
}

func (s *Server) handleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response body", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, schemas.APIError{Error: msg})
}
