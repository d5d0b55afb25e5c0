// File: internal/service/service.go
// Package service assembles the full engine: display binding, device tool,
// executor, backend clients, the run loop, and the HTTP gateway. It
// centralizes the dependency wiring so the CLI layer stays thin.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/deskhand/deskhand/internal/actor"
	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/device"
	"github.com/deskhand/deskhand/internal/executor"
	"github.com/deskhand/deskhand/internal/feedback"
	"github.com/deskhand/deskhand/internal/gateway"
	"github.com/deskhand/deskhand/internal/input"
	"github.com/deskhand/deskhand/internal/loop"
	"github.com/deskhand/deskhand/internal/metrics"
	"github.com/deskhand/deskhand/internal/planner"
	"github.com/deskhand/deskhand/internal/runlog"
	"github.com/deskhand/deskhand/internal/screen"
)

// Components holds the initialized services for one engine process.
type Components struct {
	Config   config.Interface
	Logger   *zap.Logger
	Device   *device.Tool
	Executor *executor.Executor
	Planner  *planner.Client
	Metrics  *metrics.Metrics
	Runner   *loop.Runner
	Gateway  *gateway.Server
}

// Deps are the substitutable seams for Build. Zero values select the real
// OS-backed implementations.
type Deps struct {
	Injector input.Injector
	Enum     screen.Enumerator
	Capturer screen.Capturer
	Marker   feedback.Marker
}

// Build performs the full dependency injection. Display resolution happens
// here, so a bad screen index fails fast before any server starts.
func Build(cfg config.Interface, logger *zap.Logger, deps Deps) (*Components, error) {
	if deps.Injector == nil {
		deps.Injector = input.NewInjector()
	}
	if deps.Enum == nil {
		deps.Enum = screen.NewEnumerator()
	}
	if deps.Capturer == nil {
		deps.Capturer = screen.NewCapturer()
	}
	if deps.Marker == nil {
		deps.Marker = feedback.NewMarker(cfg.Input().AnimationEnabled, logger)
	}

	tool, err := device.NewTool(
		cfg.Input(), cfg.Screen(), cfg.Paths().OutputDir,
		deps.Injector, deps.Enum, deps.Capturer, deps.Marker, logger,
	)
	if err != nil {
		return nil, fmt.Errorf("initializing device tool: %w", err)
	}

	exec := executor.New(tool, logger)
	m := metrics.New()
	plannerClient := planner.New(cfg.Planner(), logger)

	// Backends see the post-resize frame, so their coordinate space is the
	// scaling target, not the raw display.
	target := tool.ScalingTarget()
	newActor := func(rec runlog.Recorder) actor.Actor {
		return actor.New(cfg.Actor(), target.Width, target.Height, rec, logger)
	}
	newRecorder := func(taskID string) (runlog.Recorder, error) {
		return runlog.New(cfg.Paths().RunLogDir, taskID, logger)
	}

	runner := loop.NewRunner(loop.Deps{
		Config:      cfg,
		Shots:       tool,
		Exec:        exec,
		Planner:     plannerClient,
		NewActor:    newActor,
		NewRecorder: newRecorder,
		Metrics:     m,
		Logger:      logger,
	})

	gw := gateway.New(gateway.Deps{
		Config:  cfg.Gateway(),
		Runner:  runner,
		Events:  runner.Events(),
		Metrics: m.Handler(),
		Logger:  logger,
	})

	logger.Info("Engine components initialized.",
		zap.String("actor_mode", cfg.Actor().Mode),
		zap.Int("screen_index", cfg.Screen().SelectedIndex),
		zap.String("scaling_target", target.Name),
	)

	return &Components{
		Config:   cfg,
		Logger:   logger,
		Device:   tool,
		Executor: exec,
		Planner:  plannerClient,
		Metrics:  m,
		Runner:   runner,
		Gateway:  gw,
	}, nil
}

// Serve runs the gateway until ctx is cancelled, then tears the engine down.
func (c *Components) Serve(ctx context.Context) error {
	err := c.Gateway.Serve(ctx)
	c.Shutdown()
	return err
}

// Shutdown cancels any active run and waits for it to tear down.
func (c *Components) Shutdown() {
	if c.Runner == nil {
		return
	}
	if err := c.Runner.Stop(); err != nil && !errors.Is(err, loop.ErrNoRun) {
		c.Logger.Warn("Error stopping active run during shutdown.", zap.Error(err))
	}
	c.Runner.Wait()
	c.Logger.Info("Engine shut down.")
}
