// File: internal/loop/loop.go
// Package loop owns the run state machine: capture a screenshot, ask the
// planner or a direct backend for the next action, execute it, append
// history, repeat. At most one run is active per Runner.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/actor"
	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/metrics"
	"github.com/deskhand/deskhand/internal/runlog"
	"github.com/deskhand/deskhand/internal/trajectory"
	"github.com/deskhand/deskhand/internal/visualize"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Run states.
const (
	StateIdle      = "IDLE"
	StateRunning   = "RUNNING"
	StateStopped   = "STOPPED"
	StateCancelled = "CANCELLED"
	StateError     = "ERROR"
)

// Control-surface gate errors.
var (
	ErrRunActive = errors.New("a run is already active")
	ErrNoRun     = errors.New("no run is active")
)

// Event is one loop occurrence pushed to the gateway hub and any other
// consumer of the stream.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Event types.
const (
	EventState  = "state"
	EventPlan   = "plan"
	EventResult = "result"
	EventError  = "error"
)

// Screenshotter captures the selected display and persists the frame.
type Screenshotter interface {
	CaptureScreenshot() (path string, b64 string, err error)
}

// ActionExecutor decomposes and runs one canonical action.
type ActionExecutor interface {
	Execute(ctx context.Context, action schemas.Action) (<-chan schemas.Result, error)
}

// Planner generates the next step in remote mode.
type Planner interface {
	GenerateAction(ctx context.Context, req schemas.PlanRequest) (*schemas.PlanResponse, error)
}

// Deps wires a Runner. NewActor is consulted only when the configured mode is
// a direct backend; NewRecorder may be nil to disable run artifacts.
type Deps struct {
	Config      config.Interface
	Shots       Screenshotter
	Exec        ActionExecutor
	Planner     Planner
	NewActor    func(rec runlog.Recorder) actor.Actor
	NewRecorder func(taskID string) (runlog.Recorder, error)
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// Runner is the singleton run owner. All state transitions happen under mu;
// the run itself executes on its own goroutine.
type Runner struct {
	deps   Deps
	logger *zap.Logger
	events chan Event

	mu      sync.Mutex
	state   string
	taskID  string
	step    int
	cancel  context.CancelFunc
	done    chan struct{}
	history trajectory.History
}

// NewRunner builds an idle Runner.
func NewRunner(deps Deps) *Runner {
	return &Runner{
		deps:   deps,
		logger: deps.Logger.Named("loop"),
		events: make(chan Event, 256),
		state:  StateIdle,
	}
}

// Events exposes the buffered event stream. Slow consumers lose events
// rather than stalling the loop.
func (r *Runner) Events() <-chan Event {
	return r.events
}

// Status reports the current run state.
func (r *Runner) Status() schemas.StatusResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return schemas.StatusResponse{State: r.state, TaskID: r.taskID, Step: r.step}
}

// Start launches a run. A second start while one is active fails with
// ErrRunActive and does not disturb the active run.
func (r *Runner) Start(req schemas.RunTaskRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRunning {
		return "", ErrRunActive
	}

	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = r.deps.Config.Loop().MaxSteps
	}
	taskID := trajectory.NewTaskID(req.TraceName, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	r.state = StateRunning
	r.taskID = taskID
	r.step = 0
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(ctx, req, taskID, maxSteps)

	r.logger.Info("Run started.",
		zap.String("task_id", taskID),
		zap.Int("max_steps", maxSteps),
	)
	return taskID, nil
}

// Stop requests cooperative cancellation of the active run. Stopping while
// idle fails with ErrNoRun and changes nothing.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRunning {
		return ErrNoRun
	}
	r.cancel()
	return nil
}

// Wait blocks until the active run (if any) has fully torn down. Used by
// shutdown and by tests.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *Runner) finish(outcome string) {
	r.history.Clear()
	if r.deps.Metrics != nil {
		r.deps.Metrics.RunsTotal.WithLabelValues(outcome).Inc()
	}
	r.publish(EventState, outcome)

	r.mu.Lock()
	r.state = StateIdle
	r.cancel = nil
	close(r.done)
	r.mu.Unlock()

	r.logger.Info("Run finished.", zap.String("outcome", outcome))
}

func (r *Runner) setStep(step int) {
	r.mu.Lock()
	r.step = step
	r.mu.Unlock()
}

func (r *Runner) publish(eventType string, data interface{}) {
	ev := Event{Type: eventType, Data: data, Timestamp: time.Now()}
	select {
	case r.events <- ev:
	default:
		r.logger.Debug("Event dropped; stream buffer full.", zap.String("type", eventType))
	}
}

// run is the iteration engine. Cancellation is cooperative: the context is
// checked before and after pacing and between planner call and execution,
// never mid-operation.
func (r *Runner) run(ctx context.Context, req schemas.RunTaskRequest, taskID string, maxSteps int) {
	outcome := StateStopped
	defer func() { r.finish(outcome) }()

	rec := r.newRecorder(taskID)
	limiter := rate.NewLimiter(rate.Every(r.paceInterval()), 1)

	var act actor.Actor
	mode := r.deps.Config.Actor().Mode
	if mode != config.ModeRemote {
		act = r.deps.NewActor(rec)
	}

	r.publish(EventState, StateRunning)

	for step := 0; step < maxSteps; step++ {
		r.setStep(step)

		if err := limiter.Wait(ctx); err != nil {
			outcome = StateCancelled
			return
		}
		if ctx.Err() != nil {
			outcome = StateCancelled
			return
		}

		shotPath, shotB64, err := r.deps.Shots.CaptureScreenshot()
		if err != nil {
			r.logger.Error("Screenshot capture failed; run aborted.", zap.Error(err))
			r.publish(EventError, err.Error())
			outcome = StateError
			return
		}

		plan, decision, trajStep, err := r.nextAction(ctx, req, taskID, act, shotB64, shotPath)
		if err != nil {
			// Planner/backend transport failure is fatal for the run.
			r.logger.Error("Action generation failed; run aborted.", zap.Error(err))
			r.publish(EventError, err.Error())
			outcome = StateError
			return
		}
		r.publish(EventPlan, plan)
		if r.deps.Metrics != nil {
			r.deps.Metrics.StepsTotal.Inc()
		}

		if ctx.Err() != nil {
			outcome = StateCancelled
			return
		}

		action := schemas.Canonicalize(decision.Action)
		if action.IsTerminal() || decision.Complete {
			// Final frame for the record, then a normal exit.
			if _, _, err := r.deps.Shots.CaptureScreenshot(); err != nil {
				r.logger.Warn("Final screenshot failed.", zap.Error(err))
			}
			outcome = StateStopped
			return
		}

		r.executeStep(ctx, rec, action, shotPath)
		if trajStep < 0 {
			trajStep = step
		}
		r.appendHistory(trajStep, plan, action)
	}
	r.logger.Info("Maximum step count reached.", zap.Int("max_steps", maxSteps))
}

// nextAction produces the step's plan text, decision, and the planner's
// trajectory step index (-1 when the backend has no such notion) from either
// the remote planner or the direct backend.
func (r *Runner) nextAction(
	ctx context.Context,
	req schemas.RunTaskRequest,
	taskID string,
	act actor.Actor,
	shotB64, shotPath string,
) (string, actor.Decision, int, error) {
	start := time.Now()
	defer func() {
		if r.deps.Metrics != nil {
			r.deps.Metrics.PlannerSeconds.Observe(time.Since(start).Seconds())
		}
	}()

	if act != nil {
		decision, err := act.Act(ctx, actor.Observation{
			Task:           req.Task,
			ScreenshotB64:  shotB64,
			ScreenshotPath: shotPath,
			History:        r.history.Entries(),
		})
		if err != nil {
			return "", actor.Decision{}, -1, err
		}
		return string(decision.Action.Type), decision, -1, nil
	}

	resp, err := r.deps.Planner.GenerateAction(ctx, schemas.PlanRequest{
		TaskID:        taskID,
		Screenshot:    shotB64,
		Query:         req.Task,
		ActionHistory: r.history.Entries(),
		TraceName:     req.TraceName,
	})
	if err != nil {
		return "", actor.Decision{}, -1, err
	}
	if resp == nil {
		return "", actor.Decision{}, -1, fmt.Errorf("planner returned no response")
	}

	plan := resp.GeneratedPlan.Reasoning
	if plan == "" {
		plan = resp.GeneratedPlan.StepInfo
	}
	return plan, actor.Decision{
		Action:   resp.GeneratedAction.Content,
		Complete: resp.CompleteFlag,
	}, resp.CurrentTrajStep, nil
}

// executeStep decomposes and runs one action, streaming results as events.
// Every failure below the transport layer is step-local: the run continues.
func (r *Runner) executeStep(ctx context.Context, rec runlog.Recorder, action schemas.Action, shotPath string) {
	if action.Type == schemas.ActionError {
		if v, ok := action.ValueText(); ok {
			r.logger.Warn("Backend produced an error action.", zap.String("diagnostic", v))
			r.publish(EventError, v)
		}
		return
	}

	results, err := r.deps.Exec.Execute(ctx, action)
	if err != nil {
		r.logger.Warn("Action rejected by decomposer.",
			zap.String("action", string(action.Type)), zap.Error(err))
		r.publish(EventError, err.Error())
		return
	}
	if r.deps.Metrics != nil {
		r.deps.Metrics.ActionsTotal.WithLabelValues(string(action.Type)).Inc()
	}

	for res := range results {
		if res.IsError() && r.deps.Metrics != nil {
			r.deps.Metrics.ActionErrorsTotal.Inc()
		}
		r.publish(EventResult, res)
	}

	r.markVisualization(rec, action, shotPath)
}

// markVisualization writes the diagnostic marked screenshot copy for
// positional actions. Failures never disturb the run.
func (r *Runner) markVisualization(rec runlog.Recorder, action schemas.Action, shotPath string) {
	dir := rec.Dir()
	if dir == "" || shotPath == "" {
		return
	}
	p, ok := action.PositionPoint()
	if !ok {
		if start, _, dok := action.DragEndpoints(); dok {
			p, ok = start, true
		}
	}
	if !ok {
		return
	}
	if _, err := visualize.Mark(shotPath, dir, p.X, p.Y); err != nil {
		r.logger.Debug("Failed to write marked screenshot.", zap.Error(err))
	}
}

func (r *Runner) appendHistory(step int, plan string, action schemas.Action) {
	raw, err := json.Marshal(action)
	if err != nil {
		raw = []byte(string(action.Type))
	}
	r.history.Append(step, plan, string(raw))
}

func (r *Runner) newRecorder(taskID string) runlog.Recorder {
	if r.deps.NewRecorder == nil {
		return (*runlog.Logger)(nil)
	}
	rec, err := r.deps.NewRecorder(taskID)
	if err != nil {
		r.logger.Warn("Run artifact recorder unavailable.", zap.Error(err))
		return (*runlog.Logger)(nil)
	}
	return rec
}

func (r *Runner) paceInterval() time.Duration {
	interval := r.deps.Config.Loop().PaceInterval
	if interval <= 0 {
		interval = time.Second
	}
	return interval
}
