// File: internal/loop/loop_test.go
package loop

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/actor"
	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/runlog"
)

func testConfig(t *testing.T, overrides map[string]interface{}) config.Interface {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("loop.pace_interval", "1ms")
	for key, val := range overrides {
		v.Set(key, val)
	}
	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)
	return cfg
}

type fakeShots struct {
	mu    sync.Mutex
	count int
	fail  bool
}

func (f *fakeShots) CaptureScreenshot() (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", "", fmt.Errorf("capture device gone")
	}
	f.count++
	return "", fmt.Sprintf("b64-frame-%d", f.count), nil
}

func (f *fakeShots) captures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// scriptedPlanner replays canned responses and records every request.
type scriptedPlanner struct {
	mu        sync.Mutex
	responses []*schemas.PlanResponse
	requests  []schemas.PlanRequest
	err       error
}

func (p *scriptedPlanner) GenerateAction(ctx context.Context, req schemas.PlanRequest) (*schemas.PlanResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.responses) == 0 {
		return &schemas.PlanResponse{
			GeneratedAction: schemas.GeneratedAction{Content: schemas.NewStopAction("done")},
		}, nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

func (p *scriptedPlanner) recorded() []schemas.PlanRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]schemas.PlanRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

type fakeExec struct {
	mu      sync.Mutex
	actions []schemas.Action
}

func (e *fakeExec) Execute(ctx context.Context, action schemas.Action) (<-chan schemas.Result, error) {
	e.mu.Lock()
	e.actions = append(e.actions, action)
	e.mu.Unlock()
	ch := make(chan schemas.Result, 1)
	ch <- schemas.NewActionResult("ok", string(action.Type))
	close(ch)
	return ch, nil
}

func (e *fakeExec) executed() []schemas.Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]schemas.Action, len(e.actions))
	copy(out, e.actions)
	return out
}

func planResponse(action schemas.Action, reasoning string, trajStep int) *schemas.PlanResponse {
	return &schemas.PlanResponse{
		Status:          "success",
		GeneratedPlan:   schemas.GeneratedPlan{Reasoning: reasoning},
		GeneratedAction: schemas.GeneratedAction{Content: action},
		CurrentTrajStep: trajStep,
	}
}

func newTestRunner(t *testing.T, planner Planner, exec ActionExecutor, shots Screenshotter, overrides map[string]interface{}) *Runner {
	t.Helper()
	return NewRunner(Deps{
		Config:  testConfig(t, overrides),
		Shots:   shots,
		Exec:    exec,
		Planner: planner,
		Logger:  zaptest.NewLogger(t),
	})
}

// drainOutcome reads buffered events and returns the last state payload.
func drainOutcome(r *Runner) string {
	outcome := ""
	for {
		select {
		case ev := <-r.Events():
			if ev.Type == EventState {
				if s, ok := ev.Data.(string); ok {
					outcome = s
				}
			}
		default:
			return outcome
		}
	}
}

func TestRunExecutesUntilStopAction(t *testing.T) {
	planner := &scriptedPlanner{responses: []*schemas.PlanResponse{
		planResponse(schemas.NewPositionalAction(schemas.ActionClick, schemas.Point{X: 5, Y: 5}), "click it", 0),
		planResponse(schemas.NewStopAction("all done"), "finished", 1),
	}}
	exec := &fakeExec{}
	shots := &fakeShots{}
	r := newTestRunner(t, planner, exec, shots, nil)

	taskID, err := r.Start(schemas.RunTaskRequest{Task: "press the button", TraceName: "demo"})
	require.NoError(t, err)
	assert.Contains(t, taskID, "_tid_demo_")
	r.Wait()

	assert.Equal(t, StateIdle, r.Status().State)
	assert.Equal(t, StateStopped, drainOutcome(r))

	// One CLICK executed; the STOP never reaches the executor.
	executed := exec.executed()
	require.Len(t, executed, 1)
	assert.Equal(t, schemas.ActionClick, executed[0].Type)

	// Two iteration captures plus the final frame on STOP.
	assert.Equal(t, 3, shots.captures())

	// The second planner request carries the formatted history entry.
	reqs := planner.recorded()
	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[0].ActionHistory)
	require.Len(t, reqs[1].ActionHistory, 1)
	assert.Contains(t, reqs[1].ActionHistory[0], "Executing guidance trajectory step [0]: {Plan: click it, Action: ")
	assert.Equal(t, "press the button", reqs[0].Query)
	assert.Equal(t, taskID, reqs[0].TaskID)
}

func TestStartWhileRunningRejected(t *testing.T) {
	block := make(chan struct{})
	planner := &blockingPlanner{release: block}
	r := newTestRunner(t, planner, &fakeExec{}, &fakeShots{}, nil)

	_, err := r.Start(schemas.RunTaskRequest{Task: "first"})
	require.NoError(t, err)

	_, err = r.Start(schemas.RunTaskRequest{Task: "second"})
	assert.ErrorIs(t, err, ErrRunActive)

	close(block)
	r.Wait()
	assert.Equal(t, StateIdle, r.Status().State)
}

func TestStopWhileIdleRejected(t *testing.T) {
	r := newTestRunner(t, &scriptedPlanner{}, &fakeExec{}, &fakeShots{}, nil)
	assert.ErrorIs(t, r.Stop(), ErrNoRun)
	assert.Equal(t, StateIdle, r.Status().State)
}

// blockingPlanner parks until released, then answers STOP.
type blockingPlanner struct {
	release <-chan struct{}
}

func (p *blockingPlanner) GenerateAction(ctx context.Context, req schemas.PlanRequest) (*schemas.PlanResponse, error) {
	select {
	case <-p.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &schemas.PlanResponse{
		GeneratedAction: schemas.GeneratedAction{Content: schemas.NewStopAction("done")},
	}, nil
}

func TestStopCancelsActiveRun(t *testing.T) {
	planner := &scriptedPlanner{responses: manyClicks(100)}
	r := newTestRunner(t, planner, &fakeExec{}, &fakeShots{}, map[string]interface{}{
		"loop.pace_interval": "20ms",
	})

	_, err := r.Start(schemas.RunTaskRequest{Task: "loop forever"})
	require.NoError(t, err)

	// Let at least one iteration land, then stop.
	require.Eventually(t, func() bool {
		return len(planner.recorded()) >= 1
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, r.Stop())
	r.Wait()

	assert.Equal(t, StateIdle, r.Status().State)
	assert.Equal(t, StateCancelled, drainOutcome(r))
}

func manyClicks(n int) []*schemas.PlanResponse {
	out := make([]*schemas.PlanResponse, n)
	for i := range out {
		out[i] = planResponse(schemas.NewPositionalAction(schemas.ActionClick, schemas.Point{X: 1, Y: 1}), "again", i)
	}
	return out
}

func TestPlannerFailureIsFatal(t *testing.T) {
	planner := &scriptedPlanner{err: fmt.Errorf("connection refused")}
	r := newTestRunner(t, planner, &fakeExec{}, &fakeShots{}, nil)

	_, err := r.Start(schemas.RunTaskRequest{Task: "anything"})
	require.NoError(t, err)
	r.Wait()

	assert.Equal(t, StateIdle, r.Status().State)
	assert.Equal(t, StateError, drainOutcome(r))
}

func TestScreenshotFailureIsFatal(t *testing.T) {
	r := newTestRunner(t, &scriptedPlanner{}, &fakeExec{}, &fakeShots{fail: true}, nil)

	_, err := r.Start(schemas.RunTaskRequest{Task: "anything"})
	require.NoError(t, err)
	r.Wait()

	assert.Equal(t, StateError, drainOutcome(r))
}

func TestMaxStepsBoundsRun(t *testing.T) {
	planner := &scriptedPlanner{responses: manyClicks(100)}
	exec := &fakeExec{}
	r := newTestRunner(t, planner, exec, &fakeShots{}, nil)

	_, err := r.Start(schemas.RunTaskRequest{Task: "busy", MaxSteps: 3})
	require.NoError(t, err)
	r.Wait()

	assert.Len(t, exec.executed(), 3)
	assert.Equal(t, StateStopped, drainOutcome(r))
}

func TestErrorActionContinuesRun(t *testing.T) {
	planner := &scriptedPlanner{responses: []*schemas.PlanResponse{
		planResponse(schemas.NewErrorAction("could not parse model output"), "confused", 0),
		planResponse(schemas.NewStopAction("done"), "finished", 1),
	}}
	exec := &fakeExec{}
	r := newTestRunner(t, planner, exec, &fakeShots{}, nil)

	_, err := r.Start(schemas.RunTaskRequest{Task: "anything"})
	require.NoError(t, err)
	r.Wait()

	// The ERROR action never reaches the executor, and the run still ends
	// normally on the following STOP.
	assert.Empty(t, exec.executed())
	assert.Equal(t, StateStopped, drainOutcome(r))
	assert.Len(t, planner.recorded(), 2)
}

func TestDirectBackendMode(t *testing.T) {
	decisions := []actor.Decision{
		{Action: schemas.NewTextAction(schemas.ActionInput, "hello")},
		{Action: schemas.NewStopAction("done"), Complete: true},
	}
	var mu sync.Mutex
	idx := 0
	exec := &fakeExec{}
	r := NewRunner(Deps{
		Config: testConfig(t, map[string]interface{}{"actor.mode": config.ModeUITars}),
		Shots:  &fakeShots{},
		Exec:   exec,
		NewActor: func(rec runlog.Recorder) actor.Actor {
			return actorFunc(func(ctx context.Context, obs actor.Observation) (actor.Decision, error) {
				mu.Lock()
				defer mu.Unlock()
				d := decisions[idx]
				if idx < len(decisions)-1 {
					idx++
				}
				return d, nil
			})
		},
		Logger: zaptest.NewLogger(t),
	})

	_, err := r.Start(schemas.RunTaskRequest{Task: "type hello"})
	require.NoError(t, err)
	r.Wait()

	executed := exec.executed()
	require.Len(t, executed, 1)
	assert.Equal(t, schemas.ActionInput, executed[0].Type)
	assert.Equal(t, StateStopped, drainOutcome(r))
}

type actorFunc func(ctx context.Context, obs actor.Observation) (actor.Decision, error)

func (f actorFunc) Act(ctx context.Context, obs actor.Observation) (actor.Decision, error) {
	return f(ctx, obs)
}
