// File: internal/actor/actor.go
// Package actor adapts computer-use model backends into the canonical action
// schema. Each backend converts one native response into exactly one
// (Action, complete) pair; parse problems degrade to ERROR actions, never Go
// errors, so a confused model cannot crash a run.
package actor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/runlog"
)

// Observation is one loop iteration's input to the backend: the task text and
// the current screenshot.
type Observation struct {
	Task           string
	ScreenshotB64  string
	ScreenshotPath string
	History        []string
}

// Decision is the backend's normalized output. Complete marks an explicit
// end-of-task signal from the model, distinct from a STOP action the loop
// infers on its own.
type Decision struct {
	Action   schemas.Action
	Complete bool
}

// Actor generates one canonical action per observation. Transport failures
// are Go errors; unparseable model output is an ERROR-typed action.
type Actor interface {
	Act(ctx context.Context, obs Observation) (Decision, error)
}

// New builds the backend selected by cfg.Mode. Width and height describe the
// resolution of the screenshots the backend will see. An unknown mode returns
// an actor whose every decision is an ERROR action; the loop surfaces it and
// ends the run without anyone panicking.
func New(cfg config.ActorConfig, width, height int, rec runlog.Recorder, logger *zap.Logger) Actor {
	switch cfg.Mode {
	case config.ModeOpenAIOperator:
		return NewOperatorActor(cfg, width, height, rec, logger)
	case config.ModeClaudeComputer:
		return NewClaudeActor(cfg, width, height, rec, logger)
	case config.ModeUITars:
		return NewUITarsActor(cfg, rec, logger)
	default:
		logger.Error("Unknown actor mode configured.", zap.String("mode", cfg.Mode))
		return unknownModeActor{mode: cfg.Mode}
	}
}

// ensureRecorder substitutes the no-op recorder so backends can log
// artifacts unconditionally.
func ensureRecorder(rec runlog.Recorder) runlog.Recorder {
	if rec == nil {
		return (*runlog.Logger)(nil)
	}
	return rec
}

type unknownModeActor struct {
	mode string
}

func (a unknownModeActor) Act(context.Context, Observation) (Decision, error) {
	return Decision{
		Action: schemas.NewErrorAction(fmt.Sprintf("unknown actor mode '%s'", a.mode)),
	}, nil
}
