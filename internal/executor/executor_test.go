// File: internal/executor/executor_test.go
package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/deskhand/deskhand/api/schemas"
)

// scriptedDevice returns canned results per op kind and records the sequence
// it was asked to run.
type scriptedDevice struct {
	executed []schemas.OpKind
	failOn   schemas.OpKind
}

func (d *scriptedDevice) Execute(op schemas.Operation) schemas.Result {
	d.executed = append(d.executed, op.Kind)
	if op.Kind == d.failOn && d.failOn != "" {
		return schemas.NewErrorResult("injected failure")
	}
	return schemas.NewActionResult(string(op.Kind), "test")
}

func TestExecuteStreamsResultsInOrder(t *testing.T) {
	dev := &scriptedDevice{}
	ex := New(dev, zaptest.NewLogger(t))

	action := schemas.NewPositionalAction(schemas.ActionClick, schemas.Point{X: 10, Y: 20})
	stream, err := ex.Execute(context.Background(), action)
	require.NoError(t, err)

	var results []schemas.Result
	for res := range stream {
		results = append(results, res)
	}
	require.Len(t, results, 2)
	assert.Equal(t, []schemas.OpKind{schemas.OpMouseMove, schemas.OpLeftClick}, dev.executed)
	assert.Equal(t, "mouse_move", results[0].Content)
	assert.Equal(t, "left_click", results[1].Content)
}

func TestExecuteUnsupportedActionRunsNothing(t *testing.T) {
	dev := &scriptedDevice{}
	ex := New(dev, zaptest.NewLogger(t))

	stream, err := ex.Execute(context.Background(), schemas.Action{Type: "TELEPORT"})
	assert.ErrorIs(t, err, ErrUnsupportedAction)
	assert.Nil(t, stream)
	assert.Empty(t, dev.executed)
}

func TestExecuteContinuesPastOperationFailure(t *testing.T) {
	dev := &scriptedDevice{failOn: schemas.OpMouseMove}
	ex := New(dev, zaptest.NewLogger(t))

	action := schemas.NewPositionalAction(schemas.ActionClick, schemas.Point{X: 1, Y: 1})
	results, err := ex.ExecuteAll(context.Background(), action)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].IsError())
	assert.False(t, results[1].IsError())
	assert.Len(t, dev.executed, 2)
}

func TestExecuteCancelledBeforeStartRunsNothing(t *testing.T) {
	dev := &scriptedDevice{}
	ex := New(dev, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	action := schemas.NewPositionalAction(schemas.ActionClick, schemas.Point{X: 1, Y: 1})
	stream, err := ex.Execute(ctx, action)
	require.NoError(t, err)
	for range stream {
	}
	assert.Empty(t, dev.executed)
}

func TestExecuteAllCollectsEverything(t *testing.T) {
	dev := &scriptedDevice{}
	ex := New(dev, zaptest.NewLogger(t))

	action := actionFromJSON(t, `{"action":"KEY","value":["tab","enter"]}`)
	results, err := ex.ExecuteAll(context.Background(), action)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, []schemas.OpKind{schemas.OpKey, schemas.OpKey}, dev.executed)
}
