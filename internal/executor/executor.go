// File: internal/executor/executor.go
package executor

import (
	"context"

	"go.uber.org/zap"

	"github.com/deskhand/deskhand/api/schemas"
)

// Device executes one primitive operation. The production implementation is
// device.Tool; tests substitute fakes.
type Device interface {
	Execute(op schemas.Operation) schemas.Result
}

// Executor decomposes canonical actions and drives the resulting operation
// sequence through the device, streaming each result as it lands.
type Executor struct {
	device Device
	logger *zap.Logger
}

// New builds an Executor over the given device.
func New(device Device, logger *zap.Logger) *Executor {
	return &Executor{device: device, logger: logger.Named("executor")}
}

// Execute decomposes the action and sends one Result per primitive operation
// on the returned channel, closing it when the sequence ends. A decomposition
// failure is reported as the error return with zero operations executed. An
// operation-level failure becomes an error-typed result on the stream and the
// sequence continues; cancellation is observed between operations.
func (e *Executor) Execute(ctx context.Context, action schemas.Action) (<-chan schemas.Result, error) {
	ops, err := Decompose(action)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Action decomposed.",
		zap.String("action", string(action.Type)),
		zap.Int("operations", len(ops)),
	)

	results := make(chan schemas.Result, len(ops))
	go func() {
		defer close(results)
		for _, op := range ops {
			if ctx.Err() != nil {
				e.logger.Info("Operation sequence cancelled.",
					zap.String("action", string(action.Type)))
				return
			}
			res := e.device.Execute(op)
			if res.IsError() {
				e.logger.Warn("Operation returned an error result.",
					zap.String("op", string(op.Kind)),
					zap.String("message", res.Content))
			}
			select {
			case results <- res:
			case <-ctx.Done():
				return
			}
		}
	}()
	return results, nil
}

// ExecuteAll runs the action to completion and collects every result. It is
// the convenience path for callers that do not consume the stream.
func (e *Executor) ExecuteAll(ctx context.Context, action schemas.Action) ([]schemas.Result, error) {
	stream, err := e.Execute(ctx, action)
	if err != nil {
		return nil, err
	}
	var out []schemas.Result
	for res := range stream {
		out = append(out, res)
	}
	return out, ctx.Err()
}
