// File: cmd/run.go
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/loop"
	"github.com/deskhand/deskhand/internal/observability"
	"github.com/deskhand/deskhand/internal/service"
)

// newRunCmd creates the `run` command: execute a single task to completion
// without the HTTP surface.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run <task...>",
		Short: "Execute one automation task and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			cfg := appConfig

			traceName, _ := cmd.Flags().GetString("trace")
			maxSteps, _ := cmd.Flags().GetInt("max-steps")

			components, err := service.Build(cfg, logger, service.Deps{})
			if err != nil {
				return fmt.Errorf("failed to initialize engine: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := components.Runner
			taskID, err := runner.Start(schemas.RunTaskRequest{
				Task:      strings.Join(args, " "),
				TraceName: traceName,
				MaxSteps:  maxSteps,
			})
			if err != nil {
				return fmt.Errorf("failed to start run: %w", err)
			}
			logger.Info("Run started.", zap.String("task_id", taskID))

			// An interrupt cancels the run cooperatively; the runner finishes
			// the in-flight operation before tearing down.
			go func() {
				<-ctx.Done()
				if err := runner.Stop(); err != nil && !errors.Is(err, loop.ErrNoRun) {
					logger.Warn("Failed to stop run.", zap.Error(err))
				}
			}()

			outcome := consumeEvents(runner, logger)
			runner.Wait()

			logger.Info("Run complete.", zap.String("task_id", taskID), zap.String("outcome", outcome))
			if outcome == loop.StateError {
				return fmt.Errorf("run %s finished with an error", taskID)
			}
			return nil
		},
	}

	runCmd.Flags().String("trace", "", "trace name embedded in the task id")
	runCmd.Flags().Int("max-steps", 0, "step bound for this run (0 uses config)")
	return runCmd
}

// consumeEvents drains the loop's event stream until the terminal state
// event arrives, logging plans and errors as they pass.
func consumeEvents(runner *loop.Runner, logger *zap.Logger) string {
	for ev := range runner.Events() {
		switch ev.Type {
		case loop.EventPlan:
			if plan, ok := ev.Data.(string); ok && plan != "" {
				logger.Info("Plan.", zap.String("plan", plan))
			}
		case loop.EventError:
			if msg, ok := ev.Data.(string); ok {
				logger.Warn("Step error.", zap.String("error", msg))
			}
		case loop.EventState:
			state, _ := ev.Data.(string)
			if state != loop.StateRunning {
				return state
			}
		}
	}
	return loop.StateError
}
