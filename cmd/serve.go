// File: cmd/serve.go
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deskhand/deskhand/internal/observability"
	"github.com/deskhand/deskhand/internal/service"
)

// newServeCmd creates the `serve` command: the long-running engine behind the
// HTTP control surface.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the control gateway and wait for run requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			cfg := appConfig

			if listen, err := cmd.Flags().GetString("listen"); err == nil && listen != "" {
				cfg.SetGatewayListenAddr(listen)
			}

			components, err := service.Build(cfg, logger, service.Deps{})
			if err != nil {
				return fmt.Errorf("failed to initialize engine: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("Engine serving.",
				zap.String("listen_addr", cfg.Gateway().ListenAddr),
				zap.String("actor_mode", cfg.Actor().Mode),
			)
			return components.Serve(ctx)
		},
	}

	serveCmd.Flags().String("listen", "", "gateway listen address (overrides config)")
	return serveCmd
}
