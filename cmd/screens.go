// File: cmd/screens.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskhand/deskhand/internal/screen"
)

// newScreensCmd creates the `screens` command: a human-readable listing of
// the connected displays and the scaling target the selected one resolves to.
func newScreensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "screens",
		Short: "List connected displays and the active scaling target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enum := screen.NewEnumerator()
			details, primaryIndex, err := screen.Details(enum)
			if err != nil {
				return fmt.Errorf("failed to enumerate displays: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, d := range details {
				fmt.Fprintln(out, d.String())
			}
			fmt.Fprintf(out, "Primary screen index: %d\n", primaryIndex)

			selected := appConfig.Screen().SelectedIndex
			d, err := screen.Resolve(enum, selected)
			if err != nil {
				return fmt.Errorf("selected screen %d: %w", selected, err)
			}
			scaler := screen.NewScaler(d.Width, d.Height, appConfig.Screen().ScalingEnabled)
			fmt.Fprintf(out, "Selected screen %d scales to %s (%dx%d)\n",
				selected, scaler.Target().Name, scaler.Target().Width, scaler.Target().Height)
			return nil
		},
	}
}
