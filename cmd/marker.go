// File: cmd/marker.go
package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/deskhand/deskhand/internal/feedback"
)

// newMarkerCmd creates the hidden `marker` command. The device layer spawns
// it as a detached child to render the click marker overlay; it is not meant
// to be invoked by hand.
func newMarkerCmd() *cobra.Command {
	var (
		x    int
		y    int
		life time.Duration
	)

	markerCmd := &cobra.Command{
		Use:    "marker",
		Short:  "Render the transient click marker overlay",
		Hidden: true,
		Args:   cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			feedback.RenderOverlay(x, y, life)
		},
	}

	markerCmd.Flags().IntVar(&x, "x", 0, "marker center x in desktop pixels")
	markerCmd.Flags().IntVar(&y, "y", 0, "marker center y in desktop pixels")
	markerCmd.Flags().DurationVar(&life, "life", feedback.DefaultLife, "how long the marker stays visible")
	return markerCmd
}
