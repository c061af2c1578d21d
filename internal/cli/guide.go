package cli

import (
	_ "embed"

	"github.com/spf13/cobra"

	"github.com/bch9248/benchctl/internal/runtime"
	"github.com/bch9248/benchctl/internal/tui"
)

//go:embed guide.md
var guideMarkdown string

// newGuideCmd creates the guide command
func newGuideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guide",
		Short: "Show the operator guide",
		Long:  `Print the full setup and troubleshooting guide. Works before 'benchctl init'.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := runtime.NewContext(cmd.Context())
			console := ctx.Console

			if tui.IsTTY() {
				if rendered, err := tui.RenderMarkdown(guideMarkdown); err == nil {
					console.Page(rendered)
					return nil
				}
			}
			console.Page(guideMarkdown)
			return nil
		},
	}

	return cmd
}
