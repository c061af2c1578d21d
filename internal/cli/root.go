// Package cli defines the benchctl command tree. Commands stay thin: flag
// parsing here, behavior in internal/actions.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "benchctl",
		Short: "Benchctl sets up and drives benchmark batch runs of an agent tool",
		Long: `Benchctl manages everything around a benchmark batch run: the credentials
file the agent reads, the agent checkout itself, the container engine it
depends on, and the artifacts it writes.

Start with 'benchctl init', verify with 'benchctl doctor' and
'benchctl probe', then launch with 'benchctl run'.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newSetupCmd())
	rootCmd.AddCommand(newProbeCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newGuideCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	return rootCmd
}

// newVersionCmd creates the version command
func newVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the benchctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("benchctl %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
