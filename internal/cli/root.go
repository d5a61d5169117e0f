// Package cli assembles the tripcoil command tree. The bare command
// launches the interactive tracer; subcommands cover the offline jobs
// (document validation, headless import and export) that scripts call
// without a terminal attached.
package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tripcoil/TripCoil-Terminal/internal/config"
	"github.com/tripcoil/TripCoil-Terminal/internal/tui"
)

// RootOptions holds the flags shared by every subcommand.
type RootOptions struct {
	Dir string // project directory holding the .tripcoil tree
}

// NewRootCommand builds the tripcoil command with its subcommands attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tripcoil [dir]",
		Short: "Terminal-to-terminal wire tracing for field technicians",
		Long: `TripCoil Terminal walks a technician through tracing wiring one
terminal pair at a time, keeping every confirmed, unconfirmed, and
pending wire as a record that round-trips through wirelist documents.

Run it inside a project directory (or name one) and it keeps records,
session state, and the journey log under that directory's .tripcoil
tree. A session left mid-trace resumes where it stopped.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			return launchApp(dir)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Dir, "dir", "C", ".", "project directory (created on first run)")

	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

func launchApp(dir string) error {
	if err := config.InitTripcoilDir(dir); err != nil {
		return err
	}
	app, err := tui.NewApp(dir)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("cli: run program: %w", err)
	}
	return nil
}
