package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripcoil/TripCoil-Terminal/internal/config"
)

// NewImportCommand builds the headless import: it loads a wirelist
// document into the project's trace session without opening the tracer,
// so scripts can seed a directory before the first sitting.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <wirelist>",
		Short: "Load a wirelist document into the trace session",
		Long: `Parses a wirelist document and loads its rows into the project's
trace session, replacing whatever records the session held. The
replacement is checkpointed, so the next interactive sitting can undo
it. A directory never traced in is initialized first. Exit status is 1
when any row was excluded.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts.Dir, args[0])
		},
	}
	return cmd
}

func runImport(cmd *cobra.Command, dir, path string) error {
	if err := config.InitTripcoilDir(dir); err != nil {
		return err
	}
	eng, _, err := projectEngine(dir)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open wirelist", err)
	}
	defer f.Close()

	report, err := eng.Import(f)
	if err != nil {
		return WrapExitError(ExitFailure, path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "imported %d row(s) into %s\n", len(report.Records), dir)
	for _, w := range report.Warnings {
		fmt.Fprintf(out, "  %s\n", w)
	}
	if report.Excluded > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d row(s) excluded from %s", report.Excluded, path))
	}
	return nil
}
