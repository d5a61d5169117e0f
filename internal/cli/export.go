package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripcoil/TripCoil-Terminal/internal/config"
	"github.com/tripcoil/TripCoil-Terminal/internal/trace"
)

// NewExportCommand builds the headless export: it loads the saved
// session from the project directory and writes its records in the
// wirelist format without opening the tracer.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the session's records as a wirelist document",
		Long: `Loads the saved trace session from the project directory and writes
its records in the wirelist format to standard output, or to a file
named with --output. Fails when the directory holds no saved session.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts.Dir, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of standard output")

	return cmd
}

func runExport(cmd *cobra.Command, dir, output string) error {
	eng, err := openSession(dir)
	if err != nil {
		return err
	}

	if output == "" {
		return eng.Export(cmd.OutOrStdout())
	}

	f, err := os.Create(output)
	if err != nil {
		return WrapExitError(ExitCommandError, "create output file", err)
	}
	if err := eng.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cli: close %s: %w", output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "exported %d row(s) to %s\n", len(eng.Records()), output)
	return nil
}

// openSession resurrects the persisted engine for a project directory.
// Only resumed sessions qualify; a directory that was never traced in
// has nothing to export.
func openSession(dir string) (*trace.Engine, error) {
	eng, resumed, err := projectEngine(dir)
	if err != nil {
		return nil, err
	}
	if !resumed {
		return nil, NewExitError(ExitFailure, fmt.Sprintf("no trace session under %s; run tripcoil there first", dir))
	}
	return eng, nil
}

// projectEngine builds the engine for a project directory with the
// project's configured options, resuming any saved session.
func projectEngine(dir string) (*trace.Engine, bool, error) {
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, false, err
	}
	engineOpts := []trace.Option{trace.WithHistoryDepth(cfg.HistoryDepth())}
	if policy, ok := trace.ParseResumePolicy(cfg.ResumePolicy()); ok {
		engineOpts = append(engineOpts, trace.WithResumePolicy(policy))
	}
	eng, err := trace.New(trace.NewRepository(cfg.StateDir()), engineOpts...)
	if err != nil {
		return nil, false, err
	}
	resumed, err := eng.Resume()
	if err != nil {
		return nil, false, err
	}
	return eng, resumed, nil
}
