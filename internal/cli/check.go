package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripcoil/TripCoil-Terminal/internal/codec"
)

// NewCheckCommand builds the offline wirelist validator. It parses a
// document the same way import does and prints every finding, but never
// creates or touches a session.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <wirelist>",
		Short: "Validate a wirelist document",
		Long: `Parses a wirelist document and reports every fix-up and exclusion the
import step would apply, without creating or touching a session. Exit
status is 1 when any row would be excluded.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0])
		},
	}
	return cmd
}

func runCheck(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open wirelist", err)
	}
	defer f.Close()

	report, err := codec.Parse(f)
	if err != nil {
		return WrapExitError(ExitFailure, path, err)
	}

	out := cmd.OutOrStdout()
	if len(report.Warnings) == 0 && report.Excluded == 0 {
		fmt.Fprintf(out, "%s: %d row(s), clean\n", path, len(report.Records))
		return nil
	}

	fmt.Fprintf(out, "%s: %d row(s) kept, %d warning(s), %d excluded\n",
		path, len(report.Records), len(report.Warnings), report.Excluded)
	for _, w := range report.Warnings {
		fmt.Fprintf(out, "  %s\n", w)
	}
	if report.Excluded > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d row(s) would be excluded from %s", report.Excluded, path))
	}
	return nil
}
