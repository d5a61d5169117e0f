// cmd/tripcoil/main.go
//
// Entry point for TripCoil Terminal. Everything interesting lives in
// the command tree under internal/cli; this file only turns the error
// returned by Execute into a process exit code.

package main

import (
	"fmt"
	"os"

	"github.com/tripcoil/TripCoil-Terminal/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tripcoil: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
