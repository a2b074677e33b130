package main

import (
	"fmt"
	"os"

	gerrors "typeguess/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status: 2 for usage and
// configuration problems, 1 for everything else.
func exitCode(err error) int {
	switch gerrors.CodeOf(err) {
	case gerrors.InvalidConfig, gerrors.InvalidPattern, gerrors.ExpressionNotFound:
		return 2
	default:
		return 1
	}
}
