//go:build !gui

package main

import (
	"context"
	"fmt"
	"os"

	"dictate/session"
)

func runGUI(ctx context.Context, scfg session.Config) session.Result {
	fmt.Fprintln(os.Stderr, "dictate: built without GUI support (rebuild with -tags gui); using the terminal")
	return runTUI(ctx, scfg)
}
