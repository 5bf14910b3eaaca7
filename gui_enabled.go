//go:build gui

package main

import (
	"context"
	"runtime"

	"dictate/gui"
	"dictate/session"
)

// GLFW must run on the main thread.
func init() {
	runtime.LockOSThread()
}

func runGUI(ctx context.Context, scfg session.Config) session.Result {
	app := gui.NewApp()
	ctrl := session.New(scfg, app)
	done := make(chan session.Result, 1)
	app.Run(ctrl, func() {
		done <- ctrl.Run(ctx)
		app.Quit()
	})
	// Closing the window cancels the session; wait for it to wind down.
	return <-done
}
