package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"dictate/session"
)

// lineView prints each distinct status on its own line.
type lineView struct {
	mu   sync.Mutex
	w    io.Writer
	last string
}

func (v *lineView) SetStatus(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if text == v.last {
		return
	}
	v.last = text
	fmt.Fprintln(v.w, text)
}

// runHeadless drives a session from line commands: STOP transcribes,
// CANCEL aborts. End of input is ignored; a signal still cancels.
func runHeadless(ctx context.Context, scfg session.Config, in io.Reader, out io.Writer) session.Result {
	ctrl := session.New(scfg, &lineView{w: out})

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			switch strings.ToUpper(strings.TrimSpace(scanner.Text())) {
			case "STOP":
				ctrl.Stop()
			case "CANCEL":
				ctrl.Cancel()
			}
		}
	}()

	res := ctrl.Run(ctx)
	if res.Text != "" {
		fmt.Fprintln(out, res.Text)
	}
	return res
}
