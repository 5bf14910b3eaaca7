// Package paste delivers a transcript to the window that had focus before
// the popup opened.
package paste

import (
	"context"
	"fmt"
	"strings"

	"dictate/extcmd"
	"dictate/log"
)

// Keystroke presses the paste shortcut in the focused window. shiftInsert
// selects Shift+Insert instead of Ctrl+V.
type Keystroke func(shiftInsert bool) error

// ActiveWindow returns the id of the focused X window, or "" when it
// cannot be determined.
func ActiveWindow(ctx context.Context, r extcmd.Runner) string {
	out, err := r.Run(ctx, "xdotool", "getactivewindow")
	if err != nil {
		log.Warnf("active window: %v", err)
		return ""
	}
	return strings.TrimSpace(string(out))
}

// UsesShiftInsert reports whether a window class pastes with Shift+Insert.
func UsesShiftInsert(class string) bool {
	switch strings.ToLower(strings.TrimSpace(class)) {
	case "xterm", "uxterm":
		return true
	}
	return false
}

// Paster refocuses Window and sends the paste shortcut. The text itself is
// expected on the clipboard already.
type Paster struct {
	Runner extcmd.Runner
	Window string
	Keys   Keystroke
}

func New(r extcmd.Runner, window string) *Paster {
	return &Paster{Runner: r, Window: window, Keys: Send}
}

func (p *Paster) Paste(ctx context.Context, text string) error {
	if text == "" || p.Window == "" {
		return nil
	}
	if _, err := p.Runner.Run(ctx, "xdotool", "windowactivate", "--sync", p.Window); err != nil {
		log.Warnf("activate window %s: %v", p.Window, err)
	}

	class := ""
	if out, err := p.Runner.Run(ctx, "xdotool", "getwindowclassname", p.Window); err == nil {
		class = strings.TrimSpace(string(out))
	}
	shiftInsert := UsesShiftInsert(class)

	if p.Keys != nil {
		err := p.Keys(shiftInsert)
		if err == nil {
			return nil
		}
		log.Warnf("keystroke: %v; falling back to xdotool", err)
	}
	combo := "ctrl+v"
	if shiftInsert {
		combo = "shift+Insert"
	}
	if _, err := p.Runner.Run(ctx, "xdotool", "key", "--clearmodifiers", combo); err != nil {
		return fmt.Errorf("send %s: %w", combo, err)
	}
	return nil
}
