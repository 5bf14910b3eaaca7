// Package clipboard puts transcripts on the system clipboard.
package clipboard

import (
	"sync"

	cb "github.com/atotto/clipboard"

	"dictate/log"
)

// mu serializes access to the selection toggle in the atotto package.
var mu sync.Mutex

func Read() (string, error) {
	mu.Lock()
	defer mu.Unlock()
	return cb.ReadAll()
}

func Copy(text string) error {
	mu.Lock()
	defer mu.Unlock()
	return cb.WriteAll(text)
}

// Unsupported reports whether no clipboard helper (xclip, xsel,
// wl-copy, ...) was found.
func Unsupported() bool { return cb.Unsupported }

// System copies to CLIPBOARD and, where X11 has one, the PRIMARY selection
// so that Shift+Insert in xterm pastes the same text.
type System struct{}

func (System) Copy(text string) error {
	if err := Copy(text); err != nil {
		return err
	}
	if err := CopyPrimary(text); err != nil {
		log.Warnf("primary selection: %v", err)
	}
	return nil
}
