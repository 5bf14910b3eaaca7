//go:build linux || freebsd || netbsd || openbsd || dragonfly || solaris

package clipboard

import cb "github.com/atotto/clipboard"

// CopyPrimary writes the X PRIMARY selection.
func CopyPrimary(text string) error {
	mu.Lock()
	defer mu.Unlock()
	cb.Primary = true
	defer func() { cb.Primary = false }()
	return cb.WriteAll(text)
}
