//go:build !linux && !darwin

package paste

import "errors"

func Init() error { return nil }

// Send always fails so Paster falls back to xdotool.
func Send(bool) error { return errors.New("no virtual keyboard on this platform") }
