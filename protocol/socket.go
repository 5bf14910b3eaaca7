package protocol

import (
	"os"
	"path/filepath"
)

const SocketName = "dictation.sock"

// SocketPath is $XDG_RUNTIME_DIR/dictation.sock, or /tmp/dictation.sock
// when the runtime directory is unset.
func SocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = "/tmp"
	}
	return filepath.Join(dir, SocketName)
}
