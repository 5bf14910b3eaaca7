package clipboard

import (
	"os"
	"testing"
)

func requireDisplay(t *testing.T) {
	t.Helper()
	if Unsupported() {
		t.Skip("no clipboard helper installed")
	}
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		t.Skip("no display")
	}
}

func TestSystemCopy(t *testing.T) {
	requireDisplay(t)
	prev, _ := Read()
	t.Cleanup(func() { Copy(prev) })

	if err := (System{}).Copy("dictate clipboard test"); err != nil {
		t.Fatal(err)
	}
	got, err := Read()
	if err != nil {
		t.Fatal(err)
	}
	if got != "dictate clipboard test" {
		t.Errorf("clipboard = %q", got)
	}
}
