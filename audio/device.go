package audio

import (
	"fmt"
	"io"
)

// List writes the enumerated devices to w, marking the one SelectDevice
// would capture from for the given preferred name.
func List(w io.Writer, ctx Context, preferred string) error {
	devices, err := ctx.Devices()
	if err != nil {
		return fmt.Errorf("enumerating devices: %w", err)
	}
	selected, _ := SelectDevice(devices, preferred)

	for i := range devices {
		d := &devices[i]
		if !d.Input {
			continue
		}
		marker := "   "
		if selected == d {
			marker = " ▶ "
		}
		var tags string
		if d.Default {
			tags += " [default]"
		}
		if IsBluetooth(d.Name) || IsBluetooth(d.ID) {
			tags += " [bluetooth]"
		}
		fmt.Fprintf(w, "%s%s%s\n", marker, d.Name, tags)
	}
	if selected == nil {
		fmt.Fprintln(w, "no input device found")
	}
	return nil
}
