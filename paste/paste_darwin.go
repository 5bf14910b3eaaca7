//go:build darwin

package paste

import "github.com/micmonay/keybd_event"

func Init() error { return nil }

// Send presses Cmd+V; macOS has no Shift+Insert convention.
func Send(bool) error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_V)
	kb.HasSuper(true)
	return kb.Launching()
}
