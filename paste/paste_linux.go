//go:build linux

package paste

import (
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

// Init creates the virtual keyboard. The display server needs a moment to
// pick it up, so call it early.
func Init() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

func Send(shiftInsert bool) error {
	if err := Init(); err != nil {
		return err
	}
	kb.Clear()
	if shiftInsert {
		kb.SetKeys(keybd_event.VK_INSERT)
		kb.HasSHIFT(true)
	} else {
		kb.SetKeys(keybd_event.VK_V)
		kb.HasCTRL(true)
	}
	if err := kb.Press(); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return kb.Release()
}
