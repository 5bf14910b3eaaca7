package beep

import "testing"

func TestTickDecays(t *testing.T) {
	s := tick(1000, 0.2, 0.5, 40)
	if len(s) != int(sampleRate*0.2) {
		t.Fatalf("len = %d", len(s))
	}
	peak := func(from, to int) int16 {
		var m int16
		for _, v := range s[from:to] {
			if v < 0 {
				v = -v
			}
			m = max(m, v)
		}
		return m
	}
	head, tail := peak(0, 441), peak(len(s)-441, len(s))
	if head == 0 || tail >= head {
		t.Errorf("envelope does not decay: head %d, tail %d", head, tail)
	}
	if float64(head) > 32767*0.5+1 {
		t.Errorf("peak %d exceeds volume", head)
	}
}

func TestDoubleBeepLength(t *testing.T) {
	b := tick(errorFreq, 0.08, errorVolume, errorDecay)
	d := doubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay)
	if want := 2*len(b) + int(sampleRate*0.05); len(d) != want {
		t.Errorf("len = %d, want %d", len(d), want)
	}
}

func TestDisabledPlayerIsSilent(t *testing.T) {
	p := Player{Disabled: true}
	p.PlayStart()
	p.PlayEnd()
	p.PlayError()
	if startSamples != nil {
		t.Error("disabled player generated samples")
	}
}
