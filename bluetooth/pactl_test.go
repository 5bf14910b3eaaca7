package bluetooth

import (
	"os"
	"path/filepath"
	"testing"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestParseCards(t *testing.T) {
	cards := ParseCards(loadFixture(t, "cards_a2dp.txt"))
	if len(cards) != 2 {
		t.Fatalf("parsed %d cards, want 2", len(cards))
	}

	builtin := cards[0]
	if builtin.Name != "alsa_card.pci-0000_00_1f.3" || builtin.IsBluetooth() {
		t.Errorf("builtin card = %+v", builtin)
	}
	if builtin.ActiveProfile != "output:analog-stereo+input:analog-stereo" {
		t.Errorf("builtin active profile = %q", builtin.ActiveProfile)
	}
	if len(builtin.Profiles) != 3 || builtin.Profiles[1].Name != "output:analog-stereo+input:analog-stereo" {
		t.Errorf("builtin profiles = %+v", builtin.Profiles)
	}

	bt := cards[1]
	if !bt.IsBluetooth() {
		t.Error("bluez card not recognized")
	}
	if bt.Description != "WH-1000XM5" {
		t.Errorf("description = %q", bt.Description)
	}
	if bt.Bus != "bluetooth" {
		t.Errorf("bus = %q", bt.Bus)
	}
	if bt.ActiveProfile != "a2dp-sink" {
		t.Errorf("active profile = %q", bt.ActiveProfile)
	}
	if len(bt.Profiles) != 5 {
		t.Fatalf("profiles = %+v", bt.Profiles)
	}
	if got := bt.Profiles[4]; got.Name != "headset-head-unit" {
		t.Errorf("last profile = %+v", got)
	}
}

func TestFindBluetoothCard(t *testing.T) {
	for _, tt := range []struct {
		fixture string
		want    string
		found   bool
	}{
		{"cards_a2dp.txt", "bluez_card.AC_80_0A_12_34_56", true},
		{"cards_cvsd_only.txt", "bluez_card.00_1B_66_AA_BB_CC", true},
		{"cards_no_bt.txt", "", false},
	} {
		t.Run(tt.fixture, func(t *testing.T) {
			card, ok := FindBluetoothCard(ParseCards(loadFixture(t, tt.fixture)))
			if ok != tt.found || card.Name != tt.want {
				t.Errorf("got %q, %v; want %q, %v", card.Name, ok, tt.want, tt.found)
			}
		})
	}
}

func TestPickHeadsetProfile(t *testing.T) {
	for _, tt := range []struct {
		fixture string
		want    string
	}{
		{"cards_a2dp.txt", "headset-head-unit"},
		{"cards_cvsd_only.txt", "headset-head-unit"},
		{"cards_hfp_active.txt", "headset-head-unit"},
		{"cards_no_bt.txt", ""},
	} {
		t.Run(tt.fixture, func(t *testing.T) {
			cards := ParseCards(loadFixture(t, tt.fixture))
			card := cards[len(cards)-1]
			if got := PickHeadsetProfile(card.Profiles); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPickHeadsetProfilePrefersMSBC(t *testing.T) {
	profiles := []Profile{
		{Name: "headset-head-unit-cvsd", Description: "Headset Head Unit (HSP/HFP, codec CVSD) (sinks: 1, sources: 1, available: yes)"},
		{Name: "headset-head-unit-msbc", Description: "Headset Head Unit (HSP/HFP, codec mSBC) (sinks: 1, sources: 1, available: yes)"},
	}
	if got := PickHeadsetProfile(profiles); got != "headset-head-unit-msbc" {
		t.Errorf("got %q", got)
	}
}

func TestParseCardsIgnoresGarbage(t *testing.T) {
	if cards := ParseCards("Failed to connect: Connection refused\n"); len(cards) != 0 {
		t.Errorf("parsed %d cards from error output", len(cards))
	}
}
