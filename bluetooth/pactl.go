package bluetooth

import (
	"bufio"
	"strings"
)

// Card is one entry of `pactl list cards`.
type Card struct {
	Name          string
	Description   string
	Bus           string
	ActiveProfile string
	Profiles      []Profile
}

// Profile is a card profile. Description is the remainder of its line,
// which carries the codec name and availability.
type Profile struct {
	Name        string
	Description string
}

func (p Profile) Available() bool {
	return !strings.Contains(strings.ToLower(p.Description), "available: no")
}

// IsBluetooth reports whether the card is backed by the bluez transport.
func (c Card) IsBluetooth() bool {
	return strings.Contains(strings.ToLower(c.Name), "bluez") || strings.EqualFold(c.Bus, "bluetooth")
}

// ParseCards parses `pactl list cards` output. Unknown lines are skipped.
func ParseCards(out string) []Card {
	var cards []Card
	var cur *Card
	inProfiles := false

	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "Name:"):
			cards = append(cards, Card{Name: strings.TrimSpace(strings.TrimPrefix(line, "Name:"))})
			cur = &cards[len(cards)-1]
			inProfiles = false
		case cur == nil:
		case strings.HasPrefix(line, "Profiles:"):
			inProfiles = true
		case inProfiles && strings.Contains(line, "sinks:"):
			name, desc, _ := strings.Cut(line, ": ")
			cur.Profiles = append(cur.Profiles, Profile{
				Name:        strings.TrimSpace(name),
				Description: strings.TrimSpace(desc),
			})
		case strings.HasPrefix(line, "Active Profile:"):
			inProfiles = false
			cur.ActiveProfile = strings.TrimSpace(strings.TrimPrefix(line, "Active Profile:"))
		default:
			inProfiles = false
			if v, ok := property(line, "device.description"); ok {
				cur.Description = v
			} else if v, ok := property(line, "device.bus"); ok {
				cur.Bus = v
			}
		}
	}
	return cards
}

func property(line, key string) (string, bool) {
	k, v, ok := strings.Cut(line, "=")
	if !ok || strings.TrimSpace(k) != key {
		return "", false
	}
	return strings.Trim(strings.TrimSpace(v), `"`), true
}

// FindBluetoothCard returns the first bluez-backed card.
func FindBluetoothCard(cards []Card) (Card, bool) {
	for _, c := range cards {
		if c.IsBluetooth() {
			return c, true
		}
	}
	return Card{}, false
}

// PickHeadsetProfile selects a hands-free profile, preferring one whose
// description names the mSBC wideband codec. It returns "" if none is usable.
func PickHeadsetProfile(profiles []Profile) string {
	var fallback string
	for _, p := range profiles {
		if !p.Available() || !strings.Contains(strings.ToLower(p.Name), "headset") {
			continue
		}
		if strings.Contains(strings.ToLower(p.Description), "msbc") {
			return p.Name
		}
		if fallback == "" {
			fallback = p.Name
		}
	}
	return fallback
}
