package bluetooth

import (
	"context"
	"errors"
	"fmt"

	"dictate/extcmd"
)

// ErrNoCard means no Bluetooth audio card is present.
var ErrNoCard = errors.New("no bluetooth card")

// Tool is the narrow surface over the audio-card registry and the
// auto-switch agent.
type Tool interface {
	Detect(ctx context.Context) (Card, error)
	ListProfiles(ctx context.Context, card string) ([]Profile, error)
	SetProfile(ctx context.Context, card, profile string) error
	SetAutoSwitch(ctx context.Context, enabled bool) error
}

// PactlTool drives pactl for cards and wpctl for WirePlumber's
// bluetooth.autoswitch-to-headset-profile setting.
type PactlTool struct {
	Runner extcmd.Runner
}

func NewPactlTool(r extcmd.Runner) *PactlTool {
	if r == nil {
		r = extcmd.Exec{}
	}
	return &PactlTool{Runner: r}
}

func (t *PactlTool) cards(ctx context.Context) ([]Card, error) {
	out, err := t.Runner.Run(ctx, "pactl", "list", "cards")
	if err != nil {
		return nil, err
	}
	return ParseCards(string(out)), nil
}

func (t *PactlTool) Detect(ctx context.Context) (Card, error) {
	cards, err := t.cards(ctx)
	if err != nil {
		return Card{}, err
	}
	card, ok := FindBluetoothCard(cards)
	if !ok {
		return Card{}, ErrNoCard
	}
	return card, nil
}

func (t *PactlTool) ListProfiles(ctx context.Context, card string) ([]Profile, error) {
	cards, err := t.cards(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cards {
		if c.Name == card {
			return c.Profiles, nil
		}
	}
	return nil, fmt.Errorf("card %s: %w", card, ErrNoCard)
}

func (t *PactlTool) SetProfile(ctx context.Context, card, profile string) error {
	_, err := t.Runner.Run(ctx, "pactl", "set-card-profile", card, profile)
	return err
}

func (t *PactlTool) SetAutoSwitch(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	_, err := t.Runner.Run(ctx, "wpctl", "settings", "bluetooth.autoswitch-to-headset-profile", value)
	return err
}
