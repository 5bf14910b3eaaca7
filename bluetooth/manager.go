// Package bluetooth switches a Bluetooth headset into a hands-free profile
// for the length of a recording and puts it back afterwards.
package bluetooth

import (
	"context"
	"errors"
	"sync"
	"time"

	"dictate/log"
)

// SettleDelay is how long the audio server gets to reconfigure after a
// profile switch.
const SettleDelay = 500 * time.Millisecond

type State int

const (
	Inactive State = iota
	Detected
	Negotiating
	Active
	Restoring
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Detected:
		return "detected"
	case Negotiating:
		return "negotiating"
	case Active:
		return "active"
	case Restoring:
		return "restoring"
	default:
		return "unknown"
	}
}

// DeviceState is captured once per session and only drives restoration.
type DeviceState struct {
	Card                  string
	ActiveProfile         string
	Description           string
	OriginalProfile       string
	AutoSwitchWasDisabled bool
}

// Manager negotiates a hands-free profile and restores the original one.
// Tool failures are logged and swallowed; the session then proceeds on the
// default input device.
type Manager struct {
	tool   Tool
	settle time.Duration

	mu       sync.Mutex
	state    State
	device   DeviceState
	detected bool
	switched bool
	done     bool
}

func NewManager(tool Tool) *Manager {
	return &Manager{tool: tool, settle: SettleDelay}
}

// SetSettleDelay overrides SettleDelay.
func (m *Manager) SetSettleDelay(d time.Duration) { m.settle = d }

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Device() DeviceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.device
}

// Negotiate detects a Bluetooth card and switches it to a hands-free
// profile. It returns the device description to prefer as capture input,
// or "" when capture should use the default device. It holds the manager
// for its whole run, so a concurrent Restore waits for it.
func (m *Manager) Negotiate(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done || m.state != Inactive {
		return ""
	}

	card, err := m.tool.Detect(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoCard) {
			log.Warnf("bluetooth detect: %v", err)
		}
		return ""
	}
	m.detected = true
	m.state = Detected
	m.device = DeviceState{
		Card:            card.Name,
		ActiveProfile:   card.ActiveProfile,
		Description:     card.Description,
		OriginalProfile: card.ActiveProfile,
	}
	log.Bluetooth("bt_detected", card.Name, card.ActiveProfile)

	m.state = Negotiating
	profiles, err := m.tool.ListProfiles(ctx, card.Name)
	if err != nil {
		log.Warnf("bluetooth list profiles: %v", err)
		m.state = Active
		return ""
	}
	hfp := PickHeadsetProfile(profiles)
	if hfp == "" {
		log.Bluetooth("bt_no_headset_profile", card.Name, "")
		m.state = Active
		return ""
	}

	if hfp != card.ActiveProfile && ctx.Err() == nil {
		if err := m.tool.SetAutoSwitch(ctx, false); err != nil {
			log.Warnf("bluetooth disable autoswitch: %v", err)
		}
		// Re-enable even after a failed toggle; the setting may have applied.
		m.device.AutoSwitchWasDisabled = true

		if err := m.tool.SetProfile(ctx, card.Name, hfp); err != nil {
			log.Warnf("bluetooth set profile %s: %v", hfp, err)
		} else {
			m.switched = true
			m.device.ActiveProfile = hfp
			log.Bluetooth("bt_profile_switch", card.Name, hfp)
		}

		select {
		case <-time.After(m.settle):
		case <-ctx.Done():
		}
	}

	m.state = Active
	return card.Description
}

// Restore puts back the original profile and re-enables the auto-switch
// agent if it was disabled. Only the first call acts; without a detected
// card it makes no external calls.
func (m *Manager) Restore(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return
	}
	m.done = true
	if !m.detected {
		return
	}

	m.state = Restoring
	if m.device.Card != "" && m.device.OriginalProfile != "" {
		if err := m.tool.SetProfile(ctx, m.device.Card, m.device.OriginalProfile); err != nil {
			log.Warnf("bluetooth restore profile %s: %v", m.device.OriginalProfile, err)
		} else {
			m.device.ActiveProfile = m.device.OriginalProfile
		}
	}
	if m.device.AutoSwitchWasDisabled {
		if err := m.tool.SetAutoSwitch(ctx, true); err != nil {
			log.Warnf("bluetooth enable autoswitch: %v", err)
		}
		m.device.AutoSwitchWasDisabled = false
	}
	log.Bluetooth("bt_restore", m.device.Card, m.device.OriginalProfile)
	m.state = Inactive
}
