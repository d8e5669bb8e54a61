// Package session holds the per-user dashboard state: authentication flag,
// device registry, threat log and protection mode.
//
// Authentication here is simulated. Any non-empty identity and secret pair is
// accepted; nothing is verified, rate limited or stored. It is not a security
// boundary.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ExclusiveAccount/shastra-shield/pkg/config"
	"github.com/ExclusiveAccount/shastra-shield/pkg/models"
)

var (
	// ErrInvalidCredentials is returned when the identity or secret is empty.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthenticated is returned when a mutation is attempted on an unauthenticated session.
	ErrNotAuthenticated = errors.New("session not authenticated")
	// ErrSessionNotFound is returned when a session handle is unknown.
	ErrSessionNotFound = errors.New("session not found")
)

// AdvisoryHistoryLimit caps the advisory exchange kept per session
const AdvisoryHistoryLimit = 20

// State is a point-in-time copy of a session, safe to render from.
type State struct {
	ID             string                `json:"id"`
	Authenticated  bool                  `json:"authenticated"`
	User           string                `json:"user,omitempty"`
	Devices        []models.Device       `json:"devices"`
	ThreatHistory  []models.ThreatEvent  `json:"threat_history"`
	ProtectionMode models.ProtectionMode `json:"protection_mode"`
}

// Session is the mutable state of one interactive user
type Session struct {
	id  string
	sim config.Simulation

	mu             sync.Mutex
	authenticated  bool
	user           string
	devices        []models.Device
	threatHistory  []models.ThreatEvent
	protectionMode models.ProtectionMode
	advisories     []models.AdvisoryMessage
}

// New creates a session seeded with the simulation's seed devices
func New(sim config.Simulation) *Session {
	devices := make([]models.Device, len(sim.SeedDevices))
	copy(devices, sim.SeedDevices)

	return &Session{
		id:             uuid.NewString(),
		sim:            sim,
		devices:        devices,
		threatHistory:  []models.ThreatEvent{},
		protectionMode: models.ProtectionModeProtection,
	}
}

// ID returns the session handle
func (s *Session) ID() string {
	return s.id
}

// Authenticate marks the session authenticated for identity.
// Both identity and secret must be non-empty; nothing else is checked.
func (s *Session) Authenticate(identity, secret string) error {
	if identity == "" || secret == "" {
		return ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = true
	s.user = identity
	return nil
}

// Logout clears the authenticated flag and the user
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = false
	s.user = ""
}

// IsAuthenticated reports whether the session passed the login gate
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// User returns the authenticated identity, or "" when not authenticated
func (s *Session) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return ""
	}
	return s.user
}

// Devices returns a copy of the device registry in insertion order
func (s *Session) Devices() []models.Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Device, len(s.devices))
	copy(out, s.devices)
	return out
}

// FindDeviceByName returns the first device with the given display name
func (s *Session) FindDeviceByName(name string) (models.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.devices {
		if d.Name == name {
			return d, true
		}
	}
	return models.Device{}, false
}

// ProvisionDevice appends a new device to the registry.
//
// Input is not validated: empty names, unknown types and malformed addresses
// are all accepted. The identifier is "d" followed by the registry size plus
// one, which stays unique only while devices are never removed.
func (s *Session) ProvisionDevice(name string, deviceType models.DeviceType, ip string) (models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return models.Device{}, ErrNotAuthenticated
	}

	device := models.Device{
		ID:          fmt.Sprintf("d%d", len(s.devices)+1),
		Name:        name,
		Type:        deviceType,
		IP:          ip,
		Status:      s.sim.ProvisionStatus,
		Anomaly:     s.sim.ProvisionAnomaly,
		Criticality: s.sim.ProvisionCriticality,
	}
	s.devices = append(s.devices, device)

	return device, nil
}

// ProtectionMode returns the current protection mode
func (s *Session) ProtectionMode() models.ProtectionMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protectionMode
}

// SetProtectionMode stores the protection mode. It has no effect on devices.
func (s *Session) SetProtectionMode(mode models.ProtectionMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return ErrNotAuthenticated
	}
	s.protectionMode = mode
	return nil
}

// RecordThreat prepends event to the threat history (newest first)
func (s *Session) RecordThreat(event models.ThreatEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return ErrNotAuthenticated
	}

	history := make([]models.ThreatEvent, 0, len(s.threatHistory)+1)
	history = append(history, event)
	s.threatHistory = append(history, s.threatHistory...)
	return nil
}

// ThreatHistory returns a copy of the threat log, newest first
func (s *Session) ThreatHistory() []models.ThreatEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ThreatEvent, len(s.threatHistory))
	copy(out, s.threatHistory)
	return out
}

// RecentThreats returns at most n of the newest threat events
func (s *Session) RecentThreats(n int) []models.ThreatEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 0 {
		n = 0
	}
	if n > len(s.threatHistory) {
		n = len(s.threatHistory)
	}
	out := make([]models.ThreatEvent, n)
	copy(out, s.threatHistory[:n])
	return out
}

// RecordAdvisory appends messages to the advisory history, keeping only the
// newest AdvisoryHistoryLimit entries
func (s *Session) RecordAdvisory(messages ...models.AdvisoryMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return ErrNotAuthenticated
	}

	s.advisories = append(s.advisories, messages...)
	if over := len(s.advisories) - AdvisoryHistoryLimit; over > 0 {
		s.advisories = append([]models.AdvisoryMessage(nil), s.advisories[over:]...)
	}
	return nil
}

// AdvisoryHistory returns a copy of the advisory history, oldest first
func (s *Session) AdvisoryHistory() []models.AdvisoryMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AdvisoryMessage, len(s.advisories))
	copy(out, s.advisories)
	return out
}

// Snapshot returns a copy of the whole session state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		ID:             s.id,
		Authenticated:  s.authenticated,
		Devices:        make([]models.Device, len(s.devices)),
		ThreatHistory:  make([]models.ThreatEvent, len(s.threatHistory)),
		ProtectionMode: s.protectionMode,
	}
	if s.authenticated {
		state.User = s.user
	}
	copy(state.Devices, s.devices)
	copy(state.ThreatHistory, s.threatHistory)
	return state
}
