// Package views turns a session snapshot and a navigation selection into a
// view model. Rendering is a pure function of its inputs; the HTTP layer owns
// authentication and mutation.
package views

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ExclusiveAccount/shastra-shield/pkg/config"
	"github.com/ExclusiveAccount/shastra-shield/pkg/models"
	"github.com/ExclusiveAccount/shastra-shield/pkg/session"
)

// ErrUnknownSelection is returned for a navigation target that does not exist.
var ErrUnknownSelection = errors.New("unknown view selection")

// Selection is a navigation destination
type Selection string

const (
	SafetyHub  Selection = "safety-hub"
	NeuralHub  Selection = "neural-hub"
	Inventory  Selection = "iot-inventory"
	Firewall   Selection = "adaptive-firewall"
	Mitigation Selection = "mitigation-center"
)

// NavItem is one entry of the navigation selector
type NavItem struct {
	Selection Selection `json:"selection"`
	Label     string    `json:"label"`
}

// Navigation lists the destinations in menu order
var Navigation = []NavItem{
	{Selection: SafetyHub, Label: "Safety Hub"},
	{Selection: NeuralHub, Label: "Neural Hub"},
	{Selection: Inventory, Label: "IoT Inventory"},
	{Selection: Firewall, Label: "Adaptive Firewall"},
	{Selection: Mitigation, Label: "Mitigation Center"},
}

// Label returns the menu label of s
func (s Selection) Label() string {
	for _, item := range Navigation {
		if item.Selection == s {
			return item.Label
		}
	}
	return string(s)
}

// ParseSelection accepts either a selection slug or its menu label
func ParseSelection(v string) (Selection, error) {
	for _, item := range Navigation {
		if string(item.Selection) == v || strings.EqualFold(item.Label, v) {
			return item.Selection, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSelection, v)
}

// Sidebar is rendered alongside every authenticated view
type Sidebar struct {
	User           string                `json:"user"`
	ProtectionMode models.ProtectionMode `json:"protection_mode"`
	Clock          string                `json:"clock"`
	Date           string                `json:"date"`
	Alerts         []models.ThreatEvent  `json:"alerts,omitempty"`
}

// ViewModel is the rendered output of one interaction cycle
type ViewModel struct {
	Selection Selection      `json:"selection"`
	Title     string         `json:"title"`
	Sidebar   Sidebar        `json:"sidebar"`
	SafetyHub *SafetyHubView `json:"safety_hub,omitempty"`
	Inventory *InventoryView `json:"inventory,omitempty"`
	NeuralHub *NeuralHubView `json:"neural_hub,omitempty"`
	Notice    string         `json:"notice,omitempty"`
}

// Router dispatches a selection to its view handler. It holds no per-call state.
type Router struct {
	sim config.Simulation
	now func() time.Time
}

// NewRouter creates a router over the simulation table
func NewRouter(sim config.Simulation) *Router {
	return &Router{sim: sim, now: time.Now}
}

// Route renders selection for state. Callers must only pass authenticated state.
func (r *Router) Route(selection Selection, state session.State) (ViewModel, error) {
	vm := ViewModel{
		Selection: selection,
		Sidebar:   r.sidebar(state),
	}

	switch selection {
	case SafetyHub:
		vm.Title = "SAFETY HUB"
		view := RenderSafetyHub(r.sim, state)
		vm.SafetyHub = &view
	case Inventory:
		vm.Title = "IOT INVENTORY"
		view := RenderInventory(r.sim, state)
		vm.Inventory = &view
	case NeuralHub:
		vm.Title = "NEURAL EVOLUTION"
		view := RenderNeuralHub(r.sim)
		vm.NeuralHub = &view
	case Firewall, Mitigation:
		vm.Title = strings.ToUpper(selection.Label())
		vm.Notice = fmt.Sprintf(r.sim.PlaceholderNotice, selection.Label())
	default:
		return ViewModel{}, fmt.Errorf("%w: %q", ErrUnknownSelection, selection)
	}

	return vm, nil
}

func (r *Router) sidebar(state session.State) Sidebar {
	now := r.now()
	sb := Sidebar{
		User:           state.User,
		ProtectionMode: state.ProtectionMode,
		Clock:          now.Format("15:04:05"),
		Date:           now.Format("02 Jan 2006"),
	}

	n := r.sim.AlertFeedSize
	if n > len(state.ThreatHistory) {
		n = len(state.ThreatHistory)
	}
	if n > 0 {
		sb.Alerts = append([]models.ThreatEvent(nil), state.ThreatHistory[:n]...)
	}
	return sb
}
