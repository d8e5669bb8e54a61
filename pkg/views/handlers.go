package views

import (
	"fmt"
	"math"

	"github.com/ExclusiveAccount/shastra-shield/pkg/config"
	"github.com/ExclusiveAccount/shastra-shield/pkg/models"
	"github.com/ExclusiveAccount/shastra-shield/pkg/netmap"
	"github.com/ExclusiveAccount/shastra-shield/pkg/session"
)

// Metric is one dashboard card
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ProtectionControl is the state of the autonomous-protection toggle
type ProtectionControl struct {
	Autonomous bool                  `json:"autonomous"`
	Mode       models.ProtectionMode `json:"mode"`
}

// SafetyHubView is the dashboard
type SafetyHubView struct {
	Metrics     []Metric           `json:"metrics"`
	ActiveNodes int                `json:"active_nodes"`
	MeshNotice  string             `json:"mesh_notice"`
	Topology    *netmap.NetworkMap `json:"topology"`
	TopologyDOT string             `json:"topology_dot"`
	Protection  ProtectionControl  `json:"protection"`
}

// RenderSafetyHub renders the dashboard. Only the active-node count is live;
// the threat card shows the configured constant, not the threat log length.
func RenderSafetyHub(sim config.Simulation, state session.State) SafetyHubView {
	active := len(state.Devices)
	topology := netmap.Build(state.Devices)

	return SafetyHubView{
		Metrics: []Metric{
			{Label: "Integrity", Value: fmt.Sprintf("%d%%", sim.IntegrityPercent)},
			{Label: "Active Nodes", Value: fmt.Sprintf("%d", active)},
			{Label: "Threats", Value: fmt.Sprintf("%d", sim.ThreatMetric)},
			{Label: "Latency", Value: fmt.Sprintf("%dms", sim.LatencyMillis)},
		},
		ActiveNodes: active,
		MeshNotice:  sim.MeshNotice,
		Topology:    topology,
		TopologyDOT: topology.DOT(),
		Protection: ProtectionControl{
			Autonomous: state.ProtectionMode == models.ProtectionModeProtection,
			Mode:       state.ProtectionMode,
		},
	}
}

// ProvisionForm describes the device provisioning form
type ProvisionForm struct {
	Types     []models.DeviceType `json:"types"`
	DefaultIP string              `json:"default_ip"`
}

// InventoryView is the device table and provisioning form
type InventoryView struct {
	Devices []models.Device `json:"devices"`
	Form    ProvisionForm   `json:"form"`
}

// RenderInventory renders the device registry as-is
func RenderInventory(sim config.Simulation, state session.State) InventoryView {
	devices := state.Devices
	if devices == nil {
		devices = []models.Device{}
	}

	return InventoryView{
		Devices: devices,
		Form: ProvisionForm{
			Types:     append([]models.DeviceType(nil), models.ProvisionableTypes...),
			DefaultIP: sim.IPPlaceholder,
		},
	}
}

// NeuralHubView is the static learning status page
type NeuralHubView struct {
	Maturity      string                   `json:"maturity"`
	ImmunityScore float64                  `json:"immunity_score"`
	ImmunityLabel string                   `json:"immunity_label"`
	AdaptationLog []config.AdaptationEntry `json:"adaptation_log"`
}

// RenderNeuralHub renders the informational Neural Hub page
func RenderNeuralHub(sim config.Simulation) NeuralHubView {
	return NeuralHubView{
		Maturity:      sim.MaturityLabel,
		ImmunityScore: sim.ImmunityScore,
		ImmunityLabel: fmt.Sprintf("Immunity Score: %d%%", int(math.Round(sim.ImmunityScore*100))),
		AdaptationLog: append([]config.AdaptationEntry(nil), sim.AdaptationLog...),
	}
}
