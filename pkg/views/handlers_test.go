package views

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ExclusiveAccount/shastra-shield/pkg/config"
	"github.com/ExclusiveAccount/shastra-shield/pkg/models"
	"github.com/ExclusiveAccount/shastra-shield/pkg/session"
)

func TestRenderSafetyHub_Metrics(t *testing.T) {
	t.Parallel()
	sim := config.DefaultSimulation()
	_, state := authedState(t)

	view := RenderSafetyHub(sim, state)
	want := []Metric{
		{Label: "Integrity", Value: "98%"},
		{Label: "Active Nodes", Value: "3"},
		{Label: "Threats", Value: "0"},
		{Label: "Latency", Value: "12ms"},
	}
	if diff := cmp.Diff(want, view.Metrics); diff != "" {
		t.Errorf("Metrics mismatch (-want +got):\n%s", diff)
	}
	if !view.Protection.Autonomous || view.Protection.Mode != models.ProtectionModeProtection {
		t.Errorf("Unexpected protection control %+v", view.Protection)
	}
	if len(view.Topology.Links) != 2 {
		t.Errorf("Expected 2 topology links, got %d", len(view.Topology.Links))
	}
	if view.TopologyDOT == "" {
		t.Error("Expected DOT rendering")
	}
}

func TestRenderSafetyHub_ActiveNodesTracksRegistry(t *testing.T) {
	t.Parallel()
	sim := config.DefaultSimulation()

	for _, size := range []int{0, 1, 3, 7, 25} {
		state := session.State{ProtectionMode: models.ProtectionModeProtection}
		for i := 0; i < size; i++ {
			state.Devices = append(state.Devices, models.Device{ID: fmt.Sprintf("d%d", i+1), Type: models.DeviceTypeLight})
		}

		view := RenderSafetyHub(sim, state)
		if view.ActiveNodes != size {
			t.Errorf("size %d: expected %d active nodes, got %d", size, size, view.ActiveNodes)
		}
		if view.Metrics[1].Value != fmt.Sprintf("%d", size) {
			t.Errorf("size %d: card shows %s", size, view.Metrics[1].Value)
		}
	}
}

func TestRenderSafetyHub_ThreatCardIgnoresHistory(t *testing.T) {
	t.Parallel()
	sim := config.DefaultSimulation()
	s, _ := authedState(t)
	_ = s.RecordThreat(models.ThreatEvent{Type: "Brute Force"})
	_ = s.RecordThreat(models.ThreatEvent{Type: "Brute Force"})

	view := RenderSafetyHub(sim, s.Snapshot())
	if view.Metrics[2].Value != "0" {
		t.Errorf("Expected constant threat card 0, got %s", view.Metrics[2].Value)
	}
}

func TestRenderSafetyHub_LearningMode(t *testing.T) {
	t.Parallel()
	s, _ := authedState(t)
	_ = s.SetProtectionMode(models.ProtectionModeLearning)

	view := RenderSafetyHub(config.DefaultSimulation(), s.Snapshot())
	if view.Protection.Autonomous {
		t.Error("Expected toggle off in Learning mode")
	}
}

func TestRenderInventory(t *testing.T) {
	t.Parallel()
	sim := config.DefaultSimulation()
	s, _ := authedState(t)
	_, _ = s.ProvisionDevice("Lamp", models.DeviceTypeLight, "192.168.1.99")

	view := RenderInventory(sim, s.Snapshot())
	if diff := cmp.Diff(s.Devices(), view.Devices); diff != "" {
		t.Errorf("Device table mismatch (-want +got):\n%s", diff)
	}
	if view.Form.DefaultIP != "192.168.1.XX" {
		t.Errorf("Expected placeholder IP, got %s", view.Form.DefaultIP)
	}
	wantTypes := []models.DeviceType{"Camera", "Smart Lock", "Light", "TV", "NAS"}
	if diff := cmp.Diff(wantTypes, view.Form.Types); diff != "" {
		t.Errorf("Form types mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderInventory_EmptyRegistry(t *testing.T) {
	t.Parallel()
	view := RenderInventory(config.DefaultSimulation(), session.State{})
	if view.Devices == nil || len(view.Devices) != 0 {
		t.Errorf("Expected empty non-nil device table, got %#v", view.Devices)
	}
}

func TestRenderNeuralHub(t *testing.T) {
	t.Parallel()
	view := RenderNeuralHub(config.DefaultSimulation())

	if view.Maturity != "Adaptive" {
		t.Errorf("Expected Adaptive, got %s", view.Maturity)
	}
	if view.ImmunityScore != 0.88 || view.ImmunityLabel != "Immunity Score: 88%" {
		t.Errorf("Unexpected immunity %v %q", view.ImmunityScore, view.ImmunityLabel)
	}
	if len(view.AdaptationLog) != 3 || view.AdaptationLog[0].Action != "Sync" {
		t.Errorf("Unexpected adaptation log %+v", view.AdaptationLog)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	v := Login("Invalid Credentials Vault")
	if v.Error != "Invalid Credentials Vault" || len(v.Fields) != 2 {
		t.Errorf("Unexpected login view %+v", v)
	}
}
