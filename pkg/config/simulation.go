package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ExclusiveAccount/shastra-shield/pkg/models"
)

// AdaptationEntry is one line of the Neural Hub adaptation log
type AdaptationEntry struct {
	Time   string `json:"time"`
	Action string `json:"action"`
	Desc   string `json:"desc"`
}

// Simulation is the table of fabricated values the dashboard displays.
// Nothing here is measured; every view reads its numbers from this table.
type Simulation struct {
	IntegrityPercent int `json:"integrity_percent"`
	// ThreatMetric is shown as the Threats card. It is not derived from the threat log.
	ThreatMetric  int    `json:"threat_metric"`
	LatencyMillis int    `json:"latency_millis"`
	MeshNotice    string `json:"mesh_notice"`

	MaturityLabel string            `json:"maturity_label"`
	ImmunityScore float64           `json:"immunity_score"`
	AdaptationLog []AdaptationEntry `json:"adaptation_log"`

	SeedDevices []models.Device `json:"seed_devices"`

	DrillDelay        time.Duration       `json:"drill_delay"`
	DrillThreatType   string              `json:"drill_threat_type"`
	DrillTarget       string              `json:"drill_target"`
	DrillStatus       models.ThreatStatus `json:"drill_status"`
	DrillProbePort    uint16              `json:"drill_probe_port"`
	DrillProbeSource  string              `json:"drill_probe_source"`
	DrillNotification string              `json:"drill_notification"`

	ProvisionStatus      models.DeviceStatus `json:"provision_status"`
	ProvisionAnomaly     float64             `json:"provision_anomaly"`
	ProvisionCriticality int                 `json:"provision_criticality"`
	IPPlaceholder        string              `json:"ip_placeholder"`

	PlaceholderNotice string `json:"placeholder_notice"`
	AlertFeedSize     int    `json:"alert_feed_size"`
}

// ErrDuplicateSeedID is returned when seed device identifiers are not unique,
// or when one would be handed out again by provisioning
var ErrDuplicateSeedID = errors.New("duplicate seed device id")

// Validate checks that seed device identifiers are unique. Provisioning
// assigns "d" followed by the registry size plus one, so a seed "d<n>" with n
// above the seed count is rejected too.
func (s Simulation) Validate() error {
	seen := make(map[string]bool, len(s.SeedDevices))
	for _, d := range s.SeedDevices {
		if seen[d.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateSeedID, d.ID)
		}
		seen[d.ID] = true

		if n, err := strconv.Atoi(strings.TrimPrefix(d.ID, "d")); err == nil && strings.HasPrefix(d.ID, "d") && n > len(s.SeedDevices) {
			return fmt.Errorf("%w: %q is reserved for provisioning", ErrDuplicateSeedID, d.ID)
		}
	}
	return nil
}

// UnmarshalJSON accepts drill_delay as a Go duration string ("2s") or as seconds
func (s *Simulation) UnmarshalJSON(data []byte) error {
	type plain Simulation
	aux := struct {
		*plain
		DrillDelay any `json:"drill_delay"`
	}{plain: (*plain)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	return setDuration(&s.DrillDelay, "drill_delay", aux.DrillDelay)
}

// DefaultSimulation returns the stock simulated values
func DefaultSimulation() Simulation {
	return Simulation{
		IntegrityPercent: 98,
		ThreatMetric:     0,
		LatencyMillis:    12,
		MeshNotice:       "Neural Mesh active. Monitoring encrypted L3/L4 headers across 3 local subnets.",

		MaturityLabel: "Adaptive",
		ImmunityScore: 0.88,
		AdaptationLog: []AdaptationEntry{
			{Time: "14:22", Action: "Sync", Desc: "Fetched 12 new IoT CVE signatures."},
			{Time: "12:10", Action: "Learn", Desc: "Solidified baseline for Smart Lock."},
			{Time: "09:45", Action: "Drift", Desc: "Corrected clock skew on Core Router."},
		},

		SeedDevices: []models.Device{
			{ID: "d1", Name: "Core Gateway", Type: models.DeviceTypeRouter, IP: "192.168.1.1", Status: models.DeviceStatusSecure, Anomaly: 0.02, Criticality: 10},
			{ID: "d2", Name: "Front Door Lock", Type: models.DeviceTypeSmartLock, IP: "192.168.1.42", Status: models.DeviceStatusSecure, Anomaly: 0.05, Criticality: 9},
			{ID: "d3", Name: "Backyard Cam", Type: models.DeviceTypeCamera, IP: "192.168.1.55", Status: models.DeviceStatusSecure, Anomaly: 0.08, Criticality: 8},
		},

		DrillDelay:        2 * time.Second,
		DrillThreatType:   "Brute Force",
		DrillTarget:       "Backyard Cam",
		DrillStatus:       models.ThreatStatusNeutralized,
		DrillProbePort:    22,
		DrillProbeSource:  "10.66.6.6",
		DrillNotification: "Anomaly detected on %s!",

		ProvisionStatus:      models.DeviceStatusSecure,
		ProvisionAnomaly:     0.0,
		ProvisionCriticality: 5,
		IPPlaceholder:        "192.168.1.XX",

		PlaceholderNotice: "The %s module is running in background autonomous mode.",
		AlertFeedSize:     3,
	}
}
