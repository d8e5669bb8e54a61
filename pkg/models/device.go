package models

import (
	"time"
)

// DeviceType is the category of a monitored endpoint. The set is open-ended.
type DeviceType string

const (
	DeviceTypeRouter    DeviceType = "Router"
	DeviceTypeSmartLock DeviceType = "Smart Lock"
	DeviceTypeCamera    DeviceType = "Camera"
	DeviceTypeLight     DeviceType = "Light"
	DeviceTypeTV        DeviceType = "TV"
	DeviceTypeNAS       DeviceType = "NAS"
)

// ProvisionableTypes lists the types offered by the provisioning form, in form order.
var ProvisionableTypes = []DeviceType{
	DeviceTypeCamera,
	DeviceTypeSmartLock,
	DeviceTypeLight,
	DeviceTypeTV,
	DeviceTypeNAS,
}

// DeviceStatus is the security status of a device
type DeviceStatus string

const (
	DeviceStatusSecure DeviceStatus = "Secure"
)

// Device represents a monitored endpoint in the registry
type Device struct {
	ID          string       `json:"id"`          // Unique within the registry ("d1", "d2", ...)
	Name        string       `json:"name"`        // Display name
	Type        DeviceType   `json:"type"`        // Device category
	IP          string       `json:"ip"`          // IP address, not validated
	Status      DeviceStatus `json:"status"`      // Only Secure is ever produced
	Anomaly     float64      `json:"anomaly"`     // Advisory anomaly score in [0, 1], never recomputed
	Criticality int          `json:"criticality"` // Static criticality in [1, 10]
}

// ThreatStatus is the outcome recorded for a threat event
type ThreatStatus string

const (
	ThreatStatusNeutralized ThreatStatus = "Neutralized"
)

// ThreatEvent represents a simulated security incident
type ThreatEvent struct {
	Time      string       `json:"time"`             // Wall-clock creation time, HH:MM:SS
	CreatedAt time.Time    `json:"created_at"`       // Full creation timestamp
	Type      string       `json:"type"`             // Threat type, e.g. "Brute Force"
	Target    string       `json:"target"`           // Target device name (copy, not a reference)
	Status    ThreatStatus `json:"status"`           // Only Neutralized is ever produced
	Vector    string       `json:"vector,omitempty"` // Summary of the simulated probe, when one was built
}

// ProtectionMode is the two-valued protection setting
type ProtectionMode string

const (
	ProtectionModeProtection ProtectionMode = "Protection"
	ProtectionModeLearning   ProtectionMode = "Learning"
)
