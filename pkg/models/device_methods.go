package models

// IsRouter reports whether the device is a topology root
func (d *Device) IsRouter() bool {
	return d.Type == DeviceTypeRouter
}

// IsProvisionable reports whether t is one of the types offered by the provisioning form
func (t DeviceType) IsProvisionable() bool {
	for _, p := range ProvisionableTypes {
		if p == t {
			return true
		}
	}
	return false
}

// ModeFor maps the autonomous-protection toggle to a protection mode
func ModeFor(autonomous bool) ProtectionMode {
	if autonomous {
		return ProtectionModeProtection
	}
	return ProtectionModeLearning
}
