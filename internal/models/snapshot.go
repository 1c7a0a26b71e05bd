// Package models defines the wire-level data types shared by the monitoring
// pipeline, the dashboard session layer, and the assistant.
package models

import "time"

// DeviceType categorizes a monitored device.
type DeviceType string

const (
	DeviceFirewall DeviceType = "firewall"
	DeviceSwitch   DeviceType = "switch"
	DeviceDatabase DeviceType = "database"
	DeviceInternet DeviceType = "internet"
)

// DeviceStatus represents the operational state reported for a device.
type DeviceStatus string

const (
	StatusOnline   DeviceStatus = "online"
	StatusWarning  DeviceStatus = "warning"
	StatusOffline  DeviceStatus = "offline"
	StatusDegraded DeviceStatus = "degraded"
)

// Device is one monitored unit inside a snapshot. The Type field selects
// which metric group is populated; the remaining groups stay zero and are
// omitted from JSON, matching the upstream payload shape.
type Device struct {
	ID     int          `json:"id"`
	Name   string       `json:"name"`
	Type   DeviceType   `json:"type"`
	Status DeviceStatus `json:"status"`

	// firewall
	CPU            int `json:"cpu,omitempty"`
	Memory         int `json:"memory,omitempty"`
	ThreatsBlocked int `json:"threats_blocked,omitempty"`

	// switch
	PortsActive int `json:"ports_active,omitempty"`
	TrafficMbps int `json:"traffic_mbps,omitempty"`

	// database
	Connections   int `json:"connections,omitempty"`
	QueriesPerSec int `json:"queries_per_sec,omitempty"`

	// internet
	LatencyMs      int `json:"latency_ms,omitempty"`
	BandwidthUsage int `json:"bandwidth_usage,omitempty"`
}

// Snapshot is one complete, immutable monitoring reading. It is replaced
// wholesale on every refresh; devices carry at most one entry per type.
type Snapshot struct {
	Devices     []Device  `json:"devices"`
	Alerts      []Alert   `json:"alerts"`
	GeneratedAt time.Time `json:"generated_at"`
	Synthetic   bool      `json:"-"`
}

// DeviceByType returns the snapshot's device of the requested type.
func (s *Snapshot) DeviceByType(t DeviceType) (Device, bool) {
	if s == nil {
		return Device{}, false
	}
	for _, d := range s.Devices {
		if d.Type == t {
			return d, true
		}
	}
	return Device{}, false
}
