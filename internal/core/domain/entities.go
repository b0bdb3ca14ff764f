package domain

import (
	"time"
)

// Vault is a user-defined geographic zone that blocks a set of apps while the
// device is inside it.
type Vault struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	Name        string    `json:"name"`
	Zone        Zone      `json:"zone"`
	BlockedApps []string  `json:"blocked_apps"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LocationSample is a real-time device location reading.
type LocationSample struct {
	DeviceID       string     `json:"device_id"`
	Location       Coordinate `json:"location"`
	AccuracyMeters float64    `json:"accuracy_meters,omitempty"`
	Time           time.Time  `json:"time"`
}

// GeofenceEventType discriminates membership transitions.
type GeofenceEventType string

const (
	GeofenceEnter GeofenceEventType = "enter"
	GeofenceExit  GeofenceEventType = "exit"
)

// GeofenceEvent records a device entering or leaving a vault. The device
// applies or lifts app blocking when it receives one.
type GeofenceEvent struct {
	ID       string            `json:"id"`
	VaultID  string            `json:"vault_id"`
	DeviceID string            `json:"device_id"`
	Type     GeofenceEventType `json:"type"`
	Location Coordinate        `json:"location"`
	Time     time.Time         `json:"time"`
}

// RegionDefinition is what the OS region-monitoring collaborator accepts:
// a circular region only, identified by vault.
type RegionDefinition struct {
	VaultID      string     `json:"vault_id"`
	DeviceID     string     `json:"device_id"`
	Center       Coordinate `json:"center"`
	RadiusMeters float64    `json:"radius_meters"`
}
