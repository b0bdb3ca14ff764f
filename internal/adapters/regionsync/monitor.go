package regionsync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aitorle/geovault/internal/core/domain"
	"github.com/aitorle/geovault/internal/pkg/metrics"
	"github.com/nats-io/nats.go"
)

// Monitor implements ports.RegionMonitor by publishing region commands on
// JetStream. The device's push channel delivers them to the OS
// region-monitoring API; devices replay the stream on reconnect.
type Monitor struct {
	js nats.JetStreamContext
}

// NewMonitor creates a Monitor on an existing JetStream context. The
// REGION_SYNC stream is provisioned by the publisher.
func NewMonitor(js nats.JetStreamContext) *Monitor {
	return &Monitor{js: js}
}

// command is the wire form of a region instruction.
type command struct {
	Op           string            `json:"op"`
	VaultID      string            `json:"vault_id"`
	DeviceID     string            `json:"device_id"`
	Center       domain.Coordinate `json:"center,omitempty"`
	RadiusMeters float64           `json:"radius_meters,omitempty"`
}

// SyncCircle registers or refreshes a circular region on the device.
func (m *Monitor) SyncCircle(ctx context.Context, region *domain.RegionDefinition) error {
	if region.RadiusMeters <= 0 {
		return fmt.Errorf("%w: radius must be positive", domain.ErrNotCircular)
	}

	data, err := json.Marshal(command{
		Op:           "sync",
		VaultID:      region.VaultID,
		DeviceID:     region.DeviceID,
		Center:       region.Center,
		RadiusMeters: region.RadiusMeters,
	})
	if err != nil {
		return err
	}

	if _, err := m.js.Publish("vault.regions."+region.DeviceID, data); err != nil {
		return fmt.Errorf("publish region sync: %w", err)
	}
	metrics.RegionSyncs.WithLabelValues("sync").Inc()
	return nil
}

// Remove deregisters a vault's region from the device.
func (m *Monitor) Remove(ctx context.Context, deviceID, vaultID string) error {
	data, err := json.Marshal(command{
		Op:       "remove",
		VaultID:  vaultID,
		DeviceID: deviceID,
	})
	if err != nil {
		return err
	}

	if _, err := m.js.Publish("vault.regions."+deviceID, data); err != nil {
		return fmt.Errorf("publish region remove: %w", err)
	}
	metrics.RegionSyncs.WithLabelValues("remove").Inc()
	return nil
}
