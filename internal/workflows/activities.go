package workflows

import (
	"context"
	"fmt"
	"log"

	"github.com/aitorle/geovault/internal/core/domain"
	"github.com/aitorle/geovault/internal/core/ports"
)

// ackKey is where a device's push agent records region registration acks.
func ackKey(deviceID, vaultID string) string {
	return "regionack:" + deviceID + ":" + vaultID
}

// fallbackKey marks a vault as polling-only after provisioning failed.
func fallbackKey(deviceID, vaultID string) string {
	return "regionfallback:" + deviceID + ":" + vaultID
}

// RegionProvisionActivities holds the activity implementations for the
// region provisioning workflow.
type RegionProvisionActivities struct {
	Regions ports.RegionMonitor
	Cache   ports.CacheService
}

// PushRegion sends the region command down the device channel.
func (a *RegionProvisionActivities) PushRegion(ctx context.Context, input RegionProvisionInput) error {
	region := &domain.RegionDefinition{
		VaultID:      input.VaultID,
		DeviceID:     input.DeviceID,
		Center:       domain.Coordinate{Lat: input.CenterLat, Lon: input.CenterLon},
		RadiusMeters: input.RadiusMeters,
	}
	if err := a.Regions.SyncCircle(ctx, region); err != nil {
		return fmt.Errorf("push region for vault %s: %w", input.VaultID, err)
	}
	return nil
}

// CheckAck reports whether the device confirmed the region registration.
func (a *RegionProvisionActivities) CheckAck(ctx context.Context, deviceID, vaultID string) (bool, error) {
	if a.Cache == nil {
		return false, nil
	}
	_, err := a.Cache.Get(ctx, ackKey(deviceID, vaultID))
	if err != nil {
		// Missing key means no ack yet, not a failure
		return false, nil
	}
	return true, nil
}

// WithdrawRegion removes the region command (saga compensation / rollback).
func (a *RegionProvisionActivities) WithdrawRegion(ctx context.Context, deviceID, vaultID string) error {
	if err := a.Regions.Remove(ctx, deviceID, vaultID); err != nil {
		return fmt.Errorf("withdraw region for vault %s: %w", vaultID, err)
	}
	log.Printf("Region for vault %s withdrawn (saga compensation)", vaultID)
	return nil
}

// MarkPollingFallback flags the vault so the monitor treats it as
// polling-only despite being a circle. The flag has a day-long TTL; the next
// successful provisioning run clears the situation naturally.
func (a *RegionProvisionActivities) MarkPollingFallback(ctx context.Context, deviceID, vaultID string) error {
	if a.Cache == nil {
		return nil
	}
	return a.Cache.Set(ctx, fallbackKey(deviceID, vaultID), []byte("1"), 86400)
}
