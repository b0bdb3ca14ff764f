package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aitorle/geovault/internal/core/domain"
	"github.com/aitorle/geovault/internal/core/ports"
	"github.com/aitorle/geovault/internal/pkg/geodesy"
	"github.com/aitorle/geovault/internal/pkg/metrics"
)

// MembershipService evaluates device location samples against that device's
// vaults and emits enter/exit transitions. It is the continuous-polling
// fallback for quadrilateral vaults and a safety net for circles when native
// region monitoring is unavailable.
type MembershipService struct {
	vaults    ports.VaultRepository
	events    ports.GeofenceEventRepository
	cache     ports.CacheService
	publisher ports.EventPublisher

	membershipTTL  int
	staleSampleMax time.Duration
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(
	vaults ports.VaultRepository,
	events ports.GeofenceEventRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	membershipTTLSeconds int,
	staleSampleMax time.Duration,
) *MembershipService {
	if membershipTTLSeconds <= 0 {
		membershipTTLSeconds = 3600
	}
	return &MembershipService{
		vaults:         vaults,
		events:         events,
		cache:          cache,
		publisher:      publisher,
		membershipTTL:  membershipTTLSeconds,
		staleSampleMax: staleSampleMax,
	}
}

// EvaluateSample computes which vaults contain the sample, diffs against the
// device's previous membership, and persists + publishes one event per
// transition. Returns the emitted events.
func (s *MembershipService) EvaluateSample(ctx context.Context, sample *domain.LocationSample) ([]domain.GeofenceEvent, error) {
	start := time.Now()
	defer func() {
		metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	if sample.DeviceID == "" {
		metrics.SamplesEvaluated.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("device id is required")
	}
	if !sample.Location.Valid() {
		metrics.SamplesEvaluated.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: sample location out of range", domain.ErrInvalidCoordinate)
	}
	if s.staleSampleMax > 0 && !sample.Time.IsZero() && time.Since(sample.Time) > s.staleSampleMax {
		metrics.SamplesEvaluated.WithLabelValues("stale").Inc()
		return nil, nil
	}

	vaults, err := s.vaults.ListByDevice(ctx, sample.DeviceID, true)
	if err != nil {
		metrics.SamplesEvaluated.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("list vaults: %w", err)
	}

	inside := make(map[string]bool, len(vaults))
	for _, v := range vaults {
		if clearlyOutside(v.Zone, sample.Location) {
			continue
		}
		if v.Zone.Contains(sample.Location) {
			inside[v.ID] = true
		}
	}

	previous := s.loadMembership(ctx, sample.DeviceID)

	eventTime := sample.Time
	if eventTime.IsZero() {
		eventTime = time.Now()
	}

	var emitted []domain.GeofenceEvent
	for id := range inside {
		if !previous[id] {
			emitted = append(emitted, domain.GeofenceEvent{
				VaultID:  id,
				DeviceID: sample.DeviceID,
				Type:     domain.GeofenceEnter,
				Location: sample.Location,
				Time:     eventTime,
			})
		}
	}
	for id := range previous {
		if !inside[id] {
			emitted = append(emitted, domain.GeofenceEvent{
				VaultID:  id,
				DeviceID: sample.DeviceID,
				Type:     domain.GeofenceExit,
				Location: sample.Location,
				Time:     eventTime,
			})
		}
	}

	for i := range emitted {
		event := &emitted[i]
		if err := s.events.Insert(ctx, event); err != nil {
			metrics.SamplesEvaluated.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("insert event: %w", err)
		}
		metrics.EventsEmitted.WithLabelValues(string(event.Type)).Inc()

		if s.publisher != nil {
			if err := s.publisher.PublishGeofenceEvent(ctx, event); err != nil {
				slog.Warn("publish geofence event failed",
					"vault_id", event.VaultID, "device_id", event.DeviceID, "error", err)
			}
		}
	}

	s.storeMembership(ctx, sample.DeviceID, inside)
	metrics.SamplesEvaluated.WithLabelValues("ok").Inc()
	return emitted, nil
}

// Membership reports which of a device's active vaults contain a point,
// without mutating state. Used by the on-demand "am I inside?" query.
func (s *MembershipService) Membership(ctx context.Context, deviceID string, point domain.Coordinate) ([]domain.Vault, error) {
	if !point.Valid() {
		return nil, fmt.Errorf("%w: point out of range", domain.ErrInvalidCoordinate)
	}

	vaults, err := s.vaults.ListByDevice(ctx, deviceID, true)
	if err != nil {
		return nil, fmt.Errorf("list vaults: %w", err)
	}

	var containing []domain.Vault
	for _, v := range vaults {
		if clearlyOutside(v.Zone, point) {
			continue
		}
		if v.Zone.Contains(point) {
			containing = append(containing, v)
		}
	}
	return containing, nil
}

// clearlyOutside is a degree-box rejection test for circular zones, run
// before the haversine containment test. The box is twice the radius wide,
// so the planar approximation can never reject a point the exact test would
// accept. Quadrilaterals go straight to the exact test.
func clearlyOutside(z domain.Zone, p domain.Coordinate) bool {
	if !z.Shape.IsCircle() {
		return false
	}
	minLat, minLon, maxLat, maxLon := geodesy.BoundingBox(z.Center.Lat, z.Center.Lon, 2*z.Shape.RadiusMeters)
	return p.Lat < minLat || p.Lat > maxLat || p.Lon < minLon || p.Lon > maxLon
}

// EventsByVault returns a vault's most recent transition events.
func (s *MembershipService) EventsByVault(ctx context.Context, vaultID string, limit int) ([]domain.GeofenceEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.events.ListByVault(ctx, vaultID, limit)
}

// EventsByDevice returns a device's most recent transition events.
func (s *MembershipService) EventsByDevice(ctx context.Context, deviceID string, limit int) ([]domain.GeofenceEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.events.ListByDevice(ctx, deviceID, limit)
}

func membershipKey(deviceID string) string {
	return "membership:" + deviceID
}

func (s *MembershipService) loadMembership(ctx context.Context, deviceID string) map[string]bool {
	prev := make(map[string]bool)
	if s.cache == nil {
		return prev
	}

	data, err := s.cache.Get(ctx, membershipKey(deviceID))
	if err != nil {
		metrics.CacheMisses.WithLabelValues("membership").Inc()
		return prev
	}
	metrics.CacheHits.WithLabelValues("membership").Inc()

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return prev
	}
	for _, id := range ids {
		prev[id] = true
	}
	return prev
}

func (s *MembershipService) storeMembership(ctx context.Context, deviceID string, inside map[string]bool) {
	if s.cache == nil {
		return
	}
	ids := make([]string, 0, len(inside))
	for id := range inside {
		ids = append(ids, id)
	}
	if data, err := json.Marshal(ids); err == nil {
		_ = s.cache.Set(ctx, membershipKey(deviceID), data, s.membershipTTL)
	}
}
