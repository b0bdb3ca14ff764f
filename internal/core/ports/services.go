package ports

import (
	"context"

	"github.com/aitorle/geovault/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishGeofenceEvent(ctx context.Context, event *domain.GeofenceEvent) error
	PublishLocationSample(ctx context.Context, sample *domain.LocationSample) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeLocationSamples(ctx context.Context, handler func(ctx context.Context, sample *domain.LocationSample) error) error
	SubscribeGeofenceEvents(ctx context.Context, handler func(ctx context.Context, event *domain.GeofenceEvent) error) error
}

// RegionMonitor is the OS region-monitoring collaborator. It accepts only
// circular regions; callers consult Shape.IsCircle and fall back to
// continuous polling for quadrilateral zones.
type RegionMonitor interface {
	SyncCircle(ctx context.Context, region *domain.RegionDefinition) error
	Remove(ctx context.Context, deviceID, vaultID string) error
}

// CacheService provides read-through caching and small shared state.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
