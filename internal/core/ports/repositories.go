package ports

import (
	"context"

	"github.com/aitorle/geovault/internal/core/domain"
)

// VaultRepository persists vaults.
type VaultRepository interface {
	Create(ctx context.Context, vault *domain.Vault) error
	Update(ctx context.Context, vault *domain.Vault) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Vault, error)
	ListByDevice(ctx context.Context, deviceID string, activeOnly bool) ([]domain.Vault, error)
	FindNear(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Vault, error)
}

// GeofenceEventRepository persists enter/exit events.
type GeofenceEventRepository interface {
	Insert(ctx context.Context, event *domain.GeofenceEvent) error
	ListByVault(ctx context.Context, vaultID string, limit int) ([]domain.GeofenceEvent, error)
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]domain.GeofenceEvent, error)
}
