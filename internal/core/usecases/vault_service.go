package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aitorle/geovault/internal/core/domain"
	"github.com/aitorle/geovault/internal/core/ports"
)

// Editing-workflow radius policy. The geometry core accepts any positive
// radius; the editor keeps user-created circles within these bounds.
const (
	MinRadiusMeters = 50.0
	MaxRadiusMeters = 1000.0
)

// ClampRadius applies the editing-workflow radius bounds.
func ClampRadius(r float64) float64 {
	if r < MinRadiusMeters {
		return MinRadiusMeters
	}
	if r > MaxRadiusMeters {
		return MaxRadiusMeters
	}
	return r
}

// VaultService handles vault CRUD and keeps native region monitoring in sync.
type VaultService struct {
	vaults  ports.VaultRepository
	cache   ports.CacheService
	regions ports.RegionMonitor
}

// NewVaultService creates a new VaultService.
func NewVaultService(vaults ports.VaultRepository, cache ports.CacheService, regions ports.RegionMonitor) *VaultService {
	return &VaultService{vaults: vaults, cache: cache, regions: regions}
}

// Create validates and persists a new vault, then syncs region monitoring.
func (s *VaultService) Create(ctx context.Context, vault *domain.Vault) error {
	if err := validateVault(vault); err != nil {
		return err
	}
	if vault.Zone.Shape.IsCircle() {
		vault.Zone.Shape.RadiusMeters = ClampRadius(vault.Zone.Shape.RadiusMeters)
	}

	now := time.Now()
	vault.CreatedAt = now
	vault.UpdatedAt = now

	if err := s.vaults.Create(ctx, vault); err != nil {
		return fmt.Errorf("create vault: %w", err)
	}

	s.syncRegion(ctx, vault)
	s.invalidateDevice(ctx, vault.DeviceID)
	return nil
}

// Update validates and persists changes to an existing vault.
func (s *VaultService) Update(ctx context.Context, vault *domain.Vault) error {
	if vault.ID == "" {
		return fmt.Errorf("vault id is required")
	}
	if err := validateVault(vault); err != nil {
		return err
	}
	if vault.Zone.Shape.IsCircle() {
		vault.Zone.Shape.RadiusMeters = ClampRadius(vault.Zone.Shape.RadiusMeters)
	}

	vault.UpdatedAt = time.Now()

	if err := s.vaults.Update(ctx, vault); err != nil {
		return fmt.Errorf("update vault: %w", err)
	}

	s.syncRegion(ctx, vault)
	s.invalidate(ctx, vault.ID, vault.DeviceID)
	return nil
}

// Delete removes a vault and its native region registration.
func (s *VaultService) Delete(ctx context.Context, id string) error {
	vault, err := s.vaults.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get vault: %w", err)
	}

	if err := s.vaults.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete vault: %w", err)
	}

	if s.regions != nil {
		if err := s.regions.Remove(ctx, vault.DeviceID, id); err != nil {
			slog.Warn("region remove failed", "vault_id", id, "error", err)
		}
	}
	s.invalidate(ctx, id, vault.DeviceID)
	return nil
}

// GetByID returns a single vault.
func (s *VaultService) GetByID(ctx context.Context, id string) (*domain.Vault, error) {
	cacheKey := "vaults:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var vault domain.Vault
			if err := json.Unmarshal(data, &vault); err == nil {
				return &vault, nil
			}
		}
	}

	vault, err := s.vaults.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(vault); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return vault, nil
}

// ListByDevice returns a device's vaults, active ones first.
func (s *VaultService) ListByDevice(ctx context.Context, deviceID string, activeOnly bool) ([]domain.Vault, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}

	cacheKey := fmt.Sprintf("vaults:device:%s:%t", deviceID, activeOnly)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var vaults []domain.Vault
			if err := json.Unmarshal(data, &vaults); err == nil {
				return vaults, nil
			}
		}
	}

	vaults, err := s.vaults.ListByDevice(ctx, deviceID, activeOnly)
	if err != nil {
		return nil, err
	}

	// Vault edits are rare compared to membership polls; 5 minutes is safe
	// because writes invalidate explicitly.
	if s.cache != nil {
		if data, err := json.Marshal(vaults); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return vaults, nil
}

// FindNear returns vaults whose centers lie within radiusMeters of a point.
func (s *VaultService) FindNear(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Vault, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.vaults.FindNear(ctx, lat, lon, radiusMeters, limit)
}

func validateVault(vault *domain.Vault) error {
	if strings.TrimSpace(vault.Name) == "" {
		return fmt.Errorf("vault name is required")
	}
	if vault.DeviceID == "" {
		return fmt.Errorf("device id is required")
	}
	if !vault.Zone.Center.Valid() {
		return fmt.Errorf("%w: vault center out of range", domain.ErrInvalidCoordinate)
	}
	switch vault.Zone.Shape.Kind {
	case domain.ShapeCircle:
		if vault.Zone.Shape.RadiusMeters <= 0 {
			return fmt.Errorf("%w: circle radius must be positive", domain.ErrInvalidShape)
		}
	case domain.ShapeQuadrilateral:
		if len(vault.Zone.Shape.Corners) != domain.QuadCorners {
			return fmt.Errorf("%w: quadrilateral requires %d corners", domain.ErrInvalidShape, domain.QuadCorners)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidShape, vault.Zone.Shape.Kind)
	}
	return nil
}

// syncRegion registers circles with native monitoring and deregisters
// everything else so the polling path takes over. Failures are logged, not
// fatal: the polling evaluator covers every vault regardless.
func (s *VaultService) syncRegion(ctx context.Context, vault *domain.Vault) {
	if s.regions == nil {
		return
	}

	if vault.Active && vault.Zone.Shape.IsCircle() {
		region := &domain.RegionDefinition{
			VaultID:      vault.ID,
			DeviceID:     vault.DeviceID,
			Center:       vault.Zone.Center,
			RadiusMeters: vault.Zone.Shape.RadiusMeters,
		}
		if err := s.regions.SyncCircle(ctx, region); err != nil {
			slog.Warn("region sync failed", "vault_id", vault.ID, "error", err)
		}
		return
	}

	if err := s.regions.Remove(ctx, vault.DeviceID, vault.ID); err != nil {
		slog.Warn("region remove failed", "vault_id", vault.ID, "error", err)
	}
}

func (s *VaultService) invalidate(ctx context.Context, vaultID, deviceID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, "vaults:id:"+vaultID)
	s.invalidateDevice(ctx, deviceID)
}

func (s *VaultService) invalidateDevice(ctx context.Context, deviceID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, fmt.Sprintf("vaults:device:%s:true", deviceID))
	_ = s.cache.Delete(ctx, fmt.Sprintf("vaults:device:%s:false", deviceID))
}
