package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/aitorle/geovault/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a vault does not exist.
var ErrNotFound = errors.New("not found")

// VaultRepo implements ports.VaultRepository with pgx.
//
// The zone center lives in a PostGIS geography column so nearby lookups can
// use ST_DWithin; the shape itself is stored as kind + textual payload and
// decoded by the domain codec.
type VaultRepo struct {
	db *DB
}

// NewVaultRepo creates a new VaultRepo.
func NewVaultRepo(db *DB) *VaultRepo {
	return &VaultRepo{db: db}
}

const vaultColumns = `
	id, device_id, name,
	ST_Y(center::geometry) as lat,
	ST_X(center::geometry) as lon,
	shape_kind, shape_data, blocked_apps, active, created_at, updated_at`

// Create inserts a vault and fills in its generated ID.
func (r *VaultRepo) Create(ctx context.Context, v *domain.Vault) error {
	kind, data, err := domain.EncodeShapeData(v.Zone.Shape)
	if err != nil {
		return fmt.Errorf("encode shape: %w", err)
	}

	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO vaults (device_id, name, center, shape_kind, shape_data, blocked_apps, active, created_at, updated_at)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, v.DeviceID, v.Name, v.Zone.Center.Lon, v.Zone.Center.Lat,
		string(kind), data, v.BlockedApps, v.Active, v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID)
}

// Update rewrites every mutable column of an existing vault.
func (r *VaultRepo) Update(ctx context.Context, v *domain.Vault) error {
	kind, data, err := domain.EncodeShapeData(v.Zone.Shape)
	if err != nil {
		return fmt.Errorf("encode shape: %w", err)
	}

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE vaults
		SET name = $2,
		    center = ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography,
		    shape_kind = $5, shape_data = $6,
		    blocked_apps = $7, active = $8, updated_at = $9
		WHERE id = $1
	`, v.ID, v.Name, v.Zone.Center.Lon, v.Zone.Center.Lat,
		string(kind), data, v.BlockedApps, v.Active, v.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a vault.
func (r *VaultRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM vaults WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a vault by UUID.
func (r *VaultRepo) GetByID(ctx context.Context, id string) (*domain.Vault, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT`+vaultColumns+` FROM vaults WHERE id = $1`, id)
	v, err := scanVault(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// ListByDevice returns a device's vaults, newest first.
func (r *VaultRepo) ListByDevice(ctx context.Context, deviceID string, activeOnly bool) ([]domain.Vault, error) {
	query := `SELECT` + vaultColumns + ` FROM vaults WHERE device_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanVaults(rows)
}

// FindNear returns vaults whose centers are within radiusMeters, using
// PostGIS ST_DWithin, nearest first.
func (r *VaultRepo) FindNear(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Vault, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT`+vaultColumns+`,
		       ST_Distance(center, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance
		FROM vaults
		WHERE ST_DWithin(center, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`, lon, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vaults []domain.Vault
	for rows.Next() {
		var (
			v          domain.Vault
			kind, data string
			dist       float64
		)
		if err := rows.Scan(
			&v.ID, &v.DeviceID, &v.Name,
			&v.Zone.Center.Lat, &v.Zone.Center.Lon,
			&kind, &data, &v.BlockedApps, &v.Active, &v.CreatedAt, &v.UpdatedAt,
			&dist,
		); err != nil {
			return nil, err
		}
		shape, err := decodeShape(v.ID, kind, data)
		if err != nil {
			return nil, err
		}
		v.Zone.Shape = shape
		vaults = append(vaults, v)
	}
	return vaults, rows.Err()
}

func scanVault(row pgx.Row) (*domain.Vault, error) {
	var (
		v          domain.Vault
		kind, data string
	)
	if err := row.Scan(
		&v.ID, &v.DeviceID, &v.Name,
		&v.Zone.Center.Lat, &v.Zone.Center.Lon,
		&kind, &data, &v.BlockedApps, &v.Active, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}

	shape, err := decodeShape(v.ID, kind, data)
	if err != nil {
		return nil, err
	}
	v.Zone.Shape = shape
	return &v, nil
}

// decodeShape turns the persisted kind/data columns back into a Shape,
// naming the offending row when a stored value no longer parses.
func decodeShape(vaultID, kind, data string) (domain.Shape, error) {
	shape, err := domain.ParseShapeData(kind, data)
	if err != nil {
		return domain.Shape{}, fmt.Errorf("vault %s: %w", vaultID, err)
	}
	return shape, nil
}

func scanVaults(rows pgx.Rows) ([]domain.Vault, error) {
	var vaults []domain.Vault
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, err
		}
		vaults = append(vaults, *v)
	}
	return vaults, rows.Err()
}
