package postgres

import (
	"context"

	"github.com/aitorle/geovault/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// EventRepo implements ports.GeofenceEventRepository with pgx.
type EventRepo struct {
	db *DB
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

// Insert persists one transition event and fills in its generated ID.
func (r *EventRepo) Insert(ctx context.Context, e *domain.GeofenceEvent) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO geofence_events (vault_id, device_id, event_type, location, occurred_at)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6)
		RETURNING id
	`, e.VaultID, e.DeviceID, string(e.Type),
		e.Location.Lon, e.Location.Lat, e.Time,
	).Scan(&e.ID)
}

const eventColumns = `
	id, vault_id, device_id, event_type,
	ST_Y(location::geometry) as lat,
	ST_X(location::geometry) as lon,
	occurred_at`

// ListByVault returns a vault's most recent events.
func (r *EventRepo) ListByVault(ctx context.Context, vaultID string, limit int) ([]domain.GeofenceEvent, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT`+eventColumns+`
		FROM geofence_events
		WHERE vault_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, vaultID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListByDevice returns a device's most recent events across all vaults.
func (r *EventRepo) ListByDevice(ctx context.Context, deviceID string, limit int) ([]domain.GeofenceEvent, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT`+eventColumns+`
		FROM geofence_events
		WHERE device_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]domain.GeofenceEvent, error) {
	var events []domain.GeofenceEvent
	for rows.Next() {
		var (
			e         domain.GeofenceEvent
			eventType string
		)
		if err := rows.Scan(
			&e.ID, &e.VaultID, &e.DeviceID, &eventType,
			&e.Location.Lat, &e.Location.Lon, &e.Time,
		); err != nil {
			return nil, err
		}
		e.Type = domain.GeofenceEventType(eventType)
		events = append(events, e)
	}
	return events, rows.Err()
}
