package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/aitorle/geovault/internal/adapters/postgres"
	"github.com/aitorle/geovault/internal/core/domain"
)

// coordinatePayload is a lat/lon pair in a request body.
type coordinatePayload struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// shapePayload is the wire form of a zone shape.
type shapePayload struct {
	Kind         string              `json:"kind"`
	RadiusMeters float64             `json:"radius_meters,omitempty"`
	Corners      []coordinatePayload `json:"corners,omitempty"`
}

// vaultPayload is the create/update request body.
type vaultPayload struct {
	DeviceID    string            `json:"device_id"`
	Name        string            `json:"name"`
	Center      coordinatePayload `json:"center"`
	Shape       shapePayload      `json:"shape"`
	BlockedApps []string          `json:"blocked_apps"`
	Active      bool              `json:"active"`
}

// toZone validates the payload through the domain constructors.
func (p *vaultPayload) toZone() (domain.Zone, error) {
	center, err := domain.NewCoordinate(p.Center.Lat, p.Center.Lon)
	if err != nil {
		return domain.Zone{}, err
	}

	var shape domain.Shape
	switch domain.ShapeKind(p.Shape.Kind) {
	case domain.ShapeCircle:
		shape, err = domain.NewCircle(p.Shape.RadiusMeters)
	case domain.ShapeQuadrilateral:
		corners := make([]domain.Coordinate, 0, len(p.Shape.Corners))
		for _, c := range p.Shape.Corners {
			coord, cerr := domain.NewCoordinate(c.Lat, c.Lon)
			if cerr != nil {
				return domain.Zone{}, cerr
			}
			corners = append(corners, coord)
		}
		shape, err = domain.NewQuadrilateral(corners)
	default:
		return domain.Zone{}, domain.ErrInvalidShape
	}
	if err != nil {
		return domain.Zone{}, err
	}

	return domain.Zone{Center: center, Shape: shape}, nil
}

func domainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		return errNotFound(c, "vault not found")
	case errors.Is(err, domain.ErrInvalidCoordinate),
		errors.Is(err, domain.ErrInvalidShape),
		errors.Is(err, domain.ErrNotCircular),
		errors.Is(err, domain.ErrEmptyInput):
		return errUnprocessable(c, err.Error())
	default:
		return errInternal(c, err.Error())
	}
}

// CreateVaultHandler creates a vault from a JSON payload.
func CreateVaultHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload vaultPayload
		if err := c.BodyParser(&payload); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		zone, err := payload.toZone()
		if err != nil {
			return domainError(c, err)
		}

		vault := &domain.Vault{
			DeviceID:    payload.DeviceID,
			Name:        payload.Name,
			Zone:        zone,
			BlockedApps: payload.BlockedApps,
			Active:      payload.Active,
		}
		if err := deps.Vaults.Create(c.Context(), vault); err != nil {
			return domainError(c, err)
		}
		return c.Status(201).JSON(vault)
	}
}

// GetVaultHandler returns a single vault by ID.
func GetVaultHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "vault id is required")
		}
		vault, err := deps.Vaults.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "vault not found")
		}
		return c.JSON(vault)
	}
}

// UpdateVaultHandler replaces a vault's mutable fields.
func UpdateVaultHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "vault id is required")
		}

		var payload vaultPayload
		if err := c.BodyParser(&payload); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		zone, err := payload.toZone()
		if err != nil {
			return domainError(c, err)
		}

		vault := &domain.Vault{
			ID:          id,
			DeviceID:    payload.DeviceID,
			Name:        payload.Name,
			Zone:        zone,
			BlockedApps: payload.BlockedApps,
			Active:      payload.Active,
		}
		if err := deps.Vaults.Update(c.Context(), vault); err != nil {
			return domainError(c, err)
		}
		return c.JSON(vault)
	}
}

// DeleteVaultHandler removes a vault.
func DeleteVaultHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "vault id is required")
		}
		if err := deps.Vaults.Delete(c.Context(), id); err != nil {
			return domainError(c, err)
		}
		return c.SendStatus(204)
	}
}

// DeviceVaultsHandler lists a device's vaults.
func DeviceVaultsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deviceID := c.Params("deviceID")
		if deviceID == "" {
			return errBadRequest(c, "device id is required")
		}
		activeOnly := c.QueryBool("active", false)

		vaults, err := deps.Vaults.ListByDevice(c.Context(), deviceID, activeOnly)
		if err != nil {
			return errInternal(c, err.Error())
		}

		// Apply offset/limit pagination on the full list
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(vaults)
		if offset >= total {
			vaults = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			vaults = vaults[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: vaults, Pagination: pg})
	}
}

// NearbyVaultsHandler returns vaults with centers within a radius of a point.
func NearbyVaultsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 500)
		limit := c.QueryInt("limit", 50)

		if radius <= 0 || radius > 10000 {
			return errBadRequest(c, "radius must be between 1 and 10000 meters")
		}

		vaults, err := deps.Vaults.FindNear(c.Context(), lat, lon, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(vaults)
	}
}

// viewportResponse frames a zone for the map camera.
type viewportResponse struct {
	Center   domain.Coordinate `json:"center"`
	LatDelta float64           `json:"lat_delta"`
	LonDelta float64           `json:"lon_delta"`
}

// VaultViewportHandler returns camera deltas that frame the vault's zone.
func VaultViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		vault, err := deps.Vaults.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "vault not found")
		}

		latDelta, lonDelta := deps.Editor.Viewport(vault.Zone)
		return c.JSON(viewportResponse{
			Center:   vault.Zone.Center,
			LatDelta: latDelta,
			LonDelta: lonDelta,
		})
	}
}

// VaultHandleHandler returns the resize-handle position for a circular vault.
func VaultHandleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		vault, err := deps.Vaults.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "vault not found")
		}

		handle, err := deps.Editor.ResizeHandle(vault.Zone)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(handle)
	}
}

// VaultEventsHandler lists a vault's recent transition events.
func VaultEventsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		limit := c.QueryInt("limit", 50)

		events, err := deps.Memberships.EventsByVault(c.Context(), id, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(events)
	}
}

// DeviceEventsHandler lists a device's recent transition events across vaults.
func DeviceEventsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deviceID := c.Params("deviceID")
		limit := c.QueryInt("limit", 50)

		events, err := deps.Memberships.EventsByDevice(c.Context(), deviceID, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(events)
	}
}

// MembershipHandler answers "which vaults contain this point right now?"
// without recording a transition.
func MembershipHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deviceID := c.Params("deviceID")
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)

		point, err := domain.NewCoordinate(lat, lon)
		if err != nil {
			return domainError(c, err)
		}

		vaults, err := deps.Memberships.Membership(c.Context(), deviceID, point)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(fiber.Map{"device_id": deviceID, "vaults": vaults})
	}
}

// EvaluateLocationHandler ingests a location sample over HTTP and returns
// any transition events it produced. Devices without a broker connection use
// this instead of the NATS path.
func EvaluateLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sample domain.LocationSample
		if err := c.BodyParser(&sample); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if sample.DeviceID == "" {
			return errBadRequest(c, "device_id is required")
		}

		events, err := deps.Memberships.EvaluateSample(c.Context(), &sample)
		if err != nil {
			return domainError(c, err)
		}
		if events == nil {
			events = []domain.GeofenceEvent{}
		}
		return c.JSON(fiber.Map{"events": events})
	}
}

// DefaultCornersHandler returns a starter quadrilateral around a point for
// the shape editor.
func DefaultCornersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		size := c.QueryFloat("size", 100)

		center, err := domain.NewCoordinate(lat, lon)
		if err != nil {
			return domainError(c, err)
		}

		shape, err := deps.Editor.DefaultQuadrilateral(center, size)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(shape)
	}
}

// RecenterHandler computes the centroid of a dragged corner set.
func RecenterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload struct {
			Corners []coordinatePayload `json:"corners"`
		}
		if err := c.BodyParser(&payload); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		corners := make([]domain.Coordinate, 0, len(payload.Corners))
		for _, p := range payload.Corners {
			coord, err := domain.NewCoordinate(p.Lat, p.Lon)
			if err != nil {
				return domainError(c, err)
			}
			corners = append(corners, coord)
		}

		center, err := deps.Editor.Recenter(corners)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(center)
	}
}

// StatsHandler returns row counts from the vault tables.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats struct {
			Vaults      int    `json:"vaults"`
			Events      int    `json:"events"`
			LastCreated string `json:"last_created,omitempty"`
		}
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM vaults),
				(SELECT count(*) FROM geofence_events),
				COALESCE((SELECT max(created_at)::text FROM vaults), '')
		`)
		if err := row.Scan(&stats.Vaults, &stats.Events, &stats.LastCreated); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}
