package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/aitorle/geovault/internal/adapters/postgres"
	"github.com/aitorle/geovault/internal/core/domain"
	"github.com/aitorle/geovault/internal/core/usecases"
	"github.com/aitorle/geovault/internal/pkg/config"
)

// ---------------------------------------------------------------------------
// Fixture types
// ---------------------------------------------------------------------------

type Fixtures struct {
	Source string       `json:"source"`
	Vaults []VaultEntry `json:"vaults"`
}

type VaultEntry struct {
	DeviceID    string       `json:"device_id"`
	Name        string       `json:"name"`
	Center      CoordEntry   `json:"center"`
	Kind        string       `json:"kind"`
	Radius      float64      `json:"radius_meters,omitempty"`
	Corners     []CoordEntry `json:"corners,omitempty"`
	BlockedApps []string     `json:"blocked_apps"`
	Active      bool         `json:"active"`
}

type CoordEntry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("geovault-seed")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Load fixtures
	fixturePath := "fixtures.json"
	if len(os.Args) > 1 {
		fixturePath = os.Args[1]
	}

	data, err := os.ReadFile(fixturePath)
	if err != nil {
		log.Fatalf("read fixtures: %v", err)
	}

	var fixtures Fixtures
	if err := json.Unmarshal(data, &fixtures); err != nil {
		log.Fatalf("parse fixtures: %v", err)
	}

	log.Printf("GeoVault Seeder: %d vaults from %s", len(fixtures.Vaults), fixtures.Source)

	// Filter devices (optional CLI arg: device ID list)
	deviceFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, d := range strings.Split(os.Args[2], ",") {
			deviceFilter[strings.TrimSpace(d)] = true
		}
	}

	// No region monitor: seeding must not push commands to real devices.
	svc := usecases.NewVaultService(postgres.NewVaultRepo(db), nil, nil)

	created, skipped := 0, 0
	for _, entry := range fixtures.Vaults {
		if len(deviceFilter) > 0 && !deviceFilter[entry.DeviceID] {
			continue
		}

		vault, err := buildVault(entry)
		if err != nil {
			log.Printf("SKIP %s (%s): %v", entry.Name, entry.DeviceID, err)
			skipped++
			continue
		}

		if err := svc.Create(ctx, vault); err != nil {
			log.Printf("SKIP %s (%s): %v", entry.Name, entry.DeviceID, err)
			skipped++
			continue
		}
		created++
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}

func buildVault(entry VaultEntry) (*domain.Vault, error) {
	center, err := domain.NewCoordinate(entry.Center.Lat, entry.Center.Lon)
	if err != nil {
		return nil, err
	}

	var shape domain.Shape
	switch domain.ShapeKind(entry.Kind) {
	case domain.ShapeQuadrilateral:
		corners := make([]domain.Coordinate, 0, len(entry.Corners))
		for _, c := range entry.Corners {
			coord, err := domain.NewCoordinate(c.Lat, c.Lon)
			if err != nil {
				return nil, err
			}
			corners = append(corners, coord)
		}
		shape, err = domain.NewQuadrilateral(corners)
	default:
		shape, err = domain.NewCircle(entry.Radius)
	}
	if err != nil {
		return nil, err
	}

	return &domain.Vault{
		DeviceID:    entry.DeviceID,
		Name:        entry.Name,
		Zone:        domain.Zone{Center: center, Shape: shape},
		BlockedApps: entry.BlockedApps,
		Active:      entry.Active,
	}, nil
}
