package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/aitorle/geovault/internal/adapters/http"
	"github.com/aitorle/geovault/internal/core/domain"
	"github.com/aitorle/geovault/internal/core/usecases"
)

// ---- Mock repositories ----

type mockVaultRepo struct {
	createFn       func(ctx context.Context, vault *domain.Vault) error
	updateFn       func(ctx context.Context, vault *domain.Vault) error
	deleteFn       func(ctx context.Context, id string) error
	getByIDFn      func(ctx context.Context, id string) (*domain.Vault, error)
	listByDeviceFn func(ctx context.Context, deviceID string, activeOnly bool) ([]domain.Vault, error)
	findNearFn     func(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Vault, error)
}

func (m *mockVaultRepo) Create(ctx context.Context, vault *domain.Vault) error {
	if m.createFn != nil {
		return m.createFn(ctx, vault)
	}
	vault.ID = "generated-id"
	return nil
}
func (m *mockVaultRepo) Update(ctx context.Context, vault *domain.Vault) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, vault)
	}
	return nil
}
func (m *mockVaultRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}
func (m *mockVaultRepo) GetByID(ctx context.Context, id string) (*domain.Vault, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockVaultRepo) ListByDevice(ctx context.Context, deviceID string, activeOnly bool) ([]domain.Vault, error) {
	if m.listByDeviceFn != nil {
		return m.listByDeviceFn(ctx, deviceID, activeOnly)
	}
	return nil, nil
}
func (m *mockVaultRepo) FindNear(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Vault, error) {
	if m.findNearFn != nil {
		return m.findNearFn(ctx, lat, lon, radiusMeters, limit)
	}
	return nil, nil
}

type mockEventRepo struct {
	insertFn       func(ctx context.Context, event *domain.GeofenceEvent) error
	listByVaultFn  func(ctx context.Context, vaultID string, limit int) ([]domain.GeofenceEvent, error)
	listByDeviceFn func(ctx context.Context, deviceID string, limit int) ([]domain.GeofenceEvent, error)
}

func (m *mockEventRepo) Insert(ctx context.Context, event *domain.GeofenceEvent) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, event)
	}
	return nil
}
func (m *mockEventRepo) ListByVault(ctx context.Context, vaultID string, limit int) ([]domain.GeofenceEvent, error) {
	if m.listByVaultFn != nil {
		return m.listByVaultFn(ctx, vaultID, limit)
	}
	return nil, nil
}
func (m *mockEventRepo) ListByDevice(ctx context.Context, deviceID string, limit int) ([]domain.GeofenceEvent, error) {
	if m.listByDeviceFn != nil {
		return m.listByDeviceFn(ctx, deviceID, limit)
	}
	return nil, nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Vaults:      usecases.NewVaultService(&mockVaultRepo{}, nil, nil),
		Memberships: usecases.NewMembershipService(&mockVaultRepo{}, &mockEventRepo{}, nil, nil, 3600, 0),
		Editor:      usecases.NewEditorService(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func testVault(id string) domain.Vault {
	shape, _ := domain.NewCircle(150)
	return domain.Vault{
		ID:       id,
		DeviceID: "dev1",
		Name:     "Library",
		Zone: domain.Zone{
			Center: domain.Coordinate{Lat: 43.263, Lon: -2.935},
			Shape:  shape,
		},
		BlockedApps: []string{"com.example.social"},
		Active:      true,
	}
}

// ---- Vault handler tests ----

func TestCreateVault_Success(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{
		"device_id": "dev1",
		"name": "Library",
		"center": {"lat": 43.263, "lon": -2.935},
		"shape": {"kind": "circle", "radius_meters": 150},
		"blocked_apps": ["com.example.social"],
		"active": true
	}`
	req := httptest.NewRequest("POST", "/v1/vaults", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var vault domain.Vault
	if err := json.NewDecoder(resp.Body).Decode(&vault); err != nil {
		t.Fatal(err)
	}
	if vault.ID != "generated-id" {
		t.Errorf("expected generated id, got %q", vault.ID)
	}
	if vault.Zone.Shape.RadiusMeters != 150 {
		t.Errorf("expected radius 150, got %f", vault.Zone.Shape.RadiusMeters)
	}
}

func TestCreateVault_InvalidShape(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{
		"device_id": "dev1",
		"name": "Library",
		"center": {"lat": 43.263, "lon": -2.935},
		"shape": {"kind": "quadrilateral", "corners": [{"lat": 43.27, "lon": -2.94}]}
	}`
	req := httptest.NewRequest("POST", "/v1/vaults", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "unprocessable" {
		t.Errorf("expected unprocessable error, got %s", apiErr.Code)
	}
}

func TestCreateVault_BadCoordinate(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{
		"device_id": "dev1",
		"name": "Library",
		"center": {"lat": 95, "lon": -2.935},
		"shape": {"kind": "circle", "radius_meters": 150}
	}`
	req := httptest.NewRequest("POST", "/v1/vaults", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestGetVault_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vaults = usecases.NewVaultService(&mockVaultRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Vault, error) {
				v := testVault(id)
				return &v, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/vaults/v1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var vault domain.Vault
	json.NewDecoder(resp.Body).Decode(&vault)
	if vault.Name != "Library" {
		t.Errorf("expected Library, got %s", vault.Name)
	}
}

func TestNearbyVaults_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vaults = usecases.NewVaultService(&mockVaultRepo{
			findNearFn: func(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Vault, error) {
				return []domain.Vault{testVault("v1")}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/vaults/nearby?lat=43.263&lon=-2.935&radius=500", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var vaults []domain.Vault
	json.NewDecoder(resp.Body).Decode(&vaults)
	if len(vaults) != 1 {
		t.Errorf("expected 1 vault, got %d", len(vaults))
	}
}

func TestNearbyVaults_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/vaults/nearby", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Status int    `json:"status"`
		Code   string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request error, got %s", apiErr.Code)
	}
}

func TestNearbyVaults_EquatorOrigin(t *testing.T) {
	var gotLat, gotLon float64
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vaults = usecases.NewVaultService(&mockVaultRepo{
			findNearFn: func(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Vault, error) {
				gotLat, gotLon = lat, lon
				return nil, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	// (0, 0) is a legitimate coordinate; only absent parameters are rejected.
	req := httptest.NewRequest("GET", "/v1/vaults/nearby?lat=0&lon=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 for equator origin, got %d", resp.StatusCode)
	}
	if gotLat != 0 || gotLon != 0 {
		t.Errorf("expected query at (0, 0), got (%v, %v)", gotLat, gotLon)
	}
}

func TestNearbyVaults_BadRadius(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/vaults/nearby?lat=43.26&lon=-2.93&radius=50000", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeviceVaults_Pagination(t *testing.T) {
	vaults := make([]domain.Vault, 5)
	for i := range vaults {
		vaults[i] = testVault(fmt.Sprintf("v%d", i))
	}

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vaults = usecases.NewVaultService(&mockVaultRepo{
			listByDeviceFn: func(ctx context.Context, deviceID string, activeOnly bool) ([]domain.Vault, error) {
				return vaults, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/devices/dev1/vaults?offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Vault `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Limit  int `json:"limit"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 vaults in page, got %d", len(result.Data))
	}
	if result.Pagination.Offset != 2 {
		t.Errorf("expected offset 2, got %d", result.Pagination.Offset)
	}
}

// ---- Location evaluation tests ----

func TestEvaluateLocation_EnterEvent(t *testing.T) {
	vault := testVault("v1")
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Memberships = usecases.NewMembershipService(&mockVaultRepo{
			listByDeviceFn: func(ctx context.Context, deviceID string, activeOnly bool) ([]domain.Vault, error) {
				return []domain.Vault{vault}, nil
			},
		}, &mockEventRepo{}, nil, nil, 3600, 0)
	})
	app := setupApp(deps)

	body := fmt.Sprintf(`{
		"device_id": "dev1",
		"location": {"lat": %f, "lon": %f},
		"time": %q
	}`, vault.Zone.Center.Lat, vault.Zone.Center.Lon, time.Now().Format(time.RFC3339))
	req := httptest.NewRequest("POST", "/v1/locations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Events []domain.GeofenceEvent `json:"events"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(result.Events))
	}
	if result.Events[0].Type != domain.GeofenceEnter {
		t.Errorf("expected enter event, got %s", result.Events[0].Type)
	}
}

func TestEvaluateLocation_MissingDevice(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"location": {"lat": 43.263, "lon": -2.935}}`
	req := httptest.NewRequest("POST", "/v1/locations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMembership_Success(t *testing.T) {
	vault := testVault("v1")
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Memberships = usecases.NewMembershipService(&mockVaultRepo{
			listByDeviceFn: func(ctx context.Context, deviceID string, activeOnly bool) ([]domain.Vault, error) {
				return []domain.Vault{vault}, nil
			},
		}, &mockEventRepo{}, nil, nil, 3600, 0)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/devices/dev1/membership?lat=43.263&lon=-2.935", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		DeviceID string         `json:"device_id"`
		Vaults   []domain.Vault `json:"vaults"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Vaults) != 1 {
		t.Errorf("expected 1 containing vault, got %d", len(result.Vaults))
	}
}

// ---- Editor handler tests ----

func TestVaultHandle_Circle(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vaults = usecases.NewVaultService(&mockVaultRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Vault, error) {
				v := testVault(id)
				return &v, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/vaults/v1/handle", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var handle domain.Coordinate
	json.NewDecoder(resp.Body).Decode(&handle)
	if handle.Lat <= 43.263 {
		t.Errorf("expected handle northeast of center, got %+v", handle)
	}
}

func TestVaultHandle_Quadrilateral(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vaults = usecases.NewVaultService(&mockVaultRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Vault, error) {
				v := testVault(id)
				shape, err := domain.NewQuadrilateral([]domain.Coordinate{
					{Lat: 43.27, Lon: -2.94}, {Lat: 43.27, Lon: -2.93},
					{Lat: 43.26, Lon: -2.93}, {Lat: 43.26, Lon: -2.94},
				})
				if err != nil {
					return nil, err
				}
				v.Zone.Shape = shape
				return &v, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/vaults/v1/handle", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422 for quadrilateral, got %d", resp.StatusCode)
	}
}

func TestDefaultCorners_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/editor/corners?lat=43.263&lon=-2.935&size=100", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var shape domain.Shape
	json.NewDecoder(resp.Body).Decode(&shape)
	if shape.Kind != domain.ShapeQuadrilateral {
		t.Errorf("expected quadrilateral, got %s", shape.Kind)
	}
	if len(shape.Corners) != domain.QuadCorners {
		t.Errorf("expected %d corners, got %d", domain.QuadCorners, len(shape.Corners))
	}
}

func TestRecenter_Success(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"corners": [
		{"lat": 43.27, "lon": -2.94}, {"lat": 43.27, "lon": -2.93},
		{"lat": 43.26, "lon": -2.93}, {"lat": 43.26, "lon": -2.94}
	]}`
	req := httptest.NewRequest("POST", "/v1/editor/recenter", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var center domain.Coordinate
	json.NewDecoder(resp.Body).Decode(&center)
	if center.Lat < 43.264 || center.Lat > 43.266 {
		t.Errorf("expected centroid lat ~43.265, got %f", center.Lat)
	}
}

func TestRecenter_EmptyCorners(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/editor/recenter", strings.NewReader(`{"corners": []}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestVaultViewport_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vaults = usecases.NewVaultService(&mockVaultRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Vault, error) {
				v := testVault(id)
				return &v, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/vaults/v1/viewport", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var viewport struct {
		LatDelta float64 `json:"lat_delta"`
		LonDelta float64 `json:"lon_delta"`
	}
	json.NewDecoder(resp.Body).Decode(&viewport)
	if viewport.LatDelta <= 0 || viewport.LonDelta <= 0 {
		t.Errorf("expected positive spans, got %+v", viewport)
	}
}

// ---- Event listing tests ----

func TestDeviceEvents_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Memberships = usecases.NewMembershipService(&mockVaultRepo{}, &mockEventRepo{
			listByDeviceFn: func(ctx context.Context, deviceID string, limit int) ([]domain.GeofenceEvent, error) {
				return []domain.GeofenceEvent{
					{ID: "e1", VaultID: "v1", DeviceID: deviceID, Type: domain.GeofenceEnter},
				}, nil
			},
		}, nil, nil, 3600, 0)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/devices/dev1/events", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var events []domain.GeofenceEvent
	json.NewDecoder(resp.Body).Decode(&events)
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

// ---- System endpoint tests ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var health struct {
		Status string `json:"status"`
	}
	json.NewDecoder(resp.Body).Decode(&health)
	if health.Status != "healthy" {
		t.Errorf("expected healthy, got %s", health.Status)
	}
}

func TestDeprecatedZonesNearby(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vaults = usecases.NewVaultService(&mockVaultRepo{
			findNearFn: func(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Vault, error) {
				return nil, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/zones/nearby?lat=43.263&lon=-2.935", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header on legacy route")
	}
	if resp.Header.Get("Sunset") == "" {
		t.Error("expected Sunset header on legacy route")
	}
}
