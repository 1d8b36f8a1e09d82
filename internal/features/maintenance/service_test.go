package maintenance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"charity-admin/internal/common/errs"
	common_models "charity-admin/internal/common/models"
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/config"
	"charity-admin/internal/features/file"
	"charity-admin/internal/features/vehicle"
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type MockMaintenanceRepo struct {
	mu      sync.Mutex
	Records map[primitive.ObjectID]*Maintenance
}

func NewMockMaintenanceRepo() *MockMaintenanceRepo {
	return &MockMaintenanceRepo{Records: map[primitive.ObjectID]*Maintenance{}}
}

func (m *MockMaintenanceRepo) Create(ctx context.Context, rec *Maintenance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.Records[rec.ID] = &cp
	return nil
}

func (m *MockMaintenanceRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*Maintenance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.Records[id]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockMaintenanceRepo) FindDetail(ctx context.Context, id primitive.ObjectID) (*MaintenanceDetail, error) {
	rec, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MaintenanceDetail{Maintenance: *rec}, nil
}

func (m *MockMaintenanceRepo) List(ctx context.Context, filter bson.M, skip, limit int64) ([]MaintenanceDetail, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []MaintenanceDetail{}
	for _, rec := range m.Records {
		out = append(out, MaintenanceDetail{Maintenance: *rec})
	}
	return out, int64(len(out)), nil
}

func (m *MockMaintenanceRepo) Update(ctx context.Context, rec *Maintenance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Records[rec.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	cp := *rec
	m.Records[rec.ID] = &cp
	return nil
}

func (m *MockMaintenanceRepo) Complete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Records[id]
	if !ok || rec.CompletedAt != nil {
		return mongo.ErrNoDocuments
	}
	rec.CompletedAt = &at
	return nil
}

func (m *MockMaintenanceRepo) AddDocument(ctx context.Context, id primitive.ObjectID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Records[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	rec.Documents = append(rec.Documents, url)
	return nil
}

func (m *MockMaintenanceRepo) HasOpen(ctx context.Context, vehicleID, exclude primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.Records {
		if id != exclude && rec.Vehicle == vehicleID && rec.HoldsVehicle() {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockMaintenanceRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Records[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.Records, id)
	return nil
}

func (m *MockMaintenanceRepo) EnsureIndexes(ctx context.Context) error { return nil }

type MockVehicles struct {
	mu       sync.Mutex
	Vehicles map[primitive.ObjectID]*vehicle.Vehicle
}

func (m *MockVehicles) add(status vehicle.Status) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.Vehicles[id] = &vehicle.Vehicle{ID: id, Status: status, CurrentOdometer: 5000}
	return id
}

func (m *MockVehicles) get(id primitive.ObjectID) vehicle.Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.Vehicles[id]
}

func (m *MockVehicles) FindByID(ctx context.Context, id primitive.ObjectID) (*vehicle.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.Vehicles[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockVehicles) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to vehicle.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Vehicles[id]
	if !ok || v.Status != from {
		return mongo.ErrNoDocuments
	}
	v.Status = to
	return nil
}

func (m *MockVehicles) UpdateStatus(ctx context.Context, id primitive.ObjectID, status vehicle.Status, odometer *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Vehicles[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	v.Status = status
	if odometer != nil {
		v.CurrentOdometer = *odometer
	}
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MockAuditService struct{}

func (m *MockAuditService) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	return nil
}

func (m *MockAuditService) ListLogs(ctx context.Context, filters map[string]interface{}, p pagination.Params) ([]common_models.AuditLog, int64, error) {
	return nil, 0, nil
}

// MockFileService records deleted file ids.
type MockFileService struct {
	Deleted []string
}

func (m *MockFileService) Upload(ctx context.Context, kind file.UploadKind, module, recordID string, fh *multipart.FileHeader, uploader primitive.ObjectID) (*file.File, error) {
	if fh == nil {
		return nil, errs.Validation("Please upload a file")
	}
	if err := file.ValidateUpload(kind, fh.Filename, fh.Size); err != nil {
		return nil, err
	}
	id := primitive.NewObjectID()
	return &file.File{ID: id, URL: "/api/files/" + id.Hex()}, nil
}

func (m *MockFileService) Open(ctx context.Context, id string) (*file.File, io.ReadCloser, error) {
	return nil, nil, errs.NotFound("File not found")
}

func (m *MockFileService) Delete(ctx context.Context, id string) error {
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockFileService) ListByRecord(ctx context.Context, module, recordID string) ([]*file.File, error) {
	return nil, nil
}

type connectedDB struct{}

func (connectedDB) Connected() bool { return true }

type fixture struct {
	svc      MaintenanceService
	repo     *MockMaintenanceRepo
	vehicles *MockVehicles
	files    *MockFileService
}

func newFixture() fixture {
	f := fixture{
		repo:     NewMockMaintenanceRepo(),
		vehicles: &MockVehicles{Vehicles: map[primitive.ObjectID]*vehicle.Vehicle{}},
		files:    &MockFileService{},
	}
	f.svc = NewMaintenanceService(f.repo, f.vehicles, passthroughTx{}, f.files, &MockAuditService{}, zap.NewNop())
	return f
}

func newRecord(vehicleID primitive.ObjectID, kind string) *Maintenance {
	return &Maintenance{
		Vehicle:         vehicleID,
		MaintenanceType: kind,
		Date:            time.Now(),
		Description:     "Routine service",
		Cost:            350,
		ServiceProvider: "City Garage",
	}
}

func TestCreateMaintenance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateMaintenance(ctx, newRecord(primitive.NewObjectID(), "oil_change")); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown vehicle should be not found, got %v", err)
	}

	tests := []struct {
		name       string
		kind       string
		wantStatus vehicle.Status
	}{
		{"repair takes the vehicle out of service", "repair", vehicle.StatusMaintenance},
		{"inspection leaves the vehicle available", TypeInspection, vehicle.StatusAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vid := f.vehicles.add(vehicle.StatusAvailable)
			m, err := f.svc.CreateMaintenance(ctx, newRecord(vid, tt.kind))
			if err != nil {
				t.Fatalf("CreateMaintenance failed: %v", err)
			}
			if m.Documents == nil || m.CompletedAt != nil {
				t.Errorf("defaults not applied: %+v", m)
			}
			if got := f.vehicles.get(vid).Status; got != tt.wantStatus {
				t.Errorf("vehicle status = %s, want %s", got, tt.wantStatus)
			}
		})
	}
}

func TestCreateMaintenanceRequiresFields(t *testing.T) {
	f := newFixture()
	vid := f.vehicles.add(vehicle.StatusAvailable)

	rec := newRecord(vid, "repair")
	rec.ServiceProvider = ""
	rec.Cost = 0
	if _, err := f.svc.CreateMaintenance(context.Background(), rec); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.vehicles.get(vid).Status != vehicle.StatusAvailable || len(f.repo.Records) != 0 {
		t.Error("rejected record must not change anything")
	}
}

func TestCreateMaintenanceAdvancesOdometer(t *testing.T) {
	f := newFixture()
	vid := f.vehicles.add(vehicle.StatusAvailable)

	rec := newRecord(vid, TypeInspection)
	reading := 6200.0
	rec.Odometer = &reading
	if _, err := f.svc.CreateMaintenance(context.Background(), rec); err != nil {
		t.Fatalf("CreateMaintenance failed: %v", err)
	}
	if got := f.vehicles.get(vid).CurrentOdometer; got != 6200 {
		t.Errorf("odometer = %v, want 6200", got)
	}
}

func TestCompleteMaintenance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vid := f.vehicles.add(vehicle.StatusAvailable)

	first, _ := f.svc.CreateMaintenance(ctx, newRecord(vid, "repair"))
	second, _ := f.svc.CreateMaintenance(ctx, newRecord(vid, "tyres"))

	done, err := f.svc.CompleteMaintenance(ctx, first.ID.Hex())
	if err != nil {
		t.Fatalf("CompleteMaintenance failed: %v", err)
	}
	if done.CompletedAt == nil {
		t.Error("completedAt not set")
	}
	if f.vehicles.get(vid).Status != vehicle.StatusMaintenance {
		t.Fatal("vehicle must stay in maintenance while another record is open")
	}

	if _, err := f.svc.CompleteMaintenance(ctx, second.ID.Hex()); err != nil {
		t.Fatalf("CompleteMaintenance failed: %v", err)
	}
	if f.vehicles.get(vid).Status != vehicle.StatusAvailable {
		t.Errorf("vehicle should be available, got %s", f.vehicles.get(vid).Status)
	}

	if _, err := f.svc.CompleteMaintenance(ctx, second.ID.Hex()); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("completing twice should fail, got %v", err)
	}
}

func TestCompleteLeavesOtherStatusesAlone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vid := f.vehicles.add(vehicle.StatusAvailable)

	m, _ := f.svc.CreateMaintenance(ctx, newRecord(vid, "repair"))
	f.vehicles.UpdateStatus(ctx, vid, vehicle.StatusOutOfService, nil)

	if _, err := f.svc.CompleteMaintenance(ctx, m.ID.Hex()); err != nil {
		t.Fatalf("CompleteMaintenance failed: %v", err)
	}
	if f.vehicles.get(vid).Status != vehicle.StatusOutOfService {
		t.Errorf("an out of service vehicle must not be made available")
	}
}

func TestUpdateAndDeleteMaintenance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vid := f.vehicles.add(vehicle.StatusAvailable)
	m, _ := f.svc.CreateMaintenance(ctx, newRecord(vid, "repair"))

	if _, err := f.svc.UpdateMaintenance(ctx, m.ID.Hex(), []byte(`{"vehicle":"`+primitive.NewObjectID().Hex()+`"}`)); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("moving to an unknown vehicle should be not found, got %v", err)
	}
	updated, err := f.svc.UpdateMaintenance(ctx, m.ID.Hex(), []byte(`{"cost":420,"completedAt":"2024-01-01T00:00:00Z"}`))
	if err != nil {
		t.Fatalf("UpdateMaintenance failed: %v", err)
	}
	if updated.Cost != 420 || updated.Description != "Routine service" || updated.CompletedAt != nil {
		t.Errorf("unexpected update result %+v", updated)
	}

	if _, err := f.svc.UploadDocument(ctx, m.ID.Hex(), &multipart.FileHeader{Filename: "invoice.pdf", Size: 1024}); err != nil {
		t.Fatalf("UploadDocument failed: %v", err)
	}
	if err := f.svc.DeleteMaintenance(ctx, m.ID.Hex()); err != nil {
		t.Fatalf("DeleteMaintenance failed: %v", err)
	}
	if len(f.files.Deleted) != 1 {
		t.Errorf("document not removed with the record: %v", f.files.Deleted)
	}
	if f.vehicles.get(vid).Status != vehicle.StatusAvailable {
		t.Errorf("deleting the open record should free the vehicle")
	}
}

func TestUpdateMovesVehicleHold(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	from := f.vehicles.add(vehicle.StatusAvailable)
	to := f.vehicles.add(vehicle.StatusAvailable)
	m, _ := f.svc.CreateMaintenance(ctx, newRecord(from, "repair"))

	if _, err := f.svc.UpdateMaintenance(ctx, m.ID.Hex(), []byte(`{"vehicle":"`+to.Hex()+`"}`)); err != nil {
		t.Fatalf("UpdateMaintenance failed: %v", err)
	}
	if got := f.vehicles.get(from).Status; got != vehicle.StatusAvailable {
		t.Errorf("old vehicle status = %s, want available", got)
	}
	if got := f.vehicles.get(to).Status; got != vehicle.StatusMaintenance {
		t.Errorf("new vehicle status = %s, want maintenance", got)
	}

	if _, err := f.svc.CompleteMaintenance(ctx, m.ID.Hex()); err != nil {
		t.Fatalf("CompleteMaintenance failed: %v", err)
	}
	if f.vehicles.get(from).Status != vehicle.StatusAvailable || f.vehicles.get(to).Status != vehicle.StatusAvailable {
		t.Errorf("both vehicles should be available after completion: from=%s to=%s", f.vehicles.get(from).Status, f.vehicles.get(to).Status)
	}
}

func TestUpdateMoveKeepsOtherHolds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	from := f.vehicles.add(vehicle.StatusAvailable)
	to := f.vehicles.add(vehicle.StatusAvailable)
	m, _ := f.svc.CreateMaintenance(ctx, newRecord(from, "repair"))
	f.svc.CreateMaintenance(ctx, newRecord(from, "tyres"))

	if _, err := f.svc.UpdateMaintenance(ctx, m.ID.Hex(), []byte(`{"vehicle":"`+to.Hex()+`"}`)); err != nil {
		t.Fatalf("UpdateMaintenance failed: %v", err)
	}
	if got := f.vehicles.get(from).Status; got != vehicle.StatusMaintenance {
		t.Errorf("old vehicle is still held by another record, got %s", got)
	}
}

func TestUpdateRetypeAdjustsHold(t *testing.T) {
	tests := []struct {
		name       string
		kind       string
		body       string
		wantStatus vehicle.Status
	}{
		{"repair retyped to inspection frees the vehicle", "repair", `{"maintenanceType":"inspection"}`, vehicle.StatusAvailable},
		{"inspection retyped to repair holds the vehicle", TypeInspection, `{"maintenanceType":"repair"}`, vehicle.StatusMaintenance},
		{"retype within holding types changes nothing", "repair", `{"maintenanceType":"tyres"}`, vehicle.StatusMaintenance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()
			vid := f.vehicles.add(vehicle.StatusAvailable)
			m, _ := f.svc.CreateMaintenance(ctx, newRecord(vid, tt.kind))

			if _, err := f.svc.UpdateMaintenance(ctx, m.ID.Hex(), []byte(tt.body)); err != nil {
				t.Fatalf("UpdateMaintenance failed: %v", err)
			}
			if got := f.vehicles.get(vid).Status; got != tt.wantStatus {
				t.Errorf("vehicle status = %s, want %s", got, tt.wantStatus)
			}

			if _, err := f.svc.CompleteMaintenance(ctx, m.ID.Hex()); err != nil {
				t.Fatalf("CompleteMaintenance failed: %v", err)
			}
			if got := f.vehicles.get(vid).Status; got != vehicle.StatusAvailable {
				t.Errorf("vehicle status after completion = %s, want available", got)
			}
		})
	}
}

func TestUpdateCompletedRecordLeavesVehiclesAlone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	from := f.vehicles.add(vehicle.StatusAvailable)
	to := f.vehicles.add(vehicle.StatusInUse)
	m, _ := f.svc.CreateMaintenance(ctx, newRecord(from, "repair"))
	f.svc.CompleteMaintenance(ctx, m.ID.Hex())

	if _, err := f.svc.UpdateMaintenance(ctx, m.ID.Hex(), []byte(`{"vehicle":"`+to.Hex()+`"}`)); err != nil {
		t.Fatalf("UpdateMaintenance failed: %v", err)
	}
	if f.vehicles.get(from).Status != vehicle.StatusAvailable || f.vehicles.get(to).Status != vehicle.StatusInUse {
		t.Errorf("completed record must not move vehicle status: from=%s to=%s", f.vehicles.get(from).Status, f.vehicles.get(to).Status)
	}
}

func TestStatusRouteCompletes(t *testing.T) {
	f := newFixture()
	guard := middleware.NewGuard(&config.Config{SkipAuth: true}, nil, connectedDB{}, middleware.NewPolicy())
	app := fiber.New()
	NewMaintenanceApi(NewMaintenanceController(f.svc), guard).Setup(app)

	vid := f.vehicles.add(vehicle.StatusAvailable)
	raw, _ := json.Marshal(map[string]interface{}{
		"vehicle": vid.Hex(), "maintenanceType": "repair", "date": "2024-03-01T00:00:00Z",
		"description": "Brake pads", "cost": 900, "serviceProvider": "City Garage",
	})
	req := httptest.NewRequest("POST", "/api/maintenance", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create: status %d, want 201", resp.StatusCode)
	}
	var body struct {
		Data Maintenance `json:"data"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	resp, _ = app.Test(httptest.NewRequest("PUT", "/api/maintenance/"+body.Data.ID.Hex()+"/status", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status route: %d, want 200", resp.StatusCode)
	}
	if f.vehicles.get(vid).Status != vehicle.StatusAvailable {
		t.Errorf("vehicle should be available again")
	}

	resp, _ = app.Test(httptest.NewRequest("PUT", "/api/maintenance/"+body.Data.ID.Hex()+"/complete", nil))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("second completion: %d, want 400", resp.StatusCode)
	}
}
