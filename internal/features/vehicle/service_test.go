package vehicle

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
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MockVehicleRepo enforces the licensePlate unique index in memory.
type MockVehicleRepo struct {
	mu       sync.Mutex
	Vehicles map[primitive.ObjectID]*Vehicle
	order    []primitive.ObjectID
}

func NewMockVehicleRepo() *MockVehicleRepo {
	return &MockVehicleRepo{Vehicles: map[primitive.ObjectID]*Vehicle{}}
}

func (m *MockVehicleRepo) Create(ctx context.Context, v *Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Vehicles {
		if existing.LicensePlate == v.LicensePlate {
			return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		}
	}
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	cp := *v
	m.Vehicles[v.ID] = &cp
	m.order = append(m.order, v.ID)
	return nil
}

func (m *MockVehicleRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.Vehicles[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockVehicleRepo) ExistsByPlate(ctx context.Context, plate string, exclude primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, v := range m.Vehicles {
		if v.LicensePlate == plate && id != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockVehicleRepo) List(ctx context.Context, filter bson.M, skip, limit int64) ([]Vehicle, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Vehicle{}
	for _, id := range m.order {
		if v, ok := m.Vehicles[id]; ok {
			out = append(out, *v)
		}
	}
	total := int64(len(out))
	if skip >= total {
		return []Vehicle{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return out[skip:end], total, nil
}

func (m *MockVehicleRepo) Update(ctx context.Context, v *Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Vehicles[v.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	cp := *v
	m.Vehicles[v.ID] = &cp
	return nil
}

func (m *MockVehicleRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status Status, odometer *float64) error {
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

func (m *MockVehicleRepo) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Vehicles[id]
	if !ok || v.Status != from {
		return mongo.ErrNoDocuments
	}
	v.Status = to
	return nil
}

func (m *MockVehicleRepo) AddDocument(ctx context.Context, id primitive.ObjectID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Vehicles[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	v.Documents = append(v.Documents, url)
	return nil
}

func (m *MockVehicleRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Vehicles[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.Vehicles, id)
	return nil
}

func (m *MockVehicleRepo) ExpiringBefore(ctx context.Context, deadline time.Time) ([]Vehicle, error) {
	return nil, nil
}

func (m *MockVehicleRepo) EnsureIndexes(ctx context.Context) error { return nil }

type MockAuditService struct{}

func (m *MockAuditService) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	return nil
}

func (m *MockAuditService) ListLogs(ctx context.Context, filters map[string]interface{}, p pagination.Params) ([]common_models.AuditLog, int64, error) {
	return nil, 0, nil
}

type MockFileService struct{}

func (MockFileService) Upload(ctx context.Context, kind file.UploadKind, module, recordID string, fh *multipart.FileHeader, uploader primitive.ObjectID) (*file.File, error) {
	if fh == nil {
		return nil, errs.Validation("Please upload a file")
	}
	if err := file.ValidateUpload(kind, fh.Filename, fh.Size); err != nil {
		return nil, err
	}
	id := primitive.NewObjectID()
	return &file.File{ID: id, URL: "/api/files/" + id.Hex()}, nil
}

func (MockFileService) Open(ctx context.Context, id string) (*file.File, io.ReadCloser, error) {
	return nil, nil, errs.NotFound("File not found")
}

func (MockFileService) Delete(ctx context.Context, id string) error { return nil }

func (MockFileService) ListByRecord(ctx context.Context, module, recordID string) ([]*file.File, error) {
	return nil, nil
}

type connectedDB struct{}

func (connectedDB) Connected() bool { return true }

func newService() (VehicleService, *MockVehicleRepo) {
	repo := NewMockVehicleRepo()
	return NewVehicleService(repo, MockFileService{}, &MockAuditService{}, zap.NewNop()), repo
}

func newVehicle(plate string) *Vehicle {
	v := NewVehicle()
	v.Make = "Toyota"
	v.Model = "Hiace"
	v.Year = 2021
	v.LicensePlate = plate
	return &v
}

func TestDuplicatePlateOverHTTP(t *testing.T) {
	svc, _ := newService()
	guard := middleware.NewGuard(&config.Config{SkipAuth: true}, nil, connectedDB{}, middleware.NewPolicy())
	app := fiber.New()
	NewVehicleApi(NewVehicleController(svc), guard).Setup(app)

	post := func() int {
		raw, _ := json.Marshal(map[string]interface{}{"make": "Toyota", "model": "Hiace", "year": 2021, "licensePlate": "ABC-1"})
		req := httptest.NewRequest("POST", "/api/vehicles", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp.StatusCode
	}

	if got := post(); got != fiber.StatusCreated {
		t.Fatalf("first create: status %d, want 201", got)
	}
	if got := post(); got != fiber.StatusBadRequest {
		t.Fatalf("duplicate create: status %d, want 400", got)
	}

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/vehicles", nil))
	var body struct {
		Count      int `json:"count"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
		Data []Vehicle `json:"data"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Count != 1 || body.Pagination.Total != 1 {
		t.Errorf("expected one vehicle, got count=%d total=%d", body.Count, body.Pagination.Total)
	}
	if body.Data[0].Status != StatusAvailable || body.Data[0].FuelType != "gasoline" {
		t.Errorf("defaults not applied: %+v", body.Data[0])
	}
}

func TestUpdatePlateRechecksUniqueness(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	svc.CreateVehicle(ctx, newVehicle("AAA-1"))
	second, _ := svc.CreateVehicle(ctx, newVehicle("BBB-2"))

	if _, err := svc.UpdateVehicle(ctx, second.ID.Hex(), []byte(`{"licensePlate":"AAA-1"}`)); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected duplicate plate error, got %v", err)
	}

	updated, err := svc.UpdateVehicle(ctx, second.ID.Hex(), []byte(`{"licensePlate":"BBB-2","notes":"new tyres","status":"in_use"}`))
	if err != nil {
		t.Fatalf("UpdateVehicle failed: %v", err)
	}
	if updated.Notes != "new tyres" || updated.Make != "Toyota" {
		t.Errorf("body not merged: %+v", updated)
	}
	if repo.Vehicles[second.ID].Status != StatusAvailable {
		t.Error("status must only change through the status route")
	}
}

func TestChangeStatus(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	v, _ := svc.CreateVehicle(ctx, newVehicle("CCC-3"))

	if _, err := svc.ChangeStatus(ctx, v.ID.Hex(), StatusRequest{Status: "broken"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	odo := 1200.0
	got, err := svc.ChangeStatus(ctx, v.ID.Hex(), StatusRequest{Status: StatusOutOfService, Odometer: &odo})
	if err != nil {
		t.Fatalf("ChangeStatus failed: %v", err)
	}
	if got.Status != StatusOutOfService || repo.Vehicles[v.ID].CurrentOdometer != 1200 {
		t.Errorf("unexpected vehicle after status change %+v", repo.Vehicles[v.ID])
	}

	if _, err := svc.ChangeStatus(ctx, primitive.NewObjectID().Hex(), StatusRequest{Status: StatusAvailable}); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUploadDocument(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	v, _ := svc.CreateVehicle(ctx, newVehicle("DDD-4"))

	if _, err := svc.UploadDocument(ctx, v.ID.Hex(), &multipart.FileHeader{Filename: "registration.pdf", Size: 9 << 20}); err != nil {
		t.Fatalf("UploadDocument failed: %v", err)
	}
	if _, err := svc.UploadDocument(ctx, v.ID.Hex(), &multipart.FileHeader{Filename: "big.pdf", Size: 11 << 20}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("oversized document should be rejected, got %v", err)
	}
	if n := len(repo.Vehicles[v.ID].Documents); n != 1 {
		t.Errorf("expected 1 document, got %d", n)
	}
}
