package maintenance

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"time"

	"charity-admin/internal/common/errs"
	common_models "charity-admin/internal/common/models"
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/query"
	"charity-admin/internal/common/validation"
	"charity-admin/internal/database"
	"charity-admin/internal/features/audit"
	"charity-admin/internal/features/file"
	"charity-admin/internal/features/vehicle"
	"charity-admin/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Vehicles is the part of the vehicle store that maintenance moves in and out of service.
type Vehicles interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*vehicle.Vehicle, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to vehicle.Status) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status vehicle.Status, odometer *float64) error
}

type MaintenanceService interface {
	ListMaintenance(ctx context.Context, filter MaintenanceFilter, p pagination.Params) ([]MaintenanceDetail, int64, error)
	GetMaintenance(ctx context.Context, id string) (*MaintenanceDetail, error)
	CreateMaintenance(ctx context.Context, m *Maintenance) (*Maintenance, error)
	UpdateMaintenance(ctx context.Context, id string, body []byte) (*Maintenance, error)
	DeleteMaintenance(ctx context.Context, id string) error
	CompleteMaintenance(ctx context.Context, id string) (*Maintenance, error)
	UploadDocument(ctx context.Context, id string, fh *multipart.FileHeader) (*Maintenance, error)
}

type MaintenanceServiceImpl struct {
	Repo         MaintenanceRepository
	Vehicles     Vehicles
	Tx           database.Transactor
	Files        file.FileService
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewMaintenanceService(repo MaintenanceRepository, vehicles Vehicles, tx database.Transactor, files file.FileService, auditService audit.AuditService, logger *zap.Logger) MaintenanceService {
	return &MaintenanceServiceImpl{
		Repo:         repo,
		Vehicles:     vehicles,
		Tx:           tx,
		Files:        files,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *MaintenanceServiceImpl) ListMaintenance(ctx context.Context, filter MaintenanceFilter, p pagination.Params) ([]MaintenanceDetail, int64, error) {
	q := bson.M{}
	if filter.Vehicle != "" {
		oid, err := query.FilterID(filter.Vehicle, "vehicle")
		if err != nil {
			return nil, 0, err
		}
		q["vehicle"] = oid
	}
	if filter.MaintenanceType != "" {
		q["maintenanceType"] = filter.MaintenanceType
	}
	dates, err := query.DateRange(filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, 0, err
	}
	if dates != nil {
		q["date"] = dates
	}
	return s.Repo.List(ctx, q, p.Skip(), p.Limit)
}

func (s *MaintenanceServiceImpl) GetMaintenance(ctx context.Context, id string) (*MaintenanceDetail, error) {
	oid, err := query.ObjectID(id, "Maintenance record")
	if err != nil {
		return nil, err
	}
	m, err := s.Repo.FindDetail(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// CreateMaintenance stores the record and, unless it is an inspection, takes
// the vehicle out of service. A higher odometer reading is carried over to
// the vehicle.
func (s *MaintenanceServiceImpl) CreateMaintenance(ctx context.Context, m *Maintenance) (*Maintenance, error) {
	if m.Vehicle.IsZero() {
		return nil, errs.Validation("vehicle is required")
	}
	v, err := s.Vehicles.FindByID(ctx, m.Vehicle)
	if err != nil {
		return nil, vehicleNotFound(err)
	}

	now := time.Now()
	m.ID = primitive.NewObjectID()
	m.CompletedAt = nil
	m.Documents = []string{}
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := validation.Struct(m); err != nil {
		return nil, err
	}

	status := v.Status
	if m.HoldsVehicle() {
		status = vehicle.StatusMaintenance
	}
	var odometer *float64
	if m.Odometer != nil && *m.Odometer > v.CurrentOdometer {
		odometer = m.Odometer
	}

	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Repo.Create(ctx, m); err != nil {
			return err
		}
		if status == v.Status && odometer == nil {
			return nil
		}
		return s.Vehicles.UpdateStatus(ctx, m.Vehicle, status, odometer)
	})
	if err != nil {
		return nil, vehicleNotFound(err)
	}

	changes := map[string]common_models.Change{
		"maintenanceType": {New: m.MaintenanceType},
		"cost":            {New: m.Cost},
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, CollectionName, m.ID.Hex(), changes)
	if status != v.Status {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionStatus, vehicle.CollectionName, m.Vehicle.Hex(), map[string]common_models.Change{
			"status": {Old: v.Status, New: status},
		})
	}
	s.Logger.Info("maintenance recorded", zap.String("maintenanceId", m.ID.Hex()), zap.String("vehicleId", m.Vehicle.Hex()))
	return m, nil
}

func (s *MaintenanceServiceImpl) UpdateMaintenance(ctx context.Context, id string, body []byte) (*Maintenance, error) {
	oid, err := query.ObjectID(id, "Maintenance record")
	if err != nil {
		return nil, err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}

	updated := *existing
	updated.Odometer = nil
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, errs.Wrap(errs.ErrValidation, "Invalid request body", err)
	}
	if updated.Odometer == nil && !hasField(body, "odometer") {
		updated.Odometer = existing.Odometer
	}
	updated.ID = existing.ID
	updated.Documents = existing.Documents
	updated.CompletedAt = existing.CompletedAt
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()

	moved := updated.Vehicle != existing.Vehicle
	if moved && updated.Vehicle.IsZero() {
		return nil, errs.Validation("vehicle is required")
	}
	if err := validation.Struct(updated); err != nil {
		return nil, err
	}

	// An open record that changes vehicle or type moves its hold along.
	oldHolds, newHolds := existing.HoldsVehicle(), updated.HoldsVehicle()
	releaseOld := oldHolds && (moved || !newHolds)
	holdNew := newHolds && (moved || !oldHolds)

	var target *vehicle.Vehicle
	if moved || holdNew {
		if target, err = s.Vehicles.FindByID(ctx, updated.Vehicle); err != nil {
			return nil, vehicleNotFound(err)
		}
	}

	var released bool
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Repo.Update(ctx, &updated); err != nil {
			return notFound(err)
		}
		if releaseOld {
			ok, err := s.releaseVehicle(ctx, existing.Vehicle, existing.ID)
			if err != nil {
				return err
			}
			released = ok
		}
		if holdNew && target.Status != vehicle.StatusMaintenance {
			return vehicleNotFound(s.Vehicles.UpdateStatus(ctx, updated.Vehicle, vehicle.StatusMaintenance, nil))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, CollectionName, id, audit.Diff(existing, updated))
	if released {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionStatus, vehicle.CollectionName, existing.Vehicle.Hex(), map[string]common_models.Change{
			"status": {Old: vehicle.StatusMaintenance, New: vehicle.StatusAvailable},
		})
	}
	if holdNew && target.Status != vehicle.StatusMaintenance {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionStatus, vehicle.CollectionName, updated.Vehicle.Hex(), map[string]common_models.Change{
			"status": {Old: target.Status, New: vehicle.StatusMaintenance},
		})
	}
	return &updated, nil
}

// DeleteMaintenance removes the record and its documents. An open record that
// was the last one holding its vehicle returns the vehicle to service.
func (s *MaintenanceServiceImpl) DeleteMaintenance(ctx context.Context, id string) error {
	oid, err := query.ObjectID(id, "Maintenance record")
	if err != nil {
		return err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return notFound(err)
	}

	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Repo.Delete(ctx, oid); err != nil {
			return err
		}
		if existing.HoldsVehicle() {
			return s.release(ctx, existing)
		}
		return nil
	})
	if err != nil {
		return notFound(err)
	}

	for _, doc := range existing.Documents {
		if fileID := file.IDFromURL(doc); fileID != "" {
			if err := s.Files.Delete(ctx, fileID); err != nil {
				s.Logger.Warn("Failed to delete maintenance document", zap.String("maintenanceId", id), zap.Error(err))
			}
		}
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, CollectionName, id, nil)
	return nil
}

// CompleteMaintenance closes an open record and returns a vehicle still in
// maintenance to available once no other open record holds it.
func (s *MaintenanceServiceImpl) CompleteMaintenance(ctx context.Context, id string) (*Maintenance, error) {
	oid, err := query.ObjectID(id, "Maintenance record")
	if err != nil {
		return nil, err
	}
	m, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	if m.CompletedAt != nil {
		return nil, errs.Validation("Maintenance is already completed")
	}

	holds := m.HoldsVehicle()
	now := time.Now()
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Repo.Complete(ctx, oid, now); err != nil {
			return err
		}
		if holds {
			return s.release(ctx, m)
		}
		return nil
	})
	if err != nil {
		if errs.IsNoDocuments(err) {
			return nil, errs.Validation("Maintenance is already completed")
		}
		return nil, err
	}

	m.CompletedAt = &now
	m.UpdatedAt = now
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionStatus, CollectionName, id, map[string]common_models.Change{
		"completedAt": {New: now},
	})
	return m, nil
}

func (s *MaintenanceServiceImpl) release(ctx context.Context, m *Maintenance) error {
	_, err := s.releaseVehicle(ctx, m.Vehicle, m.ID)
	return err
}

// releaseVehicle returns vehicleID from maintenance to available unless
// another open record besides exclude still holds it. It reports whether the
// status changed.
func (s *MaintenanceServiceImpl) releaseVehicle(ctx context.Context, vehicleID, exclude primitive.ObjectID) (bool, error) {
	open, err := s.Repo.HasOpen(ctx, vehicleID, exclude)
	if err != nil || open {
		return false, err
	}
	err = s.Vehicles.TransitionStatus(ctx, vehicleID, vehicle.StatusMaintenance, vehicle.StatusAvailable)
	if errs.IsNoDocuments(err) {
		return false, nil
	}
	return err == nil, err
}

func (s *MaintenanceServiceImpl) UploadDocument(ctx context.Context, id string, fh *multipart.FileHeader) (*Maintenance, error) {
	oid, err := query.ObjectID(id, "Maintenance record")
	if err != nil {
		return nil, err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}

	f, err := s.Files.Upload(ctx, file.DocumentUpload, CollectionName, id, fh, utils.ActorID(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddDocument(ctx, oid, f.URL); err != nil {
		_ = s.Files.Delete(ctx, f.ID.Hex())
		return nil, notFound(err)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpload, CollectionName, id, map[string]common_models.Change{
		"documents": {New: f.URL},
	})

	existing.Documents = append(existing.Documents, f.URL)
	return existing, nil
}

func hasField(body []byte, key string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	_, ok := fields[key]
	return ok
}

func notFound(err error) error {
	if errs.IsNoDocuments(err) {
		return errs.NotFound("Maintenance record not found")
	}
	return err
}

func vehicleNotFound(err error) error {
	if errs.IsNoDocuments(err) {
		return errs.NotFound("Vehicle not found")
	}
	return err
}
