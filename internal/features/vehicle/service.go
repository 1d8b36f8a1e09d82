package vehicle

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"strings"
	"time"

	"charity-admin/internal/common/errs"
	common_models "charity-admin/internal/common/models"
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/query"
	"charity-admin/internal/common/validation"
	"charity-admin/internal/features/audit"
	"charity-admin/internal/features/file"
	"charity-admin/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const duplicatePlate = "A vehicle with this license plate already exists"

type VehicleService interface {
	ListVehicles(ctx context.Context, filter VehicleFilter, p pagination.Params) ([]Vehicle, int64, error)
	GetVehicle(ctx context.Context, id string) (*Vehicle, error)
	CreateVehicle(ctx context.Context, v *Vehicle) (*Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, body []byte) (*Vehicle, error)
	DeleteVehicle(ctx context.Context, id string) error
	ChangeStatus(ctx context.Context, id string, req StatusRequest) (*Vehicle, error)
	UploadDocument(ctx context.Context, id string, fh *multipart.FileHeader) (*Vehicle, error)
}

type VehicleServiceImpl struct {
	Repo         VehicleRepository
	Files        file.FileService
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewVehicleService(repo VehicleRepository, files file.FileService, auditService audit.AuditService, logger *zap.Logger) VehicleService {
	return &VehicleServiceImpl{
		Repo:         repo,
		Files:        files,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *VehicleServiceImpl) ListVehicles(ctx context.Context, filter VehicleFilter, p pagination.Params) ([]Vehicle, int64, error) {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if filter.Search != "" {
		q["$or"] = query.Search(filter.Search, "make", "model", "licensePlate")
	}
	return s.Repo.List(ctx, q, p.Skip(), p.Limit)
}

func (s *VehicleServiceImpl) GetVehicle(ctx context.Context, id string) (*Vehicle, error) {
	oid, err := query.ObjectID(id, "Vehicle")
	if err != nil {
		return nil, err
	}
	v, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

func (s *VehicleServiceImpl) CreateVehicle(ctx context.Context, v *Vehicle) (*Vehicle, error) {
	now := time.Now()
	v.ID = primitive.NilObjectID
	v.LicensePlate = strings.TrimSpace(v.LicensePlate)
	v.Documents = []string{}
	if v.Status == "" {
		v.Status = StatusAvailable
	}
	v.CreatedAt = now
	v.UpdatedAt = now

	if err := validation.Struct(v); err != nil {
		return nil, err
	}

	exists, err := s.Repo.ExistsByPlate(ctx, v.LicensePlate, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.Validation(duplicatePlate)
	}
	if err := s.Repo.Create(ctx, v); err != nil {
		return nil, errs.Duplicate(err, duplicatePlate)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, CollectionName, v.ID.Hex(), map[string]common_models.Change{
		"licensePlate": {New: v.LicensePlate},
	})
	s.Logger.Info("vehicle registered", zap.String("vehicleId", v.ID.Hex()), zap.String("licensePlate", v.LicensePlate))
	return v, nil
}

// UpdateVehicle merges the body onto the stored vehicle. A changed plate is
// checked for uniqueness again.
func (s *VehicleServiceImpl) UpdateVehicle(ctx context.Context, id string, body []byte) (*Vehicle, error) {
	oid, err := query.ObjectID(id, "Vehicle")
	if err != nil {
		return nil, err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}

	updated := *existing
	// Detach shared pointers and slices so decoding cannot write through to existing.
	updated.RegistrationExpiry, updated.InsuranceExpiry = nil, nil
	updated.Documents = nil
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, errs.Wrap(errs.ErrValidation, "Invalid request body", err)
	}
	if !hasField(body, "registrationExpiry") {
		updated.RegistrationExpiry = existing.RegistrationExpiry
	}
	if !hasField(body, "insuranceExpiry") {
		updated.InsuranceExpiry = existing.InsuranceExpiry
	}
	updated.ID = existing.ID
	updated.Status = existing.Status
	updated.Documents = existing.Documents
	updated.CreatedAt = existing.CreatedAt
	updated.LicensePlate = strings.TrimSpace(updated.LicensePlate)
	updated.UpdatedAt = time.Now()

	if err := validation.Struct(updated); err != nil {
		return nil, err
	}
	if updated.LicensePlate != existing.LicensePlate {
		exists, err := s.Repo.ExistsByPlate(ctx, updated.LicensePlate, oid)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errs.Validation(duplicatePlate)
		}
	}

	if err := s.Repo.Update(ctx, &updated); err != nil {
		if errs.IsNoDocuments(err) {
			return nil, errs.NotFound("Vehicle not found")
		}
		return nil, errs.Duplicate(err, duplicatePlate)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, CollectionName, id, audit.Diff(existing, updated))
	return &updated, nil
}

func (s *VehicleServiceImpl) DeleteVehicle(ctx context.Context, id string) error {
	oid, err := query.ObjectID(id, "Vehicle")
	if err != nil {
		return err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return notFound(err)
	}
	if err := s.Repo.Delete(ctx, oid); err != nil {
		return notFound(err)
	}

	for _, doc := range existing.Documents {
		if fileID := file.IDFromURL(doc); fileID != "" {
			if err := s.Files.Delete(ctx, fileID); err != nil {
				s.Logger.Warn("Failed to delete vehicle document", zap.String("vehicleId", id), zap.Error(err))
			}
		}
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, CollectionName, id, map[string]common_models.Change{
		"licensePlate": {Old: existing.LicensePlate},
	})
	return nil
}

func (s *VehicleServiceImpl) ChangeStatus(ctx context.Context, id string, req StatusRequest) (*Vehicle, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	oid, err := query.ObjectID(id, "Vehicle")
	if err != nil {
		return nil, err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.Repo.UpdateStatus(ctx, oid, req.Status, req.Odometer); err != nil {
		return nil, notFound(err)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionStatus, CollectionName, id, map[string]common_models.Change{
		"status": {Old: existing.Status, New: req.Status},
	})

	existing.Status = req.Status
	if req.Odometer != nil {
		existing.CurrentOdometer = *req.Odometer
	}
	existing.UpdatedAt = time.Now()
	return existing, nil
}

func (s *VehicleServiceImpl) UploadDocument(ctx context.Context, id string, fh *multipart.FileHeader) (*Vehicle, error) {
	oid, err := query.ObjectID(id, "Vehicle")
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

// hasField reports whether the top-level JSON object in body sets key.
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
		return errs.NotFound("Vehicle not found")
	}
	return err
}
