package trip

import (
	"context"
	"encoding/json"
	"time"

	"charity-admin/internal/common/errs"
	common_models "charity-admin/internal/common/models"
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/query"
	"charity-admin/internal/common/validation"
	"charity-admin/internal/database"
	"charity-admin/internal/features/audit"
	"charity-admin/internal/features/vehicle"
	"charity-admin/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Vehicles is the part of the vehicle store a trip drives.
type Vehicles interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*vehicle.Vehicle, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to vehicle.Status) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status vehicle.Status, odometer *float64) error
}

type TripService interface {
	ListTrips(ctx context.Context, filter TripFilter, p pagination.Params) ([]TripDetail, int64, error)
	GetTrip(ctx context.Context, id string) (*TripDetail, error)
	CreateTrip(ctx context.Context, t *Trip) (*Trip, error)
	UpdateTrip(ctx context.Context, id string, body []byte) (*Trip, error)
	DeleteTrip(ctx context.Context, id string) error
	CompleteTrip(ctx context.Context, id string, req CompleteRequest) (*Trip, error)
	CancelTrip(ctx context.Context, id string) (*Trip, error)
}

type TripServiceImpl struct {
	Repo         TripRepository
	Vehicles     Vehicles
	Tx           database.Transactor
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewTripService(repo TripRepository, vehicles Vehicles, tx database.Transactor, auditService audit.AuditService, logger *zap.Logger) TripService {
	return &TripServiceImpl{
		Repo:         repo,
		Vehicles:     vehicles,
		Tx:           tx,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *TripServiceImpl) ListTrips(ctx context.Context, filter TripFilter, p pagination.Params) ([]TripDetail, int64, error) {
	q := bson.M{}
	if filter.Vehicle != "" {
		oid, err := query.FilterID(filter.Vehicle, "vehicle")
		if err != nil {
			return nil, 0, err
		}
		q["vehicle"] = oid
	}
	if filter.Driver != "" {
		oid, err := query.FilterID(filter.Driver, "driver")
		if err != nil {
			return nil, 0, err
		}
		q["driver"] = oid
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	dates, err := query.DateRange(filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, 0, err
	}
	if dates != nil {
		q["startDate"] = dates
	}
	return s.Repo.List(ctx, q, p.Skip(), p.Limit)
}

func (s *TripServiceImpl) GetTrip(ctx context.Context, id string) (*TripDetail, error) {
	oid, err := query.ObjectID(id, "Trip")
	if err != nil {
		return nil, err
	}
	t, err := s.Repo.FindDetail(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// claim puts an available vehicle in use. A vehicle in any other state fails
// with a validation error.
func (s *TripServiceImpl) claim(ctx context.Context, vehicleID primitive.ObjectID) error {
	err := s.Vehicles.TransitionStatus(ctx, vehicleID, vehicle.StatusAvailable, vehicle.StatusInUse)
	if errs.IsNoDocuments(err) {
		if _, findErr := s.Vehicles.FindByID(ctx, vehicleID); errs.IsNoDocuments(findErr) {
			return errs.NotFound("Vehicle not found")
		}
		return errs.Validation("Vehicle is not available")
	}
	return err
}

// release frees a vehicle held by a trip. A vehicle that was deleted or moved
// to another state meanwhile is left alone.
func (s *TripServiceImpl) release(ctx context.Context, vehicleID primitive.ObjectID) error {
	err := s.Vehicles.TransitionStatus(ctx, vehicleID, vehicle.StatusInUse, vehicle.StatusAvailable)
	if errs.IsNoDocuments(err) {
		return nil
	}
	return err
}

// undoClaim frees a vehicle claimed by a write that then failed. Without
// transactions the claim is still applied; with them it was rolled back and
// the vehicle may since belong to another trip, so an active trip keeps it.
func (s *TripServiceImpl) undoClaim(ctx context.Context, vehicleID, tripID primitive.ObjectID) {
	held, err := s.Repo.HasActive(ctx, vehicleID, tripID)
	if err != nil {
		s.Logger.Warn("could not check vehicle holders", zap.String("vehicleId", vehicleID.Hex()), zap.Error(err))
		return
	}
	if held {
		return
	}
	if err := s.release(ctx, vehicleID); err != nil {
		s.Logger.Warn("could not free vehicle after failed trip write", zap.String("vehicleId", vehicleID.Hex()), zap.Error(err))
	}
}

// CreateTrip claims the vehicle and stores the trip in one transaction.
func (s *TripServiceImpl) CreateTrip(ctx context.Context, t *Trip) (*Trip, error) {
	now := time.Now()
	t.ID = primitive.NewObjectID()
	if t.Driver.IsZero() {
		t.Driver = utils.ActorID(ctx)
	}
	if t.Status == "" {
		t.Status = StatusScheduled
	}
	if !t.Status.Active() {
		return nil, errs.Validation("status must be one of [scheduled in_progress]")
	}
	if t.Passengers == nil {
		t.Passengers = []primitive.ObjectID{}
	}
	t.EndDate = nil
	t.EndOdometer = nil
	t.CreatedAt = now
	t.UpdatedAt = now

	if t.Vehicle.IsZero() {
		return nil, errs.Validation("vehicle is required")
	}
	if err := validation.Struct(t); err != nil {
		return nil, err
	}

	claimed := false
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.claim(ctx, t.Vehicle); err != nil {
			return err
		}
		claimed = true
		return s.Repo.Create(ctx, t)
	})
	if err != nil {
		if claimed {
			s.undoClaim(ctx, t.Vehicle, t.ID)
		}
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, CollectionName, t.ID.Hex(), map[string]common_models.Change{
		"vehicle": {New: t.Vehicle.Hex()},
	})
	s.Logger.Info("trip scheduled", zap.String("tripId", t.ID.Hex()), zap.String("vehicleId", t.Vehicle.Hex()))
	return t, nil
}

// UpdateTrip merges the body onto the stored trip. Completion and cancellation
// have their own operations; moving an active trip to another vehicle frees
// the old one and claims the new one.
func (s *TripServiceImpl) UpdateTrip(ctx context.Context, id string, body []byte) (*Trip, error) {
	oid, err := query.ObjectID(id, "Trip")
	if err != nil {
		return nil, err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}

	updated := *existing
	updated.StartOdometer, updated.EndOdometer, updated.EndDate, updated.Passengers = nil, nil, nil, nil
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, errs.Wrap(errs.ErrValidation, "Invalid request body", err)
	}
	if updated.StartOdometer == nil {
		updated.StartOdometer = existing.StartOdometer
	}
	if updated.Passengers == nil {
		updated.Passengers = existing.Passengers
	}
	updated.ID = existing.ID
	updated.EndDate = existing.EndDate
	updated.EndOdometer = existing.EndOdometer
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()

	if updated.Status != existing.Status {
		if !existing.Status.Active() {
			return nil, errs.Validation("Trip is already " + string(existing.Status))
		}
		if !updated.Status.Active() {
			return nil, errs.Validation("Use the complete or cancel operation to finish a trip")
		}
	}
	if updated.Vehicle.IsZero() {
		return nil, errs.Validation("vehicle is required")
	}
	if err := validation.Struct(updated); err != nil {
		return nil, err
	}

	moveVehicle := updated.Vehicle != existing.Vehicle && existing.Status.Active()
	claimed, released := false, false
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if moveVehicle {
			if err := s.claim(ctx, updated.Vehicle); err != nil {
				return err
			}
			claimed = true
			if err := s.release(ctx, existing.Vehicle); err != nil {
				return err
			}
			released = true
		}
		return s.Repo.Update(ctx, &updated)
	})
	if err != nil {
		if claimed {
			s.undoClaim(ctx, updated.Vehicle, updated.ID)
		}
		if released {
			// The trip still points at its old vehicle; take it back if nobody else has.
			_ = s.Vehicles.TransitionStatus(ctx, existing.Vehicle, vehicle.StatusAvailable, vehicle.StatusInUse)
		}
		return nil, notFound(err)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, CollectionName, id, audit.Diff(existing, updated))
	return &updated, nil
}

// DeleteTrip removes the trip and frees its vehicle when the trip was still active.
func (s *TripServiceImpl) DeleteTrip(ctx context.Context, id string) error {
	oid, err := query.ObjectID(id, "Trip")
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
		if existing.Status.Active() {
			return s.release(ctx, existing.Vehicle)
		}
		return nil
	})
	if err != nil {
		return notFound(err)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, CollectionName, id, nil)
	return nil
}

// CompleteTrip closes an active trip and returns the vehicle to service with
// the final odometer reading.
func (s *TripServiceImpl) CompleteTrip(ctx context.Context, id string, req CompleteRequest) (*Trip, error) {
	if req.EndOdometer == nil {
		return nil, errs.Validation("Please provide the end odometer reading")
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	oid, err := query.ObjectID(id, "Trip")
	if err != nil {
		return nil, err
	}
	t, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	if err := finishable(t); err != nil {
		return nil, err
	}
	if t.StartOdometer != nil && *req.EndOdometer < *t.StartOdometer {
		return nil, errs.Validation("endOdometer cannot be less than startOdometer")
	}

	now := time.Now()
	end := now
	if req.EndDate != nil {
		end = *req.EndDate
	}
	previous := t.Status
	t.Status = StatusCompleted
	t.EndDate = &end
	t.EndOdometer = req.EndOdometer
	t.UpdatedAt = now

	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Repo.Finish(ctx, t); err != nil {
			return err
		}
		err := s.Vehicles.UpdateStatus(ctx, t.Vehicle, vehicle.StatusAvailable, req.EndOdometer)
		if errs.IsNoDocuments(err) {
			return nil
		}
		return err
	})
	if err != nil {
		if errs.IsNoDocuments(err) {
			return nil, errs.Validation("Trip is no longer active")
		}
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionStatus, CollectionName, id, map[string]common_models.Change{
		"status":      {Old: previous, New: StatusCompleted},
		"endOdometer": {New: *req.EndOdometer},
	})
	s.Logger.Info("trip completed", zap.String("tripId", id), zap.Float64("distance", t.Distance()))
	return t, nil
}

func (s *TripServiceImpl) CancelTrip(ctx context.Context, id string) (*Trip, error) {
	oid, err := query.ObjectID(id, "Trip")
	if err != nil {
		return nil, err
	}
	t, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	if err := finishable(t); err != nil {
		return nil, err
	}

	previous := t.Status
	t.Status = StatusCancelled
	t.UpdatedAt = time.Now()

	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Repo.Finish(ctx, t); err != nil {
			return err
		}
		return s.release(ctx, t.Vehicle)
	})
	if err != nil {
		if errs.IsNoDocuments(err) {
			return nil, errs.Validation("Trip is no longer active")
		}
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionStatus, CollectionName, id, map[string]common_models.Change{
		"status": {Old: previous, New: StatusCancelled},
	})
	return t, nil
}

func finishable(t *Trip) error {
	switch t.Status {
	case StatusCompleted:
		return errs.Validation("Trip is already completed")
	case StatusCancelled:
		return errs.Validation("Trip has been cancelled")
	}
	return nil
}

func notFound(err error) error {
	if errs.IsNoDocuments(err) {
		return errs.NotFound("Trip not found")
	}
	return err
}
