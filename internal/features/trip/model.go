package trip

import (
	"time"

	"charity-admin/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Active reports whether a trip in this state holds its vehicle.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusInProgress
}

type Trip struct {
	ID            primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Vehicle       primitive.ObjectID   `json:"vehicle" bson:"vehicle"`
	Driver        primitive.ObjectID   `json:"driver" bson:"driver"`
	StartDate     time.Time            `json:"startDate" bson:"startDate" validate:"required"`
	EndDate       *time.Time           `json:"endDate,omitempty" bson:"endDate,omitempty"`
	Purpose       string               `json:"purpose" bson:"purpose" validate:"required"`
	StartOdometer *float64             `json:"startOdometer" bson:"startOdometer" validate:"required,gte=0"`
	EndOdometer   *float64             `json:"endOdometer,omitempty" bson:"endOdometer,omitempty"`
	Status        Status               `json:"status" bson:"status" validate:"oneof=scheduled in_progress completed cancelled"`
	Passengers    []primitive.ObjectID `json:"passengers" bson:"passengers"`
	Notes         string               `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt     time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt" bson:"updatedAt"`
}

func NewTrip() Trip {
	return Trip{Status: StatusScheduled}
}

// Distance is the odometer difference of a completed trip, or zero.
func (t *Trip) Distance() float64 {
	if t.StartOdometer == nil || t.EndOdometer == nil {
		return 0
	}
	return *t.EndOdometer - *t.StartOdometer
}

// TripDetail is a trip with vehicle, driver and passengers populated.
type TripDetail struct {
	Trip          `bson:",inline"`
	VehicleDoc    *models.VehicleRef `json:"vehicle" bson:"vehicleDoc,omitempty"`
	DriverDoc     *models.UserRef    `json:"driver" bson:"driverDoc,omitempty"`
	PassengerDocs []models.MemberRef `json:"passengers" bson:"passengerDocs"`
}

type TripFilter struct {
	Vehicle   string
	Driver    string
	Status    string
	StartDate string
	EndDate   string
}

type CompleteRequest struct {
	EndOdometer *float64   `json:"endOdometer" validate:"required,gte=0"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}
