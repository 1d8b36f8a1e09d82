package vehicle

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusAvailable    Status = "available"
	StatusInUse        Status = "in_use"
	StatusMaintenance  Status = "maintenance"
	StatusOutOfService Status = "out_of_service"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance, StatusOutOfService:
		return true
	}
	return false
}

type Vehicle struct {
	ID                 primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Make               string             `json:"make" bson:"make" validate:"required"`
	Model              string             `json:"model" bson:"model" validate:"required"`
	Year               int                `json:"year" bson:"year" validate:"gt=1900"`
	LicensePlate       string             `json:"licensePlate" bson:"licensePlate" validate:"required"`
	Status             Status             `json:"status" bson:"status" validate:"oneof=available in_use maintenance out_of_service"`
	CurrentOdometer    float64            `json:"currentOdometer" bson:"currentOdometer" validate:"gte=0"`
	FuelType           string             `json:"fuelType" bson:"fuelType"`
	RegistrationExpiry *time.Time         `json:"registrationExpiry,omitempty" bson:"registrationExpiry,omitempty"`
	InsuranceExpiry    *time.Time         `json:"insuranceExpiry,omitempty" bson:"insuranceExpiry,omitempty"`
	Documents          []string           `json:"documents" bson:"documents"`
	Notes              string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// NewVehicle returns a vehicle carrying the defaults a request body may override.
func NewVehicle() Vehicle {
	return Vehicle{
		Status:   StatusAvailable,
		FuelType: "gasoline",
	}
}

type VehicleFilter struct {
	Status string
	Search string
}

type StatusRequest struct {
	Status   Status   `json:"status" validate:"required,oneof=available in_use maintenance out_of_service"`
	Odometer *float64 `json:"odometer,omitempty" validate:"omitempty,gte=0"`
}
