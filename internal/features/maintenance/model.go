package maintenance

import (
	"time"

	"charity-admin/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TypeInspection is the one maintenance type that leaves the vehicle in service.
const TypeInspection = "inspection"

type Maintenance struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Vehicle         primitive.ObjectID `json:"vehicle" bson:"vehicle"`
	MaintenanceType string             `json:"maintenanceType" bson:"maintenanceType" validate:"required"`
	Date            time.Time          `json:"date" bson:"date" validate:"required"`
	Odometer        *float64           `json:"odometer,omitempty" bson:"odometer,omitempty" validate:"omitempty,gte=0"`
	Description     string             `json:"description" bson:"description" validate:"required"`
	Cost            float64            `json:"cost" bson:"cost" validate:"gt=0"`
	ServiceProvider string             `json:"serviceProvider" bson:"serviceProvider" validate:"required"`
	Documents       []string           `json:"documents" bson:"documents"`
	CompletedAt     *time.Time         `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	Notes           string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// HoldsVehicle reports whether this record keeps its vehicle out of service.
func (m *Maintenance) HoldsVehicle() bool {
	return m.MaintenanceType != TypeInspection && m.CompletedAt == nil
}

type MaintenanceDetail struct {
	Maintenance `bson:",inline"`
	VehicleDoc  *models.VehicleRef `json:"vehicle" bson:"vehicleDoc,omitempty"`
}

type MaintenanceFilter struct {
	Vehicle         string
	MaintenanceType string
	StartDate       string
	EndDate         string
}
