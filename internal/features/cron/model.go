package cron_feature

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	JobReconcilePayments = "reconcile_payments"
	JobVehicleExpiry     = "vehicle_expiry"
)

type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// Job is a built-in scheduled job as shown to administrators.
type Job struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schedule    string     `json:"schedule"`
	NextRun     *time.Time `json:"nextRun,omitempty"`
}

// JobRun records one execution of a job.
type JobRun struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Job       string             `json:"job" bson:"job"`
	Manual    bool               `json:"manual" bson:"manual"`
	Status    RunStatus          `json:"status" bson:"status"`
	Processed int                `json:"processed" bson:"processed"`
	Affected  int                `json:"affected" bson:"affected"`
	Error     string             `json:"error,omitempty" bson:"error,omitempty"`
	StartTime time.Time          `json:"startTime" bson:"startTime"`
	EndTime   *time.Time         `json:"endTime,omitempty" bson:"endTime,omitempty"`
}
