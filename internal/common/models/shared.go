package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditActionCreate   AuditAction = "CREATE"
	AuditActionUpdate   AuditAction = "UPDATE"
	AuditActionDelete   AuditAction = "DELETE"
	AuditActionLogin    AuditAction = "LOGIN"
	AuditActionApproval AuditAction = "APPROVAL"
	AuditActionStatus   AuditAction = "STATUS"
	AuditActionUpload   AuditAction = "UPLOAD"
	AuditActionCron     AuditAction = "CRON"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`                     // Collection the record lives in
	RecordID  string             `bson:"recordId" json:"recordId"`
	ActorID   string             `bson:"actorId" json:"actorId"`                   // User ID or "system"
	ActorName string             `bson:"-" json:"actorName,omitempty"`
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Log is a persisted warn-and-above log line.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	Level        string    `bson:"level" json:"level"`
	LogLevelId   int       `bson:"logLevelId" json:"logLevelId"`
	IpAddress    string    `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserID       string    `bson:"userId,omitempty" json:"userId,omitempty"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	CreatedOnUtc time.Time `bson:"createdOnUtc" json:"createdOnUtc"`
}
