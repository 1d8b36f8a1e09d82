package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Reference projections used when a related document is joined into a response.

type UserRef struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"username" json:"username,omitempty"`
	FullName string             `bson:"fullName" json:"fullName"`
	Email    string             `bson:"email" json:"email,omitempty"`
}

type PersonName struct {
	First  string `bson:"first" json:"first" validate:"required"`
	Middle string `bson:"middle,omitempty" json:"middle,omitempty"`
	Last   string `bson:"last" json:"last" validate:"required"`
}

func (n PersonName) String() string {
	if n.Middle != "" {
		return n.First + " " + n.Middle + " " + n.Last
	}
	return n.First + " " + n.Last
}

type MemberRef struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	FullName   PersonName         `bson:"fullName" json:"fullName"`
	NationalID string             `bson:"nationalId" json:"nationalId"`
}

type VehicleRef struct {
	ID           primitive.ObjectID `bson:"_id" json:"_id"`
	Make         string             `bson:"make" json:"make"`
	Model        string             `bson:"model" json:"model"`
	LicensePlate string             `bson:"licensePlate" json:"licensePlate"`
}
