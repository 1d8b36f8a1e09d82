package member

import (
	"time"

	"charity-admin/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MembershipStatus string

const (
	StatusActive    MembershipStatus = "active"
	StatusInactive  MembershipStatus = "inactive"
	StatusDeceased  MembershipStatus = "deceased"
	StatusWithdrawn MembershipStatus = "withdrawn"
)

const DefaultCountry = "Saudi Arabia"

type Contact struct {
	Phone string `json:"phone" bson:"phone" validate:"required"`
	Email string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
}

type Address struct {
	Street     string `json:"street" bson:"street" validate:"required"`
	City       string `json:"city" bson:"city" validate:"required"`
	State      string `json:"state,omitempty" bson:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty" bson:"postalCode,omitempty"`
	Country    string `json:"country" bson:"country"`
}

type EmergencyContact struct {
	Name         string `json:"name,omitempty" bson:"name,omitempty"`
	Relationship string `json:"relationship,omitempty" bson:"relationship,omitempty"`
	Phone        string `json:"phone,omitempty" bson:"phone,omitempty"`
}

type Member struct {
	ID               primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	FullName         models.PersonName    `json:"fullName" bson:"fullName"`
	DateOfBirth      time.Time            `json:"dateOfBirth" bson:"dateOfBirth" validate:"required"`
	NationalID       string               `json:"nationalId" bson:"nationalId" validate:"required"`
	Contact          Contact              `json:"contact" bson:"contact"`
	PrimaryAddress   Address              `json:"primaryAddress" bson:"primaryAddress"`
	AlternateAddress *Address             `json:"alternateAddress,omitempty" bson:"alternateAddress,omitempty" validate:"-"`
	TribeAffiliation string               `json:"tribeAffiliation,omitempty" bson:"tribeAffiliation,omitempty"`
	MembershipStatus MembershipStatus     `json:"membershipStatus" bson:"membershipStatus" validate:"oneof=active inactive deceased withdrawn"`
	ProfilePhoto     string               `json:"profilePhoto,omitempty" bson:"profilePhoto,omitempty"`
	EmergencyContact *EmergencyContact    `json:"emergencyContact,omitempty" bson:"emergencyContact,omitempty" validate:"-"`
	JoinDate         time.Time            `json:"joinDate" bson:"joinDate"`
	Notes            string               `json:"notes,omitempty" bson:"notes,omitempty"`
	PaymentRecords   []primitive.ObjectID `json:"paymentRecords" bson:"paymentRecords"`
	CreatedAt        time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// applyDefaults fills the values a new member gets when the caller omits them.
func (m *Member) applyDefaults(now time.Time) {
	if m.MembershipStatus == "" {
		m.MembershipStatus = StatusActive
	}
	if m.PrimaryAddress.Country == "" {
		m.PrimaryAddress.Country = DefaultCountry
	}
	if m.AlternateAddress != nil && m.AlternateAddress.Country == "" {
		m.AlternateAddress.Country = DefaultCountry
	}
	if m.JoinDate.IsZero() {
		m.JoinDate = now
	}
	if m.PaymentRecords == nil {
		m.PaymentRecords = []primitive.ObjectID{}
	}
}

// PaymentRecord is the slice of a payment shown on the member detail view.
type PaymentRecord struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id"`
	Amount        float64            `json:"amount" bson:"amount"`
	PaymentDate   time.Time          `json:"paymentDate" bson:"paymentDate"`
	PaymentMethod string             `json:"paymentMethod" bson:"paymentMethod"`
	PaymentType   string             `json:"paymentType" bson:"paymentType"`
	IsPaid        bool               `json:"isPaid" bson:"isPaid"`
	ReceiptNumber string             `json:"receiptNumber" bson:"receiptNumber"`
}

// MemberDetail is a member with its payment records populated.
type MemberDetail struct {
	Member   `bson:",inline"`
	Payments []PaymentRecord `json:"paymentRecords" bson:"paymentDocs"`
}

type MemberFilter struct {
	Status string
	Search string
}
