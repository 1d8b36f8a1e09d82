package payment

import (
	"time"

	"charity-admin/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InstallmentPlan struct {
	TotalAmount          float64 `json:"totalAmount,omitempty" bson:"totalAmount,omitempty"`
	NumberOfInstallments int     `json:"numberOfInstallments,omitempty" bson:"numberOfInstallments,omitempty"`
	PaidInstallments     int     `json:"paidInstallments" bson:"paidInstallments"`
}

type Payment struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Member          primitive.ObjectID `json:"member" bson:"member"`
	Amount          float64            `json:"amount" bson:"amount" validate:"gt=0"`
	PaymentDate     time.Time          `json:"paymentDate" bson:"paymentDate" validate:"required"`
	PaymentMethod   string             `json:"paymentMethod" bson:"paymentMethod" validate:"required"`
	PaymentType     string             `json:"paymentType" bson:"paymentType" validate:"required"`
	DueDate         *time.Time         `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	IsPaid          bool               `json:"isPaid" bson:"isPaid"`
	IsInstallment   bool               `json:"isInstallment" bson:"isInstallment"`
	InstallmentPlan *InstallmentPlan   `json:"installmentPlan,omitempty" bson:"installmentPlan,omitempty"`
	ReceiptNumber   string             `json:"receiptNumber" bson:"receiptNumber"`
	Receipt         string             `json:"receipt,omitempty" bson:"receipt,omitempty"`
	CollectedBy     primitive.ObjectID `json:"collectedBy" bson:"collectedBy"`
	Notes           string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// NewPayment returns a payment carrying the defaults a request body may override.
func NewPayment() Payment {
	return Payment{
		PaymentDate: time.Now(),
		IsPaid:      true,
	}
}

// PaymentDetail is a payment with its member and collector populated.
type PaymentDetail struct {
	Payment      `bson:",inline"`
	MemberDoc    *models.MemberRef `json:"member" bson:"memberDoc,omitempty"`
	CollectorDoc *models.UserRef   `json:"collectedBy" bson:"collectedByDoc,omitempty"`
}

type PaymentFilter struct {
	Member      string
	PaymentType string
	IsPaid      string
	StartDate   string
	EndDate     string
}
