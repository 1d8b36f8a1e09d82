package expense

import (
	"time"

	"charity-admin/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

type Expense struct {
	ID             primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Category       string              `json:"category" bson:"category" validate:"required"`
	Amount         float64             `json:"amount" bson:"amount" validate:"gt=0"`
	Date           time.Time           `json:"date" bson:"date" validate:"required"`
	Purpose        string              `json:"purpose" bson:"purpose" validate:"required"`
	Receipt        string              `json:"receipt,omitempty" bson:"receipt,omitempty"`
	ApprovalStatus ApprovalStatus      `json:"approvalStatus" bson:"approvalStatus"`
	ApprovedBy     *primitive.ObjectID `json:"approvedBy,omitempty" bson:"approvedBy,omitempty"`
	ApprovedAt     *time.Time          `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`
	SpentBy        primitive.ObjectID  `json:"spentBy" bson:"spentBy"`
	Notes          string              `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt" bson:"updatedAt"`
}

func NewExpense() Expense {
	return Expense{Date: time.Now()}
}

// ExpenseDetail is an expense with spender and approver populated.
type ExpenseDetail struct {
	Expense     `bson:",inline"`
	SpentByDoc  *models.UserRef `json:"spentBy" bson:"spentByDoc,omitempty"`
	ApproverDoc *models.UserRef `json:"approvedBy,omitempty" bson:"approvedByDoc,omitempty"`
}

type ExpenseFilter struct {
	Category       string
	ApprovalStatus string
	StartDate      string
	EndDate        string
}
