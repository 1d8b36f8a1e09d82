package report

import (
	"time"

	"charity-admin/internal/features/expense"
	"charity-admin/internal/features/member"
	"charity-admin/internal/features/payment"
	"charity-admin/internal/features/trip"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemberCounts struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Inactive  int64 `json:"inactive"`
	Deceased  int64 `json:"deceased"`
	Withdrawn int64 `json:"withdrawn"`
}

type VehicleCounts struct {
	Total        int64 `json:"total"`
	Available    int64 `json:"available"`
	InUse        int64 `json:"inUse"`
	Maintenance  int64 `json:"maintenance"`
	OutOfService int64 `json:"outOfService"`
}

// Finances are the sums for one calendar month.
type Finances struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Balance  float64 `json:"balance"`
}

type MonthlyFinances struct {
	CurrentMonth Finances `json:"currentMonth"`
	LastMonth    Finances `json:"lastMonth"`
}

type Recent struct {
	Payments []payment.PaymentDetail `json:"payments"`
	Expenses []expense.ExpenseDetail `json:"expenses"`
	Members  []member.Member         `json:"members"`
	Trips    []trip.TripDetail       `json:"trips"`
}

type Dashboard struct {
	Members  MemberCounts    `json:"members"`
	Vehicles VehicleCounts   `json:"vehicles"`
	Finances MonthlyFinances `json:"finances"`
	Recent   Recent          `json:"recent"`
}

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type MonthTotals struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

type FinancialReport struct {
	Period             Period                 `json:"period"`
	TotalIncome        float64                `json:"totalIncome"`
	TotalExpenses      float64                `json:"totalExpenses"`
	NetIncome          float64                `json:"netIncome"`
	ExpenseRatio       float64                `json:"expenseRatio"`
	IncomeByType       map[string]float64     `json:"incomeByType"`
	ExpensesByCategory map[string]float64     `json:"expensesByCategory"`
	MonthlyBreakdown   map[string]MonthTotals `json:"monthlyBreakdown"`
}

type MemberReport struct {
	Period             Period           `json:"period"`
	TotalMembers       int64            `json:"totalMembers"`
	NewMembers         int64            `json:"newMembers"`
	GrowthRate         float64          `json:"growthRate"`
	StatusDistribution map[string]int64 `json:"statusDistribution"`
	CityDistribution   map[string]int64 `json:"cityDistribution"`
}

// VehicleUsage is one vehicle with its trip and maintenance totals.
type VehicleUsage struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id"`
	Make            string             `json:"make" bson:"make"`
	Model           string             `json:"model" bson:"model"`
	LicensePlate    string             `json:"licensePlate" bson:"licensePlate"`
	Status          string             `json:"status" bson:"status"`
	TripCount       int64              `json:"tripCount" bson:"tripCount"`
	TotalDistance   float64            `json:"totalDistance" bson:"totalDistance"`
	MaintenanceCost float64            `json:"maintenanceCost" bson:"maintenanceCost"`
}

type VehicleReport struct {
	TotalVehicles        int64          `json:"totalVehicles"`
	TotalTrips           int64          `json:"totalTrips"`
	TotalDistance        float64        `json:"totalDistance"`
	TotalMaintenanceCost float64        `json:"totalMaintenanceCost"`
	AverageTripDistance  float64        `json:"averageTripDistance"`
	Utilization          float64        `json:"utilization"`
	StatusCounts         VehicleCounts  `json:"statusCounts"`
	Vehicles             []VehicleUsage `json:"vehicles"`
}

type PaymentExport struct {
	Count   int                     `json:"count"`
	Records []payment.PaymentDetail `json:"records"`
}

type ExpenseExport struct {
	Count   int                     `json:"count"`
	Records []expense.ExpenseDetail `json:"records"`
}

type FinancialExport struct {
	Payments PaymentExport `json:"payments"`
	Expenses ExpenseExport `json:"expenses"`
	Period   Period        `json:"period"`
}
