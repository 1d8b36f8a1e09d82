package pdf

import (
	"time"

	"charity-admin/internal/features/report"
)

type Kind string

const (
	KindComprehensive Kind = "comprehensive"
	KindFinancial     Kind = "financial"
	KindMembers       Kind = "members"
	KindVehicles      Kind = "vehicles"
)

// ReportData is everything a PDF may render. Sections with a nil source are skipped.
type ReportData struct {
	Generated time.Time
	Financial *report.FinancialReport
	Members   *report.MemberReport
	Vehicles  *report.VehicleReport
	Recent    *report.Recent
}
