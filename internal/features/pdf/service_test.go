package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"charity-admin/internal/common/errs"
	"charity-admin/internal/common/models"
	"charity-admin/internal/config"
	"charity-admin/internal/features/member"
	"charity-admin/internal/features/payment"
	"charity-admin/internal/features/report"
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MockReports struct {
	financial *report.FinancialReport
	members   *report.MemberReport
	vehicles  *report.VehicleReport
	recent    *report.Recent
	calls     []string
}

func (m *MockReports) Dashboard(ctx context.Context) (*report.Dashboard, error) {
	return &report.Dashboard{}, nil
}

func (m *MockReports) Financial(ctx context.Context, start, end string) (*report.FinancialReport, error) {
	m.calls = append(m.calls, "financial")
	if start == "bad" {
		return nil, errs.Validation("Invalid date: bad")
	}
	return m.financial, nil
}

func (m *MockReports) Members(ctx context.Context, start, end string) (*report.MemberReport, error) {
	m.calls = append(m.calls, "members")
	return m.members, nil
}

func (m *MockReports) Vehicles(ctx context.Context) (*report.VehicleReport, error) {
	m.calls = append(m.calls, "vehicles")
	return m.vehicles, nil
}

func (m *MockReports) RecentActivity(ctx context.Context, limit int64) (*report.Recent, error) {
	m.calls = append(m.calls, "recent")
	return m.recent, nil
}

func (m *MockReports) ExportMembers(ctx context.Context) ([]member.Member, error) {
	return nil, nil
}

func (m *MockReports) ExportFinancial(ctx context.Context, start, end string) (*report.FinancialExport, error) {
	return nil, nil
}

type connectedDB struct{}

func (connectedDB) Connected() bool { return true }

func sampleReports() *MockReports {
	return &MockReports{
		financial: &report.FinancialReport{
			TotalIncome:        12500,
			TotalExpenses:      4000,
			NetIncome:          8500,
			IncomeByType:       map[string]float64{"subscription": 10000, "donation": 2500},
			ExpensesByCategory: map[string]float64{"fuel": 1500, "aid": 2500},
		},
		members: &report.MemberReport{
			TotalMembers:       40,
			NewMembers:         4,
			GrowthRate:         100,
			StatusDistribution: map[string]int64{"active": 35, "inactive": 5},
		},
		vehicles: &report.VehicleReport{
			TotalVehicles: 2,
			TotalTrips:    6,
			Utilization:   50,
			StatusCounts:  report.VehicleCounts{Total: 2, Available: 1, InUse: 1},
			Vehicles: []report.VehicleUsage{
				{Make: "Toyota", Model: "Hiace", LicensePlate: "ABC 123", Status: "available", TripCount: 6, TotalDistance: 420},
			},
		},
		recent: &report.Recent{
			Payments: []payment.PaymentDetail{{
				Payment:   payment.Payment{Amount: 500, PaymentType: "subscription", PaymentDate: time.Now()},
				MemberDoc: &models.MemberRef{FullName: models.PersonName{First: "Ali", Last: "Saleh"}},
			}},
		},
	}
}

func newService(reports *MockReports) *PDFServiceImpl {
	return &PDFServiceImpl{Reports: reports, AppName: "Charity Association", Currency: "SAR", Logger: zap.NewNop()}
}

func TestRenderKinds(t *testing.T) {
	tests := []struct {
		kind  Kind
		calls []string
	}{
		{KindComprehensive, []string{"financial", "members", "recent", "vehicles"}},
		{KindFinancial, []string{"financial"}},
		{KindMembers, []string{"members", "recent"}},
		{KindVehicles, []string{"vehicles"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			reports := sampleReports()
			out, err := newService(reports).Render(context.Background(), tt.kind, "", "")
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if !bytes.HasPrefix(out, []byte("%PDF")) {
				t.Errorf("output is not a pdf: %q", out[:8])
			}
			if fmt.Sprint(reports.calls) != fmt.Sprint(tt.calls) {
				t.Errorf("gathered %v, want %v", reports.calls, tt.calls)
			}
		})
	}
}

func TestRenderWithMissingData(t *testing.T) {
	out, err := newService(&MockReports{}).Render(context.Background(), KindComprehensive, "", "")
	if err != nil {
		t.Fatalf("render with empty data: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Error("expected a pdf")
	}
}

func TestInsights(t *testing.T) {
	tests := []struct {
		name string
		data *ReportData
		want []Insight
	}{
		{
			name: "nothing to say",
			data: &ReportData{},
			want: nil,
		},
		{
			name: "high expenses and loss",
			data: &ReportData{Financial: &report.FinancialReport{TotalIncome: 100, TotalExpenses: 120, NetIncome: -20}},
			want: []Insight{
				{Warning: true, Text: "Expense ratio is high, a budget review is recommended"},
				{Warning: true, Text: "Net income is negative, raise income or cut expenses"},
			},
		},
		{
			name: "middle expense ratio says nothing about it",
			data: &ReportData{Financial: &report.FinancialReport{TotalIncome: 100, TotalExpenses: 60, NetIncome: 40}},
			want: []Insight{{Text: "Net income is positive"}},
		},
		{
			name: "low active share",
			data: &ReportData{Members: &report.MemberReport{TotalMembers: 10, StatusDistribution: map[string]int64{"active": 5}}},
			want: []Insight{{Warning: true, Text: "Share of active members is low, consider engagement programmes"}},
		},
		{
			name: "busy fleet",
			data: &ReportData{Vehicles: &report.VehicleReport{TotalVehicles: 4, Utilization: 75}},
			want: []Insight{{Text: "Vehicle utilisation is good"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Insights(tt.data)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Insights() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTableBreaksPages(t *testing.T) {
	doc, err := newDocument("Charity Association", "")
	if err != nil {
		t.Fatal(err)
	}
	rows := make([][]string, 80)
	for i := range rows {
		rows[i] = []string{fmt.Sprint(i), "row"}
	}
	doc.table(colorBlue, []string{"#", "Value"}, rows)
	if doc.pages() < 2 {
		t.Errorf("expected the table to span pages, got %d", doc.pages())
	}
}

func TestRenderOverHTTP(t *testing.T) {
	guard := middleware.NewGuard(&config.Config{SkipAuth: true}, nil, connectedDB{}, middleware.NewPolicy())
	app := fiber.New()
	NewPDFApi(NewPDFController(newService(sampleReports())), guard).Setup(app)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/pdf/financial", nil), -1)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != "application/pdf" {
		t.Errorf("content type %q", ct)
	}
	if cd := resp.Header.Get(fiber.HeaderContentDisposition); cd != `attachment; filename="financial-report.pdf"` {
		t.Errorf("content disposition %q", cd)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Error("body is not a pdf")
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/api/pdf/financial?startDate=bad", nil), -1)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("bad date: status %d, want 400", resp.StatusCode)
	}
}
