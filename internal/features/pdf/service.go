package pdf

import (
	"context"
	"sort"
	"time"

	"charity-admin/internal/common/errs"
	"charity-admin/internal/features/report"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const recentRows = 5

type PDFService interface {
	Render(ctx context.Context, kind Kind, start, end string) ([]byte, error)
}

type PDFServiceImpl struct {
	Reports  report.ReportService
	AppName  string
	Currency string
	FontPath string
	Logger   *zap.Logger
}

func NewPDFService(reports report.ReportService, appName, currency, fontPath string, logger *zap.Logger) PDFService {
	return &PDFServiceImpl{
		Reports:  reports,
		AppName:  appName,
		Currency: currency,
		FontPath: fontPath,
		Logger:   logger,
	}
}

// Render gathers the figures the report kind needs and lays them out.
func (s *PDFServiceImpl) Render(ctx context.Context, kind Kind, start, end string) ([]byte, error) {
	data, err := s.gather(ctx, kind, start, end)
	if err != nil {
		return nil, err
	}

	doc, err := newDocument(s.AppName, s.FontPath)
	if err != nil {
		return nil, err
	}
	l := layout{doc: doc, printer: message.NewPrinter(language.English), currency: s.Currency}

	switch kind {
	case KindComprehensive:
		doc.header("Comprehensive Report", data.Generated)
		l.summaryCards(data)
		l.financialSummary(data)
		l.memberStatistics(data)
		l.incomeBreakdown(data)
		l.expenseBreakdown(data)
		l.vehicleStatistics(data)
		l.recentActivity(data)
		l.insights(data)
	case KindFinancial:
		doc.header("Financial Report", data.Generated)
		l.financialSummary(data)
		l.incomeBreakdown(data)
		l.expenseBreakdown(data)
		l.insights(data)
	case KindMembers:
		doc.header("Member Report", data.Generated)
		l.memberStatistics(data)
		l.recentActivity(data)
		l.insights(data)
	case KindVehicles:
		doc.header("Vehicle Report", data.Generated)
		l.vehicleStatistics(data)
		l.insights(data)
	}

	out, err := doc.bytes()
	if err != nil {
		s.Logger.Error("pdf render failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}
	s.Logger.Info("pdf rendered", zap.String("kind", string(kind)), zap.Int("pages", doc.pages()), zap.Int("bytes", len(out)))
	return out, nil
}

func (s *PDFServiceImpl) gather(ctx context.Context, kind Kind, start, end string) (*ReportData, error) {
	data := &ReportData{Generated: time.Now()}
	var err error

	withFinancial := kind == KindComprehensive || kind == KindFinancial
	withMembers := kind == KindComprehensive || kind == KindMembers
	withVehicles := kind == KindComprehensive || kind == KindVehicles
	if !withFinancial && !withMembers && !withVehicles {
		return nil, errs.NotFound("Unknown report type: " + string(kind))
	}

	if withFinancial {
		if data.Financial, err = s.Reports.Financial(ctx, start, end); err != nil {
			return nil, err
		}
	}
	if withMembers {
		if data.Members, err = s.Reports.Members(ctx, start, end); err != nil {
			return nil, err
		}
		if data.Recent, err = s.Reports.RecentActivity(ctx, recentRows); err != nil {
			return nil, err
		}
	}
	if withVehicles {
		if data.Vehicles, err = s.Reports.Vehicles(ctx); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// layout renders the report sections onto a document.
type layout struct {
	doc      *document
	printer  *message.Printer
	currency string
}

func (l layout) amount(v float64) string {
	return l.printer.Sprintf("%.0f", v)
}

func (l layout) money(v float64) string {
	return l.amount(v) + " " + l.currency
}

func (l layout) percent(part, whole float64) string {
	return l.printer.Sprintf("%.1f%%", report.Ratio(part, whole))
}

func (l layout) summaryCards(d *ReportData) {
	var members int64
	var income, expenses, net float64
	if d.Members != nil {
		members = d.Members.TotalMembers
	}
	if d.Financial != nil {
		income, expenses, net = d.Financial.TotalIncome, d.Financial.TotalExpenses, d.Financial.NetIncome
	}
	l.doc.cards([]card{
		{Label: "Total members", Value: l.printer.Sprintf("%d", members), Color: colorBlue},
		{Label: "Total income", Value: l.money(income), Color: colorGreen},
		{Label: "Total expenses", Value: l.money(expenses), Color: colorRed},
		{Label: "Net income", Value: l.money(net), Color: colorPurple},
	})
}

func (l layout) financialSummary(d *ReportData) {
	f := d.Financial
	if f == nil {
		f = &report.FinancialReport{}
	}
	l.doc.checkPageBreak(60)
	l.doc.section("Financial summary")
	l.doc.table(colorTitle, []string{"Item", "Amount (" + l.currency + ")", "Share of income"}, [][]string{
		{"Total income", l.amount(f.TotalIncome), l.percent(f.TotalIncome, f.TotalIncome)},
		{"Total expenses", l.amount(f.TotalExpenses), l.percent(f.TotalExpenses, f.TotalIncome)},
		{"Net income", l.amount(f.NetIncome), l.percent(f.NetIncome, f.TotalIncome)},
	})
}

func (l layout) memberStatistics(d *ReportData) {
	m := d.Members
	if m == nil {
		m = &report.MemberReport{}
	}
	l.doc.checkPageBreak(80)
	l.doc.section("Member statistics")

	var rows [][]string
	for _, status := range []string{"active", "inactive", "deceased", "withdrawn"} {
		n := m.StatusDistribution[status]
		rows = append(rows, []string{status, l.printer.Sprintf("%d", n), l.percent(float64(n), float64(m.TotalMembers))})
	}
	rows = append(rows, []string{"new in period", l.printer.Sprintf("%d", m.NewMembers), l.printer.Sprintf("%.1f%% growth", m.GrowthRate)})
	l.doc.table(colorBlue, []string{"Status", "Members", "Share"}, rows)
}

func (l layout) breakdown(title string, head rgb, label string, values map[string]float64, whole float64) {
	if len(values) == 0 {
		return
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return values[keys[i]] > values[keys[j]] })

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, l.amount(values[k]), l.percent(values[k], whole)})
	}
	l.doc.checkPageBreak(60)
	l.doc.section(title)
	l.doc.table(head, []string{label, "Amount (" + l.currency + ")", "Share"}, rows)
}

func (l layout) incomeBreakdown(d *ReportData) {
	if d.Financial == nil {
		return
	}
	l.breakdown("Income by type", colorGreen, "Type", d.Financial.IncomeByType, d.Financial.TotalIncome)
}

func (l layout) expenseBreakdown(d *ReportData) {
	if d.Financial == nil {
		return
	}
	l.breakdown("Expenses by category", colorRed, "Category", d.Financial.ExpensesByCategory, d.Financial.TotalExpenses)
}

func (l layout) vehicleStatistics(d *ReportData) {
	v := d.Vehicles
	if v == nil {
		return
	}
	l.doc.checkPageBreak(80)
	l.doc.section("Vehicle statistics")
	c := v.StatusCounts
	l.doc.table(colorPurple, []string{"Item", "Count"}, [][]string{
		{"Total vehicles", l.printer.Sprintf("%d", v.TotalVehicles)},
		{"Available", l.printer.Sprintf("%d", c.Available)},
		{"In use", l.printer.Sprintf("%d", c.InUse)},
		{"In maintenance", l.printer.Sprintf("%d", c.Maintenance)},
		{"Out of service", l.printer.Sprintf("%d", c.OutOfService)},
		{"Total trips", l.printer.Sprintf("%d", v.TotalTrips)},
		{"Average trip distance (km)", l.amount(v.AverageTripDistance)},
		{"Maintenance cost (" + l.currency + ")", l.amount(v.TotalMaintenanceCost)},
	})

	if len(v.Vehicles) == 0 {
		return
	}
	rows := make([][]string, 0, len(v.Vehicles))
	for _, u := range v.Vehicles {
		rows = append(rows, []string{u.LicensePlate, u.Make + " " + u.Model, u.Status, l.printer.Sprintf("%d", u.TripCount), l.amount(u.TotalDistance), l.amount(u.MaintenanceCost)})
	}
	l.doc.subheading("Usage per vehicle")
	l.doc.table(colorPurple, []string{"Plate", "Vehicle", "Status", "Trips", "Distance", "Maintenance"}, rows)
}

func (l layout) recentActivity(d *ReportData) {
	r := d.Recent
	if r == nil || (len(r.Payments) == 0 && len(r.Expenses) == 0) {
		return
	}
	l.doc.checkPageBreak(100)
	l.doc.section("Recent activity")

	if len(r.Payments) > 0 {
		rows := make([][]string, 0, len(r.Payments))
		for i, p := range r.Payments {
			if i == recentRows {
				break
			}
			name := "Unknown"
			if p.MemberDoc != nil {
				name = p.MemberDoc.FullName.String()
			}
			rows = append(rows, []string{name, p.PaymentType, l.amount(p.Amount), p.PaymentDate.Format("2006-01-02")})
		}
		l.doc.subheading("Latest payments")
		l.doc.table(colorGreen, []string{"Member", "Type", "Amount", "Date"}, rows)
	}

	if len(r.Expenses) > 0 {
		rows := make([][]string, 0, len(r.Expenses))
		for i, e := range r.Expenses {
			if i == recentRows {
				break
			}
			rows = append(rows, []string{e.Category, e.Purpose, l.amount(e.Amount), e.Date.Format("2006-01-02")})
		}
		l.doc.checkPageBreak(60)
		l.doc.subheading("Latest expenses")
		l.doc.table(colorRed, []string{"Category", "Purpose", "Amount", "Date"}, rows)
	}
}

func (l layout) insights(d *ReportData) {
	found := Insights(d)
	if len(found) == 0 {
		return
	}
	lines := make([]string, 0, len(found))
	for _, in := range found {
		mark := "+ "
		if in.Warning {
			mark = "! "
		}
		lines = append(lines, mark+in.Text)
	}
	l.doc.checkPageBreak(100)
	l.doc.section("Insights")
	l.doc.lines(lines)
}
