package report

import (
	"context"
	"math"
	"time"

	"charity-admin/internal/common/errs"
	"charity-admin/internal/common/query"
	"charity-admin/internal/features/expense"
	"charity-admin/internal/features/member"
	"charity-admin/internal/features/payment"
	"charity-admin/internal/features/trip"
	"charity-admin/internal/features/vehicle"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	recentLimit = 3
	exportLimit = 100000
)

type PaymentLister interface {
	List(ctx context.Context, filter bson.M, skip, limit int64) ([]payment.PaymentDetail, int64, error)
}

type ExpenseLister interface {
	List(ctx context.Context, filter bson.M, skip, limit int64) ([]expense.ExpenseDetail, int64, error)
}

type MemberLister interface {
	List(ctx context.Context, filter bson.M, skip, limit int64) ([]member.Member, int64, error)
}

type TripLister interface {
	List(ctx context.Context, filter bson.M, skip, limit int64) ([]trip.TripDetail, int64, error)
}

type ReportService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	Financial(ctx context.Context, start, end string) (*FinancialReport, error)
	Members(ctx context.Context, start, end string) (*MemberReport, error)
	Vehicles(ctx context.Context) (*VehicleReport, error)
	RecentActivity(ctx context.Context, limit int64) (*Recent, error)
	ExportMembers(ctx context.Context) ([]member.Member, error)
	ExportFinancial(ctx context.Context, start, end string) (*FinancialExport, error)
}

type ReportServiceImpl struct {
	Repo       ReportRepository
	Payments   PaymentLister
	Expenses   ExpenseLister
	MemberRepo MemberLister
	Trips      TripLister
	Logger     *zap.Logger
	Now        func() time.Time
}

func NewReportService(repo ReportRepository, payments PaymentLister, expenses ExpenseLister, members MemberLister, trips TripLister, logger *zap.Logger) ReportService {
	return &ReportServiceImpl{
		Repo:       repo,
		Payments:   payments,
		Expenses:   expenses,
		MemberRepo: members,
		Trips:      trips,
		Logger:     logger,
		Now:        time.Now,
	}
}

// Dashboard gathers the counts, the current and previous calendar month
// finances and the latest activity. The queries run concurrently.
func (s *ReportServiceImpl) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	current := Period{Start: monthStart, End: monthStart.AddDate(0, 1, 0)}
	previous := Period{Start: monthStart.AddDate(0, -1, 0), End: monthStart}

	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.Repo.CountBy(gctx, member.CollectionName, "membershipStatus", bson.M{})
		if err != nil {
			return err
		}
		d.Members = MemberCounts{
			Active:    counts[string(member.StatusActive)],
			Inactive:  counts[string(member.StatusInactive)],
			Deceased:  counts[string(member.StatusDeceased)],
			Withdrawn: counts[string(member.StatusWithdrawn)],
			Total:     total(counts),
		}
		return nil
	})
	g.Go(func() error {
		counts, err := s.Repo.CountBy(gctx, vehicle.CollectionName, "status", bson.M{})
		if err != nil {
			return err
		}
		d.Vehicles = vehicleCounts(counts)
		return nil
	})
	g.Go(func() (err error) {
		d.Finances.CurrentMonth, err = s.monthFinances(gctx, current)
		return err
	})
	g.Go(func() (err error) {
		d.Finances.LastMonth, err = s.monthFinances(gctx, previous)
		return err
	})
	g.Go(func() error {
		recent, err := s.RecentActivity(gctx, recentLimit)
		if err != nil {
			return err
		}
		d.Recent = *recent
		return nil
	})
	if err := g.Wait(); err != nil {
		s.Logger.Error("dashboard query failed", zap.Error(err))
		return nil, err
	}
	return &d, nil
}

// monthFinances sums income and expenses over [p.Start, p.End).
func (s *ReportServiceImpl) monthFinances(ctx context.Context, p Period) (Finances, error) {
	window := bson.M{"$gte": p.Start, "$lt": p.End}
	income, err := s.Repo.Sum(ctx, payment.CollectionName, "amount", bson.M{"paymentDate": window})
	if err != nil {
		return Finances{}, err
	}
	spent, err := s.Repo.Sum(ctx, expense.CollectionName, "amount", bson.M{"date": window})
	if err != nil {
		return Finances{}, err
	}
	return Finances{Income: income, Expenses: spent, Balance: income - spent}, nil
}

func (s *ReportServiceImpl) RecentActivity(ctx context.Context, limit int64) (*Recent, error) {
	var r Recent
	var err error
	if r.Payments, _, err = s.Payments.List(ctx, bson.M{}, 0, limit); err != nil {
		return nil, err
	}
	if r.Expenses, _, err = s.Expenses.List(ctx, bson.M{}, 0, limit); err != nil {
		return nil, err
	}
	if r.Members, _, err = s.MemberRepo.List(ctx, bson.M{}, 0, limit); err != nil {
		return nil, err
	}
	if r.Trips, _, err = s.Trips.List(ctx, bson.M{}, 0, limit); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ReportServiceImpl) Financial(ctx context.Context, start, end string) (*FinancialReport, error) {
	p, err := s.period(start, end)
	if err != nil {
		return nil, err
	}
	window := bson.M{"$gte": p.Start, "$lte": p.End}
	paid := bson.M{"paymentDate": window}
	spent := bson.M{"date": window}

	income, err := s.Repo.Sum(ctx, payment.CollectionName, "amount", paid)
	if err != nil {
		return nil, err
	}
	expenses, err := s.Repo.Sum(ctx, expense.CollectionName, "amount", spent)
	if err != nil {
		return nil, err
	}
	byType, err := s.Repo.SumBy(ctx, payment.CollectionName, "paymentType", "amount", paid)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.Repo.SumBy(ctx, expense.CollectionName, "category", "amount", spent)
	if err != nil {
		return nil, err
	}
	monthlyIncome, err := s.Repo.MonthlySum(ctx, payment.CollectionName, "paymentDate", "amount", paid)
	if err != nil {
		return nil, err
	}
	monthlyExpenses, err := s.Repo.MonthlySum(ctx, expense.CollectionName, "date", "amount", spent)
	if err != nil {
		return nil, err
	}

	r := &FinancialReport{
		Period:             p,
		TotalIncome:        math.Round(income),
		TotalExpenses:      math.Round(expenses),
		NetIncome:          math.Round(income - expenses),
		ExpenseRatio:       Ratio(expenses, income),
		IncomeByType:       roundAll(byType),
		ExpensesByCategory: roundAll(byCategory),
		MonthlyBreakdown:   map[string]MonthTotals{},
	}
	for month, v := range monthlyIncome {
		t := r.MonthlyBreakdown[month]
		t.Income = math.Round(v)
		r.MonthlyBreakdown[month] = t
	}
	for month, v := range monthlyExpenses {
		t := r.MonthlyBreakdown[month]
		t.Expenses = math.Round(v)
		r.MonthlyBreakdown[month] = t
	}
	return r, nil
}

// Members reports membership totals. Growth compares joins in the window with
// joins in the month before it.
func (s *ReportServiceImpl) Members(ctx context.Context, start, end string) (*MemberReport, error) {
	p, err := s.period(start, end)
	if err != nil {
		return nil, err
	}

	statuses, err := s.Repo.CountBy(ctx, member.CollectionName, "membershipStatus", bson.M{})
	if err != nil {
		return nil, err
	}
	cities, err := s.Repo.CountBy(ctx, member.CollectionName, "primaryAddress.city", bson.M{})
	if err != nil {
		return nil, err
	}
	joined, err := s.Repo.Count(ctx, member.CollectionName, bson.M{"joinDate": bson.M{"$gte": p.Start, "$lte": p.End}})
	if err != nil {
		return nil, err
	}
	before, err := s.Repo.Count(ctx, member.CollectionName, bson.M{"joinDate": bson.M{"$gte": p.Start.AddDate(0, -1, 0), "$lt": p.Start}})
	if err != nil {
		return nil, err
	}

	distribution := map[string]int64{
		string(member.StatusActive):    0,
		string(member.StatusInactive):  0,
		string(member.StatusDeceased):  0,
		string(member.StatusWithdrawn): 0,
	}
	for k, v := range statuses {
		if _, ok := distribution[k]; ok {
			distribution[k] = v
		}
	}
	if n, ok := cities[""]; ok {
		delete(cities, "")
		cities["unspecified"] += n
	}

	return &MemberReport{
		Period:             p,
		TotalMembers:       total(statuses),
		NewMembers:         joined,
		GrowthRate:         Growth(joined, before),
		StatusDistribution: distribution,
		CityDistribution:   cities,
	}, nil
}

func (s *ReportServiceImpl) Vehicles(ctx context.Context) (*VehicleReport, error) {
	usage, err := s.Repo.VehicleUsage(ctx)
	if err != nil {
		return nil, err
	}

	r := &VehicleReport{TotalVehicles: int64(len(usage)), Vehicles: usage}
	statuses := map[string]int64{}
	for _, v := range usage {
		r.TotalTrips += v.TripCount
		r.TotalDistance += v.TotalDistance
		r.TotalMaintenanceCost += v.MaintenanceCost
		statuses[v.Status]++
	}
	if r.TotalTrips > 0 {
		r.AverageTripDistance = math.Round(r.TotalDistance / float64(r.TotalTrips))
	}
	r.StatusCounts = vehicleCounts(statuses)
	r.Utilization = Ratio(float64(r.StatusCounts.InUse), float64(r.TotalVehicles))
	return r, nil
}

func (s *ReportServiceImpl) ExportMembers(ctx context.Context) ([]member.Member, error) {
	members, _, err := s.MemberRepo.List(ctx, bson.M{}, 0, exportLimit)
	return members, err
}

func (s *ReportServiceImpl) ExportFinancial(ctx context.Context, start, end string) (*FinancialExport, error) {
	if start == "" || end == "" {
		return nil, errs.Validation("Please provide startDate and endDate")
	}
	p, err := s.period(start, end)
	if err != nil {
		return nil, err
	}
	window := bson.M{"$gte": p.Start, "$lte": p.End}

	payments, _, err := s.Payments.List(ctx, bson.M{"paymentDate": window}, 0, exportLimit)
	if err != nil {
		return nil, err
	}
	expenses, _, err := s.Expenses.List(ctx, bson.M{"date": window}, 0, exportLimit)
	if err != nil {
		return nil, err
	}
	return &FinancialExport{
		Payments: PaymentExport{Count: len(payments), Records: payments},
		Expenses: ExpenseExport{Count: len(expenses), Records: expenses},
		Period:   p,
	}, nil
}

// period resolves optional bounds; the default runs from January 1st of the
// current year to the end of today.
func (s *ReportServiceImpl) period(start, end string) (Period, error) {
	now := s.Now()
	p := Period{
		Start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()),
		End:   time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), now.Location()),
	}
	var err error
	if start != "" {
		if p.Start, err = query.ParseDate(start); err != nil {
			return Period{}, err
		}
	}
	if end != "" {
		if p.End, err = query.ParseEndDate(end); err != nil {
			return Period{}, err
		}
	}
	if p.End.Before(p.Start) {
		return Period{}, errs.Validation("endDate must not be before startDate")
	}
	return p, nil
}

// Ratio is part/whole as a percentage with one decimal, or 0 for an empty whole.
func Ratio(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(part/whole*1000) / 10
}

// Growth is the percentage change from previous to current. With nothing to
// compare against any growth counts as 100%.
func Growth(current, previous int64) float64 {
	if previous > 0 {
		return Ratio(float64(current-previous), float64(previous))
	}
	if current > 0 {
		return 100
	}
	return 0
}

func total(counts map[string]int64) int64 {
	var n int64
	for _, v := range counts {
		n += v
	}
	return n
}

func vehicleCounts(counts map[string]int64) VehicleCounts {
	return VehicleCounts{
		Total:        total(counts),
		Available:    counts[string(vehicle.StatusAvailable)],
		InUse:        counts[string(vehicle.StatusInUse)],
		Maintenance:  counts[string(vehicle.StatusMaintenance)],
		OutOfService: counts[string(vehicle.StatusOutOfService)],
	}
}

func roundAll(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = math.Round(v)
	}
	return out
}
