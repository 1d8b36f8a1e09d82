package cron_feature

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"charity-admin/internal/common/errs"
	common_models "charity-admin/internal/common/models"
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/config"
	"charity-admin/internal/features/vehicle"
	"charity-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockCronRepo struct {
	Runs []*JobRun
}

func (m *MockCronRepo) CreateRun(ctx context.Context, run *JobRun) error {
	run.ID = primitive.NewObjectID()
	m.Runs = append(m.Runs, run)
	return nil
}

func (m *MockCronRepo) UpdateRun(ctx context.Context, run *JobRun) error { return nil }

func (m *MockCronRepo) ListRuns(ctx context.Context, job string, limit int64) ([]JobRun, error) {
	out := []JobRun{}
	for _, r := range m.Runs {
		if job == "" || r.Job == job {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *MockCronRepo) EnsureIndexes(ctx context.Context) error { return nil }

type MockPayments struct {
	byMember map[primitive.ObjectID][]primitive.ObjectID
}

func (m *MockPayments) IDsByMember(ctx context.Context) (map[primitive.ObjectID][]primitive.ObjectID, error) {
	return m.byMember, nil
}

type MockMembers struct {
	records map[primitive.ObjectID][]primitive.ObjectID
	fail    bool
	// afterRead runs once the records have been read.
	afterRead func()
}

func (m *MockMembers) PaymentRecords(ctx context.Context) (map[primitive.ObjectID][]primitive.ObjectID, error) {
	out := make(map[primitive.ObjectID][]primitive.ObjectID, len(m.records))
	for id, ids := range m.records {
		out[id] = append([]primitive.ObjectID(nil), ids...)
	}
	if m.afterRead != nil {
		m.afterRead()
	}
	return out, nil
}

func (m *MockMembers) AddPaymentRecords(ctx context.Context, memberID primitive.ObjectID, paymentIDs []primitive.ObjectID) error {
	if m.fail {
		return errors.New("write failed")
	}
	m.records[memberID] = append(m.records[memberID], paymentIDs...)
	return nil
}

func (m *MockMembers) PullPaymentRecords(ctx context.Context, memberID primitive.ObjectID, paymentIDs []primitive.ObjectID) error {
	if m.fail {
		return errors.New("write failed")
	}
	drop := map[primitive.ObjectID]bool{}
	for _, id := range paymentIDs {
		drop[id] = true
	}
	kept := []primitive.ObjectID{}
	for _, id := range m.records[memberID] {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	m.records[memberID] = kept
	return nil
}

type MockVehicles struct {
	vehicles []vehicle.Vehicle
	deadline time.Time
}

func (m *MockVehicles) ExpiringBefore(ctx context.Context, deadline time.Time) ([]vehicle.Vehicle, error) {
	m.deadline = deadline
	return m.vehicles, nil
}

type MockAuditService struct {
	Entries []string
}

func (m *MockAuditService) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	m.Entries = append(m.Entries, module)
	return nil
}

func (m *MockAuditService) ListLogs(ctx context.Context, filters map[string]interface{}, p pagination.Params) ([]common_models.AuditLog, int64, error) {
	return nil, 0, nil
}

type connectedDB struct{}

func (connectedDB) Connected() bool { return true }

var now = time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

func newService(members *MockMembers, payments *MockPayments, vehicles *MockVehicles) (*CronServiceImpl, *MockCronRepo, *MockAuditService) {
	repo := &MockCronRepo{}
	audits := &MockAuditService{}
	svc := NewCronService(repo, payments, members, vehicles, audits, Schedules{Reconcile: "0 2 * * *", Expiry: "0 7 * * *", ExpiryWarningDays: 30}, zap.NewNop()).(*CronServiceImpl)
	svc.Now = func() time.Time { return now }
	return svc, repo, audits
}

func TestReconcilePayments(t *testing.T) {
	alice, bob, carol, gone := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	p1, p2, p3, p4 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	members := &MockMembers{records: map[primitive.ObjectID][]primitive.ObjectID{
		alice: {p1},
		bob:   {p3},
		carol: {p4},
	}}
	payments := &MockPayments{byMember: map[primitive.ObjectID][]primitive.ObjectID{
		alice: {p1, p2},
		carol: {p4},
		gone:  {p3},
	}}
	svc, repo, audits := newService(members, payments, &MockVehicles{})

	run, err := svc.Run(context.Background(), JobReconcilePayments, true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.Status != RunSuccess || run.Processed != 3 || run.Affected != 2 || !run.Manual {
		t.Errorf("unexpected run %+v", run)
	}
	if len(members.records[alice]) != 2 {
		t.Errorf("alice records = %v", members.records[alice])
	}
	if len(members.records[bob]) != 0 {
		t.Errorf("bob's stale record should be cleared, got %v", members.records[bob])
	}
	if len(members.records[carol]) != 1 {
		t.Errorf("carol's records should be untouched, got %v", members.records[carol])
	}
	if len(repo.Runs) != 1 || len(audits.Entries) != 1 || audits.Entries[0] != CollectionName {
		t.Errorf("run not recorded: runs=%d audits=%v", len(repo.Runs), audits.Entries)
	}
}

func TestReconcileKeepsPaymentsRecordedDuringRun(t *testing.T) {
	alice := primitive.NewObjectID()
	p1, late := primitive.NewObjectID(), primitive.NewObjectID()

	members := &MockMembers{records: map[primitive.ObjectID][]primitive.ObjectID{alice: {}}}
	members.afterRead = func() {
		members.records[alice] = append(members.records[alice], late)
	}
	payments := &MockPayments{byMember: map[primitive.ObjectID][]primitive.ObjectID{alice: {p1}}}
	svc, _, _ := newService(members, payments, &MockVehicles{})

	if _, _, err := svc.reconcilePayments(context.Background()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	got := map[primitive.ObjectID]bool{}
	for _, id := range members.records[alice] {
		got[id] = true
	}
	if !got[p1] || !got[late] || len(got) != 2 {
		t.Errorf("records = %v, want %s and %s", members.records[alice], p1.Hex(), late.Hex())
	}
}

func TestDiffIDs(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	tests := []struct {
		name        string
		current     []primitive.ObjectID
		want        []primitive.ObjectID
		wantMissing int
		wantStale   int
	}{
		{"in sync", []primitive.ObjectID{a, b}, []primitive.ObjectID{b, a}, 0, 0},
		{"missing", []primitive.ObjectID{a}, []primitive.ObjectID{a, b, c}, 2, 0},
		{"stale", []primitive.ObjectID{a, b}, nil, 0, 2},
		{"both", []primitive.ObjectID{a}, []primitive.ObjectID{b}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missing, stale := diffIDs(tt.current, tt.want)
			if len(missing) != tt.wantMissing || len(stale) != tt.wantStale {
				t.Errorf("diffIDs() = %v, %v", missing, stale)
			}
		})
	}
}

func TestFailedRunIsRecorded(t *testing.T) {
	alice := primitive.NewObjectID()
	members := &MockMembers{records: map[primitive.ObjectID][]primitive.ObjectID{alice: {primitive.NewObjectID()}}, fail: true}
	svc, repo, _ := newService(members, &MockPayments{}, &MockVehicles{})

	run, err := svc.Run(context.Background(), JobReconcilePayments, false)
	if err == nil {
		t.Fatal("expected an error")
	}
	if run == nil || run.Status != RunFailed || run.Error == "" || run.EndTime == nil {
		t.Errorf("unexpected run %+v", run)
	}
	if len(repo.Runs) != 1 {
		t.Errorf("failed run should still be stored")
	}
}

func TestVehicleExpiry(t *testing.T) {
	soon := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -3)
	later := now.AddDate(1, 0, 0)
	vehicles := &MockVehicles{vehicles: []vehicle.Vehicle{
		{ID: primitive.NewObjectID(), LicensePlate: "ABC 123", RegistrationExpiry: &soon, InsuranceExpiry: &later},
		{ID: primitive.NewObjectID(), LicensePlate: "XYZ 789", InsuranceExpiry: &past},
	}}
	svc, _, audits := newService(&MockMembers{}, &MockPayments{}, vehicles)

	run, err := svc.Run(context.Background(), JobVehicleExpiry, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !vehicles.deadline.Equal(now.AddDate(0, 0, 30)) {
		t.Errorf("deadline = %v", vehicles.deadline)
	}
	if run.Affected != 2 {
		t.Errorf("affected = %d, want 2", run.Affected)
	}
	vehicleAudits := 0
	for _, module := range audits.Entries {
		if module == vehicle.CollectionName {
			vehicleAudits++
		}
	}
	if vehicleAudits != 2 {
		t.Errorf("expected one audit entry per vehicle, got %v", audits.Entries)
	}
}

func TestUnknownJob(t *testing.T) {
	svc, _, _ := newService(&MockMembers{}, &MockPayments{}, &MockVehicles{})
	if _, err := svc.Run(context.Background(), "nope", true); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.ListRuns(context.Background(), "nope", 10); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	svc := NewCronService(&MockCronRepo{}, &MockPayments{}, &MockMembers{}, &MockVehicles{}, &MockAuditService{}, Schedules{Reconcile: "every day", Expiry: ""}, zap.NewNop())
	if err := svc.Start(); err == nil {
		svc.Stop()
		t.Fatal("expected an invalid schedule to fail")
	}
}

func TestStartListsNextRuns(t *testing.T) {
	svc, _, _ := newService(&MockMembers{}, &MockPayments{}, &MockVehicles{})
	if err := svc.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer svc.Stop()

	jobs := svc.Jobs()
	if len(jobs) != 2 || jobs[0].Name != JobReconcilePayments || jobs[1].Name != JobVehicleExpiry {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
	for _, j := range jobs {
		if j.NextRun == nil {
			t.Errorf("%s has no next run", j.Name)
		}
	}
}

func TestSchedulerLogsGoThroughZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := zapCronLogger{zap.New(core).Sugar()}

	l.Error(errors.New("boom"), "panic", "stack", "trace")
	l.Info("schedule", "entry", 1)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Level != zap.ErrorLevel || entries[0].ContextMap()["error"] != "boom" {
		t.Errorf("unexpected error entry %+v", entries[0])
	}
	if entries[1].Level != zap.DebugLevel || entries[1].Message != "cron: schedule" {
		t.Errorf("unexpected info entry %+v", entries[1])
	}
}

func TestRunJobOverHTTP(t *testing.T) {
	members := &MockMembers{records: map[primitive.ObjectID][]primitive.ObjectID{}}
	svc, _, _ := newService(members, &MockPayments{}, &MockVehicles{})
	guard := middleware.NewGuard(&config.Config{SkipAuth: true}, nil, connectedDB{}, middleware.NewPolicy())
	app := fiber.New()
	NewCronApi(NewCronController(svc), guard).Setup(app)

	resp, _ := app.Test(httptest.NewRequest("POST", "/api/cron/jobs/"+JobReconcilePayments+"/run", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body struct {
		Success bool   `json:"success"`
		Data    JobRun `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.Data.Job != JobReconcilePayments || body.Data.Status != RunSuccess {
		t.Errorf("unexpected body %+v", body)
	}

	resp, _ = app.Test(httptest.NewRequest("POST", "/api/cron/jobs/nope/run", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("unknown job: status %d, want 404", resp.StatusCode)
	}
}
