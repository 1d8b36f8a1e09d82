package cron_feature

import (
	"context"
	"fmt"
	"sync"
	"time"

	"charity-admin/internal/common/errs"
	common_models "charity-admin/internal/common/models"
	"charity-admin/internal/features/audit"
	"charity-admin/internal/features/vehicle"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	jobTimeout      = 10 * time.Minute
	defaultRunLimit = 50
)

// PaymentIndex groups payment ids by member.
type PaymentIndex interface {
	IDsByMember(ctx context.Context) (map[primitive.ObjectID][]primitive.ObjectID, error)
}

// MemberRecords reads and patches members' paymentRecords.
type MemberRecords interface {
	PaymentRecords(ctx context.Context) (map[primitive.ObjectID][]primitive.ObjectID, error)
	AddPaymentRecords(ctx context.Context, memberID primitive.ObjectID, paymentIDs []primitive.ObjectID) error
	PullPaymentRecords(ctx context.Context, memberID primitive.ObjectID, paymentIDs []primitive.ObjectID) error
}

type ExpiringVehicles interface {
	ExpiringBefore(ctx context.Context, deadline time.Time) ([]vehicle.Vehicle, error)
}

type Schedules struct {
	Reconcile         string
	Expiry            string
	ExpiryWarningDays int
}

type CronService interface {
	Start() error
	Stop()
	Jobs() []Job
	Run(ctx context.Context, name string, manual bool) (*JobRun, error)
	ListRuns(ctx context.Context, job string, limit int64) ([]JobRun, error)
}

type jobFunc func(ctx context.Context) (processed, affected int, err error)

type jobDef struct {
	description string
	schedule    string
	run         jobFunc
}

type CronServiceImpl struct {
	Repo         CronRepository
	Payments     PaymentIndex
	Members      MemberRecords
	Vehicles     ExpiringVehicles
	AuditService audit.AuditService
	Logger       *zap.Logger
	WarningDays  int
	Now          func() time.Time

	jobs      map[string]jobDef
	order     []string
	scheduler *cron.Cron
	entries   map[string]cron.EntryID
	mu        sync.Mutex
}

func NewCronService(
	repo CronRepository,
	payments PaymentIndex,
	members MemberRecords,
	vehicles ExpiringVehicles,
	auditService audit.AuditService,
	schedules Schedules,
	logger *zap.Logger,
) CronService {
	s := &CronServiceImpl{
		Repo:         repo,
		Payments:     payments,
		Members:      members,
		Vehicles:     vehicles,
		AuditService: auditService,
		Logger:       logger,
		WarningDays:  schedules.ExpiryWarningDays,
		Now:          time.Now,
		entries:      make(map[string]cron.EntryID),
	}
	s.register(JobReconcilePayments, "Rebuild every member's payment records from the payments collection", schedules.Reconcile, s.reconcilePayments)
	s.register(JobVehicleExpiry, "Report vehicles whose registration or insurance is about to expire", schedules.Expiry, s.vehicleExpiry)
	return s
}

func (s *CronServiceImpl) register(name, description, schedule string, run jobFunc) {
	if s.jobs == nil {
		s.jobs = make(map[string]jobDef)
	}
	s.jobs[name] = jobDef{description: description, schedule: schedule, run: run}
	s.order = append(s.order, name)
}

// Start schedules every job with a non-empty schedule. An invalid
// expression fails startup.
func (s *CronServiceImpl) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := zapCronLogger{s.Logger.Sugar()}
	s.scheduler = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	for _, name := range s.order {
		def := s.jobs[name]
		if def.schedule == "" {
			s.Logger.Info("cron job disabled", zap.String("job", name))
			continue
		}
		name := name
		id, err := s.scheduler.AddFunc(def.schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			_, _ = s.Run(ctx, name, false)
		})
		if err != nil {
			return fmt.Errorf("schedule %s: %w", name, err)
		}
		s.entries[name] = id
	}
	s.scheduler.Start()
	s.Logger.Info("cron scheduler started", zap.Int("jobs", len(s.entries)))
	return nil
}

// Stop waits for running jobs to finish.
func (s *CronServiceImpl) Stop() {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()
	if scheduler == nil {
		return
	}
	<-scheduler.Stop().Done()
	s.Logger.Info("cron scheduler stopped")
}

func (s *CronServiceImpl) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]Job, 0, len(s.order))
	for _, name := range s.order {
		def := s.jobs[name]
		job := Job{Name: name, Description: def.description, Schedule: def.schedule}
		if id, ok := s.entries[name]; ok && s.scheduler != nil {
			next := s.scheduler.Entry(id).Next
			if !next.IsZero() {
				job.NextRun = &next
			}
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// Run executes a job now and records the outcome.
func (s *CronServiceImpl) Run(ctx context.Context, name string, manual bool) (*JobRun, error) {
	def, ok := s.jobs[name]
	if !ok {
		return nil, errs.NotFound("Job not found")
	}

	run := &JobRun{Job: name, Manual: manual, Status: RunRunning, StartTime: s.Now()}
	if err := s.Repo.CreateRun(ctx, run); err != nil {
		s.Logger.Warn("cron run not recorded", zap.String("job", name), zap.Error(err))
	}

	processed, affected, err := def.run(ctx)
	end := s.Now()
	run.EndTime = &end
	run.Processed = processed
	run.Affected = affected
	run.Status = RunSuccess
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
		s.Logger.Error("cron job failed", zap.String("job", name), zap.Error(err))
	} else {
		s.Logger.Info("cron job finished", zap.String("job", name), zap.Int("processed", processed), zap.Int("affected", affected), zap.Duration("took", end.Sub(run.StartTime)))
	}

	if uerr := s.Repo.UpdateRun(ctx, run); uerr != nil {
		s.Logger.Warn("cron run not updated", zap.String("job", name), zap.Error(uerr))
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCron, CollectionName, run.ID.Hex(), map[string]common_models.Change{
		"job":      {New: name},
		"status":   {New: run.Status},
		"affected": {New: affected},
	})
	return run, err
}

func (s *CronServiceImpl) ListRuns(ctx context.Context, job string, limit int64) ([]JobRun, error) {
	if job != "" {
		if _, ok := s.jobs[job]; !ok {
			return nil, errs.NotFound("Job not found")
		}
	}
	if limit <= 0 || limit > 500 {
		limit = defaultRunLimit
	}
	return s.Repo.ListRuns(ctx, job, limit)
}

// zapCronLogger routes scheduler messages, including recovered job panics,
// into the application logger.
type zapCronLogger struct {
	log *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

// reconcilePayments makes every member's paymentRecords match the payments
// that reference it. Members are read before payments, and only the
// difference is written, so ids pushed by payments created during the run
// are never dropped.
func (s *CronServiceImpl) reconcilePayments(ctx context.Context) (int, int, error) {
	records, err := s.Members.PaymentRecords(ctx)
	if err != nil {
		return 0, 0, err
	}
	byMember, err := s.Payments.IDsByMember(ctx)
	if err != nil {
		return 0, 0, err
	}

	affected := 0
	for memberID, current := range records {
		missing, stale := diffIDs(current, byMember[memberID])
		if len(missing) == 0 && len(stale) == 0 {
			continue
		}
		if len(missing) > 0 {
			if err := s.Members.AddPaymentRecords(ctx, memberID, missing); err != nil {
				return len(records), affected, fmt.Errorf("member %s: %w", memberID.Hex(), err)
			}
		}
		if len(stale) > 0 {
			if err := s.Members.PullPaymentRecords(ctx, memberID, stale); err != nil {
				return len(records), affected, fmt.Errorf("member %s: %w", memberID.Hex(), err)
			}
		}
		s.Logger.Debug("payment records repaired", zap.String("memberId", memberID.Hex()), zap.Int("added", len(missing)), zap.Int("removed", len(stale)))
		affected++
	}

	orphans := 0
	for memberID, payments := range byMember {
		if _, ok := records[memberID]; !ok {
			orphans += len(payments)
		}
	}
	if orphans > 0 {
		s.Logger.Warn("payments reference missing members", zap.Int("payments", orphans))
	}
	return len(records), affected, nil
}

// diffIDs returns the ids in want that current lacks and the ids in current
// that want lacks.
func diffIDs(current, want []primitive.ObjectID) (missing, stale []primitive.ObjectID) {
	have := make(map[primitive.ObjectID]bool, len(current))
	for _, id := range current {
		have[id] = true
	}
	wanted := make(map[primitive.ObjectID]bool, len(want))
	for _, id := range want {
		wanted[id] = true
		if !have[id] {
			missing = append(missing, id)
		}
	}
	for _, id := range current {
		if !wanted[id] {
			stale = append(stale, id)
		}
	}
	return missing, stale
}

func (s *CronServiceImpl) vehicleExpiry(ctx context.Context) (int, int, error) {
	now := s.Now()
	deadline := now.AddDate(0, 0, s.WarningDays)
	vehicles, err := s.Vehicles.ExpiringBefore(ctx, deadline)
	if err != nil {
		return 0, 0, err
	}

	for _, v := range vehicles {
		changes := map[string]common_models.Change{}
		if v.RegistrationExpiry != nil && !v.RegistrationExpiry.After(deadline) {
			changes["registrationExpiry"] = common_models.Change{New: *v.RegistrationExpiry}
		}
		if v.InsuranceExpiry != nil && !v.InsuranceExpiry.After(deadline) {
			changes["insuranceExpiry"] = common_models.Change{New: *v.InsuranceExpiry}
		}
		for field, c := range changes {
			state := "expires soon"
			if c.New.(time.Time).Before(now) {
				state = "expired"
			}
			s.Logger.Warn("vehicle "+state, zap.String("vehicleId", v.ID.Hex()), zap.String("licensePlate", v.LicensePlate), zap.String("field", field), zap.Time("on", c.New.(time.Time)))
		}
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionCron, vehicle.CollectionName, v.ID.Hex(), changes)
	}
	return len(vehicles), len(vehicles), nil
}
