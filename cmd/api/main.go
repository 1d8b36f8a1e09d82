package main

import (
	"context"
	"fmt"
	"time"

	_ "charity-admin/docs" // Import swagger docs
	common_api "charity-admin/internal/common/api"
	"charity-admin/internal/common/response"
	"charity-admin/internal/config"
	"charity-admin/internal/database"
	"charity-admin/internal/features/activity"
	"charity-admin/internal/features/audit"
	"charity-admin/internal/features/auth"
	cron_feature "charity-admin/internal/features/cron"
	"charity-admin/internal/features/expense"
	"charity-admin/internal/features/file"
	"charity-admin/internal/features/maintenance"
	"charity-admin/internal/features/member"
	"charity-admin/internal/features/payment"
	"charity-admin/internal/features/pdf"
	"charity-admin/internal/features/report"
	"charity-admin/internal/features/system"
	"charity-admin/internal/features/trip"
	"charity-admin/internal/features/user"
	"charity-admin/internal/features/vehicle"
	"charity-admin/internal/logger"
	"charity-admin/internal/middleware"
	"charity-admin/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Uploads are capped at 10 MB per file; the body limit leaves room for the form.
const bodyLimit = 11 * 1024 * 1024

// NewFiberServer creates the Fiber app with the global middleware chain.
func NewFiberServer(cfg *config.Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return response.Error(c, err)
		},
	})

	middleware.Setup(app, cfg, log)

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup() on every member of the "routes" group and
// answers unknown paths with the failure envelope.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, log *zap.Logger) {
	for _, route := range routes {
		log.Debug("Setting up route", zap.String("api", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
	app.Use(func(c *fiber.Ctx) error {
		return response.Fail(c, fiber.StatusNotFound, "Route not found")
	})
	log.Info("All routes registered", zap.Int("apis", len(routes)))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, log *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				log.Info("Server listening", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
				if err := app.Listen(port); err != nil {
					log.Error("Server failed to start", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

// ConfigureRuntime pushes settings into the packages that keep process-wide state.
func ConfigureRuntime(cfg *config.Config) {
	utils.SetSecret(cfg.JWTSecret)
	utils.SetExpiry(cfg.JWTExpire)
	response.SetExposeErrors(!cfg.IsProduction())
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

type Indexes struct {
	fx.In

	Users       user.UserRepository
	Files       file.FileRepository
	Members     member.MemberRepository
	Payments    payment.PaymentRepository
	Expenses    expense.ExpenseRepository
	Vehicles    vehicle.VehicleRepository
	Trips       trip.TripRepository
	Maintenance maintenance.MaintenanceRepository
	CronRuns    cron_feature.CronRepository
}

type connectNotifier interface {
	OnConnect(fn func())
}

// InitializeIndexes ensures that necessary database indexes are created.
// Unique indexes back the duplicate checks, so failures are logged loudly.
func InitializeIndexes(lc fx.Lifecycle, db *database.MongodbDB, repos Indexes, log *zap.Logger) {
	ensureIndexesOnConnect(lc, db, map[string]indexer{
		"users":       repos.Users,
		"files":       repos.Files,
		"members":     repos.Members,
		"payments":    repos.Payments,
		"expenses":    repos.Expenses,
		"vehicles":    repos.Vehicles,
		"trips":       repos.Trips,
		"maintenance": repos.Maintenance,
		"cron_runs":   repos.CronRuns,
	}, log)
}

// ensureIndexesOnConnect builds the indexes as soon as the database is
// reachable, which in degraded mode is after a successful reconnect.
func ensureIndexesOnConnect(lc fx.Lifecycle, db connectNotifier, named map[string]indexer, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			db.OnConnect(func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				for name, repo := range named {
					if err := repo.EnsureIndexes(ctx); err != nil {
						log.Error("Failed to ensure indexes", zap.String("collection", name), zap.Error(err))
					}
				}
				log.Info("Indexes ensured", zap.Int("collections", len(named)))
			})
			return nil
		},
	})
}

func StartScheduler(lc fx.Lifecycle, cronService cron_feature.CronService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return cronService.Start()
		},
		OnStop: func(ctx context.Context) error {
			cronService.Stop()
			return nil
		},
	})
}

func schedules(cfg *config.Config) cron_feature.Schedules {
	return cron_feature.Schedules{
		Reconcile:         cfg.CronReconcile,
		Expiry:            cfg.CronExpiry,
		ExpiryWarningDays: cfg.ExpiryWarningDays,
	}
}

// @title           Charity Association Management API
// @version         1.0
// @description     Members, payments, expenses, fleet and reports for a charity association.

// @host            localhost:5000
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			database.NewDatabase,
			logger.NewLogger,
			NewFiberServer,

			// Repositories
			user.NewUserRepository,
			audit.NewAuditRepository,
			file.NewFileRepository,
			member.NewMemberRepository,
			payment.NewPaymentRepository,
			expense.NewExpenseRepository,
			vehicle.NewVehicleRepository,
			trip.NewTripRepository,
			maintenance.NewMaintenanceRepository,
			report.NewReportRepository,
			cron_feature.NewCronRepository,
			file.NewStorage,

			// Middleware
			middleware.NewPolicy,
			middleware.NewGuard,
			activity.NewHub,

			// Interface adapters
			func(db *database.MongodbDB) middleware.StatusChecker { return db },
			func(db *database.MongodbDB) database.Transactor { return db },
			func(r user.UserRepository) middleware.UserLoader { return r },
			func(r user.UserRepository) audit.UserFinder { return r },
			func(h *activity.Hub) audit.Publisher { return h },
			func(r member.MemberRepository) payment.MemberRecords { return r },
			func(r member.MemberRepository) report.MemberLister { return r },
			func(r member.MemberRepository) cron_feature.MemberRecords { return r },
			func(r payment.PaymentRepository) report.PaymentLister { return r },
			func(r payment.PaymentRepository) cron_feature.PaymentIndex { return r },
			func(r expense.ExpenseRepository) report.ExpenseLister { return r },
			func(r trip.TripRepository) report.TripLister { return r },
			func(r vehicle.VehicleRepository) trip.Vehicles { return r },
			func(r vehicle.VehicleRepository) maintenance.Vehicles { return r },
			func(r vehicle.VehicleRepository) cron_feature.ExpiringVehicles { return r },
			schedules,

			// Services
			audit.NewAuditService,
			auth.NewAuthService,
			user.NewUserService,
			file.NewFileService,
			member.NewMemberService,
			payment.NewPaymentService,
			expense.NewExpenseService,
			vehicle.NewVehicleService,
			trip.NewTripService,
			maintenance.NewMaintenanceService,
			report.NewReportService,
			cron_feature.NewCronService,
			func(reports report.ReportService, cfg *config.Config, log *zap.Logger) pdf.PDFService {
				return pdf.NewPDFService(reports, cfg.AppName, cfg.Currency, cfg.PDFFont, log)
			},

			// Controllers
			auth.NewAuthController,
			user.NewUserController,
			audit.NewAuditController,
			activity.NewActivityController,
			file.NewFileController,
			member.NewMemberController,
			payment.NewPaymentController,
			expense.NewExpenseController,
			vehicle.NewVehicleController,
			trip.NewTripController,
			maintenance.NewMaintenanceController,
			report.NewReportController,
			pdf.NewPDFController,
			cron_feature.NewCronController,
			system.NewSystemController,

			// API routes
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(activity.NewActivityApi),
			AsRoute(file.NewFileApi),
			AsRoute(member.NewMemberApi),
			AsRoute(payment.NewPaymentApi),
			AsRoute(expense.NewExpenseApi),
			AsRoute(vehicle.NewVehicleApi),
			AsRoute(trip.NewTripApi),
			AsRoute(maintenance.NewMaintenanceApi),
			AsRoute(report.NewReportApi),
			AsRoute(pdf.NewPDFApi),
			AsRoute(cron_feature.NewCronApi),
			AsRoute(system.NewSystemApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			ConfigureRuntime,
			RegisterAllRoutesWithAnnotation,
			InitializeIndexes,
			StartScheduler,
			StartServer,
		),
	)

	app.Run()
}
