package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"charity-admin/internal/common/models"
	"charity-admin/internal/config"
	"charity-admin/internal/database"
	"charity-admin/internal/features/audit"
	"charity-admin/internal/features/expense"
	"charity-admin/internal/features/file"
	"charity-admin/internal/features/maintenance"
	"charity-admin/internal/features/member"
	"charity-admin/internal/features/payment"
	"charity-admin/internal/features/trip"
	"charity-admin/internal/features/user"
	"charity-admin/internal/features/vehicle"
	"charity-admin/internal/logger"
	"charity-admin/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var demo = flag.Bool("demo", false, "also create demo members, payments, expenses and fleet records")

type Services struct {
	fx.In

	Users       user.UserRepository
	Members     member.MemberService
	MemberRepo  member.MemberRepository
	Payments    payment.PaymentService
	Expenses    expense.ExpenseService
	Vehicles    vehicle.VehicleService
	Trips       trip.TripService
	Maintenance maintenance.MaintenanceService
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Seed creates the first administrator and, with -demo, a small data set
// that goes through the same services as the API.
func Seed(lc fx.Lifecycle, db *database.MongodbDB, s Services, log *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				code := 0
				defer func() {
					if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
						log.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				if !db.Connected() {
					log.Error("Database is not connected, nothing seeded")
					code = 1
					return
				}

				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				defer cancel()

				admin, err := seedAdmin(ctx, s.Users, log)
				if err != nil {
					log.Error("Failed to seed admin", zap.Error(err))
					code = 1
					return
				}
				if !*demo {
					return
				}

				ctx = utils.WithClaims(ctx, &utils.UserClaims{UserID: admin.ID.Hex(), Role: string(admin.Role)})
				if err := seedDemo(ctx, s, log); err != nil {
					log.Error("Failed to seed demo data", zap.Error(err))
					code = 1
				}
			}()
			return nil
		},
	})
}

func seedAdmin(ctx context.Context, users user.UserRepository, log *zap.Logger) (*models.User, error) {
	email := getEnv("SEED_ADMIN_EMAIL", "admin@charity.local")
	existing, err := users.FindByEmail(ctx, email)
	if err == nil {
		log.Info("Admin exists, skipping", zap.String("email", email))
		return existing, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "ChangeMe123!"
		log.Warn("SEED_ADMIN_PASSWORD not set, using the default password; change it after the first login")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	admin := &models.User{
		Username:  getEnv("SEED_ADMIN_USERNAME", "admin"),
		FullName:  "System Administrator",
		Email:     email,
		Password:  hash,
		Role:      models.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, err
	}
	log.Info("Admin created", zap.String("email", email), zap.String("username", admin.Username))
	return admin, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedDemo(ctx context.Context, s Services, log *zap.Logger) error {
	ids, err := s.MemberRepo.IDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		log.Info("Members exist, skipping demo data", zap.Int("members", len(ids)))
		return nil
	}

	now := time.Now()
	people := []struct {
		first, last, nationalID, city string
		status                        member.MembershipStatus
	}{
		{"Ali", "Saleh", "1000000001", "Riyadh", member.StatusActive},
		{"Fatimah", "Omar", "1000000002", "Jeddah", member.StatusActive},
		{"Khalid", "Nasser", "1000000003", "Riyadh", member.StatusInactive},
	}
	var members []*member.Member
	for i, p := range people {
		m, err := s.Members.CreateMember(ctx, &member.Member{
			FullName:         models.PersonName{First: p.first, Last: p.last},
			DateOfBirth:      date(1970+i*7, time.March, 10),
			NationalID:       p.nationalID,
			Contact:          member.Contact{Phone: fmt.Sprintf("+9665000000%02d", i+1)},
			PrimaryAddress:   member.Address{Street: "King Fahd Road", City: p.city},
			MembershipStatus: p.status,
			JoinDate:         now.AddDate(0, -i*3, 0),
		})
		if err != nil {
			return err
		}
		members = append(members, m)
	}

	for i, m := range members {
		pay := payment.NewPayment()
		pay.Member = m.ID
		pay.Amount = float64(500 * (i + 1))
		pay.PaymentMethod = "cash"
		pay.PaymentType = "subscription"
		pay.PaymentDate = now.AddDate(0, 0, -i*10)
		if _, err := s.Payments.CreatePayment(ctx, &pay); err != nil {
			return err
		}
	}

	exp := expense.NewExpense()
	exp.Category = "aid"
	exp.Amount = 750
	exp.Purpose = "Food baskets"
	created, err := s.Expenses.CreateExpense(ctx, &exp)
	if err != nil {
		return err
	}
	if _, err := s.Expenses.ApproveExpense(ctx, created.ID.Hex()); err != nil {
		return err
	}

	registration := now.AddDate(0, 0, 20)
	v := vehicle.NewVehicle()
	v.Make = "Toyota"
	v.Model = "Hiace"
	v.Year = 2021
	v.LicensePlate = "ABC 1234"
	v.CurrentOdometer = 42000
	v.RegistrationExpiry = &registration
	bus, err := s.Vehicles.CreateVehicle(ctx, &v)
	if err != nil {
		return err
	}

	start := bus.CurrentOdometer
	t := trip.NewTrip()
	t.Vehicle = bus.ID
	t.StartDate = now.AddDate(0, 0, -2)
	t.Purpose = "Food basket delivery"
	t.StartOdometer = &start
	t.Passengers = []primitive.ObjectID{members[0].ID}
	delivery, err := s.Trips.CreateTrip(ctx, &t)
	if err != nil {
		return err
	}
	end := start + 86
	if _, err := s.Trips.CompleteTrip(ctx, delivery.ID.Hex(), trip.CompleteRequest{EndOdometer: &end}); err != nil {
		return err
	}

	if _, err := s.Maintenance.CreateMaintenance(ctx, &maintenance.Maintenance{
		Vehicle:         bus.ID,
		MaintenanceType: maintenance.TypeInspection,
		Date:            now.AddDate(0, 0, -1),
		Description:     "Annual inspection",
		Cost:            300,
		ServiceProvider: "City Garage",
	}); err != nil {
		return err
	}

	log.Info("Demo data created", zap.Int("members", len(members)), zap.String("vehicle", bus.LicensePlate))
	return nil
}

func main() {
	flag.Parse()

	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			database.NewDatabase,
			logger.NewLogger,

			user.NewUserRepository,
			audit.NewAuditRepository,
			file.NewFileRepository,
			file.NewStorage,
			member.NewMemberRepository,
			payment.NewPaymentRepository,
			expense.NewExpenseRepository,
			vehicle.NewVehicleRepository,
			trip.NewTripRepository,
			maintenance.NewMaintenanceRepository,

			func(db *database.MongodbDB) database.Transactor { return db },
			func(r user.UserRepository) audit.UserFinder { return r },
			func() audit.Publisher { return nil },
			func(r member.MemberRepository) payment.MemberRecords { return r },
			func(r vehicle.VehicleRepository) trip.Vehicles { return r },
			func(r vehicle.VehicleRepository) maintenance.Vehicles { return r },

			audit.NewAuditService,
			file.NewFileService,
			member.NewMemberService,
			payment.NewPaymentService,
			expense.NewExpenseService,
			vehicle.NewVehicleService,
			trip.NewTripService,
			maintenance.NewMaintenanceService,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
