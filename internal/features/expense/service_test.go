package expense

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"charity-admin/internal/common/errs"
	common_models "charity-admin/internal/common/models"
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/config"
	"charity-admin/internal/features/file"
	"charity-admin/internal/middleware"
	"charity-admin/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type MockExpenseRepo struct {
	mu       sync.Mutex
	Expenses map[primitive.ObjectID]*Expense
}

func NewMockExpenseRepo() *MockExpenseRepo {
	return &MockExpenseRepo{Expenses: map[primitive.ObjectID]*Expense{}}
}

func (m *MockExpenseRepo) Create(ctx context.Context, e *Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	cp := *e
	m.Expenses[e.ID] = &cp
	return nil
}

func (m *MockExpenseRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.Expenses[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockExpenseRepo) FindDetail(ctx context.Context, id primitive.ObjectID) (*ExpenseDetail, error) {
	e, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ExpenseDetail{Expense: *e}, nil
}

func (m *MockExpenseRepo) List(ctx context.Context, filter bson.M, skip, limit int64) ([]ExpenseDetail, int64, error) {
	return []ExpenseDetail{}, 0, nil
}

func (m *MockExpenseRepo) Update(ctx context.Context, e *Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Expenses[e.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	cp := *e
	m.Expenses[e.ID] = &cp
	return nil
}

func (m *MockExpenseRepo) SetReceipt(ctx context.Context, id primitive.ObjectID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Expenses[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	e.Receipt = url
	return nil
}

func (m *MockExpenseRepo) Decide(ctx context.Context, id primitive.ObjectID, status ApprovalStatus, approver primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Expenses[id]
	if !ok || e.ApprovalStatus != StatusPending {
		return mongo.ErrNoDocuments
	}
	e.ApprovalStatus = status
	e.ApprovedBy = &approver
	e.ApprovedAt = &at
	return nil
}

func (m *MockExpenseRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Expenses, id)
	return nil
}

func (m *MockExpenseRepo) EnsureIndexes(ctx context.Context) error { return nil }

type MockAuditService struct{}

func (m *MockAuditService) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	return nil
}

func (m *MockAuditService) ListLogs(ctx context.Context, filters map[string]interface{}, p pagination.Params) ([]common_models.AuditLog, int64, error) {
	return nil, 0, nil
}

type MockFileService struct{}

func (MockFileService) Upload(ctx context.Context, kind file.UploadKind, module, recordID string, fh *multipart.FileHeader, uploader primitive.ObjectID) (*file.File, error) {
	id := primitive.NewObjectID()
	return &file.File{ID: id, URL: "/api/files/" + id.Hex()}, nil
}

func (MockFileService) Open(ctx context.Context, id string) (*file.File, io.ReadCloser, error) {
	return nil, nil, errs.NotFound("File not found")
}

func (MockFileService) Delete(ctx context.Context, id string) error { return nil }

func (MockFileService) ListByRecord(ctx context.Context, module, recordID string) ([]*file.File, error) {
	return nil, nil
}

func newService() (ExpenseService, *MockExpenseRepo) {
	repo := NewMockExpenseRepo()
	return NewExpenseService(repo, MockFileService{}, &MockAuditService{}, zap.NewNop()), repo
}

func staffContext(id primitive.ObjectID) context.Context {
	return utils.WithClaims(context.Background(), &utils.UserClaims{UserID: id.Hex(), Role: "staff"})
}

func newExpense(amount float64) *Expense {
	e := NewExpense()
	e.Category = "fuel"
	e.Amount = amount
	e.Purpose = "Trip to Jeddah"
	return &e
}

func TestCreateExpenseForcesPendingAndSpender(t *testing.T) {
	svc, _ := newService()
	spender := primitive.NewObjectID()

	e := newExpense(120)
	e.ApprovalStatus = StatusApproved
	created, err := svc.CreateExpense(staffContext(spender), e)
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if created.ApprovalStatus != StatusPending {
		t.Errorf("new expense must be pending, got %q", created.ApprovalStatus)
	}
	if created.SpentBy != spender {
		t.Errorf("spentBy should be the caller")
	}

	if _, err := svc.CreateExpense(staffContext(spender), newExpense(0)); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("zero amount should be rejected, got %v", err)
	}
}

func TestApprovalTransitions(t *testing.T) {
	tests := []struct {
		name    string
		first   func(ExpenseService, context.Context, string) (*Expense, error)
		second  func(ExpenseService, context.Context, string) (*Expense, error)
		outcome ApprovalStatus
	}{
		{"approve then reject", ExpenseService.ApproveExpense, ExpenseService.RejectExpense, StatusApproved},
		{"reject then approve", ExpenseService.RejectExpense, ExpenseService.ApproveExpense, StatusRejected},
		{"approve twice", ExpenseService.ApproveExpense, ExpenseService.ApproveExpense, StatusApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newService()
			admin := primitive.NewObjectID()
			ctx := staffContext(admin)

			e, _ := svc.CreateExpense(ctx, newExpense(50))

			decided, err := tt.first(svc, ctx, e.ID.Hex())
			if err != nil {
				t.Fatalf("first decision failed: %v", err)
			}
			if decided.ApprovedBy == nil || *decided.ApprovedBy != admin || decided.ApprovedAt == nil {
				t.Errorf("approver not recorded: %+v", decided)
			}

			if _, err := tt.second(svc, ctx, e.ID.Hex()); !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("second decision should be refused, got %v", err)
			}
			if got := repo.Expenses[e.ID].ApprovalStatus; got != tt.outcome {
				t.Errorf("status = %q, want %q", got, tt.outcome)
			}
		})
	}

	svc, _ := newService()
	if _, err := svc.ApproveExpense(context.Background(), primitive.NewObjectID().Hex()); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdateCannotChangeApproval(t *testing.T) {
	svc, _ := newService()
	ctx := staffContext(primitive.NewObjectID())
	e, _ := svc.CreateExpense(ctx, newExpense(10))

	updated, err := svc.UpdateExpense(ctx, e.ID.Hex(), []byte(`{"amount":15,"approvalStatus":"approved"}`))
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	if updated.Amount != 15 || updated.ApprovalStatus != StatusPending {
		t.Errorf("unexpected update %+v", updated)
	}
}

type userLoader map[string]*common_models.User

func (u userLoader) FindByID(ctx context.Context, id string) (*common_models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, mongo.ErrNoDocuments
}

type connectedDB struct{}

func (connectedDB) Connected() bool { return true }

func TestOnlyAdminsDecide(t *testing.T) {
	utils.SetSecret("expense-test")
	staff := &common_models.User{ID: primitive.NewObjectID(), Role: common_models.RoleStaff}
	admin := &common_models.User{ID: primitive.NewObjectID(), Role: common_models.RoleAdmin}
	users := userLoader{staff.ID.Hex(): staff, admin.ID.Hex(): admin}

	svc, _ := newService()
	e, _ := svc.CreateExpense(staffContext(staff.ID), newExpense(99))

	guard := middleware.NewGuard(&config.Config{}, users, connectedDB{}, middleware.NewPolicy())
	app := fiber.New()
	NewExpenseApi(NewExpenseController(svc), guard).Setup(app)

	approve := func(u *common_models.User) int {
		token, _ := utils.GenerateToken(u.ID, string(u.Role))
		req := httptest.NewRequest("PUT", "/api/expenses/"+e.ID.Hex()+"/approve", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp.StatusCode
	}

	if got := approve(staff); got != fiber.StatusForbidden {
		t.Errorf("staff approve: status %d, want 403", got)
	}
	if got := approve(admin); got != fiber.StatusOK {
		t.Errorf("admin approve: status %d, want 200", got)
	}
	if got := approve(admin); got != fiber.StatusBadRequest {
		t.Errorf("second approve: status %d, want 400", got)
	}
}
