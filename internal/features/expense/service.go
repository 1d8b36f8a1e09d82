package expense

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"time"

	"charity-admin/internal/common/errs"
	common_models "charity-admin/internal/common/models"
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/query"
	"charity-admin/internal/common/validation"
	"charity-admin/internal/features/audit"
	"charity-admin/internal/features/file"
	"charity-admin/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ExpenseService interface {
	ListExpenses(ctx context.Context, filter ExpenseFilter, p pagination.Params) ([]ExpenseDetail, int64, error)
	GetExpense(ctx context.Context, id string) (*ExpenseDetail, error)
	CreateExpense(ctx context.Context, e *Expense) (*Expense, error)
	UpdateExpense(ctx context.Context, id string, body []byte) (*Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	ApproveExpense(ctx context.Context, id string) (*Expense, error)
	RejectExpense(ctx context.Context, id string) (*Expense, error)
	UploadReceipt(ctx context.Context, id string, fh *multipart.FileHeader) (*Expense, error)
}

type ExpenseServiceImpl struct {
	Repo         ExpenseRepository
	Files        file.FileService
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewExpenseService(repo ExpenseRepository, files file.FileService, auditService audit.AuditService, logger *zap.Logger) ExpenseService {
	return &ExpenseServiceImpl{
		Repo:         repo,
		Files:        files,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *ExpenseServiceImpl) ListExpenses(ctx context.Context, filter ExpenseFilter, p pagination.Params) ([]ExpenseDetail, int64, error) {
	q := bson.M{}
	if filter.Category != "" {
		q["category"] = filter.Category
	}
	if filter.ApprovalStatus != "" {
		q["approvalStatus"] = filter.ApprovalStatus
	}
	dates, err := query.DateRange(filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, 0, err
	}
	if dates != nil {
		q["date"] = dates
	}
	return s.Repo.List(ctx, q, p.Skip(), p.Limit)
}

func (s *ExpenseServiceImpl) GetExpense(ctx context.Context, id string) (*ExpenseDetail, error) {
	oid, err := query.ObjectID(id, "Expense")
	if err != nil {
		return nil, err
	}
	e, err := s.Repo.FindDetail(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// CreateExpense records an expense spent by the caller. New expenses always
// start pending.
func (s *ExpenseServiceImpl) CreateExpense(ctx context.Context, e *Expense) (*Expense, error) {
	now := time.Now()
	e.ID = primitive.NilObjectID
	e.SpentBy = utils.ActorID(ctx)
	e.ApprovalStatus = StatusPending
	e.ApprovedBy = nil
	e.ApprovedAt = nil
	e.Receipt = ""
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := validation.Struct(e); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, e); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, CollectionName, e.ID.Hex(), map[string]common_models.Change{
		"amount":   {New: e.Amount},
		"category": {New: e.Category},
	})
	s.Logger.Info("expense recorded", zap.String("expenseId", e.ID.Hex()), zap.Float64("amount", e.Amount))
	return e, nil
}

// UpdateExpense merges the body onto the stored expense. The approval fields
// only change through ApproveExpense and RejectExpense.
func (s *ExpenseServiceImpl) UpdateExpense(ctx context.Context, id string, body []byte) (*Expense, error) {
	oid, err := query.ObjectID(id, "Expense")
	if err != nil {
		return nil, err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}

	updated := *existing
	// Detach the approval pointers so decoding cannot write through to existing.
	updated.ApprovedBy, updated.ApprovedAt = nil, nil
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, errs.Wrap(errs.ErrValidation, "Invalid request body", err)
	}
	updated.ID = existing.ID
	updated.SpentBy = existing.SpentBy
	updated.ApprovalStatus = existing.ApprovalStatus
	updated.ApprovedBy = existing.ApprovedBy
	updated.ApprovedAt = existing.ApprovedAt
	updated.Receipt = existing.Receipt
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()

	if err := validation.Struct(updated); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, &updated); err != nil {
		return nil, notFound(err)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, CollectionName, id, audit.Diff(existing, updated))
	return &updated, nil
}

func (s *ExpenseServiceImpl) DeleteExpense(ctx context.Context, id string) error {
	oid, err := query.ObjectID(id, "Expense")
	if err != nil {
		return err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return notFound(err)
	}
	if err := s.Repo.Delete(ctx, oid); err != nil {
		return notFound(err)
	}

	if fileID := file.IDFromURL(existing.Receipt); fileID != "" {
		if err := s.Files.Delete(ctx, fileID); err != nil {
			s.Logger.Warn("Failed to delete expense receipt", zap.String("expenseId", id), zap.Error(err))
		}
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, CollectionName, id, map[string]common_models.Change{
		"amount": {Old: existing.Amount},
	})
	return nil
}

func (s *ExpenseServiceImpl) ApproveExpense(ctx context.Context, id string) (*Expense, error) {
	return s.decide(ctx, id, StatusApproved)
}

func (s *ExpenseServiceImpl) RejectExpense(ctx context.Context, id string) (*Expense, error) {
	return s.decide(ctx, id, StatusRejected)
}

// decide applies an approval decision. Only pending expenses can be decided;
// reversing a decision is refused.
func (s *ExpenseServiceImpl) decide(ctx context.Context, id string, status ApprovalStatus) (*Expense, error) {
	oid, err := query.ObjectID(id, "Expense")
	if err != nil {
		return nil, err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	if existing.ApprovalStatus != StatusPending {
		return nil, errs.Validation("Expense has already been " + string(existing.ApprovalStatus))
	}

	approver := utils.ActorID(ctx)
	now := time.Now()
	if err := s.Repo.Decide(ctx, oid, status, approver, now); err != nil {
		if errs.IsNoDocuments(err) {
			// Another admin decided between our read and write.
			return nil, errs.Validation("Expense is no longer pending")
		}
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionApproval, CollectionName, id, map[string]common_models.Change{
		"approvalStatus": {Old: existing.ApprovalStatus, New: status},
	})
	s.Logger.Info("expense decided", zap.String("expenseId", id), zap.String("status", string(status)))

	existing.ApprovalStatus = status
	existing.ApprovedBy = &approver
	existing.ApprovedAt = &now
	existing.UpdatedAt = now
	return existing, nil
}

func (s *ExpenseServiceImpl) UploadReceipt(ctx context.Context, id string, fh *multipart.FileHeader) (*Expense, error) {
	oid, err := query.ObjectID(id, "Expense")
	if err != nil {
		return nil, err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}

	f, err := s.Files.Upload(ctx, file.ReceiptUpload, CollectionName, id, fh, utils.ActorID(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetReceipt(ctx, oid, f.URL); err != nil {
		_ = s.Files.Delete(ctx, f.ID.Hex())
		return nil, notFound(err)
	}
	if oldID := file.IDFromURL(existing.Receipt); oldID != "" {
		_ = s.Files.Delete(ctx, oldID)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpload, CollectionName, id, map[string]common_models.Change{
		"receipt": {Old: existing.Receipt, New: f.URL},
	})

	existing.Receipt = f.URL
	return existing, nil
}

func notFound(err error) error {
	if errs.IsNoDocuments(err) {
		return errs.NotFound("Expense not found")
	}
	return err
}
