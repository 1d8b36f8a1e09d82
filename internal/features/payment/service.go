package payment

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"charity-admin/internal/common/errs"
	common_models "charity-admin/internal/common/models"
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/query"
	"charity-admin/internal/common/validation"
	"charity-admin/internal/database"
	"charity-admin/internal/features/audit"
	"charity-admin/internal/features/file"
	"charity-admin/internal/features/member"
	"charity-admin/pkg/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const receiptAttempts = 3

// MemberRecords is the part of the member store that owns paymentRecords.
type MemberRecords interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*member.Member, error)
	AddPaymentRecord(ctx context.Context, memberID, paymentID primitive.ObjectID) error
	RemovePaymentRecord(ctx context.Context, memberID, paymentID primitive.ObjectID) error
}

type PaymentService interface {
	ListPayments(ctx context.Context, filter PaymentFilter, p pagination.Params) ([]PaymentDetail, int64, error)
	GetPayment(ctx context.Context, id string) (*PaymentDetail, error)
	MemberPayments(ctx context.Context, memberID string) ([]PaymentDetail, error)
	CreatePayment(ctx context.Context, p *Payment) (*Payment, error)
	UpdatePayment(ctx context.Context, id string, body []byte) (*Payment, error)
	DeletePayment(ctx context.Context, id string) error
	UploadReceipt(ctx context.Context, id string, fh *multipart.FileHeader) (*Payment, error)
}

type PaymentServiceImpl struct {
	Repo         PaymentRepository
	Members      MemberRecords
	Tx           database.Transactor
	Files        file.FileService
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewPaymentService(repo PaymentRepository, members MemberRecords, tx database.Transactor, files file.FileService, auditService audit.AuditService, logger *zap.Logger) PaymentService {
	return &PaymentServiceImpl{
		Repo:         repo,
		Members:      members,
		Tx:           tx,
		Files:        files,
		AuditService: auditService,
		Logger:       logger,
	}
}

// GenerateReceiptNumber returns REC-YYYYMMDD-XXXXXXXX with a random suffix.
func GenerateReceiptNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return "REC-" + now.Format("20060102") + "-" + suffix
}

func (s *PaymentServiceImpl) ListPayments(ctx context.Context, filter PaymentFilter, p pagination.Params) ([]PaymentDetail, int64, error) {
	q := bson.M{}
	if filter.Member != "" {
		oid, err := query.FilterID(filter.Member, "member")
		if err != nil {
			return nil, 0, err
		}
		q["member"] = oid
	}
	if filter.PaymentType != "" {
		q["paymentType"] = filter.PaymentType
	}
	if filter.IsPaid != "" {
		paid, err := strconv.ParseBool(filter.IsPaid)
		if err != nil {
			return nil, 0, errs.Validation("isPaid must be true or false")
		}
		q["isPaid"] = paid
	}
	dates, err := query.DateRange(filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, 0, err
	}
	if dates != nil {
		q["paymentDate"] = dates
	}
	return s.Repo.List(ctx, q, p.Skip(), p.Limit)
}

func (s *PaymentServiceImpl) GetPayment(ctx context.Context, id string) (*PaymentDetail, error) {
	oid, err := query.ObjectID(id, "Payment")
	if err != nil {
		return nil, err
	}
	p, err := s.Repo.FindDetail(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *PaymentServiceImpl) MemberPayments(ctx context.Context, memberID string) ([]PaymentDetail, error) {
	oid, err := query.ObjectID(memberID, "Member")
	if err != nil {
		return nil, err
	}
	return s.Repo.ListByMember(ctx, oid)
}

// CreatePayment stores the payment and links it to its member in one transaction.
func (s *PaymentServiceImpl) CreatePayment(ctx context.Context, p *Payment) (*Payment, error) {
	now := time.Now()
	p.CollectedBy = utils.ActorID(ctx)
	p.Receipt = ""
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Member.IsZero() {
		return nil, errs.Validation("member is required")
	}
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	if _, err := s.Members.FindByID(ctx, p.Member); err != nil {
		return nil, memberNotFound(err)
	}

	var err error
	for attempt := 0; attempt < receiptAttempts; attempt++ {
		p.ID = primitive.NewObjectID()
		p.ReceiptNumber = GenerateReceiptNumber(now)
		err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.Repo.Create(ctx, p); err != nil {
				return err
			}
			return s.Members.AddPaymentRecord(ctx, p.Member, p.ID)
		})
		if !errs.IsDuplicateKey(err) {
			break
		}
		s.Logger.Warn("Receipt number collision, retrying", zap.String("receiptNumber", p.ReceiptNumber))
	}
	if err != nil {
		if errs.IsNoDocuments(err) {
			return nil, errs.NotFound("Member not found")
		}
		return nil, errs.Duplicate(err, "Could not allocate a unique receipt number")
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, CollectionName, p.ID.Hex(), map[string]common_models.Change{
		"amount": {New: p.Amount},
		"member": {New: p.Member.Hex()},
	})
	s.Logger.Info("payment recorded", zap.String("paymentId", p.ID.Hex()), zap.String("receiptNumber", p.ReceiptNumber))
	return p, nil
}

// UpdatePayment merges the JSON body onto the stored payment. Moving a payment
// to another member moves the back-reference in the same transaction.
func (s *PaymentServiceImpl) UpdatePayment(ctx context.Context, id string, body []byte) (*Payment, error) {
	oid, err := query.ObjectID(id, "Payment")
	if err != nil {
		return nil, err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}

	updated := existing.clone()
	if err := json.Unmarshal(body, updated); err != nil {
		return nil, errs.Wrap(errs.ErrValidation, "Invalid request body", err)
	}
	updated.ID = existing.ID
	updated.ReceiptNumber = existing.ReceiptNumber
	updated.Receipt = existing.Receipt
	updated.CollectedBy = existing.CollectedBy
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()

	if updated.Member.IsZero() {
		return nil, errs.Validation("member is required")
	}
	if err := validation.Struct(updated); err != nil {
		return nil, err
	}

	memberChanged := updated.Member != existing.Member
	if memberChanged {
		if _, err := s.Members.FindByID(ctx, updated.Member); err != nil {
			return nil, memberNotFound(err)
		}
	}

	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Repo.Update(ctx, updated); err != nil {
			return err
		}
		if !memberChanged {
			return nil
		}
		if err := s.Members.RemovePaymentRecord(ctx, existing.Member, oid); err != nil {
			return err
		}
		return s.Members.AddPaymentRecord(ctx, updated.Member, oid)
	})
	if err != nil {
		return nil, notFound(err)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, CollectionName, id, audit.Diff(existing, updated))
	return updated, nil
}

// DeletePayment removes the payment and its id from the member in one transaction.
func (s *PaymentServiceImpl) DeletePayment(ctx context.Context, id string) error {
	oid, err := query.ObjectID(id, "Payment")
	if err != nil {
		return err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return notFound(err)
	}

	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Members.RemovePaymentRecord(ctx, existing.Member, oid); err != nil {
			return err
		}
		return s.Repo.Delete(ctx, oid)
	})
	if err != nil {
		return notFound(err)
	}

	if fileID := file.IDFromURL(existing.Receipt); fileID != "" {
		if err := s.Files.Delete(ctx, fileID); err != nil {
			s.Logger.Warn("Failed to delete payment receipt", zap.String("paymentId", id), zap.Error(err))
		}
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, CollectionName, id, map[string]common_models.Change{
		"amount": {Old: existing.Amount},
		"member": {Old: existing.Member.Hex()},
	})
	s.Logger.Info("payment deleted", zap.String("paymentId", id))
	return nil
}

func (s *PaymentServiceImpl) UploadReceipt(ctx context.Context, id string, fh *multipart.FileHeader) (*Payment, error) {
	oid, err := query.ObjectID(id, "Payment")
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
		if err := s.Files.Delete(ctx, oldID); err != nil {
			s.Logger.Warn("Failed to delete previous receipt", zap.String("paymentId", id), zap.Error(err))
		}
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpload, CollectionName, id, map[string]common_models.Change{
		"receipt": {Old: existing.Receipt, New: f.URL},
	})

	existing.Receipt = f.URL
	return existing, nil
}

func (p *Payment) clone() *Payment {
	cp := *p
	if p.DueDate != nil {
		d := *p.DueDate
		cp.DueDate = &d
	}
	if p.InstallmentPlan != nil {
		plan := *p.InstallmentPlan
		cp.InstallmentPlan = &plan
	}
	return &cp
}

func notFound(err error) error {
	if errs.IsNoDocuments(err) {
		return errs.NotFound("Payment not found")
	}
	return err
}

func memberNotFound(err error) error {
	if errs.IsNoDocuments(err) {
		return errs.NotFound("Member not found")
	}
	return err
}
