package member

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"strings"
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

const duplicateNationalID = "A member with this national ID already exists"

type MemberService interface {
	ListMembers(ctx context.Context, filter MemberFilter, p pagination.Params) ([]Member, int64, error)
	GetMember(ctx context.Context, id string) (*MemberDetail, error)
	CreateMember(ctx context.Context, m *Member) (*Member, error)
	UpdateMember(ctx context.Context, id string, body []byte) (*Member, error)
	DeleteMember(ctx context.Context, id string) error
	UploadPhoto(ctx context.Context, id string, fh *multipart.FileHeader) (*Member, error)
}

type MemberServiceImpl struct {
	Repo         MemberRepository
	Files        file.FileService
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewMemberService(repo MemberRepository, files file.FileService, auditService audit.AuditService, logger *zap.Logger) MemberService {
	return &MemberServiceImpl{
		Repo:         repo,
		Files:        files,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *MemberServiceImpl) ListMembers(ctx context.Context, filter MemberFilter, p pagination.Params) ([]Member, int64, error) {
	q := bson.M{}
	if filter.Status != "" {
		q["membershipStatus"] = filter.Status
	}
	if filter.Search != "" {
		q["$or"] = query.Search(filter.Search, "fullName.first", "fullName.last", "nationalId")
	}
	return s.Repo.List(ctx, q, p.Skip(), p.Limit)
}

func (s *MemberServiceImpl) GetMember(ctx context.Context, id string) (*MemberDetail, error) {
	oid, err := query.ObjectID(id, "Member")
	if err != nil {
		return nil, err
	}
	m, err := s.Repo.FindDetail(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func (s *MemberServiceImpl) CreateMember(ctx context.Context, m *Member) (*Member, error) {
	now := time.Now()
	m.ID = primitive.NilObjectID
	m.NationalID = strings.TrimSpace(m.NationalID)
	m.PaymentRecords = nil
	m.ProfilePhoto = ""
	m.applyDefaults(now)
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := validation.Struct(m); err != nil {
		return nil, err
	}

	exists, err := s.Repo.ExistsByNationalID(ctx, m.NationalID, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.Validation(duplicateNationalID)
	}

	if err := s.Repo.Create(ctx, m); err != nil {
		return nil, errs.Duplicate(err, duplicateNationalID)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, CollectionName, m.ID.Hex(), nil)
	s.Logger.Info("member created", zap.String("memberId", m.ID.Hex()))
	return m, nil
}

// UpdateMember merges the JSON body onto the stored member, so omitted fields
// keep their values, then re-validates the result.
func (s *MemberServiceImpl) UpdateMember(ctx context.Context, id string, body []byte) (*Member, error) {
	oid, err := query.ObjectID(id, "Member")
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
	updated.PaymentRecords = existing.PaymentRecords
	updated.ProfilePhoto = existing.ProfilePhoto
	updated.CreatedAt = existing.CreatedAt
	updated.NationalID = strings.TrimSpace(updated.NationalID)
	updated.applyDefaults(existing.JoinDate)
	updated.UpdatedAt = time.Now()

	if err := validation.Struct(updated); err != nil {
		return nil, err
	}

	if updated.NationalID != existing.NationalID {
		exists, err := s.Repo.ExistsByNationalID(ctx, updated.NationalID, oid)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errs.Validation(duplicateNationalID)
		}
	}

	if err := s.Repo.Update(ctx, updated); err != nil {
		if errs.IsNoDocuments(err) {
			return nil, errs.NotFound("Member not found")
		}
		return nil, errs.Duplicate(err, duplicateNationalID)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, CollectionName, id, audit.Diff(existing, updated))
	return updated, nil
}

func (s *MemberServiceImpl) DeleteMember(ctx context.Context, id string) error {
	oid, err := query.ObjectID(id, "Member")
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

	if fileID := file.IDFromURL(existing.ProfilePhoto); fileID != "" {
		if err := s.Files.Delete(ctx, fileID); err != nil {
			s.Logger.Warn("Failed to delete member photo", zap.String("memberId", id), zap.Error(err))
		}
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, CollectionName, id, nil)
	s.Logger.Info("member deleted", zap.String("memberId", id))
	return nil
}

func (s *MemberServiceImpl) UploadPhoto(ctx context.Context, id string, fh *multipart.FileHeader) (*Member, error) {
	oid, err := query.ObjectID(id, "Member")
	if err != nil {
		return nil, err
	}
	existing, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}

	f, err := s.Files.Upload(ctx, file.ImageUpload, CollectionName, id, fh, utils.ActorID(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetPhoto(ctx, oid, f.URL); err != nil {
		_ = s.Files.Delete(ctx, f.ID.Hex())
		return nil, notFound(err)
	}

	// The previous photo is replaced, not kept.
	if oldID := file.IDFromURL(existing.ProfilePhoto); oldID != "" {
		if err := s.Files.Delete(ctx, oldID); err != nil {
			s.Logger.Warn("Failed to delete previous member photo", zap.String("memberId", id), zap.Error(err))
		}
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpload, CollectionName, id, map[string]common_models.Change{
		"profilePhoto": {Old: existing.ProfilePhoto, New: f.URL},
	})

	existing.ProfilePhoto = f.URL
	return existing, nil
}

// clone copies m deeply enough that decoding into the copy leaves m untouched.
func (m *Member) clone() *Member {
	cp := *m
	cp.PaymentRecords = append([]primitive.ObjectID{}, m.PaymentRecords...)
	if m.AlternateAddress != nil {
		addr := *m.AlternateAddress
		cp.AlternateAddress = &addr
	}
	if m.EmergencyContact != nil {
		ec := *m.EmergencyContact
		cp.EmergencyContact = &ec
	}
	return &cp
}

func notFound(err error) error {
	if errs.IsNoDocuments(err) {
		return errs.NotFound("Member not found")
	}
	return err
}
