package user

import (
	"context"

	"charity-admin/internal/common/errs"
	"charity-admin/internal/common/models"
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type UserService interface {
	ListUsers(ctx context.Context, p pagination.Params) ([]models.User, int64, error)
	ChangeRole(ctx context.Context, id string, role models.Role) (*models.User, error)
}

type UserServiceImpl struct {
	UserRepo     UserRepository
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewUserService(userRepo UserRepository, auditService audit.AuditService, logger *zap.Logger) UserService {
	return &UserServiceImpl{
		UserRepo:     userRepo,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, p pagination.Params) ([]models.User, int64, error) {
	return s.UserRepo.List(ctx, p.Skip(), p.Limit)
}

func (s *UserServiceImpl) ChangeRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, errs.Validation("role must be one of [admin staff member]")
	}

	existing, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		if errs.IsNoDocuments(err) {
			return nil, errs.NotFound("User not found")
		}
		return nil, err
	}
	oid, _ := primitive.ObjectIDFromHex(id)
	if err := s.UserRepo.UpdateRole(ctx, oid, role); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "users", id, map[string]models.Change{
		"role": {Old: existing.Role, New: role},
	})
	s.Logger.Info("user role changed", zap.String("userId", id), zap.String("role", string(role)))

	existing.Role = role
	return existing, nil
}
