package auth

import (
	"context"
	"strings"
	"time"

	"charity-admin/internal/common/errs"
	"charity-admin/internal/common/models"
	"charity-admin/internal/features/audit"
	"charity-admin/internal/features/user"
	"charity-admin/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const invalidCredentials = "Invalid credentials"

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	ResetPassword(ctx context.Context, userID primitive.ObjectID, currentPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
}

type AuthServiceImpl struct {
	UserRepo     user.UserRepository
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewAuthService(userRepo user.UserRepository, auditService audit.AuditService, logger *zap.Logger) AuthService {
	return &AuthServiceImpl{
		UserRepo:     userRepo,
		AuditService: auditService,
		Logger:       logger,
	}
}

// Register creates a member-role account. Roles are raised afterwards by an admin.
func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*models.User, string, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.UserRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", errs.Validation("Username already exists")
	}
	exists, err = s.UserRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", errs.Validation("Email already exists")
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	newUser := models.User{
		ID:        primitive.NewObjectID(),
		Username:  req.Username,
		FullName:  req.FullName,
		Email:     req.Email,
		Password:  hashedPassword,
		Role:      models.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.UserRepo.Create(ctx, &newUser); err != nil {
		// A concurrent register can slip past the pre-check; the unique index catches it.
		return nil, "", errs.Duplicate(err, "Username or email already exists")
	}

	token, err := utils.GenerateToken(newUser.ID, string(newUser.Role))
	if err != nil {
		return nil, "", err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "users", newUser.ID.Hex(), map[string]models.Change{
		"username": {New: newUser.Username},
		"email":    {New: newUser.Email},
	})
	s.Logger.Info("user registered", zap.String("userId", newUser.ID.Hex()))

	return &newUser, token, nil
}

// Login fails with the same message for unknown emails and wrong passwords.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	usr, err := s.UserRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errs.IsNoDocuments(err) {
			return nil, "", errs.Unauthorized(invalidCredentials)
		}
		return nil, "", err
	}

	if !utils.CheckPassword(password, usr.Password) {
		return nil, "", errs.Unauthorized(invalidCredentials)
	}

	now := time.Now()
	if err := s.UserRepo.UpdateLastLogin(ctx, usr.ID, now); err != nil {
		s.Logger.Warn("last login not recorded", zap.String("userId", usr.ID.Hex()), zap.Error(err))
	}
	usr.LastLogin = &now

	token, err := utils.GenerateToken(usr.ID, string(usr.Role))
	if err != nil {
		return nil, "", err
	}
	return usr, token, nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, userID primitive.ObjectID, currentPassword, newPassword string) error {
	usr, err := s.UserRepo.FindByID(ctx, userID.Hex())
	if err != nil {
		if errs.IsNoDocuments(err) {
			return errs.NotFound("User not found")
		}
		return err
	}

	if !utils.CheckPassword(currentPassword, usr.Password) {
		return errs.Unauthorized("Current password is incorrect")
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.UserRepo.UpdatePassword(ctx, usr.ID, hashed); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "users", usr.ID.Hex(), map[string]models.Change{
		"password": {New: "changed"},
	})
	return nil
}

// ForgotPassword only confirms the account exists; no mail transport is configured.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	usr, err := s.UserRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errs.IsNoDocuments(err) {
			return errs.NotFound("There is no user with that email")
		}
		return err
	}
	s.Logger.Info("password reset requested", zap.String("userId", usr.ID.Hex()))
	return nil
}
