package audit

import (
	"context"
	"time"

	common_models "charity-admin/internal/common/models"
	"charity-admin/internal/common/pagination"
	"charity-admin/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type UserFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]common_models.User, error)
}

// Publisher fans audit entries out to live listeners.
type Publisher interface {
	Publish(entry common_models.AuditLog)
}

type AuditService interface {
	LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error
	ListLogs(ctx context.Context, filters map[string]interface{}, p pagination.Params) ([]common_models.AuditLog, int64, error)
}

type AuditServiceImpl struct {
	Repo      AuditRepository
	UserRepo  UserFinder
	Publisher Publisher
	Logger    *zap.Logger
}

func NewAuditService(repo AuditRepository, userRepo UserFinder, publisher Publisher, logger *zap.Logger) AuditService {
	return &AuditServiceImpl{
		Repo:      repo,
		UserRepo:  userRepo,
		Publisher: publisher,
		Logger:    logger,
	}
}

func (s *AuditServiceImpl) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	// Extract Actor from Context
	actorID := "system"
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok {
		actorID = claims.UserID
	}

	entry := common_models.AuditLog{
		ID:        primitive.NewObjectID(),
		Action:    action,
		Module:    module,
		RecordID:  recordID,
		ActorID:   actorID,
		Changes:   changes,
		Timestamp: time.Now(),
	}

	if err := s.Repo.Create(ctx, entry); err != nil {
		s.Logger.Warn("audit log not persisted", zap.String("module", module), zap.String("recordId", recordID), zap.Error(err))
		return err
	}

	if s.Publisher != nil {
		s.Publisher.Publish(entry)
	}
	return nil
}

func (s *AuditServiceImpl) ListLogs(ctx context.Context, filters map[string]interface{}, p pagination.Params) ([]common_models.AuditLog, int64, error) {
	logs, total, err := s.Repo.List(ctx, filters, p.Limit, p.Skip())
	if err != nil {
		return nil, 0, err
	}

	// Collect Actor IDs
	actorIDs := make([]string, 0)
	uniqueIDs := make(map[string]bool)
	for _, log := range logs {
		if log.ActorID != "system" && log.ActorID != "" && !uniqueIDs[log.ActorID] {
			uniqueIDs[log.ActorID] = true
			actorIDs = append(actorIDs, log.ActorID)
		}
	}

	// Batch Fetch Users
	userMap := make(map[string]string)
	if len(actorIDs) > 0 {
		users, err := s.UserRepo.FindByIDs(ctx, actorIDs)
		if err == nil {
			for _, user := range users {
				userMap[user.ID.Hex()] = user.FullName
			}
		}
	}

	// Populate Actor Names
	for i, log := range logs {
		if log.ActorID == "system" || log.ActorID == "" {
			logs[i].ActorName = "System"
		} else if name, ok := userMap[log.ActorID]; ok {
			logs[i].ActorName = name
		} else {
			logs[i].ActorName = "Unknown User"
		}
	}

	return logs, total, nil
}
