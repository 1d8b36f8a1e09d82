package middleware

import (
	"context"
	"strings"

	"charity-admin/internal/common/errs"
	"charity-admin/internal/common/models"
	"charity-admin/internal/common/response"
	"charity-admin/internal/config"
	"charity-admin/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const currentUserKey = "current_user"

// UserLoader resolves the account a token was issued for.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// StatusChecker reports whether the database is reachable.
type StatusChecker interface {
	Connected() bool
}

// Guard builds the authentication, authorization and availability middleware
// shared by every feature API.
type Guard struct {
	config *config.Config
	users  UserLoader
	db     StatusChecker
	policy *Policy
}

func NewGuard(cfg *config.Config, users UserLoader, db StatusChecker, policy *Policy) *Guard {
	return &Guard{
		config: cfg,
		users:  users,
		db:     db,
		policy: policy,
	}
}

// Protect validates the bearer token, loads its user and attaches both to the request.
func (g *Guard) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if g.config.SkipAuth && !g.config.IsProduction() {
			// Inject dummy admin for local development
			dev := &models.User{ID: primitive.NilObjectID, Username: "dev-admin", FullName: "Development Admin", Role: models.RoleAdmin}
			attach(c, &utils.UserClaims{UserID: dev.ID.Hex(), Role: string(dev.Role)}, dev)
			return c.Next()
		}

		token := bearerToken(c)
		if token == "" {
			return response.Error(c, errs.Unauthorized("Not authorized to access this route"))
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			return response.Error(c, errs.Wrap(errs.ErrUnauthorized, "Not authorized to access this route", err))
		}

		user, err := g.users.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			if errs.IsNoDocuments(err) {
				return response.Error(c, errs.Unauthorized("User no longer exists"))
			}
			return response.Error(c, err)
		}

		attach(c, claims, user)
		return c.Next()
	}
}

func attach(c *fiber.Ctx, claims *utils.UserClaims, user *models.User) {
	c.Locals(utils.UserClaimsKey, claims)
	c.Locals(currentUserKey, user)
	c.SetUserContext(utils.WithClaims(c.UserContext(), claims))
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set headers
// on websocket upgrades, so those may pass ?token= instead.
func bearerToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if strings.EqualFold(c.Get(fiber.HeaderUpgrade), "websocket") {
		return c.Query("token")
	}
	return ""
}

// CurrentUser returns the user attached by Protect, or nil on unprotected routes.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}

// Require rejects callers whose role the policy does not allow for key.
func (g *Guard) Require(key string) fiber.Handler {
	if !g.policy.Has(key) {
		panic("middleware: no policy rule for " + key)
	}
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return response.Error(c, errs.Unauthorized("Not authorized to access this route"))
		}
		if !g.policy.Allows(key, user.Role) {
			return response.Error(c, errs.Forbidden("User role "+string(user.Role)+" is not authorized to access this route"))
		}
		return c.Next()
	}
}

// RequireDB answers 503 while the database is unreachable.
func (g *Guard) RequireDB() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !g.db.Connected() {
			return response.Error(c, errs.Unavailable("Database is not connected"))
		}
		return c.Next()
	}
}
