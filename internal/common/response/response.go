package response

import (
	"errors"
	"sync/atomic"

	"charity-admin/internal/common/errs"
	"charity-admin/internal/common/pagination"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the uniform body of every JSON response.
type Envelope struct {
	Success    bool             `json:"success"`
	Data       interface{}      `json:"data,omitempty"`
	Count      *int             `json:"count,omitempty"`
	Pagination *pagination.Meta `json:"pagination,omitempty"`
	Message    string           `json:"message,omitempty"`
	Error      string           `json:"error,omitempty"`
	Token      string           `json:"token,omitempty"`
	User       interface{}      `json:"user,omitempty"`
}

var exposeErrors atomic.Bool

// SetExposeErrors controls whether raw error text is attached to failures.
// It is enabled outside production.
func SetExposeErrors(v bool) {
	exposeErrors.Store(v)
}

func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(Envelope{Success: true, Data: data})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Data: data})
}

func Message(c *fiber.Ctx, message string) error {
	return c.JSON(Envelope{Success: true, Message: message})
}

// Token answers an auth call with a signed token and the user it belongs to.
func Token(c *fiber.Ctx, status int, token string, user interface{}) error {
	return c.Status(status).JSON(Envelope{Success: true, Token: token, User: user})
}

// Paginated renders one page of items with the count on this page and the overall totals.
func Paginated(c *fiber.Ctx, items interface{}, count int, p pagination.Params, total int64) error {
	meta := p.Meta(total)
	return c.JSON(Envelope{Success: true, Data: items, Count: &count, Pagination: &meta})
}

// Fail renders an explicit failure without an underlying error.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message})
}

// Error maps err to its HTTP status and renders the failure envelope.
func Error(c *fiber.Ctx, err error) error {
	status := Status(err)

	body := Envelope{Success: false}
	switch {
	case status == fiber.StatusInternalServerError:
		body.Message = "Server Error"
	default:
		body.Message = errs.Message(err)
	}
	if exposeErrors.Load() {
		body.Error = err.Error()
	}
	return c.Status(status).JSON(body)
}

func Status(err error) int {
	var fe *fiber.Error
	switch {
	case errors.Is(err, errs.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, errs.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &fe):
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
