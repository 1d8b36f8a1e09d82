package pagination

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit far from int64 overflow.
	MaxPage = 1_000_000
)

type Params struct {
	Page  int64
	Limit int64
}

// Meta is the pagination block of a list envelope.
type Meta struct {
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Pages int64 `json:"pages"`
}

// FromCtx reads page and limit from the query string, falling back to page 1 and DefaultLimit.
func FromCtx(c *fiber.Ctx) Params {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", strconv.Itoa(DefaultLimit)), 10, 64)
	return New(page, limit)
}

func New(page, limit int64) Params {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

func (p Params) Skip() int64 {
	return (p.Page - 1) * p.Limit
}

// Meta computes pages as ceil(total / limit).
func (p Params) Meta(total int64) Meta {
	pages := total / p.Limit
	if total%p.Limit > 0 {
		pages++
	}
	return Meta{Total: total, Page: p.Page, Pages: pages}
}
