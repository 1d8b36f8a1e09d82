package pagination

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestMetaPages(t *testing.T) {
	tests := []struct {
		name  string
		page  int64
		limit int64
		total int64
		want  Meta
		skip  int64
	}{
		{name: "empty", page: 1, limit: 10, total: 0, want: Meta{Total: 0, Page: 1, Pages: 0}, skip: 0},
		{name: "exact", page: 2, limit: 5, total: 10, want: Meta{Total: 10, Page: 2, Pages: 2}, skip: 5},
		{name: "remainder", page: 3, limit: 10, total: 21, want: Meta{Total: 21, Page: 3, Pages: 3}, skip: 20},
		{name: "defaults", page: 0, limit: 0, total: 11, want: Meta{Total: 11, Page: 1, Pages: 2}, skip: 0},
		{name: "capped limit", page: 1, limit: 1000, total: 250, want: Meta{Total: 250, Page: 1, Pages: 3}, skip: 0},
		{name: "capped page", page: math.MaxInt64, limit: 100, total: 5, want: Meta{Total: 5, Page: MaxPage, Pages: 1}, skip: (MaxPage - 1) * 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.page, tt.limit)
			if got := p.Meta(tt.total); got != tt.want {
				t.Errorf("Meta() = %+v, want %+v", got, tt.want)
			}
			if got := p.Skip(); got != tt.skip {
				t.Errorf("Skip() = %d, want %d", got, tt.skip)
			}
		})
	}
}

func TestFromCtxClampsHugePage(t *testing.T) {
	app := fiber.New()
	var got Params
	app.Get("/", func(c *fiber.Ctx) error {
		got = FromCtx(c)
		return nil
	})

	if _, err := app.Test(httptest.NewRequest("GET", "/?page=99999999999999999999&limit=100", nil)); err != nil {
		t.Fatal(err)
	}
	if got.Page != MaxPage || got.Skip() < 0 {
		t.Errorf("FromCtx() = %+v, skip %d", got, got.Skip())
	}
}
