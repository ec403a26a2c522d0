package request

import (
	"math"

	"github.com/nekogravitycat/crm-backend/internal/pkg/validate"
)

const (
	DefaultPage     = 1
	DefaultLimit    = 20
	MaxLimit        = 100
	MaxSearchLength = 100
)

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// ListParams holds the query parameters shared by every list endpoint.
type ListParams struct {
	Page   *int   `form:"page" json:"page" binding:"omitempty,min=1"`
	Limit  *int   `form:"limit" json:"limit" binding:"omitempty,min=1,max=100"`
	Search string `form:"search" json:"search" binding:"omitempty,max=100"`
}

// Paging converts the optional query values into a Paging.
func (p ListParams) Paging() Paging {
	var out Paging
	if p.Page != nil {
		out.Page = *p.Page
	}
	if p.Limit != nil {
		out.Limit = *p.Limit
	}
	return out
}

// Paging is a page/limit pair. Zero values mean "use the default".
type Paging struct {
	Page  int
	Limit int
}

// WithDefaults fills in zero values.
func (p Paging) WithDefaults() Paging {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// Normalize applies defaults and records out-of-range values on c.
func (p *Paging) Normalize(c *validate.Collector) {
	*p = p.WithDefaults()
	c.Check(p.Page >= 1, "page", "Page must be a positive integer")
	c.Check(p.Limit >= 1 && p.Limit <= MaxLimit, "limit", "Limit must be between 1 and 100")
	// The offset has to fit in a bigint.
	if p.Page > 1 && p.Limit >= 1 {
		c.Check(int64(p.Page-1) <= math.MaxInt64/int64(p.Limit), "page", "Page is out of range")
	}
}

// Offset is the number of rows skipped before this page.
func (p Paging) Offset() uint64 {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	skip := uint64(p.Page - 1)
	if skip > math.MaxInt64/uint64(p.Limit) {
		return math.MaxInt64
	}
	return skip * uint64(p.Limit)
}

// CheckSearch records an over-long search term.
func CheckSearch(c *validate.Collector, search string) {
	c.Length("search", search, 0, MaxSearchLength)
}
