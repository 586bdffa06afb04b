// Package pagination parses page/size query parameters and describes the
// resulting page for list responses.
package pagination

import (
	"math"
	"strconv"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

// Params selects one page of a list. Page is 1-based.
type Params struct {
	Page int
	Size int
}

// Limit is the row limit for the page.
func (p Params) Limit() int { return p.Size }

// Offset is the number of rows skipped before the page.
func (p Params) Offset() int { return (p.Page - 1) * p.Size }

// Parse reads raw page and size values. Empty values fall back to page 1 and
// the configured default size; anything that is not a positive integer, a
// size above the configured maximum, or a page whose offset does not fit in
// an int, is a bad request.
func Parse(rawPage, rawSize string, cfg config.Pagination) (Params, error) {
	p := Params{Page: 1, Size: cfg.DefaultSize}

	if rawPage != "" {
		page, err := strconv.Atoi(rawPage)
		if err != nil || page < 1 {
			return Params{}, errorbank.BadRequest("page must be a positive integer", errorbank.WithDetail("page", rawPage))
		}
		p.Page = page
	}

	if rawSize != "" {
		size, err := strconv.Atoi(rawSize)
		if err != nil || size < 1 || size > cfg.MaxSize {
			return Params{}, errorbank.BadRequest("size must be between 1 and "+strconv.Itoa(cfg.MaxSize), errorbank.WithDetail("size", rawSize))
		}
		p.Size = size
	}

	if p.Page-1 > math.MaxInt/p.Size {
		return Params{}, errorbank.BadRequest("page is out of range", errorbank.WithDetail("page", rawPage))
	}

	return p, nil
}

// Meta describes a returned page.
type Meta struct {
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewMeta computes page metadata for total matching rows.
func NewMeta(p Params, total int) Meta {
	pages := 0
	if p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	return Meta{Page: p.Page, Size: p.Size, Total: total, Pages: pages}
}
