package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds page-based pagination parameters extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// FromContext reads ?page= and ?limit=, clamping page to at least 1 and
// limit to [1, MaxLimit]. Missing or malformed values use the defaults.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = DefaultPage
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Offset returns the number of rows to skip for the current page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// PageInfo is the pagination block returned next to a list.
type PageInfo struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

func NewPageInfo(p Params, total int) PageInfo {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PageInfo{
		TotalItems:  total,
		TotalPages:  pages,
		CurrentPage: p.Page,
		Limit:       p.Limit,
	}
}
