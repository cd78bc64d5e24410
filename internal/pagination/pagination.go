// Package pagination parses page and sort query parameters and applies them to GORM queries.
package pagination

import (
	"math"
	"strings"

	"gorm.io/gorm"
)

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Sort     string `form:"sort" binding:"omitempty,max=64"`
}

// Defaults fills in default values when page or page_size are not provided.
func (p *PageRequest) Defaults() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = 20
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// OrderBy maps the request's sort key onto a column from allowed. A leading "-" sorts
// descending. Unknown keys fall back to fallback, so user input never reaches SQL.
func (p *PageRequest) OrderBy(allowed map[string]string, fallback string) string {
	key := strings.TrimPrefix(p.Sort, "-")
	column, ok := allowed[key]
	if !ok {
		return fallback
	}
	if strings.HasPrefix(p.Sort, "-") {
		return column + " DESC"
	}
	return column + " ASC"
}

// PageResponse wraps a paginated list of items with metadata.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, page, pageSize int, totalItems int64) PageResponse[T] {
	totalPages := int(math.Ceil(float64(totalItems) / float64(pageSize)))
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.PageSize)
	}
}

// Find counts the rows matched by query, then loads the requested page ordered by order.
// Associations named in preloads are loaded for the page only.
func Find[T any](query *gorm.DB, req PageRequest, order string, preloads ...string) (*PageResponse[T], error) {
	req.Defaults()

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	page := query.Session(&gorm.Session{}).Order(order).Scopes(Paginate(req))
	for _, assoc := range preloads {
		page = page.Preload(assoc)
	}

	var rows []T
	if err := page.Find(&rows).Error; err != nil {
		return nil, err
	}

	resp := NewPageResponse(rows, req.Page, req.PageSize, total)
	return &resp, nil
}
