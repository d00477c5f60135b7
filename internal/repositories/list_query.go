package repositories

import (
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit from overflowing.
	MaxPage = math.MaxInt / MaxLimit

	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// SortSpec whitelists the sortable fields of one listing. Fields maps the
// API-facing name (as sent in ?sortBy=) to a column name.
type SortSpec struct {
	Fields       map[string]string
	DefaultField string
	DefaultOrder string
}

// Sorting is a resolved, safe sort.
type Sorting struct {
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
	column    string
}

// Resolve validates the requested sort. Unknown fields and orders fall back to
// the listing defaults without error.
func (s SortSpec) Resolve(sortBy, sortOrder string) Sorting {
	field := sortBy
	column, ok := s.Fields[field]
	if !ok {
		field = s.DefaultField
		column = s.Fields[field]
	}

	order := strings.ToUpper(strings.TrimSpace(sortOrder))
	if order != SortAsc && order != SortDesc {
		order = s.DefaultOrder
	}
	return Sorting{SortBy: field, SortOrder: order, column: column}
}

// Apply adds the ORDER BY clause. table qualifies the column when the query
// joins other tables.
func (s Sorting) Apply(db *gorm.DB, table string) *gorm.DB {
	col := clause.Column{Name: s.column}
	if table != "" {
		col.Table = table
	}
	return db.Order(clause.OrderByColumn{Column: col, Desc: s.SortOrder == SortDesc})
}

// Page is a normalized page request.
type Page struct {
	Page  int
	Limit int
}

// NewPage clamps page and limit into their valid ranges.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = DefaultPage
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
	return Page{Page: page, Limit: limit}
}

// Offset is (page-1)*limit.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages is ceil(total/limit).
func (p Page) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(p.Limit)))
}

// Apply adds LIMIT/OFFSET.
func (p Page) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(p.Limit).Offset(p.Offset())
}

// containsPattern builds a LIKE pattern matching value anywhere, with LIKE
// metacharacters in value escaped by '\'.
func containsPattern(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(value)) + "%"
}

// whereContains applies a case-insensitive substring filter on column when
// value is non-empty. LOWER()/LIKE keeps it portable across Postgres and SQLite.
func whereContains(db *gorm.DB, column, value string) *gorm.DB {
	value = strings.TrimSpace(value)
	if value == "" {
		return db
	}
	return db.Where("LOWER("+column+`) LIKE ? ESCAPE '\'`, containsPattern(value))
}
