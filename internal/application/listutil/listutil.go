package listutil

import (
	"net/url"
	"strconv"
)

// DefaultPerPage is the page size used when per_page is missing or invalid.
const DefaultPerPage = 50

// MaxPerPage caps per_page so one request cannot pull the whole table.
const MaxPerPage = 200

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed page number
	PerPage int // rows per page
}

// SortParams carries sorting parameters parsed from a request.
type SortParams struct {
	Sort string // column name, always one of the allowed columns
	Desc bool
}

// ListParams combines the paging, sorting and search parameters of a list request.
type ListParams struct {
	PageParams
	SortParams
	Search string
}

// PageInfo carries pagination metadata returned alongside a page of rows.
type PageInfo struct {
	Page       int `json:"Page"`
	PerPage    int `json:"PerPage"`
	Total      int `json:"Total"`
	TotalPages int `json:"TotalPages"`
}

// ParsePageParams extracts page and per_page from URL query values.
// PRE: none
// POST: returns valid PageParams with defaults applied
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseSortParams extracts sort and dir from URL query values.
// An unknown or missing sort column falls back to the first allowed column.
// PRE: allowedColumns is non-empty
// POST: returns SortParams whose Sort is one of allowedColumns
func ParseSortParams(q url.Values, allowedColumns []string) SortParams {
	sort := q.Get("sort")
	if !isAllowedColumn(sort, allowedColumns) {
		sort = allowedColumns[0]
	}
	return SortParams{Sort: sort, Desc: q.Get("dir") == "desc"}
}

// ParseListParams parses all list parameters from URL query values; q is the search term.
func ParseListParams(q url.Values, allowedSortCols []string) ListParams {
	return ListParams{
		PageParams: ParsePageParams(q),
		SortParams: ParseSortParams(q, allowedSortCols),
		Search:     q.Get("q"),
	}
}

// Offset returns the SQL OFFSET for the requested page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// NewPageInfo computes pagination metadata for a result of total rows.
// PRE: total >= 0
// POST: TotalPages >= 1; Page is the requested page, which may lie past the last one
func NewPageInfo(p PageParams, total int) PageInfo {
	perPage := p.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	return PageInfo{
		Page:       p.Page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// HasNext reports whether a later page holds rows.
func (p PageInfo) HasNext() bool {
	return p.Page < p.TotalPages
}

func isAllowedColumn(col string, allowed []string) bool {
	for _, a := range allowed {
		if col == a {
			return true
		}
	}
	return false
}
