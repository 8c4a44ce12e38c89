// Package paging provides support for clamping page requests against the
// number of rows available.
package paging

// DefaultPerPage is the number of rows a listing returns per page.
const DefaultPerPage = 10

// Page describes one page of a listing.
type Page struct {
	Number     int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// New clamps the requested page number between 1 and the last page that
// holds rows.
func New(requested int, perPage int, total int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	if requested < 1 {
		requested = 1
	}

	totalPages := (total + perPage - 1) / perPage
	if requested > totalPages && total > 0 {
		requested = totalPages
	}

	return Page{
		Number:     requested,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the number of rows to skip to reach this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}
