package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status     string      `json:"status"`
	RequestID  string      `json:"request_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *APIError   `json:"error"`
}

// Pagination holds pagination metadata for list endpoints.
type Pagination struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	HasMore bool `json:"has_more"`
}

// NewPagination derives pagination metadata for one page of a result set.
func NewPagination(total int, page PageSpec) *Pagination {
	page = page.WithDefaults()
	return &Pagination{
		Total:   total,
		Page:    page.Page,
		PerPage: page.PerPage,
		HasMore: page.Page*page.PerPage < total,
	}
}

// ListQuery is the backend-facing shape of a list request: a one-based page,
// a page size, a "+field"/"-field" sort and a filter expression.
type ListQuery struct {
	Page    int
	PerPage int
	Sort    string
	Filter  string
}

// RecordPage is one page of backend records plus the total match count.
type RecordPage struct {
	Items []Record
	Total int
}
