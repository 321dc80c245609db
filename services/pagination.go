package services

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// PageOptions is the pagination filter for list operations
type PageOptions struct {
	Page  int `json:"page" validate:"omitempty,min=1"`
	Limit int `json:"limit" validate:"omitempty,min=1,max=100"`
}

// Normalize applies defaults and caps
func (p *PageOptions) Normalize() {
	if p.Page < 1 {
		p.Page = defaultPage
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
}

// Offset returns the row offset for the current page
func (p *PageOptions) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Paginated wraps a page of results with the total count
type Paginated[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
}
