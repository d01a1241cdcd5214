package domain

import "time"

// Page size bounds for list queries.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortField names a sortable column.
type SortField string

const (
	SortCreatedAt   SortField = "created_at"
	SortUpdatedAt   SortField = "updated_at"
	SortRequestDate SortField = "request_date"
	SortName        SortField = "requester_name"
	SortStatus      SortField = "status"
	SortReference   SortField = "reference_code"
)

// IsValid reports whether f is a known sort field.
func (f SortField) IsValid() bool {
	switch f {
	case SortCreatedAt, SortUpdatedAt, SortRequestDate, SortName, SortStatus, SortReference:
		return true
	}
	return false
}

// Sort orders a list query.
type Sort struct {
	Field SortField
	Desc  bool
}

// Pagination is 1-indexed.
type Pagination struct {
	Page     int
	PageSize int
}

// Normalize clamps the page to >= 1 and the size to [1, max]. A
// non-positive max falls back to MaxPageSize.
func (p Pagination) Normalize(max int) Pagination {
	if max <= 0 {
		max = MaxPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > max {
		p.PageSize = max
	}
	return p
}

// Offset is the number of rows to skip.
func (p Pagination) Offset() int { return (p.Page - 1) * p.PageSize }

// DateRange bounds the request date. Either end may be nil.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// RecordFilter narrows a list query. Zero values mean "no constraint".
type RecordFilter struct {
	Search         string
	Statuses       []Status
	Types          []RecordType
	CreatedByID    *int64
	AssignedToID   *int64
	VisibleTo      *int64 // created by OR assigned to this actor
	Urgent         *bool
	RequestDate    DateRange
	IncludeDeleted bool
}

// ListQuery is the full input of a paginated list.
type ListQuery struct {
	Pagination Pagination
	Sort       Sort
	Filter     RecordFilter
}

// Page is one slice of a list result.
type Page struct {
	Items    []*Record
	Total    int64
	Page     int
	PageSize int
}

// TotalPages derives the page count from Total and PageSize.
func (p Page) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// StatsQuery scopes dashboard aggregation. A nil VisibleTo aggregates over
// all records.
type StatsQuery struct {
	VisibleTo   *int64
	RequestDate DateRange
	Now         time.Time
	Deadline    time.Duration
}

// DashboardStats aggregates live (not deleted) records.
type DashboardStats struct {
	Total      int64
	ByStatus   map[Status]int64
	ByType     map[RecordType]int64
	Pending    int64
	InProgress int64
	Finalized  int64
	Overdue    int64
	Urgent     int64
}

// InvalidRow identifies a persisted row that cannot be reconstructed.
type InvalidRow struct {
	ID     int64
	Status string
	Reason string
}
