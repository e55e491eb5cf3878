package services

import (
	"context"
	"strings"

	"townreq-be/models"
)

// ListQuery is the caller-facing filter specification. Enum fields arrive
// as raw strings so an unknown value can be rejected instead of silently
// matching nothing.
type ListQuery struct {
	Status   string
	Category string
	Priority string
	Search   string

	// Mine restricts the listing to requests the caller authored. Citizens
	// are scoped this way unconditionally.
	Mine bool
	// AssignedToMe restricts to requests assigned to the caller (staff).
	AssignedToMe bool

	Offset int
	Limit  int
}

// RequestPage is a single page of a listing plus the total match count
// ignoring pagination.
type RequestPage struct {
	Items []models.Request `json:"items"`
	Total int64            `json:"total"`
}

// List runs a filtered, paginated listing. Ordering is createdAt
// descending with id as tie-breaker, so pages of a fixed filter neither
// duplicate nor skip entries. Out-of-bounds pagination is rejected, never
// clamped, so callers cannot be misled about result completeness.
func (s *RequestService) List(ctx context.Context, p models.Principal, q ListQuery) (*RequestPage, error) {
	if q.Offset < 0 {
		return nil, errInvalidPagination("offset", "offset must be non-negative")
	}
	if q.Limit <= 0 || q.Limit > s.maxPage {
		return nil, errInvalidPagination("limit", "limit must be between 1 and 100")
	}

	filter := RequestFilter{Search: strings.TrimSpace(q.Search)}

	if q.Status != "" {
		st := models.RequestStatus(q.Status)
		if !st.Valid() {
			return nil, errInvalidFilter("status", "unknown status")
		}
		filter.Status = &st
	}
	if q.Category != "" {
		cat := models.RequestCategory(q.Category)
		if !cat.Valid() {
			return nil, errInvalidFilter("category", "unknown category")
		}
		filter.Category = &cat
	}
	if q.Priority != "" {
		pr := models.RequestPriority(q.Priority)
		if !pr.Valid() {
			return nil, errInvalidFilter("priority", "unknown priority")
		}
		filter.Priority = &pr
	}

	// Role scoping is not bypassable: a citizen only ever sees their own
	// requests, whatever the filter says.
	if p.Role == models.RoleCitizen || q.Mine {
		id := p.ID
		filter.CreatedBy = &id
	}
	if q.AssignedToMe {
		if !p.Role.IsStaff() {
			return nil, errInvalidFilter("assigned_to_me", "only staff have an assignment queue")
		}
		id := p.ID
		filter.Assignee = &id
	}

	items, total, err := s.store.ListRequests(ctx, filter, Page{Offset: q.Offset, Limit: q.Limit})
	if err != nil {
		return nil, errUnavailable("request storage", err)
	}
	return &RequestPage{Items: items, Total: total}, nil
}
