package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"townreq-be/models"
	"townreq-be/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore is an in-memory services.Store with the same conditional-update
// semantics as MongoStore. It backs the engine's tests and local
// development without a database.
type MemStore struct {
	mu          sync.Mutex
	requests    map[primitive.ObjectID]*models.Request
	comments    map[primitive.ObjectID]*models.Comment
	attachments map[primitive.ObjectID]*models.Attachment
	audit       []models.AuditEvent
	users       map[primitive.ObjectID]*models.User
}

func NewMemStore() *MemStore {
	return &MemStore{
		requests:    make(map[primitive.ObjectID]*models.Request),
		comments:    make(map[primitive.ObjectID]*models.Comment),
		attachments: make(map[primitive.ObjectID]*models.Attachment),
		users:       make(map[primitive.ObjectID]*models.User),
	}
}

// PutUser seeds a user record.
func (s *MemStore) PutUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *MemStore) InsertRequest(ctx context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func (s *MemStore) GetRequest(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func matchesFilter(r *models.Request, f services.RequestFilter) bool {
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.Category != nil && r.Category != *f.Category {
		return false
	}
	if f.Priority != nil && r.Priority != *f.Priority {
		return false
	}
	if f.CreatedBy != nil && r.CreatedBy != *f.CreatedBy {
		return false
	}
	if f.Assignee != nil && (r.Assignee == nil || *r.Assignee != *f.Assignee) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Title), needle) &&
			!strings.Contains(strings.ToLower(r.Description), needle) {
			return false
		}
	}
	return true
}

func (s *MemStore) ListRequests(ctx context.Context, f services.RequestFilter, p services.Page) ([]models.Request, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.Request, 0)
	for _, r := range s.requests {
		if matchesFilter(r, f) {
			matched = append(matched, *r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})

	total := int64(len(matched))
	if p.Offset >= len(matched) {
		return []models.Request{}, total, nil
	}
	end := p.Offset + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[p.Offset:end], total, nil
}

func (s *MemStore) UpdateRequestStatus(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = time.Now()
	if to == models.StatusCompleted {
		now := time.Now()
		r.CompletedAt = &now
	}
	// Only assigned, in_progress and completed requests carry an assignee.
	if to == models.StatusRejected || to == models.StatusClosed {
		r.Assignee = nil
	}
	return true, nil
}

func (s *MemStore) AssignRequest(ctx context.Context, id primitive.ObjectID, fromStatus models.RequestStatus, fromAssignee *primitive.ObjectID, toStatus models.RequestStatus, assignee primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok || r.Status != fromStatus {
		return false, nil
	}
	if fromAssignee == nil {
		if r.Assignee != nil {
			return false, nil
		}
	} else if r.Assignee == nil || *r.Assignee != *fromAssignee {
		return false, nil
	}
	r.Status = toStatus
	r.Assignee = &assignee
	r.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemStore) InsertComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *MemStore) ListComments(ctx context.Context, requestID primitive.ObjectID, includeInternal bool) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Comment, 0)
	for _, c := range s.comments {
		if c.Request != requestID {
			continue
		}
		if c.IsInternal && !includeInternal {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (s *MemStore) InsertAttachment(ctx context.Context, a *models.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.attachments[a.ID] = &cp
	return nil
}

func (s *MemStore) GetAttachment(ctx context.Context, id primitive.ObjectID) (*models.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attachments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *MemStore) ListAttachments(ctx context.Context, requestID primitive.ObjectID) ([]models.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Attachment, 0)
	for _, a := range s.attachments {
		if a.Request == requestID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (s *MemStore) ClaimScan(ctx context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attachments[id]
	if !ok || a.ScanState != models.ScanPending || a.ScanClaimed {
		return false, nil
	}
	a.ScanClaimed = true
	return true, nil
}

func (s *MemStore) ReleaseScan(ctx context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attachments[id]
	if !ok || a.ScanState != models.ScanPending || !a.ScanClaimed {
		return false, nil
	}
	a.ScanClaimed = false
	return true, nil
}

func (s *MemStore) ResolveScan(ctx context.Context, id primitive.ObjectID, state models.ScanState, detail string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attachments[id]
	if !ok || a.ScanState != models.ScanPending || !a.ScanClaimed {
		return false, nil
	}
	a.ScanState = state
	a.ScanDetail = detail
	a.ScanClaimed = false
	return true, nil
}

func (s *MemStore) InsertAuditEvent(ctx context.Context, ev *models.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, *ev)
	return nil
}

func (s *MemStore) ListAuditEvents(ctx context.Context, requestID primitive.ObjectID) ([]models.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditEvent, 0)
	for _, ev := range s.audit {
		if ev.Request == requestID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *MemStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}
