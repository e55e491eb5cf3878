package services

import (
	"context"
	"log"
	"strings"
	"time"

	"townreq-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxAddressLength     = 200
)

// RequestService owns the request lifecycle: creation, lookup, the status
// state machine, assignment, and filtered listing.
type RequestService struct {
	store    Store
	notifier Notifier
	maxPage  int
}

func NewRequestService(store Store, notifier Notifier, maxPage int) *RequestService {
	if maxPage <= 0 {
		maxPage = 100
	}
	return &RequestService{store: store, notifier: notifier, maxPage: maxPage}
}

// CreateRequestInput carries the citizen-supplied fields of a new request.
type CreateRequestInput struct {
	Title       string
	Description string
	Category    models.RequestCategory
	Priority    models.RequestPriority
	Address     string
	Latitude    *float64
	Longitude   *float64
	IsAnonymous bool
}

// Create files a new request in submitted state. The creator reference is
// always retained, anonymous or not; anonymity only governs exposure.
func (s *RequestService) Create(ctx context.Context, p models.Principal, in CreateRequestInput) (*models.Request, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errInvalidArgument("title", "title is required")
	}
	if len(title) > maxTitleLength {
		return nil, errInvalidArgument("title", "title too long")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, errInvalidArgument("description", "description is required")
	}
	if len(in.Description) > maxDescriptionLength {
		return nil, errInvalidArgument("description", "description too long")
	}
	if len(in.Address) > maxAddressLength {
		return nil, errInvalidArgument("address", "address too long")
	}
	if !in.Category.Valid() {
		return nil, errInvalidArgument("category", "unknown category")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, errInvalidArgument("priority", "unknown priority")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return nil, errInvalidArgument("latitude", "latitude out of range")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return nil, errInvalidArgument("longitude", "longitude out of range")
	}

	now := time.Now()
	req := &models.Request{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: in.Description,
		Category:    in.Category,
		Priority:    in.Priority,
		Status:      models.StatusSubmitted,
		Address:     in.Address,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		CreatedBy:   p.ID,
		IsAnonymous: in.IsAnonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertRequest(ctx, req); err != nil {
		return nil, errUnavailable("request storage", err)
	}
	s.recordAudit(ctx, &models.AuditEvent{
		Request:  req.ID,
		Actor:    p.ID,
		Action:   models.AuditCreated,
		ToStatus: req.Status,
	})
	return req, nil
}

// Get fetches a single request. Citizens can only fetch their own.
func (s *RequestService) Get(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Request, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, errUnavailable("request storage", err)
	}
	if req == nil {
		return nil, errNotFound("request")
	}
	if p.Role == models.RoleCitizen && req.CreatedBy != p.ID {
		return nil, errForbidden("not authorized to view this request")
	}
	return req, nil
}

// Transition moves a request through the lifecycle table. Re-invoking a
// terminal transition that already happened is a no-op success, so retried
// client requests are harmless. The underlying update is a compare-and-set
// on the current status; a loser of a concurrent race observes
// IllegalTransition and must re-read before retrying.
func (s *RequestService) Transition(ctx context.Context, p models.Principal, id primitive.ObjectID, to models.RequestStatus, reason string) (*models.Request, error) {
	if !to.Valid() {
		return nil, errInvalidArgument("status", "unknown status")
	}
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, errUnavailable("request storage", err)
	}
	if req == nil {
		return nil, errNotFound("request")
	}

	if !p.Role.IsStaff() {
		return nil, errForbidden("citizens cannot change request status")
	}

	// Retried terminal transition: already there, nothing to do.
	if req.Status == to && to.Terminal() {
		return req, nil
	}
	if to == models.StatusClosed && p.Role != models.RoleAdmin {
		return nil, errForbidden("only an admin can close a request")
	}
	if !models.AllowsTransition(p.Role, req.Status, to) {
		return nil, errIllegalTransition(req.Status, to)
	}
	// The table already ruled the edge legal; the assignee restriction only
	// narrows who may take the assigned -> in_progress step.
	if to == models.StatusInProgress && p.Role != models.RoleAdmin {
		if req.Assignee == nil || *req.Assignee != p.ID {
			return nil, errForbidden("only the assignee can start work on a request")
		}
	}
	if to == models.StatusRejected && strings.TrimSpace(reason) == "" {
		return nil, errInvalidArgument("reason", "a rejection reason is required")
	}
	if to == models.StatusAssigned {
		// under_review -> assigned goes through Assign, which records who.
		return nil, errInvalidArgument("status", "use assignment to move a request to assigned")
	}

	ok, err := s.store.UpdateRequestStatus(ctx, id, req.Status, to)
	if err != nil {
		return nil, errUnavailable("request storage", err)
	}
	if !ok {
		// The race may have been lost to an identical transition; that is
		// the retried-request case and still a no-op success.
		cur, cerr := s.store.GetRequest(ctx, id)
		if cerr != nil {
			return nil, errUnavailable("request storage", cerr)
		}
		if cur == nil {
			return nil, errNotFound("request")
		}
		if cur.Status == to && to.Terminal() {
			return cur, nil
		}
		return nil, errIllegalTransition(cur.Status, to)
	}

	s.recordAudit(ctx, &models.AuditEvent{
		Request:    id,
		Actor:      p.ID,
		Action:     models.AuditStatusChanged,
		FromStatus: req.Status,
		ToStatus:   to,
		Detail:     strings.TrimSpace(reason),
	})

	if to == models.StatusRejected {
		s.recordRejection(ctx, p, id, reason)
	}

	updated, err := s.store.GetRequest(ctx, id)
	if err != nil || updated == nil {
		return nil, errUnavailable("request storage", err)
	}
	s.notifier.StatusChanged(updated)
	return updated, nil
}

// transitionConflict re-reads after a lost compare-and-set so the error
// carries the actual current status.
func (s *RequestService) transitionConflict(ctx context.Context, id primitive.ObjectID, to models.RequestStatus) error {
	cur, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return errUnavailable("request storage", err)
	}
	if cur == nil {
		return errNotFound("request")
	}
	return errIllegalTransition(cur.Status, to)
}

// recordRejection writes the automatic internal comment carrying the
// rejection reason. A failure here is logged but does not undo the
// transition, which already happened.
func (s *RequestService) recordRejection(ctx context.Context, p models.Principal, id primitive.ObjectID, reason string) {
	comment := &models.Comment{
		ID:         primitive.NewObjectID(),
		Request:    id,
		Author:     p.ID,
		Content:    "Request rejected: " + strings.TrimSpace(reason),
		IsInternal: true,
		CreatedAt:  time.Now(),
	}
	if err := s.store.InsertComment(ctx, comment); err != nil {
		log.Printf("Failed to record rejection reason for request %s: %v", id.Hex(), err)
		return
	}
	s.notifier.CommentPosted(comment)
}

// recordAudit appends a trail entry. The trail is best-effort: a write
// failure is logged and never rolls back the action it describes.
func (s *RequestService) recordAudit(ctx context.Context, ev *models.AuditEvent) {
	ev.ID = primitive.NewObjectID()
	ev.CreatedAt = time.Now()
	if err := s.store.InsertAuditEvent(ctx, ev); err != nil {
		log.Printf("Failed to record audit event for request %s: %v", ev.Request.Hex(), err)
	}
}

// AuditTrail returns the recorded lifecycle actions of a request in
// creation order. Staff only; the trail names staff actors.
func (s *RequestService) AuditTrail(ctx context.Context, p models.Principal, id primitive.ObjectID) ([]models.AuditEvent, error) {
	if !p.Role.IsStaff() {
		return nil, errForbidden("only staff can read the audit trail")
	}
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, errUnavailable("request storage", err)
	}
	if req == nil {
		return nil, errNotFound("request")
	}
	events, err := s.store.ListAuditEvents(ctx, id)
	if err != nil {
		return nil, errUnavailable("audit storage", err)
	}
	return events, nil
}

// Assign sets the assignee of a request. Assignment is only legal once
// review has started; from under_review it also advances the status to
// assigned. expected is the assignee the caller last observed (nil for
// unassigned); the update is conditioned on it, so an assignment that
// raced in between invalidates this one instead of being overwritten.
func (s *RequestService) Assign(ctx context.Context, p models.Principal, id, assigneeID primitive.ObjectID, expected *primitive.ObjectID) (*models.Request, error) {
	if !p.Role.IsStaff() {
		return nil, errForbidden("only staff can assign requests")
	}
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, errUnavailable("request storage", err)
	}
	if req == nil {
		return nil, errNotFound("request")
	}
	if req.Status == models.StatusSubmitted {
		return nil, &Error{
			Kind:    KindPrematureAssignment,
			Message: "request must be reviewed before assignment",
			Current: req.Status,
		}
	}
	if !models.AssignableFrom(req.Status) {
		return nil, errIllegalTransition(req.Status, models.StatusAssigned)
	}

	assignee, err := s.store.GetUser(ctx, assigneeID)
	if err != nil {
		return nil, errUnavailable("user storage", err)
	}
	if assignee == nil {
		return nil, errNotFound("assignee")
	}
	if !assignee.Role.IsStaff() || !assignee.IsActive {
		return nil, errInvalidArgument("assignee", "assignee must be an active staff member")
	}

	toStatus := req.Status
	if toStatus == models.StatusUnderReview {
		toStatus = models.StatusAssigned
	}

	ok, err := s.store.AssignRequest(ctx, id, req.Status, expected, toStatus, assigneeID)
	if err != nil {
		return nil, errUnavailable("request storage", err)
	}
	if !ok {
		return nil, s.transitionConflict(ctx, id, models.StatusAssigned)
	}

	s.recordAudit(ctx, &models.AuditEvent{
		Request:    id,
		Actor:      p.ID,
		Action:     models.AuditAssigned,
		FromStatus: req.Status,
		ToStatus:   toStatus,
		Assignee:   &assigneeID,
	})

	updated, err := s.store.GetRequest(ctx, id)
	if err != nil || updated == nil {
		return nil, errUnavailable("request storage", err)
	}
	s.notifier.StatusChanged(updated)
	return updated, nil
}
