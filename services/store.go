package services

import (
	"context"
	"io"

	"townreq-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestFilter describes the criteria of a listing query. Nil / empty
// fields are unset.
type RequestFilter struct {
	Status    *models.RequestStatus
	Category  *models.RequestCategory
	Priority  *models.RequestPriority
	Search    string
	CreatedBy *primitive.ObjectID
	Assignee  *primitive.ObjectID
}

// Page is a validated pagination window.
type Page struct {
	Offset int
	Limit  int
}

// Store is the persistence contract of the engine. Lookups return
// (nil, nil) when the record does not exist; conditional updates return
// false when the expected prior state no longer holds, which is how
// concurrent writers lose a race.
//
// Listing order is fixed: createdAt descending, tie-broken by id
// descending, so a fixed filter paginates without duplicates or gaps.
// Comment listing is creation order ascending.
type Store interface {
	InsertRequest(ctx context.Context, r *models.Request) error
	GetRequest(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	ListRequests(ctx context.Context, f RequestFilter, p Page) ([]models.Request, int64, error)

	// UpdateRequestStatus atomically moves id from `from` to `to`,
	// refreshing updatedAt and stamping completedAt when `to` is completed.
	UpdateRequestStatus(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus) (bool, error)

	// AssignRequest atomically sets the assignee, conditioned on both the
	// current status and the assignee the caller observed so concurrent
	// assigns cannot both win.
	AssignRequest(ctx context.Context, id primitive.ObjectID, fromStatus models.RequestStatus, fromAssignee *primitive.ObjectID, toStatus models.RequestStatus, assignee primitive.ObjectID) (bool, error)

	InsertComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, requestID primitive.ObjectID, includeInternal bool) ([]models.Comment, error)

	InsertAttachment(ctx context.Context, a *models.Attachment) error
	GetAttachment(ctx context.Context, id primitive.ObjectID) (*models.Attachment, error)
	ListAttachments(ctx context.Context, requestID primitive.ObjectID) ([]models.Attachment, error)

	// ClaimScan takes the pending -> scanning handoff for a single worker.
	// It succeeds at most once per attachment until released or resolved.
	ClaimScan(ctx context.Context, id primitive.ObjectID) (bool, error)
	// ReleaseScan returns a claimed attachment to the unclaimed pending
	// pool after a classifier failure.
	ReleaseScan(ctx context.Context, id primitive.ObjectID) (bool, error)
	// ResolveScan moves a claimed attachment to its terminal state.
	ResolveScan(ctx context.Context, id primitive.ObjectID, state models.ScanState, detail string) (bool, error)

	// InsertAuditEvent appends to a request's audit trail.
	InsertAuditEvent(ctx context.Context, ev *models.AuditEvent) error
	// ListAuditEvents returns a request's trail in creation order.
	ListAuditEvents(ctx context.Context, requestID primitive.ObjectID) ([]models.AuditEvent, error)

	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// ObjectStore is opaque durable storage for uploaded bytes.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Classifier renders the two-valued scan verdict for a stored object.
// The detail string is an internal note (e.g. the signature name).
type Classifier interface {
	Classify(ctx context.Context, key string) (models.ScanState, string, error)
}

// ScanQueue carries attachment ids from upload acceptance to the scan
// workers. Dequeue blocks until an id is available or ctx is done.
type ScanQueue interface {
	Enqueue(ctx context.Context, id primitive.ObjectID) error
	Dequeue(ctx context.Context) (primitive.ObjectID, error)
}

// Notifier receives lifecycle events for delivery to UIs. Fire-and-forget:
// implementations swallow their own failures, which never roll back the
// engine's state change.
type Notifier interface {
	StatusChanged(r *models.Request)
	CommentPosted(c *models.Comment)
	ScanResolved(a *models.Attachment)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) StatusChanged(*models.Request)   {}
func (NopNotifier) CommentPosted(*models.Comment)   {}
func (NopNotifier) ScanResolved(*models.Attachment) {}
