package services

import (
	"context"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"townreq-be/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttachmentService accepts uploads into the scan pipeline and gates
// downloads on the scan verdict.
type AttachmentService struct {
	store    Store
	objects  ObjectStore
	queue    ScanQueue
	notifier Notifier
	maxBytes int64
}

func NewAttachmentService(store Store, objects ObjectStore, queue ScanQueue, notifier Notifier, maxBytes int64) *AttachmentService {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &AttachmentService{
		store:    store,
		objects:  objects,
		queue:    queue,
		notifier: notifier,
		maxBytes: maxBytes,
	}
}

func (a *AttachmentService) accessRequest(ctx context.Context, p models.Principal, requestID primitive.ObjectID) (*models.Request, error) {
	req, err := a.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, errUnavailable("request storage", err)
	}
	if req == nil {
		return nil, errNotFound("request")
	}
	if p.Role == models.RoleCitizen && req.CreatedBy != p.ID {
		return nil, errForbidden("not authorized to access this request")
	}
	return req, nil
}

// AcceptUpload validates the size bound, stores the object, and records the
// attachment in pending state with scanning scheduled. It returns as soon
// as the bytes are durable; scan completion is never awaited here. Filename
// and mime type are recorded as declared and not trusted for anything.
func (a *AttachmentService) AcceptUpload(ctx context.Context, p models.Principal, requestID primitive.ObjectID, r io.Reader, size int64, filename, mimeType, description string) (*models.Attachment, error) {
	if _, err := a.accessRequest(ctx, p, requestID); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, errInvalidArgument("file", "empty upload")
	}
	if size > a.maxBytes {
		return nil, &Error{
			Kind:    KindFileTooLarge,
			Message: "file exceeds the maximum upload size",
			Field:   "file",
			Limit:   a.maxBytes,
		}
	}
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, errInvalidArgument("filename", "a filename is required")
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	key := uuid.NewString() + path.Ext(filename)
	if err := a.objects.Put(ctx, key, r, size); err != nil {
		// An abandoned or failed upload leaves no attachment record.
		a.discardObject(key)
		return nil, errUnavailable("object storage", err)
	}

	att := &models.Attachment{
		ID:          primitive.NewObjectID(),
		Request:     requestID,
		UploadedBy:  p.ID,
		StorageKey:  key,
		Filename:    filename,
		MimeType:    mimeType,
		Size:        size,
		Description: description,
		ScanState:   models.ScanPending,
		CreatedAt:   time.Now(),
	}
	if err := a.store.InsertAttachment(ctx, att); err != nil {
		a.discardObject(key)
		return nil, errUnavailable("attachment storage", err)
	}

	if err := a.queue.Enqueue(ctx, att.ID); err != nil {
		// The attachment stays pending and downloads stay gated; a stuck
		// pending state is a reportable condition, not silent corruption.
		log.Printf("Failed to enqueue attachment %s for scanning: %v", att.ID.Hex(), err)
	}
	return att, nil
}

func (a *AttachmentService) discardObject(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.objects.Delete(ctx, key); err != nil {
		log.Printf("Failed to discard object %s: %v", key, err)
	}
}

// OpenDownload returns the stored bytes for a clean attachment. Pending and
// infected attachments fail with distinct conditions so callers can tell
// "try later" from "never".
func (a *AttachmentService) OpenDownload(ctx context.Context, p models.Principal, id primitive.ObjectID) (io.ReadCloser, *models.Attachment, error) {
	att, err := a.store.GetAttachment(ctx, id)
	if err != nil {
		return nil, nil, errUnavailable("attachment storage", err)
	}
	if att == nil {
		return nil, nil, errNotFound("attachment")
	}
	if _, err := a.accessRequest(ctx, p, att.Request); err != nil {
		return nil, nil, err
	}

	switch att.ScanState {
	case models.ScanPending:
		return nil, nil, &Error{Kind: KindNotReady, Message: "attachment has not been scanned yet"}
	case models.ScanInfected:
		return nil, nil, &Error{Kind: KindQuarantined, Message: "attachment failed the safety scan"}
	case models.ScanClean:
		rc, err := a.objects.Get(ctx, att.StorageKey)
		if err != nil {
			return nil, nil, errUnavailable("object storage", err)
		}
		return rc, att, nil
	}
	return nil, nil, errUnavailable("attachment storage", nil)
}

// ListForRequest returns attachment metadata for a request, with the same
// access rule as the thread.
func (a *AttachmentService) ListForRequest(ctx context.Context, p models.Principal, requestID primitive.ObjectID) ([]models.Attachment, error) {
	if _, err := a.accessRequest(ctx, p, requestID); err != nil {
		return nil, err
	}
	atts, err := a.store.ListAttachments(ctx, requestID)
	if err != nil {
		return nil, errUnavailable("attachment storage", err)
	}
	return atts, nil
}
