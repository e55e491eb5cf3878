package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"townreq-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentService owns posting and role-filtered reading of a request's
// comment thread.
type CommentService struct {
	store     Store
	notifier  Notifier
	maxLength int
}

func NewCommentService(store Store, notifier Notifier, maxLength int) *CommentService {
	if maxLength <= 0 {
		maxLength = 2000
	}
	return &CommentService{store: store, notifier: notifier, maxLength: maxLength}
}

// accessRequest loads a request and enforces the shared access rule:
// citizens only touch threads on their own requests.
func (c *CommentService) accessRequest(ctx context.Context, p models.Principal, requestID primitive.ObjectID) (*models.Request, error) {
	req, err := c.store.GetRequest(ctx, requestID)
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

// Post appends a comment to a request's thread. Internal comments are a
// staff-only facility; a citizen attempting one is rejected and no record
// is created.
func (c *CommentService) Post(ctx context.Context, p models.Principal, requestID primitive.ObjectID, content string, isInternal bool) (*models.Comment, error) {
	if _, err := c.accessRequest(ctx, p, requestID); err != nil {
		return nil, err
	}
	if isInternal && !p.Role.IsStaff() {
		return nil, errForbidden("citizens cannot post internal comments")
	}
	if strings.TrimSpace(content) == "" {
		return nil, &Error{Kind: KindEmptyContent, Message: "comment content is empty", Field: "content"}
	}
	if utf8.RuneCountInString(content) > c.maxLength {
		return nil, &Error{
			Kind:    KindContentTooLong,
			Message: "comment content exceeds the maximum length",
			Field:   "content",
			Limit:   int64(c.maxLength),
		}
	}

	comment := &models.Comment{
		ID:         primitive.NewObjectID(),
		Request:    requestID,
		Author:     p.ID,
		Content:    content,
		IsInternal: isInternal,
		CreatedAt:  time.Now(),
	}
	if err := c.store.InsertComment(ctx, comment); err != nil {
		return nil, errUnavailable("comment storage", err)
	}
	c.notifier.CommentPosted(comment)
	return comment, nil
}

// ListVisible returns the thread in creation order, filtered for the
// viewer. The filter is applied at the query, not in a view: a citizen
// never receives internal comment bytes from the engine at all.
func (c *CommentService) ListVisible(ctx context.Context, p models.Principal, requestID primitive.ObjectID) ([]models.Comment, error) {
	if _, err := c.accessRequest(ctx, p, requestID); err != nil {
		return nil, err
	}
	comments, err := c.store.ListComments(ctx, requestID, p.Role.IsStaff())
	if err != nil {
		return nil, errUnavailable("comment storage", err)
	}
	return comments, nil
}
