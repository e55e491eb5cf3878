package services_test

import (
	"context"
	"strings"
	"testing"

	"townreq-be/services"
)

func TestPostCommentPolicy(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.fileRequest(t, e.citizen)

	// A citizen cannot author an internal comment, and no record appears.
	_, err := e.comments.Post(ctx, e.citizen, req.ID, "please hide this", true)
	wantKind(t, err, services.KindForbidden)

	thread, err := e.comments.ListVisible(ctx, e.staff, req.ID)
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	if len(thread) != 0 {
		t.Fatal("rejected internal comment must not be persisted")
	}

	_, err = e.comments.Post(ctx, e.citizen, req.ID, "   \n\t ", false)
	wantKind(t, err, services.KindEmptyContent)

	_, err = e.comments.Post(ctx, e.citizen, req.ID, strings.Repeat("x", 2001), false)
	wantKind(t, err, services.KindContentTooLong)

	if _, err := e.comments.Post(ctx, e.citizen, req.ID, strings.Repeat("x", 2000), false); err != nil {
		t.Fatalf("max-length comment should post: %v", err)
	}
}

func TestCommentAccessFollowsRequestOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.fileRequest(t, e.citizen)

	_, err := e.comments.Post(ctx, e.otherCitizen, req.ID, "drive-by comment", false)
	wantKind(t, err, services.KindForbidden)

	_, err = e.comments.ListVisible(ctx, e.otherCitizen, req.ID)
	wantKind(t, err, services.KindForbidden)

	if _, err := e.comments.Post(ctx, e.staff, req.ID, "we are on it", false); err != nil {
		t.Fatalf("staff comment: %v", err)
	}
}

func TestVisibilityFiltersInternalComments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.fileRequest(t, e.citizen)

	if _, err := e.comments.Post(ctx, e.citizen, req.ID, "any update?", false); err != nil {
		t.Fatalf("citizen comment: %v", err)
	}
	if _, err := e.comments.Post(ctx, e.staff, req.ID, "contractor quoted $4k", true); err != nil {
		t.Fatalf("internal comment: %v", err)
	}
	if _, err := e.comments.Post(ctx, e.staff, req.ID, "scheduled for Tuesday", false); err != nil {
		t.Fatalf("public staff comment: %v", err)
	}

	citizenView, err := e.comments.ListVisible(ctx, e.citizen, req.ID)
	if err != nil {
		t.Fatalf("citizen ListVisible: %v", err)
	}
	if len(citizenView) != 2 {
		t.Fatalf("citizen sees %d comments, want 2", len(citizenView))
	}
	for _, c := range citizenView {
		if c.IsInternal {
			t.Fatal("citizen view leaked an internal comment")
		}
	}

	staffView, err := e.comments.ListVisible(ctx, e.staff, req.ID)
	if err != nil {
		t.Fatalf("staff ListVisible: %v", err)
	}
	if len(staffView) != 3 {
		t.Fatalf("staff sees %d comments, want 3", len(staffView))
	}

	// Creation order, oldest first.
	for i := 1; i < len(staffView); i++ {
		if staffView[i].CreatedAt.Before(staffView[i-1].CreatedAt) {
			t.Fatal("thread is not in creation order")
		}
	}
}

func TestCommentOnMissingRequest(t *testing.T) {
	e := newEnv(t)
	req := e.fileRequest(t, e.citizen)
	_ = req

	missing := e.citizen.ID // an id that is not a request
	_, err := e.comments.Post(context.Background(), e.citizen, missing, "hello", false)
	wantKind(t, err, services.KindNotFound)
}
