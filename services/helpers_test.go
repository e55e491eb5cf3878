package services_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"townreq-be/models"
	"townreq-be/services"
	"townreq-be/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeObjects is an in-memory ObjectStore that counts Put calls so tests
// can assert an oversized upload never reached storage.
type fakeObjects struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	putCalls int
	putErr   error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{blobs: make(map[string][]byte)}
}

func (f *fakeObjects) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.blobs[key] = data
	return nil
}

func (f *fakeObjects) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[key]
	if !ok {
		return nil, fmt.Errorf("no object %q", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjects) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}

// stubClassifier returns a fixed verdict (or error) for every object.
type stubClassifier struct {
	verdict models.ScanState
	detail  string
	err     error
}

func (s stubClassifier) Classify(ctx context.Context, key string) (models.ScanState, string, error) {
	return s.verdict, s.detail, s.err
}

type env struct {
	store       *storage.MemStore
	objects     *fakeObjects
	queue       *storage.ChanScanQueue
	requests    *services.RequestService
	comments    *services.CommentService
	attachments *services.AttachmentService

	citizen      models.Principal
	otherCitizen models.Principal
	staff        models.Principal
	otherStaff   models.Principal
	admin        models.Principal
}

func seedUser(store *storage.MemStore, name string, role models.Role) models.Principal {
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Email:    name + "@example.test",
		Role:     role,
		IsActive: true,
	}
	store.PutUser(user)
	return user.Principal()
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := storage.NewMemStore()
	objects := newFakeObjects()
	queue := storage.NewChanScanQueue(16)
	notifier := services.NopNotifier{}

	return &env{
		store:        store,
		objects:      objects,
		queue:        queue,
		requests:     services.NewRequestService(store, notifier, 100),
		comments:     services.NewCommentService(store, notifier, 2000),
		attachments:  services.NewAttachmentService(store, objects, queue, notifier, 5*1024*1024),
		citizen:      seedUser(store, "carol", models.RoleCitizen),
		otherCitizen: seedUser(store, "dave", models.RoleCitizen),
		staff:        seedUser(store, "sam", models.RoleStaff),
		otherStaff:   seedUser(store, "sue", models.RoleStaff),
		admin:        seedUser(store, "ada", models.RoleAdmin),
	}
}

func (e *env) fileRequest(t *testing.T, creator models.Principal) *models.Request {
	t.Helper()
	req, err := e.requests.Create(context.Background(), creator, services.CreateRequestInput{
		Title:       "Broken street light",
		Description: "The light at 5th and Main has been out for a week.",
		Category:    models.StreetLighting,
		Priority:    models.PriorityMedium,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return req
}

// advance walks a request to the given status along the forward path.
func (e *env) advance(t *testing.T, id primitive.ObjectID, to models.RequestStatus) *models.Request {
	t.Helper()
	ctx := context.Background()

	req, err := e.requests.Get(ctx, e.staff, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	for req.Status != to {
		var next *models.Request
		switch req.Status {
		case models.StatusSubmitted:
			next, err = e.requests.Transition(ctx, e.staff, id, models.StatusUnderReview, "")
		case models.StatusUnderReview:
			next, err = e.requests.Assign(ctx, e.staff, id, e.staff.ID, nil)
		case models.StatusAssigned:
			next, err = e.requests.Transition(ctx, e.staff, id, models.StatusInProgress, "")
		case models.StatusInProgress:
			next, err = e.requests.Transition(ctx, e.staff, id, models.StatusCompleted, "")
		default:
			t.Fatalf("cannot advance from %s to %s", req.Status, to)
		}
		if err != nil {
			t.Fatalf("advance from %s: %v", req.Status, err)
		}
		req = next
	}
	return req
}

func wantKind(t *testing.T, err error, kind services.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !services.IsKind(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}
