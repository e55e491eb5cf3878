package controllers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"townreq-be/controllers"
	"townreq-be/middlewares"
	"townreq-be/models"
	"townreq-be/services"
	"townreq-be/storage"
	authUtils "townreq-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type nopObjects struct{}

func newNopObjects() nopObjects { return nopObjects{} }

func (nopObjects) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := io.Copy(io.Discard, r)
	return err
}

func (nopObjects) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (nopObjects) Delete(ctx context.Context, key string) error { return nil }

type fixture struct {
	router  *gin.Engine
	store   *storage.MemStore
	service *services.RequestService

	citizen      *models.User
	otherCitizen *models.User
	staff        *models.User
}

func newUser(store *storage.MemStore, name string, role models.Role) *models.User {
	user := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Email:    name + "@example.test",
		Role:     role,
		IsActive: true,
	}
	store.PutUser(user)
	return user
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	store := storage.NewMemStore()
	notifier := services.NopNotifier{}
	requestService := services.NewRequestService(store, notifier, 100)
	commentService := services.NewCommentService(store, notifier, 2000)
	attachmentService := services.NewAttachmentService(store, newNopObjects(), storage.NewChanScanQueue(4), notifier, 1024)
	controllers.Init(requestService, commentService, attachmentService)

	r := gin.New()
	api := r.Group("/api/request", middlewares.AuthMiddleware())
	{
		api.GET("", controllers.ListRequests)
		api.GET("/:id", controllers.GetRequest)
		api.POST("/:id/transition", controllers.TransitionRequest)
		api.POST("/:id/comments", controllers.PostComment)
		api.GET("/:id/comments", controllers.ListComments)
	}

	return &fixture{
		router:       r,
		store:        store,
		service:      requestService,
		citizen:      newUser(store, "carol", models.RoleCitizen),
		otherCitizen: newUser(store, "dave", models.RoleCitizen),
		staff:        newUser(store, "sam", models.RoleStaff),
	}
}

func (f *fixture) do(t *testing.T, user *models.User, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := authUtils.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) fileRequest(t *testing.T) *models.Request {
	t.Helper()
	req, err := f.service.Create(context.Background(), f.citizen.Principal(), services.CreateRequestInput{
		Title:       "Overflowing bin",
		Description: "Bin at the park entrance has not been emptied.",
		Category:    models.WasteManagement,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return req
}

func TestRequestEndpointsRequireAuth(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/request?limit=10", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestTransitionEndpointMapsErrorKinds(t *testing.T) {
	f := newFixture(t)
	req := f.fileRequest(t)

	// Illegal edge: submitted -> completed is a 409 with structured detail.
	w := f.do(t, f.staff, http.MethodPost, "/api/request/"+req.ID.Hex()+"/transition",
		`{"status":"completed"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["kind"] != "illegal_transition" {
		t.Errorf("kind = %v, want illegal_transition", body["kind"])
	}
	if body["current_status"] != "submitted" || body["attempted_status"] != "completed" {
		t.Errorf("missing transition detail: %v", body)
	}

	// Citizens get 403.
	w = f.do(t, f.citizen, http.MethodPost, "/api/request/"+req.ID.Hex()+"/transition",
		`{"status":"under_review"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	// The legal edge succeeds.
	w = f.do(t, f.staff, http.MethodPost, "/api/request/"+req.ID.Hex()+"/transition",
		`{"status":"under_review"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestListEndpointRejectsBadPagination(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, f.staff, http.MethodGet, "/api/request?limit=500", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	w = f.do(t, f.staff, http.MethodGet, "/api/request?limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestCommentEndpointsFilterInternal(t *testing.T) {
	f := newFixture(t)
	req := f.fileRequest(t)

	w := f.do(t, f.staff, http.MethodPost, "/api/request/"+req.ID.Hex()+"/comments",
		`{"content":"internal note","isInternal":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	// A citizen posting an internal comment is rejected.
	w = f.do(t, f.citizen, http.MethodPost, "/api/request/"+req.ID.Hex()+"/comments",
		`{"content":"sneaky","isInternal":true}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	// The citizen's thread view carries no internal comment bytes.
	w = f.do(t, f.citizen, http.MethodGet, "/api/request/"+req.ID.Hex()+"/comments", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), "internal note") {
		t.Fatal("internal comment bytes leaked to a citizen")
	}

	// A foreign citizen cannot read the thread at all.
	w = f.do(t, f.otherCitizen, http.MethodGet, "/api/request/"+req.ID.Hex()+"/comments", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}
