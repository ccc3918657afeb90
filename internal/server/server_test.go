package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/me/pbadmin/internal/auth"
	"github.com/me/pbadmin/internal/config"
	"github.com/me/pbadmin/internal/dataprovider"
	"github.com/me/pbadmin/internal/metrics"
	"github.com/me/pbadmin/internal/session"
	"github.com/me/pbadmin/pkg/model"
	"github.com/me/pbadmin/pkg/pocketbase"
)

// fakePocketBase stands in for the PocketBase client on both boundaries.
type fakePocketBase struct {
	token string // issued on login; "tok-<identity>" when empty

	mu        sync.Mutex
	records   map[string]model.Record
	lastQuery model.ListQuery
	failWith  error
	deleted   []string
}

func newFakePocketBase() *fakePocketBase {
	return &fakePocketBase{records: map[string]model.Record{
		"p1": {"id": "p1", "title": "first"},
		"p2": {"id": "p2", "title": "second"},
	}}
}

func (f *fakePocketBase) List(_ context.Context, _ string, q model.ListQuery) (model.RecordPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	if f.failWith != nil {
		return model.RecordPage{}, f.failWith
	}
	return model.RecordPage{Items: []model.Record{f.records["p1"], f.records["p2"]}, Total: 12}, nil
}

func (f *fakePocketBase) GetOne(_ context.Context, c, id string) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[id]; ok {
		return rec, nil
	}
	return nil, &pocketbase.Error{Op: "view " + c, Status: http.StatusNotFound, Message: "The requested resource wasn't found."}
}

func (f *fakePocketBase) Create(_ context.Context, _ string, data model.Record) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := model.Record{"id": "p3"}
	for k, v := range data {
		rec[k] = v
	}
	f.records["p3"] = rec
	return rec, nil
}

func (f *fakePocketBase) Update(_ context.Context, _ string, id string, data model.Record) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := model.Record{"id": id}
	for k, v := range data {
		rec[k] = v
	}
	return rec, nil
}

func (f *fakePocketBase) Delete(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePocketBase) AuthWithPassword(_ context.Context, _, identity, password string) (*model.Session, error) {
	if password != "secret" {
		return nil, &pocketbase.Error{Op: "auth users", Status: http.StatusBadRequest, Message: "Failed to authenticate."}
	}
	token := f.token
	if token == "" {
		token = "tok-" + identity
	}
	return &model.Session{Token: token, Record: model.Record{"id": "u1", "email": identity, "name": "Ann"}}, nil
}

func (f *fakePocketBase) FileURL(model.Record, string) string { return "" }

type testEnv struct {
	srv *Server
	pb  *fakePocketBase
	reg *prometheus.Registry
}

func testServer(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))

	pb := newFakePocketBase()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	sessions := session.New(nil, nil, logger)
	provider := dataprovider.New(pb, dataprovider.WithLogger(logger), dataprovider.WithMetrics(m))
	authAdapter := auth.New(pb, sessions, auth.WithLogger(logger), auth.WithMetrics(m))

	cfg := config.DefaultServerConfig()
	cfg.AllowedOrigins = []string{"https://admin.example.com"}

	srv := New(cfg, provider, authAdapter, logger, WithMetrics(m, reg))
	return &testEnv{srv: srv, pb: pb, reg: reg}
}

// envelope is used to decode the standard response envelope.
type envelope struct {
	Status     string            `json:"status"`
	RequestID  string            `json:"request_id"`
	Timestamp  string            `json:"timestamp"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Error      *model.APIError   `json:"error"`
}

func do(t *testing.T, srv *Server, method, path, body string, wantStatus int) envelope {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != wantStatus {
		t.Fatalf("%s %s: status=%d, want %d, body=%s", method, path, w.Code, wantStatus, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON: %v", method, path, err)
	}
	return env
}

func login(t *testing.T, srv *Server) {
	t.Helper()
	do(t, srv, "POST", "/api/v1/auth/login", `{"username":"ann@x.com","password":"secret"}`, http.StatusOK)
}

func TestDiscovery(t *testing.T) {
	env := testServer(t)
	resp := do(t, env.srv, "GET", "/api/v1/", "", http.StatusOK)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.RequestID == "" {
		t.Error("request_id is empty")
	}

	var data struct {
		Name      string `json:"name"`
		Endpoints []struct {
			Path string `json:"path"`
		} `json:"endpoints"`
	}
	json.Unmarshal(resp.Data, &data)
	if data.Name != "pbadmin API" {
		t.Errorf("name = %q, want pbadmin API", data.Name)
	}
	if len(data.Endpoints) < 9 {
		t.Errorf("endpoints count = %d, want >= 9", len(data.Endpoints))
	}
}

func TestHealth(t *testing.T) {
	env := testServer(t)

	var data healthResponse
	json.Unmarshal(do(t, env.srv, "GET", "/api/v1/health", "", http.StatusOK).Data, &data)
	if data.Status != "healthy" || data.Session != "none" || data.Store != "none" {
		t.Errorf("health = %+v", data)
	}

	login(t, env.srv)
	json.Unmarshal(do(t, env.srv, "GET", "/api/v1/health", "", http.StatusOK).Data, &data)
	if data.Session != "valid" {
		t.Errorf("session = %q, want valid", data.Session)
	}
}

func TestHealth_SessionExpiry(t *testing.T) {
	env := testServer(t)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	env.pb.token = token
	login(t, env.srv)

	var data healthResponse
	json.Unmarshal(do(t, env.srv, "GET", "/api/v1/health", "", http.StatusOK).Data, &data)
	if want := exp.UTC().Format(time.RFC3339); data.Expires != want {
		t.Errorf("session_expires = %q, want %q", data.Expires, want)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("disk I/O error") }

func TestHealth_StoreDown(t *testing.T) {
	env := testServer(t)
	WithStore(failingPinger{})(env.srv)

	var data healthResponse
	json.Unmarshal(do(t, env.srv, "GET", "/api/v1/health", "", http.StatusOK).Data, &data)
	if data.Status != "degraded" || data.Store != "unavailable" {
		t.Errorf("health = %+v", data)
	}
}

func TestResources_RequireSession(t *testing.T) {
	env := testServer(t)
	resp := do(t, env.srv, "GET", "/api/v1/resources/posts", "", http.StatusUnauthorized)
	if resp.Error == nil || resp.Error.Code != model.ErrUnauthorized {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestLogin_Errors(t *testing.T) {
	env := testServer(t)
	do(t, env.srv, "POST", "/api/v1/auth/login", `{"username":"ann@x.com","password":"wrong"}`, http.StatusUnauthorized)

	resp := do(t, env.srv, "POST", "/api/v1/auth/login", `{"username":""}`, http.StatusBadRequest)
	if resp.Error == nil || len(resp.Error.Details) != 2 {
		t.Errorf("error = %+v, want two missing fields", resp.Error)
	}
	do(t, env.srv, "POST", "/api/v1/auth/login", `not json`, http.StatusBadRequest)
}

func TestAuthFlow(t *testing.T) {
	env := testServer(t)
	do(t, env.srv, "GET", "/api/v1/auth/check", "", http.StatusUnauthorized)

	resp := do(t, env.srv, "POST", "/api/v1/auth/login", `{"email":"ann@x.com","password":"secret"}`, http.StatusOK)
	var id model.Identity
	json.Unmarshal(resp.Data, &id)
	if id.FullName != "Ann" {
		t.Errorf("identity = %+v", id)
	}

	do(t, env.srv, "GET", "/api/v1/auth/check", "", http.StatusOK)

	var role string
	json.Unmarshal(do(t, env.srv, "GET", "/api/v1/auth/permissions", "", http.StatusOK).Data, &role)
	if role != "user" {
		t.Errorf("role = %q, want user", role)
	}
	do(t, env.srv, "GET", "/api/v1/auth/identity", "", http.StatusOK)

	do(t, env.srv, "POST", "/api/v1/auth/check-error", `{"status":500}`, http.StatusOK)
	do(t, env.srv, "GET", "/api/v1/auth/check", "", http.StatusOK)
	do(t, env.srv, "POST", "/api/v1/auth/check-error", `{"status":403}`, http.StatusUnauthorized)
	do(t, env.srv, "GET", "/api/v1/auth/check", "", http.StatusUnauthorized)

	login(t, env.srv)
	do(t, env.srv, "POST", "/api/v1/auth/logout", "", http.StatusOK)
	do(t, env.srv, "GET", "/api/v1/auth/identity", "", http.StatusUnauthorized)
}

func TestListRecords(t *testing.T) {
	env := testServer(t)
	login(t, env.srv)

	path := `/api/v1/resources/posts?page=2&perPage=5&sort=title&order=DESC&filter=` +
		`%7B%22title%22%3A%22fir%22%2C%22views%22%3A3%7D`
	resp := do(t, env.srv, "GET", path, "", http.StatusOK)

	want := model.ListQuery{Page: 2, PerPage: 5, Sort: "-title", Filter: `title ~ "fir" && views = "3"`}
	if env.pb.lastQuery != want {
		t.Errorf("query = %+v, want %+v", env.pb.lastQuery, want)
	}
	if resp.Pagination == nil || resp.Pagination.Total != 12 || !resp.Pagination.HasMore {
		t.Errorf("pagination = %+v", resp.Pagination)
	}
	var recs []model.Record
	json.Unmarshal(resp.Data, &recs)
	if len(recs) != 2 {
		t.Errorf("records = %d, want 2", len(recs))
	}
}

func TestListRecords_Validation(t *testing.T) {
	env := testServer(t)
	login(t, env.srv)

	for _, path := range []string{
		"/api/v1/resources/posts?page=abc",
		"/api/v1/resources/posts?perPage=-1",
		"/api/v1/resources/posts?order=sideways",
		"/api/v1/resources/posts?filter=%7B%22a%22%3A%7B%7D%7D",
		"/api/v1/resources/posts?filter=nope",
	} {
		resp := do(t, env.srv, "GET", path, "", http.StatusBadRequest)
		if resp.Error == nil || resp.Error.Code != model.ErrValidation {
			t.Errorf("GET %s: error = %+v", path, resp.Error)
		}
	}
}

func TestGetMany(t *testing.T) {
	env := testServer(t)
	login(t, env.srv)

	do(t, env.srv, "GET", "/api/v1/resources/posts?id=p1&id=p2", "", http.StatusOK)
	if env.pb.lastQuery.Filter != `id="p1" || id="p2"` {
		t.Errorf("filter = %q", env.pb.lastQuery.Filter)
	}
}

func TestListReferences(t *testing.T) {
	env := testServer(t)
	login(t, env.srv)

	do(t, env.srv, "GET", "/api/v1/resources/comments/reference/postId/42", "", http.StatusOK)
	if env.pb.lastQuery.Filter != `postId="42"` {
		t.Errorf("filter = %q", env.pb.lastQuery.Filter)
	}
}

func TestRecordCRUD(t *testing.T) {
	env := testServer(t)
	login(t, env.srv)

	resp := do(t, env.srv, "POST", "/api/v1/resources/posts", `{"title":"third"}`, http.StatusCreated)
	var created model.Record
	json.Unmarshal(resp.Data, &created)
	if created["id"] != "p3" {
		t.Errorf("created = %v", created)
	}

	resp = do(t, env.srv, "GET", "/api/v1/resources/posts/p3", "", http.StatusOK)
	var got model.Record
	json.Unmarshal(resp.Data, &got)
	if got["title"] != "third" {
		t.Errorf("got = %v", got)
	}

	do(t, env.srv, "PATCH", "/api/v1/resources/posts/p3", `{"title":"3rd"}`, http.StatusOK)
	do(t, env.srv, "PUT", "/api/v1/resources/posts/p3", `{"title":"third"}`, http.StatusOK)
	do(t, env.srv, "POST", "/api/v1/resources/posts", `[1,2]`, http.StatusBadRequest)

	resp = do(t, env.srv, "DELETE", "/api/v1/resources/posts/p3", "", http.StatusOK)
	var deleted model.Record
	json.Unmarshal(resp.Data, &deleted)
	if deleted["id"] != "p3" {
		t.Errorf("deleted = %v", deleted)
	}
}

func TestBulkOperations(t *testing.T) {
	env := testServer(t)
	login(t, env.srv)

	resp := do(t, env.srv, "PATCH", "/api/v1/resources/posts", `{"ids":["p1","p2"],"data":{"published":true}}`, http.StatusOK)
	var ids []string
	json.Unmarshal(resp.Data, &ids)
	if len(ids) != 2 || ids[0] != "p1" {
		t.Errorf("updated ids = %v", ids)
	}
	do(t, env.srv, "PATCH", "/api/v1/resources/posts", `{"ids":["p1"]}`, http.StatusBadRequest)

	resp = do(t, env.srv, "DELETE", "/api/v1/resources/posts?id=p1&id=p2", "", http.StatusOK)
	json.Unmarshal(resp.Data, &ids)
	if len(ids) != 2 || len(env.pb.deleted) != 2 {
		t.Errorf("deleted ids = %v (backend %v)", ids, env.pb.deleted)
	}
	do(t, env.srv, "DELETE", "/api/v1/resources/posts", "", http.StatusBadRequest)
}

func TestProviderErrors(t *testing.T) {
	env := testServer(t)
	login(t, env.srv)

	resp := do(t, env.srv, "GET", "/api/v1/resources/posts/missing", "", http.StatusNotFound)
	if resp.Error.Code != model.ErrNotFound || resp.Error.Message != "fetch one failed for posts (id missing)" {
		t.Errorf("error = %+v", resp.Error)
	}

	env.pb.failWith = errors.New("connection refused")
	resp = do(t, env.srv, "GET", "/api/v1/resources/posts", "", http.StatusBadGateway)
	if resp.Error.Code != model.ErrBackend {
		t.Errorf("code = %q, want BACKEND_ERROR", resp.Error.Code)
	}

	env.pb.failWith = &pocketbase.Error{Op: "list posts", Status: http.StatusBadRequest, Message: "Invalid filter parameters."}
	resp = do(t, env.srv, "GET", "/api/v1/resources/posts", "", http.StatusBadRequest)
	if resp.Error.Code != model.ErrValidation {
		t.Errorf("code = %q, want VALIDATION_ERROR", resp.Error.Code)
	}

	env.pb.failWith = &pocketbase.Error{Op: "list posts", Status: http.StatusForbidden, Message: "Only admins can perform this action."}
	do(t, env.srv, "GET", "/api/v1/resources/posts", "", http.StatusForbidden)
	// The 403 cleared the session.
	do(t, env.srv, "GET", "/api/v1/auth/check", "", http.StatusUnauthorized)
}

func TestCORS(t *testing.T) {
	env := testServer(t)

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{"allow-listed origin reflected", "https://admin.example.com", "https://admin.example.com"},
		{"other origin gets wildcard", "https://elsewhere.example.com", "*"},
		{"no origin gets no CORS headers", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/health", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			env.srv.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
				t.Errorf("Allow-Credentials = %q, want true", got)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := testServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/resources/posts", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	env.srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("preflight body = %q, want empty", w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PATCH") {
		t.Errorf("Allow-Methods = %q, want PATCH", got)
	}

	// A bare OPTIONS without preflight headers is answered too.
	req = httptest.NewRequest("OPTIONS", "/api/v1/resources/posts/p1", nil)
	w = httptest.NewRecorder()
	env.srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("OPTIONS status = %d body = %q, want empty 200", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := testServer(t)
	login(t, env.srv)
	do(t, env.srv, "GET", "/api/v1/resources/posts", "", http.StatusOK)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	env.srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"pbadmin_operations_total", `op="fetch list"`, "pbadmin_http_requests_total"} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics missing %q", want)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := testServer(t)
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	env.srv.ServeHTTP(w, req)
	if id := w.Header().Get("X-Request-ID"); !strings.HasPrefix(id, "req_") {
		t.Errorf("X-Request-ID = %q, want req_ prefix", id)
	}
}
