package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ercase/ercase/internal/platform/auth"
)

// mockRecorder collects audit entries for assertions.
type mockRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error // if set, RecordAccess returns this error
}

func (m *mockRecorder) RecordAccess(entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockRecorder) last() AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// newTestContext creates an echo context with optional request mutations.
func newTestContext(method, path string, opts ...func(*http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func withAuth(userID string, roles []string) func(*http.Request) {
	return func(req *http.Request) {
		ctx := req.Context()
		ctx = context.WithValue(ctx, auth.UserIDKey, userID)
		ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
		*req = *req.WithContext(ctx)
	}
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// --- Tests ---

func TestAudit_CaseReadEntry(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}
	caseID := uuid.New().String()

	c, _ := newTestContext(http.MethodGet,
		fmt.Sprintf("/api/v1/cases/%s", caseID),
		withAuth("user-1", []string{"physician"}),
	)
	c.Set("request_id", "req-abc")

	mw := Audit(logger, rec)
	h := mw(okHandler)
	err := h(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", rec.count())
	}
	entry := rec.last()
	if entry.UserID != "user-1" {
		t.Errorf("expected user_id 'user-1', got %q", entry.UserID)
	}
	if len(entry.UserRoles) != 1 || entry.UserRoles[0] != "physician" {
		t.Errorf("expected roles [physician], got %v", entry.UserRoles)
	}
	if entry.Resource != "cases" {
		t.Errorf("expected resource 'cases', got %q", entry.Resource)
	}
	if entry.CaseID != caseID {
		t.Errorf("expected case_id %q, got %q", caseID, entry.CaseID)
	}
	if entry.Action != "read" {
		t.Errorf("expected action 'read', got %q", entry.Action)
	}
	if entry.RequestID != "req-abc" {
		t.Errorf("expected request_id 'req-abc', got %q", entry.RequestID)
	}
	if entry.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", entry.StatusCode)
	}
}

func TestAudit_CaseCreate(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}

	c, _ := newTestContext(http.MethodPost,
		"/api/v1/cases",
		withAuth("user-2", []string{"nurse"}),
	)

	mw := Audit(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry := rec.last()
	if entry.Action != "create" {
		t.Errorf("expected action 'create', got %q", entry.Action)
	}
	if entry.Resource != "cases" {
		t.Errorf("expected resource 'cases', got %q", entry.Resource)
	}
	if entry.CaseID != "" {
		t.Errorf("expected no case_id for collection create, got %q", entry.CaseID)
	}
}

func TestAudit_TreatmentUpdate(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}
	caseID := uuid.New().String()

	c, _ := newTestContext(http.MethodPut,
		fmt.Sprintf("/api/v1/cases/%s/treatment", caseID),
		withAuth("user-1", []string{"physician"}),
	)

	mw := Audit(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry := rec.last()
	if entry.Action != "update" {
		t.Errorf("expected action 'update', got %q", entry.Action)
	}
	if entry.CaseID != caseID {
		t.Errorf("expected case_id %q from sub-resource path, got %q", caseID, entry.CaseID)
	}
}

func TestAudit_DraftForCase(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}
	caseID := uuid.New().String()

	c, _ := newTestContext(http.MethodPost,
		fmt.Sprintf("/api/v1/drafts/for-case/%s", caseID),
		withAuth("user-3", []string{"nurse"}),
	)

	mw := Audit(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry := rec.last()
	if entry.Resource != "drafts" {
		t.Errorf("expected resource 'drafts', got %q", entry.Resource)
	}
	if entry.CaseID != caseID {
		t.Errorf("expected case_id %q from for-case path, got %q", caseID, entry.CaseID)
	}
}

func TestAudit_CaseIDFromQueryParam(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}
	caseID := uuid.New().String()

	c, _ := newTestContext(http.MethodGet,
		"/api/v1/drafts?case="+caseID,
		withAuth("user-1", []string{"physician"}),
	)

	mw := Audit(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := rec.last().CaseID; got != caseID {
		t.Errorf("expected case_id %q from query param, got %q", caseID, got)
	}
}

func TestAudit_AnonymousRequestStillAudited(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}

	c, _ := newTestContext(http.MethodGet, "/api/v1/cases")

	mw := Audit(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", rec.count())
	}
	if got := rec.last().UserID; got != "" {
		t.Errorf("expected empty user_id without auth, got %q", got)
	}
}

func TestAudit_RecorderErrorDoesNotFailRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	rec := &mockRecorder{err: errors.New("sink unavailable")}

	c, httpRec := newTestContext(http.MethodGet,
		"/api/v1/cases",
		withAuth("user-1", []string{"physician"}),
	)

	mw := Audit(logger, rec)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("expected request to succeed despite recorder error, got %v", err)
	}
	if httpRec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", httpRec.Code)
	}
	if !bytes.Contains(buf.Bytes(), []byte("failed to record audit entry")) {
		t.Error("expected recorder failure to be logged")
	}
}

func TestAudit_NoRecorderLogsOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	c, _ := newTestContext(http.MethodGet,
		"/api/v1/cases",
		withAuth("user-1", []string{"physician"}),
	)

	mw := Audit(logger)
	h := mw(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("chart_access")) {
		t.Error("expected chart_access log entry")
	}
	if !bytes.Contains(buf.Bytes(), []byte("access_audit")) {
		t.Error("expected access_audit type in log entry")
	}
}

func TestAudit_HandlerErrorStillRecorded(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}

	c, _ := newTestContext(http.MethodGet,
		"/api/v1/cases/"+uuid.New().String(),
		withAuth("user-1", []string{"physician"}),
	)

	failing := func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	}

	mw := Audit(logger, rec)
	h := mw(failing)
	err := h(c)

	if err == nil {
		t.Fatal("expected handler error to propagate")
	}
	if rec.count() != 1 {
		t.Fatalf("expected 1 audit entry despite handler error, got %d", rec.count())
	}
}

// --- Helper tests ---

func TestIsAuditablePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api/v1/cases", true},
		{"/api/v1/cases/123", true},
		{"/api/v1/drafts/active", true},
		{"/api/v1/documents", true},
		{"/health", false},
		{"/metrics", false},
		{"/", false},
		{"/api/v1", false},
		{"/api/v2/cases", false},
	}

	for _, tt := range tests {
		if got := isAuditablePath(tt.path); got != tt.want {
			t.Errorf("isAuditablePath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestHTTPMethodToAction(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{http.MethodGet, "read"},
		{http.MethodHead, "read"},
		{http.MethodPost, "create"},
		{http.MethodPut, "update"},
		{http.MethodPatch, "update"},
		{http.MethodDelete, "delete"},
		{"OPTIONS", "read"},
	}

	for _, tt := range tests {
		if got := httpMethodToAction(tt.method); got != tt.want {
			t.Errorf("httpMethodToAction(%q) = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestExtractResource(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/cases", "cases"},
		{"/api/v1/cases/abc-123", "cases"},
		{"/api/v1/cases/abc-123/treatment", "cases"},
		{"/api/v1/drafts", "drafts"},
		{"/api/v1/drafts/active", "drafts"},
		{"/api/v1/documents/xyz", "documents"},
		{"/api/v1/", "unknown"},
	}

	for _, tt := range tests {
		if got := extractResource(tt.path); got != tt.want {
			t.Errorf("extractResource(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestExtractCaseID(t *testing.T) {
	valid := uuid.New().String()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"case_path", "/api/v1/cases/" + valid, valid},
		{"case_subresource", "/api/v1/cases/" + valid + "/discharge-summary", valid},
		{"for_case_path", "/api/v1/drafts/for-case/" + valid, valid},
		{"query_param", "/api/v1/drafts?case=" + valid, valid},
		{"non_uuid_segment", "/api/v1/cases/active", ""},
		{"collection", "/api/v1/cases", ""},
		{"draft_id_not_case", "/api/v1/drafts/draft-" + valid, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodGet, tt.path)
			if got := extractCaseID(c); got != tt.want {
				t.Errorf("extractCaseID(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsUUIDLike(t *testing.T) {
	if !isUUIDLike(uuid.New().String()) {
		t.Error("expected generated UUID to be recognized")
	}
	if isUUIDLike("") {
		t.Error("expected empty string to be rejected")
	}
	if isUUIDLike("not-a-uuid") {
		t.Error("expected non-UUID to be rejected")
	}
	if isUUIDLike("draft-" + uuid.New().String()) {
		t.Error("expected prefixed draft id to be rejected")
	}
}
