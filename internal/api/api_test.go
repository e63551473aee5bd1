package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/YKarmar/ApplicationTracker/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Options{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "api.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return NewServer(st, zap.NewNop()).Router(), st
}

func do(t *testing.T, r http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestIndexAndHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	code, body := do(t, r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, body = do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestApplicationLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	code, body := do(t, r, http.MethodPost, "/api/applications", `{"company":"Acme","position":"Engineer"}`)
	require.Equal(t, http.StatusCreated, code, body)
	app := body["application"].(map[string]any)
	assert.Equal(t, "applied", app["status"])
	assert.Nil(t, app["master_resume"])
	assert.Equal(t, float64(1), app["id"])

	code, body = do(t, r, http.MethodGet, "/api/applications", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["applications"], 1)

	code, body = do(t, r, http.MethodPatch, "/api/applications/1", `{"notes":"referral"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "referral", body["application"].(map[string]any)["notes"])
	assert.Equal(t, "Acme", body["application"].(map[string]any)["company"])

	code, body = do(t, r, http.MethodPatch, "/api/applications/1/move", `{"status":"interviewed"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "interviewed", body["application"].(map[string]any)["status"])

	code, body = do(t, r, http.MethodPut, "/api/applications/1", `{"company":"Globex","position":"SRE","status":"submitted"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Globex", body["application"].(map[string]any)["company"])
	assert.Equal(t, "", body["application"].(map[string]any)["notes"])

	code, body = do(t, r, http.MethodDelete, "/api/applications/1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Application with id 1 deleted successfully", body["message"])

	code, body = do(t, r, http.MethodGet, "/api/applications/1", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])
}

func TestApplicationErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"missing company", http.MethodPost, "/api/applications", `{"position":"Engineer"}`, http.StatusBadRequest},
		{"bad status", http.MethodPost, "/api/applications", `{"company":"Acme","position":"Engineer","status":"Accepted"}`, http.StatusBadRequest},
		{"unknown resume", http.MethodPost, "/api/applications", `{"company":"Acme","position":"Engineer","master_resume":7}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/applications", `{"company":`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/applications/abc", "", http.StatusBadRequest},
		{"zero id", http.MethodGet, "/api/applications/0", "", http.StatusBadRequest},
		{"unknown id", http.MethodPatch, "/api/applications/42", `{"notes":"x"}`, http.StatusNotFound},
		{"move unknown status", http.MethodPatch, "/api/applications/42/move", `{"status":"hired"}`, http.StatusBadRequest},
		{"delete unknown", http.MethodDelete, "/api/applications/42", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestResumeFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	code, body := do(t, r, http.MethodPost, "/api/resumes", `{"name":"General Resume","content":"Go and SQL"}`)
	require.Equal(t, http.StatusCreated, code, body)
	resumeID := body["resume"].(map[string]any)["id"]

	code, body = do(t, r, http.MethodPost, "/api/applications", `{"company":"Acme","position":"Engineer","master_resume":1}`)
	require.Equal(t, http.StatusCreated, code, body)
	app := body["application"].(map[string]any)
	assert.Equal(t, resumeID, app["master_resume"])
	assert.Equal(t, "Go and SQL", app["tailored_resume"])

	code, body = do(t, r, http.MethodPost, "/api/resumes/1/clone", "")
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "General Resume (copy)", body["resume"].(map[string]any)["name"])

	code, body = do(t, r, http.MethodPost, "/api/resumes/1/clone", `{"name":"Backend Resume"}`)
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Backend Resume", body["resume"].(map[string]any)["name"])

	code, body = do(t, r, http.MethodPatch, "/api/resumes/1", `{"content":"Rust"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Rust", body["resume"].(map[string]any)["content"])

	code, body = do(t, r, http.MethodGet, "/api/resumes", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["resumes"], 3)

	code, body = do(t, r, http.MethodPost, "/api/applications/1/attach-resume", `{"resume_id":2}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(2), body["application"].(map[string]any)["master_resume"])
	assert.Equal(t, "Go and SQL", body["application"].(map[string]any)["tailored_resume"])

	code, _ = do(t, r, http.MethodDelete, "/api/resumes/2", "")
	assert.Equal(t, http.StatusOK, code)

	code, body = do(t, r, http.MethodGet, "/api/applications/1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["application"].(map[string]any)["master_resume"])

	code, _ = do(t, r, http.MethodGet, "/api/resumes/2", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, r, http.MethodPost, "/api/resumes", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

type brokenStore struct{ Store }

func (brokenStore) Ping(context.Context) error { return errors.New("connection refused") }

func (brokenStore) DeleteApplication(context.Context, uint) error {
	return errors.New("database is locked")
}

func TestServerErrors(t *testing.T) {
	r := NewServer(brokenStore{}, zap.NewNop()).Router()

	code, body := do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body["status"])

	code, body = do(t, r, http.MethodDelete, "/api/applications/1", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Server Error: Failed to delete application", body["error"])

	// 未实现的方法会 panic，由 Recovery 处理
	code, body = do(t, r, http.MethodGet, "/api/resumes", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, false, body["success"])
}
