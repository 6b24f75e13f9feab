package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/copple/planner/internal/app"
	"github.com/copple/planner/internal/config"
	"github.com/copple/planner/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (u *memoryUploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	return "https://copple.s3.ap-northeast-2.amazonaws.com/" + key, nil
}

func (u *memoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

type testServer struct {
	handler  http.Handler
	uploader *memoryUploader
	static   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	static := t.TempDir()
	cfg := &config.Config{
		AppEnv:           "development",
		StaticDir:        static,
		JWTSecret:        testSecret,
		S3KeyPrefix:      "travel_photos",
		StoreTimeout:     time.Second,
		UploadTimeout:    time.Second,
		UploadMaxBytes:   5 << 20,
		UploadRateLimit:  100,
		UploadRateWindow: time.Minute,
	}
	uploader := &memoryUploader{objects: make(map[string][]byte)}
	a := app.Wire(cfg, repository.NewMemoryRecordRepository(), uploader)
	t.Cleanup(a.Close)

	return &testServer{handler: SetupRoutes(a), uploader: uploader, static: static}
}

func (s *testServer) do(t *testing.T, owner string, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if owner != "" {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": owner,
			"exp":     time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func goalForm(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "trip.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/goal/create", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

func tripFields() map[string]string {
	return map[string]string{
		"title":         "Trip",
		"startDatetime": "2024-01-01T00:00",
		"endDatetime":   "2024-01-02T00:00",
		"offset":        "0",
		"location":      "Seoul",
		"content":       "hike",
	}
}

func TestGoalCreateAndRead(t *testing.T) {
	srv := newTestServer(t)

	fields := tripFields()
	fields["title"] = "Trip to Seoul"
	rec := srv.do(t, "u1", goalForm(t, fields, pngBytes))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	created := decode[map[string]string](t, rec)
	id := created["event_id"]
	require.NotEmpty(t, id)
	assert.NotEmpty(t, created["message"])

	var echo *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "goalData" {
			echo = c
		}
	}
	require.NotNil(t, echo, "create echoes the record in goalData")
	assert.Contains(t, echo.Value, "Trip%20to%20Seoul")
	assert.NotContains(t, echo.Value, "+")
	raw, err := url.PathUnescape(echo.Value)
	require.NoError(t, err)
	assert.Contains(t, raw, id)
	assert.Contains(t, raw, `"title":"Trip to Seoul"`)

	require.Len(t, srv.uploader.objects, 1)
	for key, data := range srv.uploader.objects {
		assert.True(t, strings.HasPrefix(key, "travel_photos/"))
		assert.Equal(t, pngBytes, data)
	}

	rec = srv.do(t, "u1", httptest.NewRequest(http.MethodGet, "/goal/read/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	goal := decode[map[string]any](t, rec)
	assert.Equal(t, id, goal["event_id"])
	assert.Equal(t, "u1", goal["user_id"])
	assert.Equal(t, "Goal", goal["eventType"])
	assert.Equal(t, "Trip to Seoul", goal["title"])
	assert.Equal(t, "Seoul", goal["location"])
	assert.Equal(t, float64(0), goal["offset"], "zero offset is kept")
	assert.NotNil(t, goal["photoUrl"])

	rec = srv.do(t, "u1", httptest.NewRequest(http.MethodGet, "/goal/read", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestGoalCreateRejects(t *testing.T) {
	srv := newTestServer(t)

	noOffset := tripFields()
	delete(noOffset, "offset")
	badOffset := tripFields()
	badOffset["offset"] = "soon"

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"missing image", goalForm(t, tripFields(), nil)},
		{"not an image", goalForm(t, tripFields(), []byte("plain text"))},
		{"missing offset", goalForm(t, noOffset, pngBytes)},
		{"invalid offset", goalForm(t, badOffset, pngBytes)},
		{"not multipart", jsonRequest(http.MethodPost, "/goal/create", `{"title":"Trip"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, "u1", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "invalid_input", decode[map[string]string](t, rec)["code"])
		})
	}
	assert.Empty(t, srv.uploader.objects, "nothing is uploaded for rejected input")
}

func TestEventLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, "u1", jsonRequest(http.MethodPost, "/event/create",
		`{"title":"Flight","startDatetime":"2024-01-01T09:00","endDatetime":"2024-01-01T11:00","offset":540,"goal":"g1","location":"ICN"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decode[map[string]string](t, rec)["event_id"]

	rec = srv.do(t, "u1", jsonRequest(http.MethodPut, "/event/update/"+id, `{"offset":0,"content":"window seat","title":""}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, "u1", httptest.NewRequest(http.MethodGet, "/event/read/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	event := decode[map[string]any](t, rec)
	assert.Equal(t, "Flight", event["title"], "empty title leaves the title alone")
	assert.Equal(t, float64(0), event["offset"])
	assert.Equal(t, "window seat", event["content"])
	assert.Equal(t, "ICN", event["location"])
	assert.Equal(t, "g1", event["goal"])

	rec = srv.do(t, "u1", httptest.NewRequest(http.MethodDelete, "/event/delete/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, "u1", httptest.NewRequest(http.MethodGet, "/event/read/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTodoUpdateEmptyTitleHasNoFields(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, "u1", jsonRequest(http.MethodPost, "/todo/create", `{"title":"Pack"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decode[map[string]string](t, rec)["event_id"]

	// An empty string counts as absent, so this patch has nothing to apply.
	rec = srv.do(t, "u1", jsonRequest(http.MethodPut, "/todo/update/"+id, `{"title":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no_fields", decode[map[string]string](t, rec)["code"])
}

func TestDeleteNonexistentSucceeds(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, "u1", httptest.NewRequest(http.MethodDelete, "/todo/delete/does-not-exist", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["message"])
}

func TestUpdateNonexistentIsNotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, "u1", jsonRequest(http.MethodPut, "/todo/update/does-not-exist", `{"title":"x"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[map[string]string](t, rec)["code"])
}

func TestRecordsAreScopedToOwner(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, "u1", jsonRequest(http.MethodPost, "/todo/create", `{"title":"Pack"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[map[string]string](t, rec)["event_id"]

	rec = srv.do(t, "u2", httptest.NewRequest(http.MethodGet, "/todo/read/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, "u2", httptest.NewRequest(http.MethodGet, "/todo/read", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]map[string]any](t, rec))

	rec = srv.do(t, "u2", httptest.NewRequest(http.MethodDelete, "/todo/delete/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, "u1", httptest.NewRequest(http.MethodGet, "/goal/read/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "a todo is not readable as a goal")
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	srv := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/goal/create"},
		{http.MethodGet, "/goal/read"},
		{http.MethodGet, "/event/read/x"},
		{http.MethodPut, "/todo/update/x"},
		{http.MethodDelete, "/todo/delete/x"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := srv.do(t, "", httptest.NewRequest(r.method, r.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "missing_credential", decode[map[string]string](t, rec)["code"])
		})
	}
}

func TestHealthAndStatic(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(srv.static, "index.html"), []byte("<h1>planner</h1>"), 0o644))

	rec := srv.do(t, "", httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	rec = srv.do(t, "", httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "planner")
}
