package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharatkse/image-storage-service/internal/config"
	"github.com/bharatkse/image-storage-service/internal/metadata"
	"github.com/bharatkse/image-storage-service/internal/storage"
)

const testAPIKey = "test-key-1"

type noopReporter struct{}

func (noopReporter) Report(_ context.Context, _ string) error { return nil }

type testEnv struct {
	router  *gin.Engine
	blobs   *storage.MemoryStore
	records *metadata.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{}
	cfg.Upload.MaxFileSize = 1 << 20
	cfg.Upload.PresignTTL = 300 * time.Second
	cfg.Security.APIKeys = []string{testAPIKey}

	blobs := storage.NewMemoryStore()
	records := metadata.NewMemoryStore()

	set := NewHandlerSet(zerolog.Nop(), blobs, records, noopReporter{}, cfg)

	router := gin.New()
	set.Register(router.Group("/api"))

	return &testEnv{router: router, blobs: blobs, records: records}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", testAPIKey)

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// pngPayload builds distinct bytes per seed so seeding several images for
// one owner does not trip the duplicate-content guard.
func pngPayload(seed string) string {
	data := append([]byte("\x89PNG\r\n\x1a\n"), []byte("fake png body "+seed)...)
	return base64.StdEncoding.EncodeToString(data)
}

func uploadBody(owner, name string) gin.H {
	return gin.H{
		"file":       pngPayload(name),
		"user_id":    owner,
		"image_name": name,
		"tags":       []string{"test"},
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/images", uploadBody("user1", "cat.png"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decodeJSON(t, rr)
	image := body["image"].(map[string]any)
	assert.NotEmpty(t, image["image_id"])
	assert.Equal(t, "user1", image["user_id"])
	assert.Equal(t, "image/png", image["mime_type"])
	assert.Equal(t, 1, env.blobs.Len())
	assert.Equal(t, 1, env.records.Len())
}

func TestUploadImageRejectsBadBase64(t *testing.T) {
	env := newTestEnv(t)

	body := uploadBody("user1", "cat.png")
	body["file"] = "not-base64!!!"
	rr := env.do(http.MethodPost, "/api/v1/images", body)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, env.blobs.Len())
}

func TestUploadImageRejectsUnsupportedType(t *testing.T) {
	env := newTestEnv(t)

	body := uploadBody("user1", "doc.png")
	body["file"] = base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 not an image"))
	rr := env.do(http.MethodPost, "/api/v1/images", body)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestUploadImageDuplicateContent(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/images", uploadBody("user1", "cat.png"))
	require.Equal(t, http.StatusCreated, rr.Code)

	// same bytes under a different name
	copyBody := uploadBody("user1", "copy.png")
	copyBody["file"] = pngPayload("cat.png")
	rr = env.do(http.MethodPost, "/api/v1/images", copyBody)
	assert.Equal(t, http.StatusConflict, rr.Code)

	body := decodeJSON(t, rr)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "DUPLICATE_CONTENT", errObj["code"])
}

func TestGetImageNotFound(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/v1/images/img_missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetImageAccessURL(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/images", uploadBody("user1", "cat.png"))
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decodeJSON(t, rr)
	imageID := created["image"].(map[string]any)["image_id"].(string)

	rr = env.do(http.MethodGet, fmt.Sprintf("/api/v1/images/%s?mode=download&include_metadata=true", imageID), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decodeJSON(t, rr)
	assert.Equal(t, imageID, body["image_id"])
	assert.Contains(t, body["url"], "attachment")
	assert.Equal(t, float64(300), body["expires_in"])
	assert.NotNil(t, body["image"])
}

func TestGetImageRejectsBadExpiry(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/v1/images/img_x?expires_in=0", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodGet, "/api/v1/images/img_x?expires_in=86401", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteImage(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/images", uploadBody("user1", "cat.png"))
	require.Equal(t, http.StatusCreated, rr.Code)
	imageID := decodeJSON(t, rr)["image"].(map[string]any)["image_id"].(string)

	rr = env.do(http.MethodDelete, "/api/v1/images/"+imageID, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 0, env.blobs.Len())
	assert.Equal(t, 0, env.records.Len())

	rr = env.do(http.MethodDelete, "/api/v1/images/"+imageID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListImages(t *testing.T) {
	env := newTestEnv(t)

	for _, name := range []string{"alpha.png", "beta.png"} {
		rr := env.do(http.MethodPost, "/api/v1/images", uploadBody("user1", name))
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := env.do(http.MethodGet, "/api/v1/images?user_id=user1&sort_by=image_name&sort_order=asc", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decodeJSON(t, rr)
	images := body["images"].([]any)
	require.Len(t, images, 2)
	assert.Equal(t, "alpha.png", images[0].(map[string]any)["image_name"])
	assert.Equal(t, float64(2), body["total_count"])

	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, false, pagination["has_more"])
}

func TestListImagesRequiresUserID(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/v1/images", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPIKeyEnforced(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/images?user_id=user1", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/images?user_id=user1", nil)
	req.Header.Set("X-Api-Key", "wrong-key")
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHealthSkipsAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthReportsDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{Environment: "test"}
	set := NewHandlerSet(zerolog.Nop(), storage.NewMemoryStore(), metadata.NewMemoryStore(), noopReporter{}, cfg,
		HealthCheck{Name: "postgres", Ping: func(context.Context) error { return nil }},
		HealthCheck{Name: "storage", Ping: func(context.Context) error { return errors.New("connection refused") }},
	)
	router := gin.New()
	set.Register(router.Group("/api"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	body := decodeJSON(t, rr)
	assert.Equal(t, "degraded", body["status"])
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "ok", deps["postgres"])
	assert.Equal(t, "unavailable", deps["storage"])
}
