package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ruteri/simpleweb/health"
	"github.com/ruteri/simpleweb/interfaces"
	"github.com/ruteri/simpleweb/metrics"
	"github.com/ruteri/simpleweb/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testMaxUploadBytes = 16 * 1024

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	server   *httptest.Server
	provider interfaces.StorageProvider
	metrics  *metrics.MetricsServer
}

func newTestEnv(t *testing.T, provider interfaces.StorageProvider, checker HealthChecker) *testEnv {
	t.Helper()
	logger := testLogger()

	metricsSrv, err := metrics.New("simpleweb_test", "")
	require.NoError(t, err)

	handler, err := NewHandler(provider, checker, metricsSrv, HandlerConfig{
		DefaultName:    "upload.bin",
		MaxUploadBytes: testMaxUploadBytes,
	}, logger)
	require.NoError(t, err)

	srv := New(&HTTPServerConfig{Log: logger}, handler, metricsSrv)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, provider: provider, metrics: metricsSrv}
}

// newLocalTestEnv wires a real local provider and the storage probe.
func newLocalTestEnv(t *testing.T) (*testEnv, *storage.LocalProvider) {
	t.Helper()
	provider, err := storage.NewLocalProvider(t.TempDir(), testLogger())
	require.NoError(t, err)

	aggregator := health.NewAggregator(testLogger())
	aggregator.Register("storage", storage.NewProbe(provider, 0))

	return newTestEnv(t, provider, aggregator), provider
}

func (e *testEnv) get(t *testing.T, path string, headers map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return e.do(t, req)
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func multipartUpload(t *testing.T, url, name string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		require.NoError(t, mw.WriteField("name", name))
	}
	if content != nil {
		fw, err := mw.CreateFormFile("file", "client-side-name.jpg")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func readStored(t *testing.T, p interfaces.StorageProvider, name string) string {
	t.Helper()
	rc, err := p.Read(context.Background(), interfaces.StoredObjectRef{ID: name, Kind: p.Kind()})
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestPages(t *testing.T) {
	env, _ := newLocalTestEnv(t)

	tests := []struct {
		name     string
		path     string
		contains string
	}{
		{"index", "/", "SimpleWeb"},
		{"index alias", "/Home/Index", "SimpleWeb"},
		{"privacy", "/Home/Privacy", "Privacy Policy"},
		{"upload form", "/Home/Upload", `enctype="multipart/form-data"`},
		{"error", "/Home/Error", "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.get(t, tt.path, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
			assert.Contains(t, body, tt.contains)
		})
	}
}

func TestIndex_PrincipalHeader(t *testing.T) {
	env, _ := newLocalTestEnv(t)

	resp, body := env.get(t, "/", map[string]string{PrincipalNameHeader: "testuser@example.com"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "testuser@example.com")
	assert.NotContains(t, body, "Not login yet")

	resp, body = env.get(t, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Not login yet")
}

func TestIndex_PrincipalIsEscaped(t *testing.T) {
	env, _ := newLocalTestEnv(t)

	_, body := env.get(t, "/", map[string]string{PrincipalNameHeader: "<script>alert(1)</script>"})
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestError_ShowsRequestID(t *testing.T) {
	env, _ := newLocalTestEnv(t)

	resp, body := env.get(t, "/Home/Error", map[string]string{"X-Request-Id": "req-42"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "req-42")
}

func TestNonExistentPage(t *testing.T) {
	env, _ := newLocalTestEnv(t)

	resp, _ := env.get(t, "/NonExistent/Page", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth_Healthy(t *testing.T) {
	env, _ := newLocalTestEnv(t)

	resp, body := env.get(t, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var report struct {
		Status  string `json:"status"`
		Results []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &report))
	assert.Equal(t, "Healthy", report.Status)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "storage", report.Results[0].Name)
	assert.Equal(t, "Healthy", report.Results[0].Status)

	count, err := testutil.GatherAndCount(env.metrics.Registry(), "simpleweb_test_health_checks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHealth_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		status   interfaces.HealthStatus
		err      error
		code     int
		reported string
	}{
		{"degraded", interfaces.Degraded, nil, http.StatusOK, "Degraded"},
		{"unhealthy", interfaces.Unhealthy, nil, http.StatusServiceUnavailable, "Unhealthy"},
		{"failing probe", interfaces.Healthy, errors.New("down"), http.StatusServiceUnavailable, "Unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggregator := health.NewAggregator(testLogger())
			aggregator.Register("ok", func(ctx context.Context) (interfaces.HealthStatus, string, error) {
				return interfaces.Healthy, "", nil
			})
			aggregator.Register("dependency", func(ctx context.Context) (interfaces.HealthStatus, string, error) {
				return tt.status, "", tt.err
			})

			provider, err := storage.NewLocalProvider(t.TempDir(), testLogger())
			require.NoError(t, err)
			env := newTestEnv(t, provider, aggregator)

			resp, body := env.get(t, "/health", nil)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Contains(t, body, `"status":"`+tt.reported+`"`)
		})
	}
}

func TestHealth_StorageGone(t *testing.T) {
	env, provider := newLocalTestEnv(t)

	require.NoError(t, os.RemoveAll(provider.BaseDir()))

	resp, body := env.get(t, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, `"status":"Unhealthy"`)
}

func TestUpload_Form(t *testing.T) {
	env, provider := newLocalTestEnv(t)

	content := []byte{0xff, 0xd8, 0xff, 0xe0, 'j', 'p', 'g'}
	resp, body := env.do(t, multipartUpload(t, env.server.URL+"/Home/Upload", "photos/cat.jpg", content))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "photos/cat.jpg")
	assert.Contains(t, body, "Local")

	assert.Equal(t, string(content), readStored(t, provider, "photos/cat.jpg"))

	count, err := testutil.GatherAndCount(env.metrics.Registry(), "simpleweb_test_uploads_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpload_FormDefaultName(t *testing.T) {
	env, provider := newLocalTestEnv(t)

	resp, _ := env.do(t, multipartUpload(t, env.server.URL+"/Home/Upload", "", []byte("payload")))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "payload", readStored(t, provider, "upload.bin"))
	assert.False(t, provider.Exists(context.Background(), interfaces.StoredObjectRef{ID: "client-side-name.jpg", Kind: interfaces.LocalStorage}))
}

func TestUpload_FormErrors(t *testing.T) {
	env, provider := newLocalTestEnv(t)
	url := env.server.URL + "/Home/Upload"

	resp, _ := env.do(t, multipartUpload(t, url, "name.txt", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, multipartUpload(t, url, "../escape.txt", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, multipartUpload(t, url, "big.bin", bytes.Repeat([]byte("x"), 2*testMaxUploadBytes)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.False(t, provider.Exists(context.Background(), interfaces.StoredObjectRef{ID: "big.bin", Kind: interfaces.LocalStorage}))

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader("not a form"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	resp, _ = env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFileAPI_RoundTrip(t *testing.T) {
	env, _ := newLocalTestEnv(t)

	req, err := http.NewRequest(http.MethodPut, env.server.URL+"/api/files/docs/readme.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	resp, body := env.do(t, req)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"id":"docs/readme.txt","kind":"Local"}`, body)

	resp, body = env.get(t, "/api/files/docs/readme.txt", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "hello", body)

	resp, _ = env.get(t, "/api/files/docs/missing.txt", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFileAPI_TooLarge(t *testing.T) {
	env, provider := newLocalTestEnv(t)

	req, err := http.NewRequest(http.MethodPut, env.server.URL+"/api/files/huge.bin", bytes.NewReader(make([]byte, 2*testMaxUploadBytes)))
	require.NoError(t, err)
	resp, _ := env.do(t, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.False(t, provider.Exists(context.Background(), interfaces.StoredObjectRef{ID: "huge.bin", Kind: interfaces.LocalStorage}))
}

func TestFileAPI_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid name", interfaces.ErrInvalidName, http.StatusBadRequest},
		{"not found", interfaces.ErrNotFound, http.StatusNotFound},
		{"unavailable", interfaces.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(storage.MockProvider)
			provider.On("Kind").Return(interfaces.RemoteStorage)
			provider.On("Write", mock.Anything, "object.bin", mock.Anything).
				Return(interfaces.StoredObjectRef{}, tt.err)
			provider.On("Read", mock.Anything, interfaces.StoredObjectRef{ID: "object.bin", Kind: interfaces.RemoteStorage}).
				Return(nil, tt.err)

			env := newTestEnv(t, provider, health.NewAggregator(testLogger()))

			req, err := http.NewRequest(http.MethodPut, env.server.URL+"/api/files/object.bin", strings.NewReader("x"))
			require.NoError(t, err)
			resp, _ := env.do(t, req)
			assert.Equal(t, tt.code, resp.StatusCode)

			resp, _ = env.get(t, "/api/files/object.bin", nil)
			assert.Equal(t, tt.code, resp.StatusCode)

			provider.AssertExpectations(t)
		})
	}
}

func TestFileAPI_RemoteRef(t *testing.T) {
	provider := new(storage.MockProvider)
	provider.On("Write", mock.Anything, "media/clip.mp4", mock.Anything).
		Return(interfaces.StoredObjectRef{ID: "media/clip.mp4", Kind: interfaces.RemoteStorage}, nil)

	env := newTestEnv(t, provider, health.NewAggregator(testLogger()))

	req, err := http.NewRequest(http.MethodPut, env.server.URL+"/api/files/media/clip.mp4", strings.NewReader("data"))
	require.NoError(t, err)
	resp, body := env.do(t, req)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"id":"media/clip.mp4","kind":"Remote"}`, body)
	provider.AssertExpectations(t)
}
