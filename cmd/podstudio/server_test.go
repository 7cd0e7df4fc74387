package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BaSui01/podstudio/config"
	"github.com/BaSui01/podstudio/internal/metrics"
	podtest "github.com/BaSui01/podstudio/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var serverTestSeq uint64

func testServerConfig(baseURL, apiKey string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Gemini.APIKey = apiKey
	cfg.Gemini.BaseURL = baseURL
	cfg.Gemini.Timeout = 5 * time.Second
	cfg.Server.RateLimitRPS = 1000
	cfg.Server.RateLimitBurst = 1000
	return cfg
}

// newTestHandler wires a Server without opening listeners.
// The returned namespace prefixes the server's metric names.
func newTestHandler(t *testing.T, cfg *config.Config) (string, http.Handler) {
	t.Helper()
	ns := fmt.Sprintf("server_test_%d", atomic.AddUint64(&serverTestSeq, 1))

	s := NewServer(cfg, zaptest.NewLogger(t), nil)
	s.metricsCollector = metrics.NewCollector(ns, zap.NewNop())
	s.initHandlers()

	return ns, s.handler(podtest.TestContext(t))
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.RemoteAddr = "203.0.113.5:4000"
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func altTextBody() string {
	data := base64.StdEncoding.EncodeToString([]byte("png"))
	return `{"task":"generateAltText","params":{"mimeType":"image/png","data":"` + data + `"}}`
}

func TestServer_TaskRoundTrip(t *testing.T) {
	fake := podtest.NewGeminiServer(t, "test-key")
	ns, h := newTestHandler(t, testServerConfig(fake.URL, "test-key"))

	for _, path := range []string{"/api/v1/tasks", "/"} {
		w := doJSON(t, h, http.MethodPost, path, altTextBody(), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"text":"A white mug with a cat."}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	}

	w := doJSON(t, h, http.MethodPost, "/api/v1/tasks", `{"task":"generateImage","params":{"prompt":"a cat","numberOfImages":1}}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"images":["aW1n"]}`, w.Body.String())

	assert.Equal(t, int64(3), fake.Calls())
	count, err := testutil.GatherAndCount(prometheus.DefaultGatherer, ns+"_tasks_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per task/status pair")
}

func TestServer_RoutingErrors(t *testing.T) {
	fake := podtest.NewGeminiServer(t, "test-key")
	_, h := newTestHandler(t, testServerConfig(fake.URL, "test-key"))

	w := doJSON(t, h, http.MethodGet, "/api/v1/tasks", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/v1/tasks", `{"task":"makeCoffee","params":{}}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid task","code":"INVALID_TASK"}`, w.Body.String())

	assert.Zero(t, fake.Calls())
}

func TestServer_OptionsWithoutPreflightIsMethodNotAllowed(t *testing.T) {
	fake := podtest.NewGeminiServer(t, "test-key")
	_, h := newTestHandler(t, testServerConfig(fake.URL, "test-key"))

	for _, path := range []string{"/", "/api/v1/tasks"} {
		w := doJSON(t, h, http.MethodOptions, path, altTextBody(), nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, path)
		assert.Equal(t, http.MethodPost, w.Header().Get("Allow"), path)
		assert.Contains(t, w.Body.String(), "Method Not Allowed", path)
	}
	assert.Zero(t, fake.Calls())
}

func TestServer_AuthPrecedesMethodCheck(t *testing.T) {
	fake := podtest.NewGeminiServer(t, "test-key")
	cfg := testServerConfig(fake.URL, "test-key")
	cfg.Server.APIKeys = []string{"caller-key"}
	_, h := newTestHandler(t, cfg)

	w := doJSON(t, h, http.MethodGet, "/api/v1/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/v1/tasks", "", map[string]string{"X-API-Key": "caller-key"})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	// 非预检 OPTIONS 不经认证，直接由分发器拒绝
	w = doJSON(t, h, http.MethodOptions, "/api/v1/tasks", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_MissingAPIKeySurfacesAtCallTime(t *testing.T) {
	fake := podtest.NewGeminiServer(t, "test-key")
	_, h := newTestHandler(t, testServerConfig(fake.URL, ""))

	w := doJSON(t, h, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/v1/tasks", altTextBody(), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "API key not valid")
	assert.Equal(t, int64(1), fake.Calls())
}

func TestServer_APIKeyAuth(t *testing.T) {
	fake := podtest.NewGeminiServer(t, "test-key")
	cfg := testServerConfig(fake.URL, "test-key")
	cfg.Server.APIKeys = []string{"caller-key"}
	_, h := newTestHandler(t, cfg)

	w := doJSON(t, h, http.MethodPost, "/api/v1/tasks", altTextBody(), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/v1/tasks", altTextBody(), map[string]string{"X-API-Key": "caller-key"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Version(t *testing.T) {
	fake := podtest.NewGeminiServer(t, "test-key")
	_, h := newTestHandler(t, testServerConfig(fake.URL, "test-key"))

	w := doJSON(t, h, http.MethodGet, "/version", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	info := podtest.MustParseJSON[map[string]string](w.Body.String())
	assert.Equal(t, Version, info["version"])
}

func TestServer_StartAndShutdown(t *testing.T) {
	fake := podtest.NewGeminiServer(t, "test-key")
	cfg := testServerConfig(fake.URL, "test-key")
	cfg.Server.HTTPPort = 0
	cfg.Server.MetricsPort = 0

	s := NewServer(cfg, zaptest.NewLogger(t), nil)
	require.NoError(t, s.Start())

	resp, err := http.Get("http://" + s.httpManager.ListenAddr() + "/health")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + s.metricsManager.ListenAddr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "podstudio_http_requests_total")

	require.NoError(t, s.Shutdown(context.Background()))
	assert.False(t, s.httpManager.IsRunning())
	assert.False(t, s.metricsManager.IsRunning())
}

func TestRunHealthCheck(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ready" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	var out strings.Builder
	require.NoError(t, runHealthCheck([]string{"--addr", ok.URL}, &out))
	assert.Equal(t, "OK\n", out.String())

	err := runHealthCheck([]string{"--addr", ok.URL, "--path", "/ready"}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestPrintVersion(t *testing.T) {
	var out strings.Builder
	printVersion(&out)
	assert.Contains(t, out.String(), "PodStudio "+Version)
}

func TestInitLogger(t *testing.T) {
	logger := initLogger(config.LogConfig{Level: "debug", Format: "console"})
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger = initLogger(config.LogConfig{Level: "warn", Format: "json", OutputPaths: []string{"stderr"}})
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
}
