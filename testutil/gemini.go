package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// Canned upstream payloads served by GeminiServer.
const (
	PredictResponse         = `{"predictions":[{"bytesBase64Encoded":"aW1n","mimeType":"image/png"}]}`
	GenerateContentResponse = `{"candidates":[{"content":{"role":"model","parts":[{"text":"  A white mug with a cat.  "}]}}]}`
	InvalidAPIKeyResponse   = `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`
)

// GeminiServer is an httptest server that answers generateContent and predict
// calls with canned payloads and counts every request it receives.
type GeminiServer struct {
	URL string

	apiKey string
	calls  atomic.Int64
	srv    *httptest.Server
}

// NewGeminiServer starts a fake Gemini API that accepts only apiKey.
// The server is closed on test cleanup.
func NewGeminiServer(t *testing.T, apiKey string) *GeminiServer {
	t.Helper()
	g := &GeminiServer{apiKey: apiKey}
	g.srv = httptest.NewServer(http.HandlerFunc(g.serve))
	g.URL = g.srv.URL
	t.Cleanup(g.srv.Close)
	return g
}

// Calls returns the number of requests received so far.
func (g *GeminiServer) Calls() int64 { return g.calls.Load() }

func (g *GeminiServer) serve(w http.ResponseWriter, r *http.Request) {
	g.calls.Add(1)
	w.Header().Set("Content-Type", "application/json")

	if r.Header.Get("x-goog-api-key") != g.apiKey {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(InvalidAPIKeyResponse))
		return
	}
	switch {
	case strings.HasSuffix(r.URL.Path, ":predict"):
		_, _ = w.Write([]byte(PredictResponse))
	case strings.HasSuffix(r.URL.Path, ":generateContent"):
		_, _ = w.Write([]byte(GenerateContentResponse))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
