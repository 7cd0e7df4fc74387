package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BaSui01/podstudio/internal/ctxkeys"
	"github.com/BaSui01/podstudio/llm/gemini"
	"github.com/BaSui01/podstudio/studio"
	"github.com/BaSui01/podstudio/testutil"
	"github.com/BaSui01/podstudio/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// =============================================================================
// 🧪 测试辅助类型
// =============================================================================

type countingProvider struct {
	mu     sync.Mutex
	calls  int
	text   *gemini.GenerateContentResponse
	images *gemini.GenerateImagesResponse
	err    error
}

func (p *countingProvider) GenerateContent(context.Context, *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.text, nil
}

func (p *countingProvider) GenerateImages(context.Context, *gemini.GenerateImagesRequest) (*gemini.GenerateImagesResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.images, nil
}

func (p *countingProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type taskObservation struct {
	task   string
	status string
}

type fakeTaskRecorder struct {
	mu  sync.Mutex
	obs []taskObservation
}

func (r *fakeTaskRecorder) RecordTask(task, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, taskObservation{task, status})
}

func newDispatcher(t *testing.T, p *countingProvider, rec TaskRecorder) http.Handler {
	t.Helper()
	svc := studio.NewService(p, studio.Models{Text: "t", ImageEdit: "e", ImageGen: "g"}, zap.NewNop())
	return NewTaskHandler(studio.NewRegistry(svc), zaptest.NewLogger(t), 1<<20, rec)
}

func textResponse(text string) *gemini.GenerateContentResponse {
	return &gemini.GenerateContentResponse{Candidates: []gemini.Candidate{{
		Content: &gemini.Content{Role: "model", Parts: []gemini.Part{gemini.TextPart(text)}},
	}}}
}

func imageResponse(mime, data string) *gemini.GenerateContentResponse {
	return &gemini.GenerateContentResponse{Candidates: []gemini.Candidate{{
		Content: &gemini.Content{Role: "model", Parts: []gemini.Part{
			gemini.TextPart("here you go"),
			gemini.InlinePart(mime, data),
		}},
	}}}
}

func emptyPartsResponse() *gemini.GenerateContentResponse {
	return &gemini.GenerateContentResponse{Candidates: []gemini.Candidate{{
		Content: &gemini.Content{Role: "model"},
	}}}
}

func postTask(t *testing.T, h http.Handler, task string, params any) *httptest.ResponseRecorder {
	t.Helper()
	body := testutil.MustJSON(map[string]any{"task": task, "params": params})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/tasks", strings.NewReader(body)))
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

var imageB64 = base64.StdEncoding.EncodeToString([]byte("\x89PNG image bytes"))

func imageParams() map[string]string {
	return map[string]string{"mimeType": "image/png", "data": imageB64}
}

func applyDesignParams() map[string]string {
	return map[string]string{
		"blankMockupBase64": imageB64,
		"designMimeType":    "image/png",
		"designBase64":      imageB64,
		"productName":       "T-Shirt",
	}
}

// =============================================================================
// 🧪 路由
// =============================================================================

func TestTaskHandler_UnknownTask(t *testing.T) {
	p := &countingProvider{}
	rec := &fakeTaskRecorder{}
	h := newDispatcher(t, p, rec)

	for _, task := range []string{"", "unknown", "GenerateImage", "generateimage", " generateImage", "generateSeo ", "removeBackground\x00"} {
		t.Run(task, func(t *testing.T) {
			w := postTask(t, h, task, imageParams())

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, "Invalid task", resp.Error)
			assert.Equal(t, string(types.ErrInvalidTask), resp.Code)
		})
	}
	assert.Zero(t, p.callCount())
	assert.Empty(t, rec.obs)
}

func TestTaskHandler_MethodNotAllowed(t *testing.T) {
	p := &countingProvider{text: textResponse("x")}
	h := newDispatcher(t, p, nil)

	methods := []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodHead, http.MethodOptions}
	bodies := []string{"", `{"task":"generateAltText","params":{}}`, "garbage"}
	for _, method := range methods {
		for _, body := range bodies {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(method, "/api/v1/tasks", strings.NewReader(body)))

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
			assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
			if method != http.MethodHead {
				assert.Equal(t, "Method Not Allowed", decodeError(t, w).Error)
			}
		}
	}
	assert.Zero(t, p.callCount())
}

func TestTaskHandler_MalformedBody(t *testing.T) {
	p := &countingProvider{}
	h := newDispatcher(t, p, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"task":`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(types.ErrInvalidRequest), decodeError(t, w).Code)
	assert.Zero(t, p.callCount())
}

func TestTaskHandler_BodyTooLarge(t *testing.T) {
	p := &countingProvider{}
	svc := studio.NewService(p, studio.Models{}, zap.NewNop())
	h := NewTaskHandler(studio.NewRegistry(svc), zap.NewNop(), 64, nil)

	body := `{"task":"generateImage","params":{"prompt":"` + strings.Repeat("a", 256) + `"}}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Zero(t, p.callCount())
}

func TestTaskHandler_InvalidParams(t *testing.T) {
	p := &countingProvider{}
	h := newDispatcher(t, p, nil)

	w := postTask(t, h, "generateImage", map[string]any{"prompt": "", "numberOfImages": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(types.ErrInvalidRequest), decodeError(t, w).Code)

	w = postTask(t, h, "removeBackground", map[string]string{"mimeType": "text/plain", "data": imageB64})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, p.callCount())
}

// =============================================================================
// 🧪 任务结果
// =============================================================================

func TestTaskHandler_GenerateImage(t *testing.T) {
	p := &countingProvider{images: &gemini.GenerateImagesResponse{Images: []gemini.GeneratedImage{
		{MimeType: "image/png", Data: "first"},
		{MimeType: "image/png", Data: "second"},
		{MimeType: "image/png", Data: "third"},
	}}}
	rec := &fakeTaskRecorder{}
	h := newDispatcher(t, p, rec)

	w := postTask(t, h, "generateImage", map[string]any{"prompt": "a cat", "numberOfImages": 3})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Images []string `json:"images"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"first", "second", "third"}, resp.Images)
	assert.Equal(t, 1, p.callCount())
	assert.Equal(t, []taskObservation{{"generateImage", "success"}}, rec.obs)
}

func TestTaskHandler_GenerateImageNoImages(t *testing.T) {
	p := &countingProvider{images: &gemini.GenerateImagesResponse{}}
	rec := &fakeTaskRecorder{}
	h := newDispatcher(t, p, rec)

	w := postTask(t, h, "generateImage", map[string]any{"prompt": "a cat", "numberOfImages": 1})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Contains(t, resp.Error, "failed to produce any images")
	assert.Equal(t, string(types.ErrNoImages), resp.Code)
	assert.Equal(t, []taskObservation{{"generateImage", "NO_IMAGES"}}, rec.obs)
}

func TestTaskHandler_ImageEditAsymmetry(t *testing.T) {
	p := &countingProvider{text: imageResponse("image/webp", "RESULTDATA")}
	h := newDispatcher(t, p, nil)

	w := postTask(t, h, "removeBackground", imageParams())
	require.Equal(t, http.StatusOK, w.Code)
	var removed struct {
		Image string `json:"image"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&removed))
	assert.Equal(t, "data:image/webp;base64,RESULTDATA", removed.Image)

	w = postTask(t, h, "applyDesign", applyDesignParams())
	require.Equal(t, http.StatusOK, w.Code)
	var applied struct {
		Image string `json:"image"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&applied))
	assert.Equal(t, "RESULTDATA", applied.Image)
}

func TestTaskHandler_ImageEditEmptyParts(t *testing.T) {
	tests := []struct {
		task   string
		params any
	}{
		{"removeBackground", imageParams()},
		{"applyDesign", applyDesignParams()},
	}
	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			p := &countingProvider{text: emptyPartsResponse()}
			h := newDispatcher(t, p, nil)

			w := postTask(t, h, tt.task, tt.params)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			resp := decodeError(t, w)
			assert.Contains(t, resp.Error, "did not return an image")
			assert.Equal(t, string(types.ErrNoImageReturned), resp.Code)
		})
	}
}

func TestTaskHandler_GenerateSEO(t *testing.T) {
	content := studio.SEOContent{
		Title:       "Retro Sunset Tee",
		Description: "A soft cotton tee.",
		Features:    []string{"Cotton", "Unisex", "Printed in USA"},
		Tags:        []string{"retro", "sunset", "tee"},
	}
	raw, err := json.Marshal(content)
	require.NoError(t, err)

	p := &countingProvider{text: textResponse(string(raw))}
	h := newDispatcher(t, p, nil)

	w := postTask(t, h, "generateSeo", map[string]string{"productName": "T-Shirt", "designDescription": "a retro sunset"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp studio.SEOResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, content, resp.Content)
}

func TestTaskHandler_GenerateSEOUnexpectedFormat(t *testing.T) {
	p := &countingProvider{text: textResponse("not json")}
	h := newDispatcher(t, p, nil)

	w := postTask(t, h, "generateSeo", map[string]string{"productName": "Mug", "designDescription": "cats"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "The AI returned an unexpected format. Please try again.", resp.Error)
	assert.NotContains(t, resp.Error, "invalid character")
}

func TestTaskHandler_GenerateAltTextTrims(t *testing.T) {
	p := &countingProvider{text: textResponse("  A red mug.  ")}
	h := newDispatcher(t, p, nil)

	w := postTask(t, h, "generateAltText", imageParams())
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "A red mug.", resp.Text)
}

// =============================================================================
// 🧪 错误转换
// =============================================================================

func TestTaskHandler_ProviderErrorsAre500(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "upstream rate limit",
			err:     types.NewError(types.ErrRateLimited, "Resource exhausted").WithHTTPStatus(http.StatusTooManyRequests).WithProvider("gemini"),
			message: "Resource exhausted",
		},
		{
			name:    "upstream bad request",
			err:     types.NewError(types.ErrInvalidRequest, "API key not valid").WithHTTPStatus(http.StatusBadRequest).WithProvider("gemini"),
			message: "API key not valid",
		},
		{
			name:    "plain error",
			err:     errors.New("connection reset"),
			message: "connection reset",
		},
		{
			name:    "empty message",
			err:     types.NewError(types.ErrUpstreamError, "").WithProvider("gemini"),
			message: "An unknown error occurred.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &countingProvider{err: tt.err}
			h := newDispatcher(t, p, nil)

			w := postTask(t, h, "generateAltText", imageParams())

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w).Error)
			assert.Equal(t, 1, p.callCount())
		})
	}
}

func TestTaskHandler_RequestIDInContext(t *testing.T) {
	p := &countingProvider{text: textResponse("ok")}
	h := newDispatcher(t, p, nil)

	body := `{"task":"generateAltText","params":{"mimeType":"image/png","data":"` + imageB64 + `"}}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r = r.WithContext(ctxkeys.WithRequestID(r.Context(), "req-123"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTaskHandler_GenerateSEORejectsIncompleteListing(t *testing.T) {
	for _, text := range []string{"null", `{"title":"x"}`} {
		p := &countingProvider{text: textResponse(text)}
		h := newDispatcher(t, p, nil)

		w := postTask(t, h, "generateSeo", map[string]string{"productName": "Mug", "designDescription": "cats"})

		assert.Equal(t, http.StatusInternalServerError, w.Code, text)
		resp := decodeError(t, w)
		assert.Equal(t, string(types.ErrUnexpectedFormat), resp.Code, text)
		assert.NotContains(t, w.Body.String(), `"content"`, text)
	}
}
