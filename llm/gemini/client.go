package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/podstudio/internal/tlsutil"
	"github.com/BaSui01/podstudio/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const providerName = "gemini"

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultTimeout = 120 * time.Second
)

// Operation labels used for tracing and metrics.
const (
	OpGenerateContent = "generate_content"
	OpGenerateImages  = "generate_images"
)

// Config configures the Gemini REST client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Recorder receives one observation per upstream call.
// internal/metrics.Collector implements it.
type Recorder interface {
	RecordProviderCall(operation, model, status string, duration time.Duration)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// Client talks to the Gemini API over REST. It holds no per-request state and
// is safe for concurrent use.
type Client struct {
	cfg      Config
	http     *http.Client
	logger   *zap.Logger
	tracer   trace.Tracer
	recorder Recorder
}

// NewClient creates a Gemini client from immutable configuration.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		cfg:    cfg,
		http:   tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("component", "gemini")),
		tracer: otel.Tracer("podstudio/gemini"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return providerName }

// HasAPIKey reports whether a credential is configured. A missing key is not
// rejected up front; the API reports it on the first call.
func (c *Client) HasAPIKey() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// GenerateContent calls models/{model}:generateContent.
func (c *Client) GenerateContent(ctx context.Context, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	if req == nil || req.Model == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "model is required").WithProvider(providerName)
	}

	var out GenerateContentResponse
	if err := c.post(ctx, OpGenerateContent, req.Model, "generateContent", req, &out); err != nil {
		return nil, err
	}

	if out.UsageMetadata != nil {
		c.logger.Debug("generate content",
			zap.String("model", req.Model),
			zap.Int("prompt_tokens", out.UsageMetadata.PromptTokenCount),
			zap.Int("candidate_tokens", out.UsageMetadata.CandidatesTokenCount),
		)
	}
	return &out, nil
}

// GenerateImages calls the Imagen models/{model}:predict endpoint.
func (c *Client) GenerateImages(ctx context.Context, req *GenerateImagesRequest) (*GenerateImagesResponse, error) {
	if req == nil || req.Model == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "model is required").WithProvider(providerName)
	}

	body := predictRequest{
		Instances: []predictInstance{{Prompt: req.Prompt}},
		Parameters: predictParameters{
			SampleCount: req.NumberOfImages,
			AspectRatio: req.AspectRatio,
		},
	}
	if req.OutputMimeType != "" {
		body.Parameters.OutputOptions = &predictOutputOptions{MimeType: req.OutputMimeType}
	}

	var pr predictResponse
	if err := c.post(ctx, OpGenerateImages, req.Model, "predict", body, &pr); err != nil {
		return nil, err
	}

	out := &GenerateImagesResponse{}
	for _, p := range pr.Predictions {
		if p.BytesBase64Encoded == "" {
			if p.RAIFilteredReason != "" {
				out.FilteredReasons = append(out.FilteredReasons, p.RAIFilteredReason)
			}
			continue
		}
		out.Images = append(out.Images, GeneratedImage{MimeType: p.MimeType, Data: p.BytesBase64Encoded})
	}
	if len(out.FilteredReasons) > 0 {
		c.logger.Warn("imagen filtered predictions",
			zap.String("model", req.Model),
			zap.Strings("reasons", out.FilteredReasons),
		)
	}
	return out, nil
}

// post performs one JSON round-trip. There are no retries: every failure is
// returned to the caller as a *types.Error.
func (c *Client) post(ctx context.Context, op, model, method string, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "gemini."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.system", providerName),
			attribute.String("gen_ai.request.model", model),
		),
	)
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = string(types.GetErrorCode(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
		}
		span.End()
		if c.recorder != nil {
			c.recorder.RecordProviderCall(op, model, status, time.Since(start))
		}
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return types.NewError(types.ErrInternalError, "failed to encode request").
			WithCause(err).WithProvider(providerName)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:%s", c.cfg.BaseURL, model, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return types.NewError(types.ErrInternalError, "failed to create request").
			WithCause(err).WithProvider(providerName)
	}
	c.buildHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= 400 {
		msg := readErrMsg(resp.Body)
		c.logger.Warn("gemini request failed",
			zap.String("operation", op),
			zap.String("model", model),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return mapGeminiError(resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewError(types.ErrUpstreamError, "failed to decode gemini response").
			WithCause(err).WithHTTPStatus(http.StatusBadGateway).WithProvider(providerName)
	}
	return nil
}

func (c *Client) buildHeaders(req *http.Request) {
	// Gemini 使用 x-goog-api-key 认证
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 64<<10))
	var errResp errorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("%s (status: %s)", errResp.Error.Message, errResp.Error.Status)
	}
	return strings.TrimSpace(string(data))
}

func mapTransportError(err error) *types.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewError(types.ErrUpstreamTimeout, "gemini request timed out").
			WithCause(err).WithHTTPStatus(http.StatusGatewayTimeout).WithRetryable(true).WithProvider(providerName)
	}
	return types.NewError(types.ErrUpstreamError, err.Error()).
		WithCause(err).WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(providerName)
}

func mapGeminiError(status int, msg string) *types.Error {
	e := &types.Error{Message: msg, HTTPStatus: status, Provider: providerName}
	switch status {
	case http.StatusUnauthorized:
		e.Code = types.ErrAuthentication
	case http.StatusForbidden:
		e.Code = types.ErrForbidden
	case http.StatusTooManyRequests:
		e.Code = types.ErrRateLimited
		e.Retryable = true
	case http.StatusBadRequest:
		lower := strings.ToLower(msg)
		switch {
		case strings.Contains(lower, "api key"):
			e.Code = types.ErrAuthentication
		case strings.Contains(lower, "quota"):
			e.Code = types.ErrQuotaExceeded
		default:
			e.Code = types.ErrInvalidRequest
		}
	default:
		e.Code = types.ErrUpstreamError
		e.Retryable = status >= 500
	}
	return e
}
