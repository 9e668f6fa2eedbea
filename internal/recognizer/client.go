package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/mmynk/splitty/internal/metrics"
	"github.com/mmynk/splitty/internal/models"
)

const (
	analyzePath     = "/analyze_receipt"
	maxResponseSize = 1 << 20
)

// HTTPClient calls the analysis service over HTTP.
type HTTPClient struct {
	baseURL      string
	client       *http.Client
	maxDimension int
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.client = c }
}

// WithMaxDimension shrinks uploads to fit within px pixels. 0 disables resizing.
func WithMaxDimension(px int) Option {
	return func(h *HTTPClient) { h.maxDimension = px }
}

// NewHTTPClient creates a client for the analysis service at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: 60 * time.Second},
		maxDimension: 2048,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze uploads image and returns the recognized receipt.
// The token is forwarded as a bearer token; an empty token fails with
// ErrAuthRequired without contacting the service.
func (c *HTTPClient) Analyze(ctx context.Context, token string, image []byte) (*models.Receipt, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}

	start := time.Now()
	receipt, err := c.analyze(ctx, token, image)
	metrics.RecognizerRequest(outcome(err), time.Since(start))
	if err != nil {
		slog.Warn("Receipt analysis failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	slog.Info("Receipt analyzed",
		"establishment", receipt.Establishment,
		"items", len(receipt.Items),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return receipt, nil
}

func (c *HTTPClient) analyze(ctx context.Context, token string, image []byte) (*models.Receipt, error) {
	prepared, err := Preprocess(image, c.maxDimension)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "receipt.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(prepared); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ServiceError{Code: "unavailable", Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &ServiceError{Status: resp.StatusCode, Code: "unavailable", Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeServiceError(resp.StatusCode, data)
	}
	return DecodeReceipt(data)
}

// decodeServiceError accepts both {"error": "..."} and {"code": "...", "message": "..."} bodies.
func decodeServiceError(status int, data []byte) *ServiceError {
	var body struct {
		Error   string `json:"error"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(data, &body)

	svcErr := &ServiceError{Status: status, Code: body.Code, Message: body.Message}
	if svcErr.Message == "" {
		svcErr.Message = body.Error
	}
	if svcErr.Message == "" {
		svcErr.Message = strings.TrimSpace(string(data))
	}
	if svcErr.Message == "" {
		svcErr.Message = http.StatusText(status)
	}
	if svcErr.Code == "" {
		svcErr.Code = codeForStatus(status)
	}
	return svcErr
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "unauthenticated"
	case status == http.StatusTooManyRequests:
		return "resource_exhausted"
	case status >= 400 && status < 500:
		return "invalid_argument"
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		return "unavailable"
	default:
		return "internal"
	}
}

func outcome(err error) string {
	var svcErr *ServiceError
	var malformed *models.MalformedReceiptError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnsupportedImage), errors.Is(err, ErrEmptyImage):
		return "bad_image"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &svcErr):
		return svcErr.Code
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
