package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/queue"
)

const (
	userAgent        = "fieldsync/0.1.0"
	headerAPIKey     = "X-API-Key"
	imageFormField   = "image"
	defaultHTTPLimit = 60 * time.Second
)

// ErrDelivery marks any non-success outcome of a delivery attempt: transport
// error, timeout, non-2xx status, or a missing/unparseable confirmation.
// Always recoverable; the capture stays queued and is retried next pass.
var ErrDelivery = errors.New("delivery failure")

// Receipt is the remote service's acknowledgment of a delivered capture.
type Receipt struct {
	AnalysisID string `json:"analysis_id"`
}

// Client performs a single best-effort attempt to deliver one capture to the
// remote analysis endpoint. Implementations are stateless and never touch
// the store; retry policy belongs to the reconciliation scheduler.
type Client interface {
	Deliver(ctx context.Context, capture *queue.Capture) (Receipt, error)
}

// HTTPClient submits captures as multipart form posts.
type HTTPClient struct {
	uploadURL string
	apiKey    string
	http      *http.Client
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.http = client
		}
	}
}

// NewHTTPClient constructs a client for the remote analysis endpoint using
// the configured upload URL, API key, and request timeout.
func NewHTTPClient(cfg *config.Config, opts ...Option) *HTTPClient {
	timeout := defaultHTTPLimit
	if cfg.Endpoint.RequestTimeout > 0 {
		timeout = time.Duration(cfg.Endpoint.RequestTimeout) * time.Second
	}

	client := &HTTPClient{
		uploadURL: cfg.UploadURL(),
		apiKey:    strings.TrimSpace(cfg.Endpoint.APIKey),
		http:      &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Deliver posts the capture payload and any present location fields and
// returns the confirmation receipt. Success requires a 2xx status and a
// confirmation body carrying a non-empty analysis identifier; everything
// else wraps ErrDelivery.
func (c *HTTPClient) Deliver(ctx context.Context, capture *queue.Capture) (Receipt, error) {
	if c == nil || c.http == nil {
		return Receipt{}, fmt.Errorf("%w: nil client", ErrDelivery)
	}
	if capture == nil {
		return Receipt{}, fmt.Errorf("%w: nil capture", ErrDelivery)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writeLocationFields(writer, capture.Location); err != nil {
		return Receipt{}, fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	field, err := writer.CreateFormFile(imageFormField, capture.FileName)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: create image field: %w", ErrDelivery, err)
	}
	if _, err := field.Write(capture.Payload); err != nil {
		return Receipt{}, fmt.Errorf("%w: write payload: %w", ErrDelivery, err)
	}
	if err := writer.Close(); err != nil {
		return Receipt{}, fmt.Errorf("%w: close multipart writer: %w", ErrDelivery, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, body)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: build request: %w", ErrDelivery, err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		request.Header.Set(headerAPIKey, c.apiKey)
	}

	resp, err := c.http.Do(request)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: http request: %w", ErrDelivery, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: read response: %w", ErrDelivery, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Receipt{}, fmt.Errorf("%w: unexpected status %d: %s", ErrDelivery, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var receipt Receipt
	if err := json.Unmarshal(payload, &receipt); err != nil {
		return Receipt{}, fmt.Errorf("%w: decode confirmation: %w", ErrDelivery, err)
	}
	if strings.TrimSpace(receipt.AnalysisID) == "" {
		return Receipt{}, fmt.Errorf("%w: confirmation missing analysis id", ErrDelivery)
	}
	return receipt, nil
}

func writeLocationFields(writer *multipart.Writer, loc queue.Location) error {
	fields := []struct {
		name  string
		value *float64
	}{
		{"latitude", loc.Latitude},
		{"longitude", loc.Longitude},
		{"accuracy_m", loc.AccuracyM},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := writer.WriteField(f.name, strconv.FormatFloat(*f.value, 'f', -1, 64)); err != nil {
			return fmt.Errorf("write %s field: %w", f.name, err)
		}
	}
	return nil
}
