package image

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

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
)

// ErrMissingAPIKey indicates that a vendor was configured without credentials.
var ErrMissingAPIKey = errors.New("image: api key is required")

// Options configures an HTTP-backed image vendor.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
	// RetryElapsed bounds how long transient failures are retried per call.
	RetryElapsed time.Duration
}

// APIError is a vendor-reported failure. Its message is the vendor's own.
type APIError struct {
	Vendor  string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// vendorClient performs JSON calls against one vendor with retry on
// transient transport and 429/5xx failures.
type vendorClient struct {
	vendor       string
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	logger       infra.Logger
	retryElapsed time.Duration
	authorize    func(h http.Header, key string)
	decodeError  func(raw []byte) string
}

func newVendorClient(vendor, defaultBase string, opts Options) (*vendorClient, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, fmt.Errorf("%s: %w", vendor, ErrMissingAPIKey)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBase
	}
	retry := opts.RetryElapsed
	if retry <= 0 {
		retry = 10 * time.Second
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &vendorClient{
		vendor:       vendor,
		baseURL:      baseURL,
		apiKey:       key,
		httpClient:   httpClient,
		logger:       logger,
		retryElapsed: retry,
		authorize: func(h http.Header, key string) {
			h.Set("Authorization", "Bearer "+key)
		},
		decodeError: messageField,
	}, nil
}

// do sends payload (when non-nil) and decodes a 2xx body into out, retrying
// transient failures for up to retryElapsed.
func (c *vendorClient) do(ctx context.Context, method, path string, payload, out any) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = c.retryElapsed
	return c.send(ctx, method, path, payload, out, b)
}

// poll makes a single attempt. The job driver already repeats polls up to its
// attempt ceiling, so one poll never outlasts one request.
func (c *vendorClient) poll(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodGet, path, nil, out, &backoff.StopBackOff{})
}

func (c *vendorClient) send(ctx context.Context, method, path string, payload, out any, b backoff.BackOff) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.vendor, err)
		}
	}

	attempt := 0
	op := func() error {
		attempt++
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%s: build request: %w", c.vendor, err))
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		c.authorize(req.Header, c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Warn().Err(err).Str("vendor", c.vendor).Int("attempt", attempt).Msg("vendor request failed")
			return fmt.Errorf("%s: http request: %w", c.vendor, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%s: read response: %w", c.vendor, err)
		}
		if resp.StatusCode >= 300 {
			apiErr := &APIError{Vendor: c.vendor, Status: resp.StatusCode, Message: c.decodeError(raw)}
			if apiErr.Message == "" {
				apiErr.Message = fmt.Sprintf("%s: status %d: %s", c.vendor, resp.StatusCode, strings.TrimSpace(string(raw)))
			}
			if retryableStatus(resp.StatusCode) {
				c.logger.Warn().Int("status", resp.StatusCode).Str("vendor", c.vendor).Int("attempt", attempt).Msg("vendor returned transient status")
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return backoff.Permanent(fmt.Errorf("%s: decode response: %w", c.vendor, err))
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// messageField extracts the common error shapes vendors return.
func messageField(raw []byte) string {
	var detail struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(raw, &detail); err != nil {
		return ""
	}
	switch {
	case detail.Message != "":
		return detail.Message
	case detail.Detail != "":
		return detail.Detail
	}
	switch e := detail.Error.(type) {
	case string:
		return e
	case map[string]any:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
	}
	return ""
}
