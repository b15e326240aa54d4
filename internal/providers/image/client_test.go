package image

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body any) *http.Response {
	raw, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

// recorder captures request bodies for assertions.
type recorder struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []map[string]any
}

func (r *recorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	var body map[string]any
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &body)
	}
	r.bodies = append(r.bodies, body)
}

func testOptions(rt roundTripFunc) Options {
	return Options{
		APIKey:       "test-key",
		BaseURL:      "https://vendor.test",
		HTTPClient:   &http.Client{Transport: rt},
		RetryElapsed: time.Second,
	}
}

func TestVendorClientRetriesTransientStatus(t *testing.T) {
	calls := 0
	c, err := newVendorClient("stub", "", testOptions(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return jsonResponse(http.StatusServiceUnavailable, map[string]any{"message": "busy"}), nil
		}
		return jsonResponse(http.StatusOK, map[string]any{"ok": true}), nil
	}))
	if err != nil {
		t.Fatalf("newVendorClient: %v", err)
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.do(context.Background(), http.MethodGet, "/x", nil, &out); err != nil {
		t.Fatalf("do: %v", err)
	}
	if !out.OK || calls != 3 {
		t.Fatalf("expected success after 3 calls, got ok=%v calls=%d", out.OK, calls)
	}
}

func TestVendorClientDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	c, _ := newVendorClient("stub", "", testOptions(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "prompt rejected"}}), nil
	}))
	err := c.do(context.Background(), http.MethodPost, "/x", map[string]string{"a": "b"}, nil)
	if err == nil || err.Error() != "prompt rejected" {
		t.Fatalf("expected vendor message, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected *APIError with status 400, got %#v", err)
	}
}

func TestVendorClientRequiresKey(t *testing.T) {
	if _, err := newVendorClient("stub", "", Options{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestMessageFieldShapes(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"message":"m"}`, "m"},
		{`{"detail":"d"}`, "d"},
		{`{"error":"e"}`, "e"},
		{`{"error":{"message":"nested"}}`, "nested"},
		{`not json`, ""},
	}
	for _, tc := range tests {
		if got := messageField([]byte(tc.raw)); got != tc.want {
			t.Fatalf("messageField(%s) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestVendorClientPollMakesOneAttempt(t *testing.T) {
	calls := 0
	c, _ := newVendorClient("stub", "", testOptions(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusServiceUnavailable, map[string]any{"message": "busy"}), nil
	}))
	start := time.Now()
	err := c.poll(context.Background(), "/predictions/p1", nil)
	if err == nil || err.Error() != "busy" {
		t.Fatalf("expected vendor message, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("poll should not back off, took %s", elapsed)
	}
}
