package vision

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(trace.NewNoopTracerProvider().Tracer("test"), Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gpt-4o",
	})
}

func TestGenerateSendsImageAndReturnsContent(t *testing.T) {
	var body string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Overall Recommendation: BUY"}}]}`)
	})

	out, err := client.Generate(context.Background(), "analyze", []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Overall Recommendation: BUY" {
		t.Fatalf("unexpected content %q", out)
	}

	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string            `json:"role"`
			Content []json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if req.Model != "gpt-4o" || len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
		t.Fatalf("unexpected request shape: %s", body)
	}
	if !strings.Contains(body, DataURL("image/png", []byte("png-bytes"))) {
		t.Fatalf("expected image data URL in request: %s", body)
	}
}

func TestGenerateMapsStatusErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`)
	})

	_, err := client.Generate(context.Background(), "analyze", []byte("x"), "image/png")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.HTTPStatus() != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", apiErr.HTTPStatus())
	}
}

func TestGenerateNoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`)
	})

	if _, err := client.Generate(context.Background(), "analyze", []byte("x"), "image/png"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestDataURL(t *testing.T) {
	if got := DataURL("image/jpeg", []byte("hi")); got != "data:image/jpeg;base64,aGk=" {
		t.Fatalf("unexpected data url %q", got)
	}
}
