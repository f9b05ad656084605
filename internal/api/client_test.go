package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"restbench/internal/model"
)

type fakeTokens struct {
	token       string
	invalidated bool
}

func (f *fakeTokens) Token() string { return f.token }
func (f *fakeTokens) Invalidate()   { f.invalidated = true }

func TestClientAttachesBearerAndUnwraps(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[1,2,3]}`))
	}))
	defer server.Close()

	client := New(server.URL, 0, &fakeTokens{token: "tok"}, zerolog.Nop())
	data, err := client.Get(context.Background(), "/history", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if gotAuth != "Bearer tok" {
		t.Fatalf("expected bearer credential, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatalf("expected a request id header")
	}
	if string(data) != "[1,2,3]" {
		t.Fatalf("expected unwrapped payload, got %s", data)
	}
}

func TestClientOmitsBearerWithoutSession(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":null}`))
	}))
	defer server.Close()

	client := New(server.URL, 0, &fakeTokens{}, zerolog.Nop())
	if _, err := client.Get(context.Background(), "/history", nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestClientNormalizesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such collection"}`))
	}))
	defer server.Close()

	client := New(server.URL, 0, &fakeTokens{}, zerolog.Nop())
	_, err := client.Delete(context.Background(), "/collections/missing")

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Status != 404 || apiErr.Message != "no such collection" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestClientErrorWithoutBodyFallsBackToStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, 0, &fakeTokens{}, zerolog.Nop())
	_, err := client.Get(context.Background(), "/history", nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Status != 502 || apiErr.Message != http.StatusText(502) {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestClientInvalidatesSessionOn401(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := &fakeTokens{token: "stale"}
	client := New(server.URL, 0, tokens, zerolog.Nop())
	if _, err := client.Get(context.Background(), "/collections", nil); err == nil {
		t.Fatalf("expected error on 401")
	}
	if !tokens.invalidated {
		t.Fatalf("expected session invalidation on 401")
	}
}

func TestClientNetworkFailureHasNoStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := New(server.URL, 0, &fakeTokens{}, zerolog.Nop())
	_, err := client.Get(context.Background(), "/history", nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Status != 0 {
		t.Fatalf("expected no status before a response exists, got %d", apiErr.Status)
	}
	if apiErr.StatusOr(500) != 500 {
		t.Fatalf("expected fallback status 500")
	}
}

func TestProxyDecodesRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/proxy" || r.Method != http.MethodPost {
			t.Errorf("unexpected call: %s %s", r.Method, r.URL.Path)
		}

		var desc model.RequestDescriptor
		if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
			t.Errorf("decode descriptor: %v", err)
		}
		if desc.URL != "https://x" {
			t.Errorf("unexpected descriptor: %+v", desc)
		}

		w.Write([]byte(`{"status":200,"data":{"ok":true},"headers":{"Content-Type":"application/json"}}`))
	}))
	defer server.Close()

	client := New(server.URL, 0, &fakeTokens{token: "tok"}, zerolog.Nop())
	rec, err := client.Proxy(context.Background(), model.RequestDescriptor{
		URL:     "https://x",
		Method:  "GET",
		Headers: map[string]string{},
	})
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}

	if rec.Status != 200 || rec.Failed() {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Headers["Content-Type"] != "application/json" {
		t.Fatalf("expected proxied headers, got %v", rec.Headers)
	}
}
