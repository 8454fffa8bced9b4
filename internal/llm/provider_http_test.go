package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wayfare/learnctl/internal/apperr"
)

func TestHTTPProvider_Complete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}],"usage":{"total_tokens":5}}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "", "test-model", nil)
	resp, err := p.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Text: "hi"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "hello" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 5 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
}

func TestHTTPProvider_Complete_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"down"}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "", "test-model", nil)
	_, err := p.Complete(context.Background(), Request{})
	if !errors.Is(err, apperr.ErrLLMTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestHTTPProvider_Complete_ClientErrorIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad request"}}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "", "test-model", nil)
	_, err := p.Complete(context.Background(), Request{})
	if !errors.Is(err, apperr.ErrLLMFatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}
