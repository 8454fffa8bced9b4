package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wayfare/learnctl/internal/apperr"
)

type stubProvider struct {
	errs  []error
	calls int
}

func (s *stubProvider) Complete(_ context.Context, _ Request) (Response, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return Response{}, s.errs[i]
	}
	return Response{Content: "done"}, nil
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestComplete_RetriesTransientThenSucceeds(t *testing.T) {
	p := &stubProvider{errs: []error{apperr.ErrLLMTransient, apperr.ErrLLMTransient}}
	c := New(p, fastRetry())

	resp, err := c.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "done" {
		t.Errorf("content = %q, want done", resp.Content)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
}

func TestComplete_FailsFastOnFatal(t *testing.T) {
	p := &stubProvider{errs: []error{apperr.ErrLLMFatal}}
	c := New(p, fastRetry())

	_, err := c.Complete(context.Background(), Request{})
	if !errors.Is(err, apperr.ErrLLMFatal) {
		t.Fatalf("err = %v, want ErrLLMFatal", err)
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on fatal)", p.calls)
	}
}

func TestComplete_ExhaustsRetriesAndSurfacesTransient(t *testing.T) {
	p := &stubProvider{errs: []error{
		apperr.ErrLLMTransient, apperr.ErrLLMTransient, apperr.ErrLLMTransient,
	}}
	c := New(p, fastRetry())

	_, err := c.Complete(context.Background(), Request{})
	if !errors.Is(err, apperr.ErrLLMTransient) {
		t.Fatalf("err = %v, want ErrLLMTransient", err)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3 (MaxAttempts)", p.calls)
	}
}
