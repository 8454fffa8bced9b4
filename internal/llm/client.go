// Package llm implements the provider-agnostic LLM Client (§4.4): a single
// complete() operation with bounded-retry, exponential backoff and jitter
// on transient failures, and fail-fast on fatal ones.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/wayfare/learnctl/internal/apperr"
)

// Role identifies the speaker of a single message in a chat-completion
// transcript.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to the provider.
type Message struct {
	Role Role
	Text string
}

// Options carries the per-call generation parameters.
type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Provider    string
	Model       string
}

// Request is the full input to a single Complete call.
type Request struct {
	Messages []Message
	Options  Options
}

// Usage reports token accounting for a single completion, when the
// provider exposes it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the result of a single Complete call.
type Response struct {
	Content string
	Usage   Usage
}

// Provider performs exactly one chat-completion round trip with no retry
// logic of its own — retry, timeout, and classification of transient vs.
// fatal failures are the Client's job, not the Provider's.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Client is what the rest of the engine depends on: a single stateless
// complete() operation.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// RetryConfig controls the bounded-retry policy applied on top of a
// Provider.
type RetryConfig struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig matches §4.4 and §6's documented defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// client wraps a Provider with the retry policy. Concurrent callers are
// never serialized here — §4.4 only mandates per-provider serialization
// "if the provider mandates it", and none of the providers this module
// ships against require it; a Provider implementation that does need
// serialization can enforce it internally (e.g. with its own mutex).
type client struct {
	provider Provider
	retry    RetryConfig
}

// New wraps provider with the engine's standard retry policy.
func New(provider Provider, retry RetryConfig) Client {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	return &client{provider: provider, retry: retry}
}

// Complete runs req against the wrapped provider, retrying transient
// failures with exponential backoff and jitter up to MaxAttempts, and
// failing fast on fatal ones.
func (c *client) Complete(ctx context.Context, req Request) (Response, error) {
	timeout := req.Options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retry.BaseDelay
	bo.MaxInterval = c.retry.MaxDelay

	operation := func() (Response, error) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := c.provider.Complete(callCtx, req)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, apperr.ErrLLMFatal) {
			return Response{}, backoff.Permanent(err)
		}
		if errors.Is(err, context.Canceled) {
			return Response{}, backoff.Permanent(err)
		}
		// Anything else, including apperr.ErrLLMTransient and unclassified
		// provider errors, is treated as retryable per §4.4.
		return Response{}, err
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(c.retry.MaxAttempts)),
	)
	if err != nil {
		if !errors.Is(err, apperr.ErrLLMFatal) {
			return Response{}, errors.Join(apperr.ErrLLMTransient, err)
		}
		return Response{}, err
	}
	return resp, nil
}
