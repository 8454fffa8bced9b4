// Package apperr defines the sentinel error kinds shared across the engine.
//
// Callers compare with errors.Is; layers that need to add context wrap with
// fmt.Errorf("...: %w", apperr.ErrX) rather than inventing new error types.
package apperr

import "errors"

var (
	// ErrNotFound means an unknown slug or missing vault file.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists means a note write target already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict means an optimistic-concurrency checksum mismatch.
	ErrConflict = errors.New("conflict")
	// ErrPathEscape means a resolved path fell outside the vault root.
	ErrPathEscape = errors.New("path escapes vault root")

	// ErrLLMTransient means a timeout, 5xx, or rate-limit response; retryable.
	ErrLLMTransient = errors.New("llm: transient failure")
	// ErrLLMFatal means an auth or permanent client error; not retryable.
	ErrLLMFatal = errors.New("llm: fatal failure")

	// ErrToolParse means a malformed TOOL_REQUEST block.
	ErrToolParse = errors.New("tool: malformed request")
	// ErrToolExecution means the dispatched tool itself raised an error.
	ErrToolExecution = errors.New("tool: execution failed")
	// ErrDepthExceeded means the tool-call loop hit its recursion ceiling.
	ErrDepthExceeded = errors.New("tool loop: depth exceeded")

	// ErrSessionBusy means sessions.max_concurrent is already saturated.
	ErrSessionBusy = errors.New("session: busy")
	// ErrSessionNotFound means the session id is unknown or has been GC'd.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionCancelled means the session was cancelled by the caller.
	ErrSessionCancelled = errors.New("session: cancelled")
	// ErrStageOrder means a stage was asked to run out of sequence.
	ErrStageOrder = errors.New("session: stage out of order")

	// ErrPathTooLong means Hermit's proposed learning path exceeded
	// max_path_length.
	ErrPathTooLong = errors.New("agent: learning path too long")
	// ErrContentMissingLinks means Magician's generated passage failed the
	// required-link check (a known-concept link and a path-neighbor link).
	ErrContentMissingLinks = errors.New("agent: generated content missing required links")
)
