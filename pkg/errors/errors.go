// Package errors defines the error taxonomy for the MeetLens pipeline.
//
// Session and capacity errors are always surfaced to the caller and never
// retried. Segment transcription failures are fatal to the merge. Analysis
// chunk failures are recovered locally by the orchestrator. Transient
// provider overload is the only condition the retry layer backs off on.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Code classifies a pipeline failure.
type Code string

const (
	CodeUnknownSession    Code = "unknown_session"
	CodeIncompleteUpload  Code = "incomplete_upload"
	CodeSizeExceeded      Code = "size_exceeded"
	CodeSegmentFailed     Code = "segment_failed"
	CodeChunkFailed       Code = "chunk_failed"
	CodeProviderExhausted Code = "provider_exhausted"
	CodeOverloaded        Code = "overloaded"
	CodeTimeout           Code = "timeout"
	CodeCancelled         Code = "cancelled"
	CodeDiskFull          Code = "disk_full"
	CodeProcessing        Code = "processing_error"
)

// SessionError reports an invalid operation against an upload session.
// Always a caller error (4xx-equivalent), never retried internally.
type SessionError struct {
	Code      Code
	SessionID string
	Message   string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s: session %s: %s", e.Code, e.SessionID, e.Message)
}

// NewUnknownSession reports an operation against an untracked session id.
func NewUnknownSession(sessionID string) *SessionError {
	return &SessionError{Code: CodeUnknownSession, SessionID: sessionID, Message: "unknown or expired upload session"}
}

// NewIncompleteUpload reports completion with missing chunks.
func NewIncompleteUpload(sessionID string, received, total int) *SessionError {
	return &SessionError{
		Code:      CodeIncompleteUpload,
		SessionID: sessionID,
		Message:   fmt.Sprintf("received %d of %d chunks", received, total),
	}
}

// CapacityError reports a declared file size above the configured maximum.
// Rejected at init; no partial session is created.
type CapacityError struct {
	Size    int64
	MaxSize int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: file size %d exceeds maximum %d", CodeSizeExceeded, e.Size, e.MaxSize)
}

// SegmentProcessingError reports a segment whose transcription failed after
// retries. Fatal to the overall merge: a missing segment would silently
// corrupt the timeline.
type SegmentProcessingError struct {
	SegmentIndex int
	Attempts     int
	Cause        error
}

func (e *SegmentProcessingError) Error() string {
	return fmt.Sprintf("%s: segment %d failed after %d attempts: %v", CodeSegmentFailed, e.SegmentIndex, e.Attempts, e.Cause)
}

func (e *SegmentProcessingError) Unwrap() error { return e.Cause }

// AnalysisChunkError reports a single chunk failing one analysis dimension.
// Recovered locally: the chunk contributes empty to that dimension.
type AnalysisChunkError struct {
	Dimension  string
	ChunkIndex int
	Cause      error
}

func (e *AnalysisChunkError) Error() string {
	return fmt.Sprintf("%s: %s chunk %d: %v", CodeChunkFailed, e.Dimension, e.ChunkIndex, e.Cause)
}

func (e *AnalysisChunkError) Unwrap() error { return e.Cause }

// ProviderFallbackExhausted reports that every provider in a fallback chain
// failed. Fatal for the dimension path that needed the chain.
type ProviderFallbackExhausted struct {
	Failures []error
}

func (e *ProviderFallbackExhausted) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%s: all providers failed: %s", CodeProviderExhausted, strings.Join(parts, "; "))
}

func (e *ProviderFallbackExhausted) Unwrap() []error { return e.Failures }

// ErrOverloaded is a sentinel for recognized transient-overload failures.
var ErrOverloaded = errors.New("service temporarily overloaded")

// IsTransientOverload reports whether err signals a transient "service busy"
// condition worth backing off on. Anything else propagates immediately.
func IsTransientOverload(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrOverloaded) {
		return true
	}
	lower := strings.ToLower(err.Error())
	for _, marker := range []string{"503", "overloaded", "rate limit", "too many requests", "service busy"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Classify maps an arbitrary error onto a Code for logging and metrics.
func Classify(err error) Code {
	if err == nil {
		return ""
	}

	var sessErr *SessionError
	if errors.As(err, &sessErr) {
		return sessErr.Code
	}
	var capErr *CapacityError
	if errors.As(err, &capErr) {
		return CodeSizeExceeded
	}
	var segErr *SegmentProcessingError
	if errors.As(err, &segErr) {
		return CodeSegmentFailed
	}
	var chunkErr *AnalysisChunkError
	if errors.As(err, &chunkErr) {
		return CodeChunkFailed
	}
	var provErr *ProviderFallbackExhausted
	if errors.As(err, &provErr) {
		return CodeProviderExhausted
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return CodeCancelled
	}
	if IsTransientOverload(err) {
		return CodeOverloaded
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "enospc") || strings.Contains(lower, "no space left"):
		return CodeDiskFull
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out"):
		return CodeTimeout
	}
	return CodeProcessing
}

// UserMessage maps a classified failure to an actionable caller-facing message.
func UserMessage(err error) string {
	switch Classify(err) {
	case CodeSizeExceeded:
		return "File is too large to process"
	case CodeUnknownSession:
		return "Upload session not found or expired"
	case CodeIncompleteUpload:
		return "Upload is incomplete"
	case CodeDiskFull:
		return "Not enough disk space to process the file"
	case CodeTimeout:
		return "Processing timed out. Please try a shorter recording"
	case CodeOverloaded:
		return "The transcription service is temporarily overloaded. Please try again in a few minutes"
	default:
		return "Failed to process the recording"
	}
}
