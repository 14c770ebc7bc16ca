package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"unknown session", NewUnknownSession("abc"), CodeUnknownSession},
		{"incomplete upload", NewIncompleteUpload("abc", 3, 5), CodeIncompleteUpload},
		{"capacity", &CapacityError{Size: 10, MaxSize: 5}, CodeSizeExceeded},
		{"segment", &SegmentProcessingError{SegmentIndex: 2, Attempts: 3, Cause: errors.New("boom")}, CodeSegmentFailed},
		{"chunk", &AnalysisChunkError{Dimension: "keywords", ChunkIndex: 1, Cause: errors.New("boom")}, CodeChunkFailed},
		{"provider", &ProviderFallbackExhausted{Failures: []error{errors.New("a"), errors.New("b")}}, CodeProviderExhausted},
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"cancelled", context.Canceled, CodeCancelled},
		{"overload marker", errors.New("upstream returned 503"), CodeOverloaded},
		{"rate limit", errors.New("rate limit exceeded"), CodeOverloaded},
		{"disk full", errors.New("write /tmp/x: ENOSPC"), CodeDiskFull},
		{"timeout text", errors.New("operation timed out"), CodeTimeout},
		{"generic", errors.New("something broke"), CodeProcessing},
		{"wrapped session", fmt.Errorf("complete: %w", NewUnknownSession("x")), CodeUnknownSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransientOverload(t *testing.T) {
	if !IsTransientOverload(ErrOverloaded) {
		t.Error("sentinel should be transient")
	}
	if !IsTransientOverload(fmt.Errorf("call: %w", ErrOverloaded)) {
		t.Error("wrapped sentinel should be transient")
	}
	if !IsTransientOverload(errors.New("model overloaded, retry later")) {
		t.Error("overloaded text should be transient")
	}
	if IsTransientOverload(errors.New("invalid payload")) {
		t.Error("non-overload errors should not be transient")
	}
	if IsTransientOverload(nil) {
		t.Error("nil is not transient")
	}
}

func TestSegmentProcessingError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &SegmentProcessingError{SegmentIndex: 4, Attempts: 3, Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
}

func TestProviderFallbackExhausted_Message(t *testing.T) {
	err := &ProviderFallbackExhausted{Failures: []error{errors.New("gemini: 500"), errors.New("groq: bad key")}}
	msg := err.Error()
	for _, want := range []string{"gemini: 500", "groq: bad key", string(CodeProviderExhausted)} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(&CapacityError{Size: 2, MaxSize: 1}); got != "File is too large to process" {
		t.Errorf("unexpected message: %q", got)
	}
	if got := UserMessage(errors.New("503 from provider")); got == "" {
		t.Error("expected a non-empty overload message")
	}
}
