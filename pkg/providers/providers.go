// Package providers holds the external collaborator contracts: the
// transcription service that turns media into diarized utterances and
// the text-generation backends used for narrative summaries.
package providers

import (
	"context"

	mlerrors "github.com/meetlens/meetlens/pkg/errors"
	"github.com/meetlens/meetlens/pkg/logging"
	"github.com/meetlens/meetlens/pkg/transcript"
)

// Transcriber turns one media file into diarized utterances.
type Transcriber interface {
	Transcribe(ctx context.Context, path, mimeType string) (transcript.DiarizationResult, error)
}

// TextGenerator produces free-form text from a prompt.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// FallbackChain tries generators in order and returns the first
// success. When every backend fails the individual errors are
// aggregated so callers can see the whole chain's outcome.
type FallbackChain struct {
	generators []TextGenerator
	log        logging.Logger
}

func NewFallbackChain(log logging.Logger, generators ...TextGenerator) *FallbackChain {
	return &FallbackChain{generators: generators, log: log}
}

func (c *FallbackChain) Name() string { return "fallback-chain" }

// Empty reports whether the chain has no backends configured.
func (c *FallbackChain) Empty() bool { return len(c.generators) == 0 }

func (c *FallbackChain) Generate(ctx context.Context, prompt string) (string, error) {
	var failures []error
	for _, g := range c.generators {
		out, err := g.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		c.log.Warn("text generation backend failed",
			logging.F("provider", g.Name()), logging.Err(err))
		failures = append(failures, err)

		if ctx.Err() != nil {
			failures = append(failures, ctx.Err())
			break
		}
	}
	return "", &mlerrors.ProviderFallbackExhausted{Failures: failures}
}
