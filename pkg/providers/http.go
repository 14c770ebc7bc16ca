package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	mlerrors "github.com/meetlens/meetlens/pkg/errors"
	"github.com/meetlens/meetlens/pkg/logging"
	"github.com/meetlens/meetlens/pkg/transcript"
)

// HTTPTranscriberConfig configures the diarization service client.
type HTTPTranscriberConfig struct {
	BaseURL      string
	APIKey       string
	PollInterval time.Duration
	PollTimeout  time.Duration
	HTTPTimeout  time.Duration
}

// HTTPTranscriber submits media to a diarization service and polls
// until the job reaches a terminal status.
type HTTPTranscriber struct {
	cfg    HTTPTranscriberConfig
	client *http.Client
	log    logging.Logger
}

func NewHTTPTranscriber(cfg HTTPTranscriberConfig, log logging.Logger) *HTTPTranscriber {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 10 * time.Minute
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}
	return &HTTPTranscriber{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		log:    log,
	}
}

type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type statusResponse struct {
	ID          string                 `json:"id"`
	Status      string                 `json:"status"` // queued, processing, completed, failed
	Utterances  []transcript.Utterance `json:"utterances,omitempty"`
	DurationSec float64                `json:"durationSec,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, path, mimeType string) (transcript.DiarizationResult, error) {
	jobID, err := t.submit(ctx, path, mimeType)
	if err != nil {
		return transcript.DiarizationResult{}, err
	}

	t.log.Debug("transcription job submitted",
		logging.F("job_id", jobID), logging.F("path", path))
	return t.poll(ctx, jobID)
}

func (t *HTTPTranscriber) submit(ctx context.Context, path, mimeType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening media %s: %w", path, err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("buffering media %s: %w", path, err)
	}
	w.WriteField("mimeType", mimeType)
	w.WriteField("diarize", "true")
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/v1/transcripts", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if t.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	}

	var resp submitResponse
	if err := t.doJSON(req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("transcription submit rejected: %s", resp.Reason)
	}
	return resp.ID, nil
}

func (t *HTTPTranscriber) poll(ctx context.Context, jobID string) (transcript.DiarizationResult, error) {
	deadline := time.Now().Add(t.cfg.PollTimeout)
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return transcript.DiarizationResult{}, ctx.Err()
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			return transcript.DiarizationResult{}, fmt.Errorf("transcription job %s: poll timeout after %s", jobID, t.cfg.PollTimeout)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/v1/transcripts/%s", t.cfg.BaseURL, jobID), nil)
		if err != nil {
			return transcript.DiarizationResult{}, err
		}
		if t.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
		}

		var status statusResponse
		if err := t.doJSON(req, &status); err != nil {
			// Transient overload propagates so the segment executor
			// can apply its own retry policy.
			if mlerrors.IsTransientOverload(err) {
				return transcript.DiarizationResult{}, err
			}
			t.log.Warn("transcription poll failed",
				logging.F("job_id", jobID), logging.Err(err))
			continue
		}

		switch status.Status {
		case "completed":
			return transcript.DiarizationResult{
				Utterances:  status.Utterances,
				DurationSec: status.DurationSec,
			}, nil
		case "failed":
			return transcript.DiarizationResult{}, fmt.Errorf("transcription job %s failed: %s", jobID, status.Reason)
		default:
			// queued or processing, keep polling
		}
	}
}

// doJSON executes one request with exponential backoff on 5xx and
// network errors, decoding the body into target.
func (t *HTTPTranscriber) doJSON(req *http.Request, target any) error {
	bo := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(30*time.Second)), req.Context())

	operation := func() error {
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Body = body
		}
		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests {
			return backoff.Permanent(fmt.Errorf("%w: status %d: %s", mlerrors.ErrOverloaded, resp.StatusCode, body))
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error %d: %s", resp.StatusCode, body)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("request failed %d: %s", resp.StatusCode, body))
		}
		if err := json.Unmarshal(body, target); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	}

	return backoff.Retry(operation, bo)
}

// HTTPTextGenerator is a minimal JSON completion client used as a
// FallbackChain backend.
type HTTPTextGenerator struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewHTTPTextGenerator(name, baseURL, apiKey, model string, timeout time.Duration) *HTTPTextGenerator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPTextGenerator{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *HTTPTextGenerator) Name() string { return g.name }

func (g *HTTPTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"model":  g.model,
		"prompt": prompt,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %s: status %d", mlerrors.ErrOverloaded, g.name, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s: completion failed %d: %s", g.name, resp.StatusCode, body)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%s: decoding completion: %w", g.name, err)
	}
	return out.Text, nil
}
