// Package cmd provides CLI commands for the meetlens tool.
package cmd

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/meetlens/meetlens/config"
	"github.com/meetlens/meetlens/pkg/logging"
	"github.com/meetlens/meetlens/pkg/media"
	"github.com/meetlens/meetlens/pkg/orchestrate"
	"github.com/meetlens/meetlens/pkg/providers"
	"github.com/meetlens/meetlens/pkg/records"
	"github.com/meetlens/meetlens/pkg/upload"
)

// GlobalOptions carries the persistent flags shared by every command.
// The root command binds its flags to one instance and hands it to
// each subcommand constructor.
type GlobalOptions struct {
	ConfigFile string
	LogLevel   string
	JSONLogs   bool
}

// Load reads configuration and builds the process logger.
func (o *GlobalOptions) Load() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	level := cfg.LogLevel
	if o.LogLevel != "" {
		level = o.LogLevel
	}
	log := logging.NewLogger(&logging.Config{
		Level:       logging.Level(level),
		ServiceName: "meetlens",
		JSONFormat:  o.JSONLogs || cfg.LogJSON,
	})
	logging.SetGlobal(log)

	return cfg, log, nil
}

// newSessionStore builds the upload session store named in the
// configuration.
func newSessionStore(cfg *config.Config) (upload.SessionStore, error) {
	switch cfg.Upload.SessionStore {
	case "", "memory":
		return upload.NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Upload.RedisAddr})
		return upload.NewRedisStore(client, cfg.Upload.SessionIdleTimeout), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Upload.SessionStore)
	}
}

// openRecords opens the record database under the configured data
// directory, creating the directory when needed.
func openRecords(cfg *config.Config) (*records.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return records.Open(filepath.Join(cfg.DataDir, "records.db"))
}

// newPipeline wires the full processing pipeline: segmenter,
// transcription client, analysis orchestrator, and record store.
func newPipeline(cfg *config.Config, log logging.Logger, store *records.Store) (*orchestrate.Pipeline, error) {
	if cfg.Transcription.URL == "" {
		return nil, fmt.Errorf("transcription.url is not configured (set MEETLENS_TRANSCRIBE_URL)")
	}

	segmenter := media.NewSegmenter(
		media.NewFFmpegToolchain(),
		log,
		float64(cfg.Processing.SegmentDuration),
		float64(cfg.Processing.SegmentOverlap),
		cfg.Processing.MaxSegments,
	)

	transcriber := providers.NewHTTPTranscriber(providers.HTTPTranscriberConfig{
		BaseURL:     cfg.Transcription.URL,
		APIKey:      cfg.Transcription.APIKey,
		HTTPTimeout: cfg.Transcription.Timeout,
	}, log)

	var generator providers.TextGenerator
	if len(cfg.TextGeneration) > 0 {
		backends := make([]providers.TextGenerator, 0, len(cfg.TextGeneration))
		for _, p := range cfg.TextGeneration {
			backends = append(backends,
				providers.NewHTTPTextGenerator(p.Name, p.URL, p.APIKey, p.Model, p.Timeout))
		}
		generator = providers.NewFallbackChain(log, backends...)
	}

	metrics := orchestrate.DefaultMetrics()
	orchestrator := orchestrate.NewOrchestrator(log, metrics, cfg.Processing.Concurrency, generator)

	pipelineCfg := orchestrate.PipelineConfig{
		ChunkThreshold: cfg.Upload.ChunkThreshold,
		Concurrency:    cfg.Processing.Concurrency,
		Retries:        cfg.Processing.Retries,
		ChunkSize:      cfg.Analysis.ChunkSize,
		ChunkOverlap:   cfg.Analysis.ChunkOverlap,
	}
	// Without a media toolchain every file takes the whole-file
	// transcription path.
	if cfg.Processing.Toolchain == "none" {
		pipelineCfg.ChunkThreshold = math.MaxInt64
	}

	return orchestrate.NewPipeline(pipelineCfg, segmenter, transcriber,
		orchestrator, store, metrics, log), nil
}
