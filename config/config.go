// Package config provides configuration management for MeetLens.
// It supports loading configuration from a YAML file and environment
// variables, with environment variables taking precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultUploadChunkSize   = 5 * 1024 * 1024   // 5 MiB per upload chunk
	DefaultMaxUploadSize     = 500 * 1024 * 1024 // 500 MiB
	DefaultChunkThreshold    = 50 * 1024 * 1024  // files below this skip segmentation
	DefaultSegmentDuration   = 120               // seconds
	DefaultSegmentOverlap    = 5                 // seconds
	DefaultMaxSegments       = 50
	DefaultConcurrency       = 3
	DefaultRetries           = 2
	DefaultAnalysisChunkSize = 500 // transcript entries per analysis chunk
	DefaultAnalysisOverlap   = 20
	DefaultSessionIdle       = 30 * time.Minute
	DefaultSweepInterval     = 10 * time.Minute
	DefaultDataDir           = "data"
	DefaultListenAddr        = ":8080"
)

// UploadConfig controls the chunked-upload protocol.
type UploadConfig struct {
	// ChunkSize is the expected size of each uploaded chunk in bytes.
	ChunkSize int64 `yaml:"chunk_size"`

	// MaxSize is the maximum accepted file size in bytes.
	MaxSize int64 `yaml:"max_size"`

	// ChunkThreshold is the size below which media is transcribed whole.
	ChunkThreshold int64 `yaml:"chunk_threshold"`

	// SessionIdleTimeout is how long an inactive session survives.
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`

	// SweepInterval is how often expired sessions are collected.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// SessionStore selects the session store backend: "memory" or "redis".
	SessionStore string `yaml:"session_store"`

	// RedisAddr is the Redis address when SessionStore is "redis".
	RedisAddr string `yaml:"redis_addr"`
}

// ProcessingConfig controls media segmentation and parallel transcription.
type ProcessingConfig struct {
	// SegmentDuration is the duration of each media segment in seconds.
	SegmentDuration int `yaml:"segment_duration"`

	// SegmentOverlap is the overlap between consecutive segments in seconds.
	SegmentOverlap int `yaml:"segment_overlap"`

	// MaxSegments caps the number of segments for very long media.
	MaxSegments int `yaml:"max_segments"`

	// Concurrency is the worker-pool width for fan-out stages.
	Concurrency int `yaml:"concurrency"`

	// Retries is the per-item retry budget for transient failures.
	Retries int `yaml:"retries"`

	// Toolchain selects the media toolchain: "ffmpeg" (default) or "none".
	Toolchain string `yaml:"toolchain"`
}

// AnalysisConfig controls transcript chunking for the analysis fan-out.
type AnalysisConfig struct {
	// ChunkSize is the number of transcript entries per analysis chunk.
	ChunkSize int `yaml:"chunk_size"`

	// ChunkOverlap is the entry overlap between consecutive chunks.
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// ProviderConfig identifies one external collaborator endpoint.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the root configuration.
type Config struct {
	Upload     UploadConfig     `yaml:"upload"`
	Processing ProcessingConfig `yaml:"processing"`
	Analysis   AnalysisConfig   `yaml:"analysis"`

	// Transcription is the transcription+diarization collaborator.
	Transcription ProviderConfig `yaml:"transcription"`

	// TextGeneration is the ordered provider fallback chain for AI-mode
	// analysis. The first provider that succeeds wins.
	TextGeneration []ProviderConfig `yaml:"text_generation"`

	// DataDir is where persisted analysis records live.
	DataDir string `yaml:"data_dir"`

	// ListenAddr is the HTTP listen address for `meetlens serve`.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel sets the minimum log level.
	LogLevel string `yaml:"log_level"`

	// LogJSON enables JSON log output.
	LogJSON bool `yaml:"log_json"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Upload: UploadConfig{
			ChunkSize:          DefaultUploadChunkSize,
			MaxSize:            DefaultMaxUploadSize,
			ChunkThreshold:     DefaultChunkThreshold,
			SessionIdleTimeout: DefaultSessionIdle,
			SweepInterval:      DefaultSweepInterval,
			SessionStore:       "memory",
		},
		Processing: ProcessingConfig{
			SegmentDuration: DefaultSegmentDuration,
			SegmentOverlap:  DefaultSegmentOverlap,
			MaxSegments:     DefaultMaxSegments,
			Concurrency:     DefaultConcurrency,
			Retries:         DefaultRetries,
			Toolchain:       "ffmpeg",
		},
		Analysis: AnalysisConfig{
			ChunkSize:    DefaultAnalysisChunkSize,
			ChunkOverlap: DefaultAnalysisOverlap,
		},
		DataDir:    DefaultDataDir,
		ListenAddr: DefaultListenAddr,
		LogLevel:   "info",
	}
}

// Load reads configuration from the given path (optional) and applies
// environment variable overrides. A local .env file is loaded first when
// present so development setups need no exported variables.
func Load(path string) (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(expandPath(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides configuration from MEETLENS_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("MEETLENS_MAX_UPLOAD_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Upload.MaxSize = n
		}
	}
	if v := os.Getenv("MEETLENS_SEGMENT_DURATION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Processing.SegmentDuration = n
		}
	}
	if v := os.Getenv("MEETLENS_SEGMENT_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Processing.SegmentOverlap = n
		}
	}
	if v := os.Getenv("MEETLENS_MAX_SEGMENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Processing.MaxSegments = n
		}
	}
	if v := os.Getenv("MEETLENS_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Processing.Concurrency = n
		}
	}
	if v := os.Getenv("MEETLENS_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Processing.Retries = n
		}
	}
	if v := os.Getenv("MEETLENS_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("MEETLENS_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("MEETLENS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MEETLENS_REDIS_ADDR"); v != "" {
		c.Upload.RedisAddr = v
		c.Upload.SessionStore = "redis"
	}
	if v := os.Getenv("MEETLENS_TRANSCRIBE_URL"); v != "" {
		c.Transcription.URL = v
	}
	if v := os.Getenv("MEETLENS_TRANSCRIBE_API_KEY"); v != "" {
		c.Transcription.APIKey = v
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload.max_size must be positive")
	}
	if c.Upload.ChunkSize <= 0 {
		return fmt.Errorf("upload.chunk_size must be positive")
	}
	if c.Processing.SegmentOverlap >= c.Processing.SegmentDuration {
		return fmt.Errorf("processing.segment_overlap (%d) must be less than segment_duration (%d)",
			c.Processing.SegmentOverlap, c.Processing.SegmentDuration)
	}
	if c.Processing.Concurrency <= 0 {
		return fmt.Errorf("processing.concurrency must be positive")
	}
	if c.Analysis.ChunkOverlap >= c.Analysis.ChunkSize {
		return fmt.Errorf("analysis.chunk_overlap (%d) must be less than chunk_size (%d)",
			c.Analysis.ChunkOverlap, c.Analysis.ChunkSize)
	}
	switch c.Upload.SessionStore {
	case "", "memory":
	case "redis":
		if c.Upload.RedisAddr == "" {
			return fmt.Errorf("upload.redis_addr required when session_store is redis")
		}
	default:
		return fmt.Errorf("unknown session store %q", c.Upload.SessionStore)
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
