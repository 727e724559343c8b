// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// ErrS3PartialConfig is returned when only one of S3_BUCKET and S3_REGION is set.
var ErrS3PartialConfig = errors.New("config: S3_BUCKET and S3_REGION must be set together")

// Config holds all configuration for the application.
type Config struct {
	// Inference settings
	CheckpointPath   string `env:"CHECKPOINT_PATH, default=checkpoints/wav2lip_gan.pth" json:"checkpoint_path"`
	PythonBin        string `env:"PYTHON_BIN, default=python" json:"python_bin"`
	InferenceScript  string `env:"INFERENCE_SCRIPT, default=inference.py" json:"inference_script"`
	FaceDetBatchSize int    `env:"FACE_DET_BATCH_SIZE, default=32" json:"face_det_batch_size" validate:"gt=0"`
	Wav2LipBatchSize int    `env:"WAV2LIP_BATCH_SIZE, default=256" json:"wav2lip_batch_size" validate:"gt=0"`

	// InferTimeout bounds a single inference invocation. Zero means no timeout.
	InferTimeout time.Duration `env:"INFER_TIMEOUT, default=0" json:"infer_timeout" validate:"min=0"`

	// Audio settings
	PadAudio      bool `env:"PAD_AUDIO, default=true" json:"pad_audio"`
	CleanupPadded bool `env:"CLEANUP_PADDED, default=false" json:"cleanup_padded"`

	// Media tooling
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/wav2lip-batch" json:"temp_dir"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig
// and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks structural constraints on the configuration.
func (c *Config) Validate() error {
	if (c.S3Bucket == "") != (c.S3Region == "") {
		return ErrS3PartialConfig
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{CheckpointPath: %s, PythonBin: %s, InferenceScript: %s, FaceDetBatchSize: %d, Wav2LipBatchSize: %d, PadAudio: %t, TempDir: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.CheckpointPath,
		c.PythonBin,
		c.InferenceScript,
		c.FaceDetBatchSize,
		c.Wav2LipBatchSize,
		c.PadAudio,
		c.TempDir,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
