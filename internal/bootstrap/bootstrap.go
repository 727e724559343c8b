// Package bootstrap provides dependency initialization for the batch CLI.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/Nuked88/wav2lip-batch/internal/audio"
	"github.com/Nuked88/wav2lip-batch/internal/config"
	"github.com/Nuked88/wav2lip-batch/internal/infer"
	"github.com/Nuked88/wav2lip-batch/internal/job"
	"github.com/Nuked88/wav2lip-batch/internal/media"
	"github.com/Nuked88/wav2lip-batch/internal/storage"
)

// Dependencies holds all initialized dependencies for a batch run.
type Dependencies struct {
	BatchService *job.BatchService
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	prober := media.NewFFprobeProber(cfg.FFprobePath)
	padder := audio.NewFFmpegPadder(cfg.FFmpegPath, prober, logger)

	engine := infer.NewWav2LipEngine(infer.Options{
		PythonBin:        cfg.PythonBin,
		ScriptPath:       cfg.InferenceScript,
		CheckpointPath:   cfg.CheckpointPath,
		FaceDetBatchSize: cfg.FaceDetBatchSize,
		Wav2LipBatchSize: cfg.Wav2LipBatchSize,
		Timeout:          cfg.InferTimeout,
	})

	repo := job.NewMemoryRepository()

	svc := job.NewBatchService(
		repo,
		padder,
		engine,
		store,
		logger,
		job.WithPadAudio(cfg.PadAudio),
		job.WithCleanupPadded(cfg.CleanupPadded),
		job.WithUploadOutputs(cfg.S3Enabled()),
	)

	return &Dependencies{
		BatchService: svc,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("scratch_dir", cfg.TempDir),
	)
	return localStore, nil
}
