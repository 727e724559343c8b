package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nuked88/wav2lip-batch/internal/bootstrap"
	"github.com/Nuked88/wav2lip-batch/internal/config"
	"github.com/Nuked88/wav2lip-batch/internal/job"
)

func run(cmd *cobra.Command, folder string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	applyFlags(cmd, cfg)

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	absFolder, err := filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("resolve folder: %w", err)
	}

	info, err := os.Stat(absFolder)
	if err != nil {
		return fmt.Errorf("folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", absFolder)
	}

	logger.Info("starting wav2lip-batch",
		slog.String("folder", absFolder),
		slog.String("checkpoint", cfg.CheckpointPath),
		slog.Bool("pad_audio", cfg.PadAudio),
		slog.Int("face_det_batch_size", cfg.FaceDetBatchSize),
		slog.Int("wav2lip_batch_size", cfg.Wav2LipBatchSize),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
	)

	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	// Ctrl-C finishes the current pair and stops before the next one.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j, err := deps.BatchService.Run(ctx, absFolder)
	if err != nil {
		return err
	}

	counts := j.ItemCounts()
	logger.Info("done",
		slog.String("job_id", j.ID),
		slog.String("status", string(j.GetStatus())),
		slog.Int("completed", counts.Completed),
		slog.Int("failed", counts.Failed),
		slog.Int("skipped", counts.Skipped),
	)

	// Per-pair failures are reported above but never change the exit
	// code; only startup, config, and scan errors do.
	if j.GetStatus() == job.StatusFailed {
		logger.Error("batch finished with no successful pairs",
			slog.String("job_id", j.ID),
			slog.String("error", j.Error),
		)
	}
	return nil
}

// applyFlags overrides environment configuration with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("checkpoint") {
		cfg.CheckpointPath, _ = cmd.Flags().GetString("checkpoint")
	}
	if cmd.Flags().Changed("pad") {
		cfg.PadAudio, _ = cmd.Flags().GetBool("pad")
	}
	if cmd.Flags().Changed("face-det-batch") {
		cfg.FaceDetBatchSize, _ = cmd.Flags().GetInt("face-det-batch")
	}
	if cmd.Flags().Changed("wav2lip-batch") {
		cfg.Wav2LipBatchSize, _ = cmd.Flags().GetInt("wav2lip-batch")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.InferTimeout, _ = cmd.Flags().GetDuration("timeout")
	}
	if cmd.Flags().Changed("cleanup-padded") {
		cfg.CleanupPadded, _ = cmd.Flags().GetBool("cleanup-padded")
	}
}
