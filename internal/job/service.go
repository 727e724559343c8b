package job

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Nuked88/wav2lip-batch/internal/audio"
	"github.com/Nuked88/wav2lip-batch/internal/infer"
	"github.com/Nuked88/wav2lip-batch/internal/scan"
	"github.com/Nuked88/wav2lip-batch/internal/storage"
)

// BatchService orchestrates one pass over a folder: scan for matched
// pairs, optionally center the audio, run inference, and optionally
// upload the result. Pairs are processed strictly sequentially; one
// pair fully completes before the next begins. A failing pair is
// recorded and never aborts the batch.
type BatchService struct {
	repo   Repository
	padder audio.Padder
	engine infer.Engine
	store  storage.Storage
	logger *slog.Logger

	padAudio      bool
	cleanupPadded bool
	uploadOutputs bool
}

// Option configures a BatchService.
type Option func(*BatchService)

// WithPadAudio controls whether audio is centered within the video
// duration before inference. Enabled by default.
func WithPadAudio(enabled bool) Option {
	return func(s *BatchService) { s.padAudio = enabled }
}

// WithCleanupPadded controls whether padded audio files are removed
// after their pair finishes. Disabled by default; padded files stay
// beside the originals.
func WithCleanupPadded(enabled bool) Option {
	return func(s *BatchService) { s.cleanupPadded = enabled }
}

// WithUploadOutputs controls whether finished output videos are
// uploaded to S3. Disabled by default.
func WithUploadOutputs(enabled bool) Option {
	return func(s *BatchService) { s.uploadOutputs = enabled }
}

// NewBatchService creates a new BatchService.
func NewBatchService(
	repo Repository,
	padder audio.Padder,
	engine infer.Engine,
	store storage.Storage,
	logger *slog.Logger,
	opts ...Option,
) *BatchService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &BatchService{
		repo:     repo,
		padder:   padder,
		engine:   engine,
		store:    store,
		logger:   logger,
		padAudio: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans folder and processes every matched pair. It returns the
// finished Job; the returned error is non-nil only for failures that
// prevent the batch from starting at all (scan or persistence errors).
func (s *BatchService) Run(ctx context.Context, folder string) (*Job, error) {
	result, err := scan.Scan(folder)
	if err != nil {
		return nil, fmt.Errorf("scan folder: %w", err)
	}

	j := New(folder)
	j.SetItems(buildItems(result))

	if err := s.repo.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	for _, basename := range result.Skipped {
		s.logger.Info("skipping pair, output already exists",
			slog.String("job_id", j.ID),
			slog.String("basename", basename),
		)
	}

	s.logger.Info("starting batch run",
		slog.String("job_id", j.ID),
		slog.String("folder", folder),
		slog.Int("pairs", len(result.Pairs)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Bool("pad_audio", s.padAudio),
	)

	if err := j.Start(); err != nil {
		return nil, err
	}

	interrupted := false
	for i := range j.Items {
		if j.Items[i].Status == ItemSkipped {
			continue
		}
		if ctx.Err() != nil {
			s.logger.Warn("batch interrupted",
				slog.String("job_id", j.ID),
			)
			interrupted = true
			break
		}
		s.processItem(ctx, j, i)
		_ = s.repo.Save(ctx, j)
	}

	s.finish(j, interrupted)
	if err := s.repo.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	counts := j.ItemCounts()
	s.logger.Info("batch run finished",
		slog.String("job_id", j.ID),
		slog.String("status", string(j.GetStatus())),
		slog.Int("completed", counts.Completed),
		slog.Int("failed", counts.Failed),
		slog.Int("skipped", counts.Skipped),
	)

	return j, nil
}

// buildItems converts a scan result into job items. Skipped basenames
// become terminal SKIPPED items so the run record reflects them.
func buildItems(result scan.Result) []Item {
	items := make([]Item, 0, len(result.Pairs)+len(result.Skipped))
	for _, pair := range result.Pairs {
		items = append(items, Item{
			Basename:   pair.Basename,
			VideoPath:  pair.VideoPath,
			AudioPath:  pair.AudioPath,
			OutputPath: pair.OutputPath,
			Status:     ItemPending,
		})
	}
	for _, basename := range result.Skipped {
		items = append(items, Item{
			Basename: basename,
			Status:   ItemSkipped,
		})
	}
	return items
}

// processItem handles one matched pair: pad, infer, upload.
func (s *BatchService) processItem(ctx context.Context, j *Job, index int) {
	item := j.Items[index]
	item.Status = ItemRunning
	item.StartedAt = time.Now()
	j.UpdateItem(index, item)

	s.logger.Info("processing pair",
		slog.String("job_id", j.ID),
		slog.String("basename", item.Basename),
		slog.String("video", item.VideoPath),
		slog.String("audio", item.AudioPath),
	)

	audioPath := item.AudioPath
	if s.padAudio {
		padded, err := s.padder.CenterPad(ctx, item.VideoPath, item.AudioPath)
		if err != nil {
			s.failItem(j, index, item, fmt.Errorf("adjust audio: %w", err))
			return
		}
		if padded != item.AudioPath {
			item.PaddedAudioPath = padded
		}
		audioPath = padded
	}

	if err := s.engine.Run(ctx, item.VideoPath, audioPath, item.OutputPath); err != nil {
		s.failItem(j, index, item, err)
		return
	}

	if s.uploadOutputs {
		url, err := s.uploadOutput(ctx, item.OutputPath)
		if err != nil {
			// The local output exists; an upload failure is not a pair failure.
			s.logger.Error("output upload failed",
				slog.String("job_id", j.ID),
				slog.String("basename", item.Basename),
				slog.String("error", err.Error()),
			)
		} else {
			item.VideoURL = url
		}
	}

	if s.cleanupPadded && item.PaddedAudioPath != "" {
		if err := s.store.Cleanup(ctx, []string{item.PaddedAudioPath}); err != nil {
			s.logger.Warn("cleanup of padded audio failed",
				slog.String("path", item.PaddedAudioPath),
				slog.String("error", err.Error()),
			)
		}
	}

	item.Status = ItemCompleted
	item.CompletedAt = time.Now()
	j.UpdateItem(index, item)

	s.logger.Info("successfully processed pair",
		slog.String("job_id", j.ID),
		slog.String("basename", item.Basename),
		slog.String("output", item.OutputPath),
	)
}

// failItem records a per-pair failure and lets the batch continue.
func (s *BatchService) failItem(j *Job, index int, item Item, err error) {
	item.Status = ItemFailed
	item.Error = err.Error()
	item.CompletedAt = time.Now()
	j.UpdateItem(index, item)

	s.logger.Error("failed to process pair",
		slog.String("job_id", j.ID),
		slog.String("basename", item.Basename),
		slog.String("video", item.VideoPath),
		slog.String("audio", item.AudioPath),
		slog.String("error", err.Error()),
	)
}

// uploadOutput pushes a finished output video to S3 and returns its URL.
func (s *BatchService) uploadOutput(ctx context.Context, outputPath string) (string, error) {
	f, err := s.store.Open(ctx, outputPath)
	if err != nil {
		return "", fmt.Errorf("open output: %w", err)
	}
	defer func() { _ = f.Close() }()

	url, err := s.store.Upload(ctx, filepath.Base(outputPath), f)
	if err != nil {
		return "", err
	}
	return url, nil
}

// finish moves the job to its terminal state. A run fails outright only
// when every processed pair failed; partial failures still complete.
func (s *BatchService) finish(j *Job, interrupted bool) {
	if interrupted {
		_ = j.Cancel()
		return
	}

	counts := j.ItemCounts()
	if counts.Failed > 0 && counts.Completed == 0 && counts.Failed == counts.Total-counts.Skipped {
		_ = j.Fail(fmt.Sprintf("all %d pairs failed", counts.Failed))
		return
	}
	_ = j.Complete()
}
