package audio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/Nuked88/wav2lip-batch/internal/media"
)

// silenceChannelLayout is the channel layout used for synthesized
// silence. It is fixed to stereo regardless of the source audio's
// channel count, matching the historical behavior of the pipeline.
const silenceChannelLayout = "stereo"

// FFmpegPadder implements Padder using the ffmpeg CLI for silence
// synthesis and a Prober for duration inspection.
type FFmpegPadder struct {
	ffmpegPath string
	prober     media.Prober
	logger     *slog.Logger
}

// NewFFmpegPadder creates a new FFmpegPadder.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found in PATH).
func NewFFmpegPadder(ffmpegPath string, prober media.Prober, logger *slog.Logger) *FFmpegPadder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegPadder{ffmpegPath: ffmpegPath, prober: prober, logger: logger}
}

// CenterPad implements Padder.CenterPad.
func (p *FFmpegPadder) CenterPad(ctx context.Context, videoPath, audioPath string) (string, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return "", fmt.Errorf("audio file does not exist: %s", audioPath)
	}

	videoDur, err := p.prober.Duration(ctx, videoPath)
	if err != nil {
		return "", fmt.Errorf("probe video duration: %w", err)
	}

	audioDur, err := p.prober.Duration(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("probe audio duration: %w", err)
	}

	padding := PaddingDuration(videoDur, audioDur)
	if padding == 0 {
		p.logger.Debug("audio not shorter than video, no padding needed",
			slog.String("audio", audioPath),
			slog.Float64("video_duration", videoDur),
			slog.Float64("audio_duration", audioDur),
		)
		return audioPath, nil
	}

	sampleRate, err := p.prober.SampleRate(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("probe audio sample rate: %w", err)
	}

	outputPath := PaddedPath(audioPath)
	if err := p.concatWithSilence(ctx, audioPath, outputPath, padding, sampleRate); err != nil {
		return "", fmt.Errorf("pad audio: %w", err)
	}

	p.logger.Info("padded audio to center within video",
		slog.String("audio", audioPath),
		slog.String("output", outputPath),
		slog.Float64("padding_sec", padding),
		slog.Int("sample_rate", sampleRate),
	)

	return outputPath, nil
}

// concatWithSilence writes silence + audio + silence to outputPath.
// The silence segments are synthesized with anullsrc at the source
// sample rate and joined with the concat filter.
func (p *FFmpegPadder) concatWithSilence(ctx context.Context, inputPath, outputPath string, padding float64, sampleRate int) error {
	silence := fmt.Sprintf("anullsrc=channel_layout=%s:sample_rate=%d", silenceChannelLayout, sampleRate)

	args := []string{
		"-y", // Overwrite output
		"-t", fmt.Sprintf("%.3f", padding),
		"-f", "lavfi", "-i", silence,
		"-i", inputPath,
		"-t", fmt.Sprintf("%.3f", padding),
		"-f", "lavfi", "-i", silence,
		"-filter_complex", "[0:a][1:a][2:a]concat=n=3:v=0:a=1[out]",
		"-map", "[out]",
		"-codec:a", "libmp3lame",
		"-q:a", "2",
		outputPath,
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("ffmpeg error: %w, stderr: %s", err, stderr.String())
	}

	return nil
}

// Verify interface implementation at compile time.
var _ Padder = (*FFmpegPadder)(nil)
