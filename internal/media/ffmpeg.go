package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Static errors for media operations.
var (
	// ErrFFprobeExecution is returned when ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
	// ErrNoAudioStream is returned when a file has no audio stream to inspect.
	ErrNoAudioStream = errors.New("no audio stream found")
)

// FFprobeProber implements Prober using the ffprobe CLI.
// Each probe spawns a short-lived subprocess, so no decoder resources
// are held between calls.
type FFprobeProber struct {
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFprobeProber creates a new FFprobeProber.
// If ffprobePath is empty, it defaults to "ffprobe" (found via PATH).
func NewFFprobeProber(ffprobePath string) *FFprobeProber {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFprobeProber{ffprobePath: ffprobePath}
}

// Duration returns the duration in seconds of a media file.
// It uses ffprobe to extract the duration metadata from the container.
func (p *FFprobeProber) Duration(ctx context.Context, path string) (float64, error) {
	out, err := p.runFFprobe(ctx,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(out), err)
	}

	return duration, nil
}

// SampleRate returns the sample rate in Hz of the first audio stream.
func (p *FFprobeProber) SampleRate(ctx context.Context, path string) (int, error) {
	out, err := p.runFFprobe(ctx,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}

	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: %s", ErrNoAudioStream, path)
	}

	rate, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse sample rate %q: %w", trimmed, err)
	}

	return rate, nil
}

// runFFprobe executes ffprobe with the given arguments and returns stdout.
func (p *FFprobeProber) runFFprobe(ctx context.Context, args ...string) (string, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	return stdout.String(), nil
}

// Verify interface implementation at compile time.
var _ Prober = (*FFprobeProber)(nil)
