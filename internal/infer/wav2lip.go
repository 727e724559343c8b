package infer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// Options configures the Wav2Lip inference invocation.
type Options struct {
	// PythonBin is the Python interpreter. Defaults to "python".
	PythonBin string
	// ScriptPath is the path to the inference script. Defaults to "inference.py".
	ScriptPath string
	// CheckpointPath is the path to the model checkpoint file.
	CheckpointPath string
	// FaceDetBatchSize is the face detection batch size. Defaults to 32.
	FaceDetBatchSize int
	// Wav2LipBatchSize is the model batch size. Defaults to 256.
	Wav2LipBatchSize int
	// Timeout bounds a single invocation. Zero means no timeout, so a
	// hung subprocess blocks the batch indefinitely.
	Timeout time.Duration
}

// Wav2LipEngine implements Engine by running the Wav2Lip inference
// script as a subprocess.
type Wav2LipEngine struct {
	opts Options
}

// NewWav2LipEngine creates a new Wav2LipEngine, filling in defaults for
// unset options.
func NewWav2LipEngine(opts Options) *Wav2LipEngine {
	if opts.PythonBin == "" {
		opts.PythonBin = "python"
	}
	if opts.ScriptPath == "" {
		opts.ScriptPath = "inference.py"
	}
	if opts.FaceDetBatchSize <= 0 {
		opts.FaceDetBatchSize = 32
	}
	if opts.Wav2LipBatchSize <= 0 {
		opts.Wav2LipBatchSize = 256
	}
	return &Wav2LipEngine{opts: opts}
}

// Run implements Engine.Run.
func (e *Wav2LipEngine) Run(ctx context.Context, videoPath, audioPath, outputPath string) error {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	args := e.buildArgs(videoPath, audioPath, outputPath)

	// #nosec G204 - binary and script paths are set by the application, not user input
	cmd := exec.CommandContext(ctx, e.opts.PythonBin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("inference cancelled: %w", ctx.Err())
		}
		return &InferenceError{
			VideoPath: videoPath,
			AudioPath: audioPath,
			Stderr:    stderr.String(),
			Err:       err,
		}
	}

	return nil
}

// buildArgs constructs the inference script arguments.
func (e *Wav2LipEngine) buildArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		e.opts.ScriptPath,
		"--checkpoint_path", e.opts.CheckpointPath,
		"--face", videoPath,
		"--audio", audioPath,
		"--outfile", outputPath,
		"--face_det_batch_size", strconv.Itoa(e.opts.FaceDetBatchSize),
		"--wav2lip_batch_size", strconv.Itoa(e.opts.Wav2LipBatchSize),
	}
}

// InferenceError represents a failed inference run, including the
// failing pair's identity and the process stderr.
type InferenceError struct {
	VideoPath string
	AudioPath string
	Stderr    string
	Err       error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed for %s with %s: %v\nstderr: %s",
		e.VideoPath, e.AudioPath, e.Err, e.Stderr)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Verify interface implementation at compile time.
var _ Engine = (*Wav2LipEngine)(nil)
