// Package infer invokes the external Wav2Lip inference process.
package infer

import "context"

// Engine defines the interface for lip-sync inference backends.
type Engine interface {
	// Run generates a lip-synced video from a face video and a driving
	// audio track, writing the result to outputPath. It blocks until the
	// inference finishes and returns an error on non-zero exit.
	Run(ctx context.Context, videoPath, audioPath, outputPath string) error
}
