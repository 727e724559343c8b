// Package media provides duration and stream metadata probing for media files.
package media

import "context"

// Prober defines the interface for inspecting media files.
// Implementations should use ffprobe or similar tools.
type Prober interface {
	// Duration returns the container duration of a media file in seconds.
	Duration(ctx context.Context, path string) (float64, error)

	// SampleRate returns the sample rate in Hz of the first audio stream.
	SampleRate(ctx context.Context, path string) (int, error)
}
