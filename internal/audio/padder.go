// Package audio provides interfaces and implementations for audio processing.
package audio

import (
	"context"
	"path/filepath"
	"strings"
)

// PaddedSuffix is appended to an audio file's stem when writing the
// padded variant.
const PaddedSuffix = "-padded.mp3"

// Padder defines the interface for centering audio within a video's
// duration by padding it with silence.
type Padder interface {
	// CenterPad compares the durations of the video and audio files.
	// If the audio is at least as long as the video it returns audioPath
	// unchanged and writes nothing. Otherwise it writes a new audio file
	// with equal leading and trailing silence so the speech sits in the
	// middle of the video's timespan, and returns the new path.
	CenterPad(ctx context.Context, videoPath, audioPath string) (string, error)
}

// PaddedPath derives the output path for a padded audio file.
func PaddedPath(audioPath string) string {
	stem := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	return stem + PaddedSuffix
}

// PaddingDuration returns the silence duration in seconds to add on each
// side of the audio. It is zero when the audio is not shorter than the video.
func PaddingDuration(videoDur, audioDur float64) float64 {
	if audioDur >= videoDur {
		return 0
	}
	return (videoDur - audioDur) / 2
}
