// Package scan pairs video and audio files in a directory by basename.
// A basename produces at most one pair, and only when both a video and
// an audio file are present and no output file for it exists yet.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputSuffix is appended to a video's stem to form the output file name.
const OutputSuffix = "-output.mp4"

// Kind classifies a media file by its extension.
type Kind string

const (
	// KindVideo marks .mp4 files.
	KindVideo Kind = "video"
	// KindAudio marks .mp3 files.
	KindAudio Kind = "audio"
)

// MediaFile is a classified directory entry.
type MediaFile struct {
	// Path is the full path to the file.
	Path string
	// Basename is the file name without its extension.
	Basename string
	// Kind is the inferred media kind.
	Kind Kind
}

// MatchedPair is a video and audio file sharing a basename.
type MatchedPair struct {
	// Basename is the shared join key.
	Basename string
	// VideoPath is the path to the video file.
	VideoPath string
	// AudioPath is the path to the audio file.
	AudioPath string
	// OutputPath is where the lip-synced result will be written.
	OutputPath string
}

// Result holds the outcome of scanning a directory.
type Result struct {
	// Pairs are the matched pairs ready for processing, in directory
	// enumeration order.
	Pairs []MatchedPair
	// Skipped lists basenames whose output file already exists.
	Skipped []string
}

// Classify inspects a file name and returns the media file descriptor.
// The second return value is false for entries that are neither video
// nor audio. Extension matching is case-insensitive.
func Classify(path string) (MediaFile, bool) {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	basename := strings.TrimSuffix(name, filepath.Ext(name))

	switch ext {
	case ".mp4":
		return MediaFile{Path: path, Basename: basename, Kind: KindVideo}, true
	case ".mp3":
		return MediaFile{Path: path, Basename: basename, Kind: KindAudio}, true
	default:
		return MediaFile{}, false
	}
}

// OutputPath derives the output file path for a video path.
func OutputPath(videoPath string) string {
	stem := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	return stem + OutputSuffix
}

// Scan enumerates a directory (non-recursive) and returns matched pairs.
// Basenames with only a video or only an audio file are discarded.
// Basenames whose output file already exists are reported in Skipped.
// If both case variants of an extension exist for the same basename,
// the last-scanned entry wins.
func Scan(dir string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("read directory %s: %w", dir, err)
	}

	videos := make(map[string]string)
	audios := make(map[string]string)
	var order []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		mf, ok := Classify(filepath.Join(dir, entry.Name()))
		if !ok {
			continue
		}
		switch mf.Kind {
		case KindVideo:
			if _, seen := videos[mf.Basename]; !seen {
				order = append(order, mf.Basename)
			}
			videos[mf.Basename] = mf.Path
		case KindAudio:
			audios[mf.Basename] = mf.Path
		}
	}

	var res Result
	for _, basename := range order {
		videoPath := videos[basename]
		audioPath, ok := audios[basename]
		if !ok {
			continue
		}
		outputPath := OutputPath(videoPath)
		if _, err := os.Stat(outputPath); err == nil {
			res.Skipped = append(res.Skipped, basename)
			continue
		}
		res.Pairs = append(res.Pairs, MatchedPair{
			Basename:   basename,
			VideoPath:  videoPath,
			AudioPath:  audioPath,
			OutputPath: outputPath,
		})
	}

	return res, nil
}
