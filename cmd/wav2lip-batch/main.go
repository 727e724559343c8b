// Package main provides the entry point for the wav2lip-batch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCommand()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "wav2lip-batch <folder>",
		Short: "Batch lip-sync every matched video/audio pair in a folder",
		Long: `wav2lip-batch scans a folder for video (.mp4) and audio (.mp3) files
sharing a basename, optionally centers shorter audio within the video
duration using silence padding, and runs Wav2Lip inference on each pair
to produce <basename>-output.mp4 files. Pairs whose output already
exists are skipped.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SilenceErrors = true

	root.Flags().String("checkpoint", "", "Path to the Wav2Lip checkpoint file")
	root.Flags().Bool("pad", true, "Center shorter audio within the video duration with silence padding")
	root.Flags().Int("face-det-batch", 0, "Face detection batch size")
	root.Flags().Int("wav2lip-batch", 0, "Wav2Lip model batch size")
	root.Flags().Duration("timeout", 0, "Per-pair inference timeout (0 = none)")
	root.Flags().Bool("cleanup-padded", false, "Remove padded audio files after their pair finishes")

	return root
}
