package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	return path
}

// writeFailingScript creates a stand-in inference process that always
// exits non-zero.
func writeFailingScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake_inference.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 1\n"), 0o700))
	return path
}

// A run that finishes reports failed pairs but still exits zero; only
// startup, config, and scan errors produce a non-zero exit.
func TestExecute_AllPairsFailedStillExitsZero(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	touch(t, dir, "a.mp3")

	t.Setenv("PAD_AUDIO", "false")
	t.Setenv("PYTHON_BIN", "sh")
	t.Setenv("INFERENCE_SCRIPT", writeFailingScript(t))
	t.Setenv("TEMP_DIR", filepath.Join(t.TempDir(), "scratch"))
	t.Setenv("LOG_LEVEL", "error")

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{dir})

	require.NoError(t, root.Execute())
}

func TestExecute_MissingFolderFails(t *testing.T) {
	t.Setenv("TEMP_DIR", filepath.Join(t.TempDir(), "scratch"))

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"/nonexistent/folder"})

	require.Error(t, root.Execute())
}
