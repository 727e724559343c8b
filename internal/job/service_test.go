package job

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nuked88/wav2lip-batch/internal/audio"
)

type fakePadder struct {
	calls   []string
	failFor map[string]error
	// passthrough disables the padded-path rewrite, simulating audio
	// that is already long enough.
	passthrough bool
}

func (p *fakePadder) CenterPad(_ context.Context, _, audioPath string) (string, error) {
	p.calls = append(p.calls, audioPath)
	if err := p.failFor[audioPath]; err != nil {
		return "", err
	}
	if p.passthrough {
		return audioPath, nil
	}
	return audio.PaddedPath(audioPath), nil
}

type engineCall struct {
	video, audio, output string
}

type fakeEngine struct {
	calls   []engineCall
	failFor map[string]error // keyed by video path
}

func (e *fakeEngine) Run(_ context.Context, videoPath, audioPath, outputPath string) error {
	e.calls = append(e.calls, engineCall{videoPath, audioPath, outputPath})
	return e.failFor[videoPath]
}

type fakeStorage struct {
	uploaded  []string
	cleaned   []string
	uploadErr error
}

func (s *fakeStorage) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("video-bytes")), nil
}

func (s *fakeStorage) Cleanup(_ context.Context, paths []string) error {
	s.cleaned = append(s.cleaned, paths...)
	return nil
}

func (s *fakeStorage) Upload(_ context.Context, key string, _ io.Reader) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploaded = append(s.uploaded, key)
	return "https://bucket.s3.region.amazonaws.com/" + key, nil
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	return path
}

func newService(t *testing.T, padder *fakePadder, engine *fakeEngine, store *fakeStorage, opts ...Option) *BatchService {
	t.Helper()
	return NewBatchService(NewMemoryRepository(), padder, engine, store, nil, opts...)
}

func TestBatchService_Run_SinglePair(t *testing.T) {
	dir := t.TempDir()
	video := touch(t, dir, "a.mp4")
	audioFile := touch(t, dir, "a.mp3")

	padder := &fakePadder{}
	engine := &fakeEngine{}
	svc := newService(t, padder, engine, &fakeStorage{})

	j, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, j.GetStatus())
	require.Len(t, engine.calls, 1)
	assert.Equal(t, video, engine.calls[0].video)
	assert.Equal(t, audio.PaddedPath(audioFile), engine.calls[0].audio)
	assert.Equal(t, filepath.Join(dir, "a-output.mp4"), engine.calls[0].output)

	require.Len(t, j.Items, 1)
	assert.Equal(t, ItemCompleted, j.Items[0].Status)
	assert.Equal(t, audio.PaddedPath(audioFile), j.Items[0].PaddedAudioPath)
}

func TestBatchService_Run_PaddingDisabled(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	audioFile := touch(t, dir, "a.mp3")

	padder := &fakePadder{}
	engine := &fakeEngine{}
	svc := newService(t, padder, engine, &fakeStorage{}, WithPadAudio(false))

	j, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Empty(t, padder.calls)
	require.Len(t, engine.calls, 1)
	assert.Equal(t, audioFile, engine.calls[0].audio)
	assert.Empty(t, j.Items[0].PaddedAudioPath)
}

func TestBatchService_Run_AudioAlreadyLongEnough(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	audioFile := touch(t, dir, "a.mp3")

	padder := &fakePadder{passthrough: true}
	engine := &fakeEngine{}
	svc := newService(t, padder, engine, &fakeStorage{})

	j, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, engine.calls, 1)
	assert.Equal(t, audioFile, engine.calls[0].audio)
	assert.Empty(t, j.Items[0].PaddedAudioPath)
}

func TestBatchService_Run_ExistingOutputSkipped(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.mp4")
	touch(t, dir, "b.mp3")
	touch(t, dir, "b-output.mp4")

	engine := &fakeEngine{}
	svc := newService(t, &fakePadder{}, engine, &fakeStorage{})

	j, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Empty(t, engine.calls)
	assert.Equal(t, StatusCompleted, j.GetStatus())
	require.Len(t, j.Items, 1)
	assert.Equal(t, ItemSkipped, j.Items[0].Status)
}

func TestBatchService_Run_FailureDoesNotAbortBatch(t *testing.T) {
	dir := t.TempDir()
	videoA := touch(t, dir, "a.mp4")
	touch(t, dir, "a.mp3")
	touch(t, dir, "b.mp4")
	touch(t, dir, "b.mp3")

	engine := &fakeEngine{failFor: map[string]error{
		videoA: errors.New("exit status 1"),
	}}
	svc := newService(t, &fakePadder{}, engine, &fakeStorage{})

	j, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	// Both pairs were attempted despite the first failing.
	assert.Len(t, engine.calls, 2)
	assert.Equal(t, StatusCompleted, j.GetStatus())

	counts := j.ItemCounts()
	assert.Equal(t, 1, counts.Failed)
	assert.Equal(t, 1, counts.Completed)

	for _, item := range j.Items {
		if item.Status == ItemFailed {
			assert.Contains(t, item.Error, "exit status 1")
		}
	}
}

func TestBatchService_Run_PadFailureRecordedAndContinues(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	audioA := touch(t, dir, "a.mp3")
	touch(t, dir, "b.mp4")
	touch(t, dir, "b.mp3")

	padder := &fakePadder{failFor: map[string]error{
		audioA: errors.New("could not decode audio"),
	}}
	engine := &fakeEngine{}
	svc := newService(t, padder, engine, &fakeStorage{})

	j, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	// Inference only ran for the pair whose padding succeeded.
	assert.Len(t, engine.calls, 1)

	counts := j.ItemCounts()
	assert.Equal(t, 1, counts.Failed)
	assert.Equal(t, 1, counts.Completed)
}

func TestBatchService_Run_AllPairsFailed(t *testing.T) {
	dir := t.TempDir()
	videoA := touch(t, dir, "a.mp4")
	touch(t, dir, "a.mp3")

	engine := &fakeEngine{failFor: map[string]error{
		videoA: errors.New("boom"),
	}}
	svc := newService(t, &fakePadder{}, engine, &fakeStorage{})

	j, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, j.GetStatus())
	assert.Contains(t, j.Error, "1 pairs failed")
}

func TestBatchService_Run_EmptyFolder(t *testing.T) {
	dir := t.TempDir()

	svc := newService(t, &fakePadder{}, &fakeEngine{}, &fakeStorage{})
	j, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, j.GetStatus())
	assert.Empty(t, j.Items)
}

func TestBatchService_Run_MissingFolder(t *testing.T) {
	svc := newService(t, &fakePadder{}, &fakeEngine{}, &fakeStorage{})
	_, err := svc.Run(context.Background(), "/nonexistent/folder")
	require.Error(t, err)
}

func TestBatchService_Run_UploadOutputs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	touch(t, dir, "a.mp3")

	store := &fakeStorage{}
	svc := newService(t, &fakePadder{}, &fakeEngine{}, store, WithUploadOutputs(true))

	j, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, store.uploaded, 1)
	assert.Equal(t, "a-output.mp4", store.uploaded[0])
	assert.Contains(t, j.Items[0].VideoURL, "a-output.mp4")
}

func TestBatchService_Run_UploadFailureKeepsItemCompleted(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	touch(t, dir, "a.mp3")

	store := &fakeStorage{uploadErr: errors.New("network down")}
	svc := newService(t, &fakePadder{}, &fakeEngine{}, store, WithUploadOutputs(true))

	j, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, ItemCompleted, j.Items[0].Status)
	assert.Empty(t, j.Items[0].VideoURL)
}

func TestBatchService_Run_CleanupPadded(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	audioFile := touch(t, dir, "a.mp3")

	store := &fakeStorage{}
	svc := newService(t, &fakePadder{}, &fakeEngine{}, store, WithCleanupPadded(true))

	_, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{audio.PaddedPath(audioFile)}, store.cleaned)
}

func TestBatchService_Run_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	touch(t, dir, "a.mp3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &fakeEngine{}
	svc := newService(t, &fakePadder{}, engine, &fakeStorage{})

	j, err := svc.Run(ctx, dir)
	require.NoError(t, err)

	assert.Empty(t, engine.calls)
	assert.Equal(t, StatusCancelled, j.GetStatus())
}

func TestBatchService_Run_PersistsFinalState(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	touch(t, dir, "a.mp3")

	repo := NewMemoryRepository()
	svc := NewBatchService(repo, &fakePadder{}, &fakeEngine{}, &fakeStorage{}, nil)

	j, err := svc.Run(context.Background(), dir)
	require.NoError(t, err)

	saved, err := repo.FindByID(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, saved.Status)
	require.Len(t, saved.Items, 1)
	assert.Equal(t, ItemCompleted, saved.Items[0].Status)
}
