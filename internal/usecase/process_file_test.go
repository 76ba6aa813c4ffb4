package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/entity"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/port"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	mu        sync.Mutex
	created   []entity.Job
	updated   []entity.Job
	jobs      map[uuid.UUID]*entity.Job
	createErr error
	findErr   error
}

func (r *fakeRepo) Create(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, *job)
	return nil
}

func (r *fakeRepo) Update(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, *job)
	return nil
}

func (r *fakeRepo) FindByJobID(_ context.Context, jobID uuid.UUID) (*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, port.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

type blobCall struct {
	bucket, key string
}

type fakeStore struct {
	mu           sync.Mutex
	downloads    []blobCall
	uploads      []blobCall
	downloadErrs map[string]error
	uploadErr    error
}

func (s *fakeStore) Download(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads = append(s.downloads, blobCall{bucket, key})
	if err, ok := s.downloadErrs[key]; ok {
		return nil, err
	}
	return []byte("video-bytes"), nil
}

func (s *fakeStore) Upload(_ context.Context, bucket, key string, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploads = append(s.uploads, blobCall{bucket, key})
	return nil
}

type fakeTransformer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (t *fakeTransformer) Transform(_ context.Context, _, archivePath string) (*port.TransformResult, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	if t.err != nil {
		return nil, t.err
	}
	if err := os.WriteFile(archivePath, []byte("zip-bytes"), 0o644); err != nil {
		return nil, err
	}
	return &port.TransformResult{EntryCount: 3, VideoDuration: 2.0}, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	notes    []entity.Notification
	errNotes []error
}

func (n *fakeNotifier) Notify(_ context.Context, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	note, ok := payload.(entity.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload %T", payload)
	}
	n.notes = append(n.notes, note)
	return nil
}

func (n *fakeNotifier) NotifyError(_ context.Context, err error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errNotes = append(n.errNotes, err)
	return nil
}

type fakeDLQ struct {
	mu      sync.Mutex
	bodies  []string
	reasons []string
}

func (d *fakeDLQ) PublishDeadLetter(_ context.Context, body []byte, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bodies = append(d.bodies, string(body))
	d.reasons = append(d.reasons, reason)
	return nil
}

type fakeAlerts struct {
	mu    sync.Mutex
	calls int
}

func (a *fakeAlerts) NotifyDeadLetter(_ context.Context, _ string, _ []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return nil
}

type harness struct {
	proc        *Processor
	repo        *fakeRepo
	store       *fakeStore
	transformer *fakeTransformer
	notifier    *fakeNotifier
	dlq         *fakeDLQ
	alerts      *fakeAlerts
	tempDir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:        &fakeRepo{jobs: map[uuid.UUID]*entity.Job{}},
		store:       &fakeStore{downloadErrs: map[string]error{}},
		transformer: &fakeTransformer{},
		notifier:    &fakeNotifier{},
		dlq:         &fakeDLQ{},
		alerts:      &fakeAlerts{},
		tempDir:     t.TempDir(),
	}
	h.proc = NewProcessor(
		h.repo, h.store, h.transformer,
		h.notifier, h.dlq, h.alerts,
		zap.NewNop(),
		ProcessorConfig{
			InputBucket:  "uploads",
			OutputBucket: "outputs",
			TempDir:      h.tempDir,
		},
	)
	return h
}

// assertWorkspaceCleaned verifies no scratch directories survive a run.
func (h *harness) assertWorkspaceCleaned(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(h.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch workspaces must be removed")
}

func assertTerminalInvariant(t *testing.T, job entity.Job) {
	t.Helper()
	require.True(t, job.Terminal())
	if job.Status == entity.JobStatusCompleted {
		assert.NotEmpty(t, job.OutputKey)
		assert.Empty(t, job.Error)
	} else {
		assert.NotEmpty(t, job.Error)
		assert.Empty(t, job.OutputKey)
	}
}

func TestBatchSingleFileSuccess(t *testing.T) {
	h := newHarness(t)

	err := h.proc.ExecuteBatch(context.Background(), []byte(`{"userId":"u1","files":["clip.mp4"]}`))
	require.NoError(t, err)

	require.Len(t, h.repo.created, 1)
	assert.Equal(t, entity.JobStatusProcessing, h.repo.created[0].Status)
	assert.Equal(t, "uploads", h.repo.created[0].InputBucket)
	assert.Equal(t, "clip.mp4", h.repo.created[0].InputKey)

	require.Len(t, h.store.downloads, 1)
	assert.Equal(t, blobCall{"uploads", "clip.mp4"}, h.store.downloads[0])
	require.Len(t, h.store.uploads, 1)
	assert.Equal(t, blobCall{"outputs", "processed/u1/clip.mp4"}, h.store.uploads[0])

	require.NotEmpty(t, h.repo.updated)
	final := h.repo.updated[len(h.repo.updated)-1]
	assert.Equal(t, entity.JobStatusCompleted, final.Status)
	assert.Equal(t, "processed/u1/clip.mp4", final.OutputKey)
	assertTerminalInvariant(t, final)

	require.Len(t, h.notifier.notes, 1)
	note := h.notifier.notes[0]
	assert.Equal(t, entity.NotificationInfo, note.Type)
	assert.Equal(t, entity.JobStatusCompleted, note.Status)
	assert.Equal(t, "u1", note.UserID)
	assert.Equal(t, "clip.mp4", note.FileKey)
	assert.False(t, note.Timestamp.IsZero())

	h.assertWorkspaceCleaned(t)
}

func TestBatchEmptyFileList(t *testing.T) {
	h := newHarness(t)

	err := h.proc.ExecuteBatch(context.Background(), []byte(`{"userId":"u1","files":[]}`))
	require.NoError(t, err)

	assert.Empty(t, h.store.downloads)
	assert.Empty(t, h.store.uploads)
	assert.Empty(t, h.repo.created)
	assert.Empty(t, h.repo.updated)

	require.Len(t, h.notifier.notes, 1)
	note := h.notifier.notes[0]
	assert.Equal(t, entity.NotificationError, note.Type)
	assert.Equal(t, entity.JobStatusFailed, note.Status)
	assert.Contains(t, note.Message, "empty")
}

func TestBatchContinuesAfterFileFailure(t *testing.T) {
	h := newHarness(t)
	h.store.downloadErrs["a.mp4"] = errors.New("network timeout")

	err := h.proc.ExecuteBatch(context.Background(), []byte(`{"userId":"u1","files":["a.mp4","b.mp4"]}`))
	require.NoError(t, err)

	require.Len(t, h.repo.created, 2)
	require.Len(t, h.repo.updated, 2)

	var failed, completed *entity.Job
	for i := range h.repo.updated {
		switch h.repo.updated[i].Status {
		case entity.JobStatusFailed:
			failed = &h.repo.updated[i]
		case entity.JobStatusCompleted:
			completed = &h.repo.updated[i]
		}
	}
	require.NotNil(t, failed, "job for a.mp4 must be FAILED")
	require.NotNil(t, completed, "job for b.mp4 must still complete")

	assert.Contains(t, failed.Error, "network timeout")
	assertTerminalInvariant(t, *failed)
	assert.Equal(t, "processed/u1/b.mp4", completed.OutputKey)
	assertTerminalInvariant(t, *completed)

	require.Len(t, h.notifier.notes, 2)
	var failedNote *entity.Notification
	for i := range h.notifier.notes {
		if h.notifier.notes[i].Status == entity.JobStatusFailed {
			failedNote = &h.notifier.notes[i]
		}
	}
	require.NotNil(t, failedNote)
	assert.Equal(t, "a.mp4", failedNote.FileKey)
	assert.Contains(t, failedNote.Error, "network timeout")

	h.assertWorkspaceCleaned(t)
}

func TestBatchWorkspaceCleanedOnTransformFailure(t *testing.T) {
	h := newHarness(t)
	h.transformer.err = errors.New("no frames extracted")

	err := h.proc.ExecuteBatch(context.Background(), []byte(`{"userId":"u1","files":["clip.mp4"]}`))
	require.NoError(t, err)

	require.Len(t, h.repo.updated, 1)
	assert.Equal(t, entity.JobStatusFailed, h.repo.updated[0].Status)
	assert.Contains(t, h.repo.updated[0].Error, "no frames extracted")
	assert.Empty(t, h.store.uploads)

	h.assertWorkspaceCleaned(t)
}

func TestBatchMalformedBodyIsDeadLettered(t *testing.T) {
	h := newHarness(t)

	err := h.proc.ExecuteBatch(context.Background(), []byte(`{invalid json`))
	require.NoError(t, err, "malformed messages are terminal, not retried")

	require.Len(t, h.dlq.bodies, 1)
	assert.Equal(t, `{invalid json`, h.dlq.bodies[0])
	assert.Contains(t, h.dlq.reasons[0], "unmarshal_error")
	assert.Equal(t, 1, h.alerts.calls)
	assert.Empty(t, h.store.downloads)
}

func TestJobMessageSuccess(t *testing.T) {
	h := newHarness(t)
	job := entity.NewJob("u2", "uploads", "raw-files/movie.mp4")
	h.repo.jobs[job.JobID] = job

	body := []byte(fmt.Sprintf(`{"jobId":%q}`, job.JobID))
	require.NoError(t, h.proc.ExecuteJob(context.Background(), body))

	final := h.repo.updated[len(h.repo.updated)-1]
	assert.Equal(t, entity.JobStatusCompleted, final.Status)
	assert.Equal(t, "processed/u2/movie.mp4", final.OutputKey)
	assertTerminalInvariant(t, final)

	require.Len(t, h.notifier.notes, 1)
	assert.Equal(t, entity.JobStatusCompleted, h.notifier.notes[0].Status)
	h.assertWorkspaceCleaned(t)
}

func TestJobMessageNotFoundIsTerminal(t *testing.T) {
	h := newHarness(t)

	body := []byte(fmt.Sprintf(`{"jobId":%q}`, uuid.New()))
	require.NoError(t, h.proc.ExecuteJob(context.Background(), body))

	require.Len(t, h.dlq.reasons, 1)
	assert.Contains(t, h.dlq.reasons[0], "job_not_found")
	assert.Empty(t, h.store.downloads)
}

func TestJobMessageFailureIsRedelivered(t *testing.T) {
	h := newHarness(t)
	job := entity.NewJob("u2", "uploads", "movie.mp4")
	h.repo.jobs[job.JobID] = job
	h.transformer.err = errors.New("ffmpeg: exit status 1")

	body := []byte(fmt.Sprintf(`{"jobId":%q}`, job.JobID))
	err := h.proc.ExecuteJob(context.Background(), body)
	require.Error(t, err, "pipeline failure must propagate for redelivery")

	final := h.repo.updated[len(h.repo.updated)-1]
	assert.Equal(t, entity.JobStatusFailed, final.Status)
	assert.Contains(t, final.Error, "ffmpeg")
	assertTerminalInvariant(t, final)

	require.Len(t, h.notifier.errNotes, 1)
	h.assertWorkspaceCleaned(t)
}

func TestJobMessageReprocessingCompletedJob(t *testing.T) {
	h := newHarness(t)
	job := entity.NewJob("u2", "uploads", "movie.mp4")
	job.MarkCompleted("outputs", "processed/u2/movie.mp4")
	h.repo.jobs[job.JobID] = job

	body := []byte(fmt.Sprintf(`{"jobId":%q}`, job.JobID))
	require.NoError(t, h.proc.ExecuteJob(context.Background(), body))

	// Redelivery re-runs the pipeline and converges on the same output key.
	require.Len(t, h.store.uploads, 1)
	assert.Equal(t, blobCall{"outputs", "processed/u2/movie.mp4"}, h.store.uploads[0])
	final := h.repo.updated[len(h.repo.updated)-1]
	assert.Equal(t, entity.JobStatusCompleted, final.Status)
}
