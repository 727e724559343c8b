// Package job provides the Job aggregate for tracking batch lip-sync runs.
// A Job represents one pass over a folder; each matched pair becomes an
// Item whose status advances through a guarded transition table.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/Nuked88/wav2lip-batch/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusInQueue indicates the run has been created but not started.
	StatusInQueue Status = "IN_QUEUE"
	// StatusRunning indicates pairs are being processed.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the run finished; individual items may
	// still have failed.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the run produced no successful output.
	StatusFailed Status = "FAILED"
	// StatusCancelled indicates the run was interrupted before finishing.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusInQueue:   {StatusRunning, StatusCancelled},
	StatusRunning:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ItemStatus represents the status of a single matched pair within a run.
type ItemStatus string

const (
	// ItemPending indicates the pair is waiting to be processed.
	ItemPending ItemStatus = "PENDING"
	// ItemRunning indicates the pair is currently being processed.
	ItemRunning ItemStatus = "RUNNING"
	// ItemCompleted indicates the pair produced an output video.
	ItemCompleted ItemStatus = "COMPLETED"
	// ItemFailed indicates padding or inference failed for the pair.
	ItemFailed ItemStatus = "FAILED"
	// ItemSkipped indicates the output file already existed.
	ItemSkipped ItemStatus = "SKIPPED"
)

// Item represents one matched (video, audio) pair in a batch run.
type Item struct {
	// Basename is the join key shared by the video and audio files.
	Basename string
	// VideoPath is the path to the input video file.
	VideoPath string
	// AudioPath is the path to the input audio file.
	AudioPath string
	// PaddedAudioPath is the path to the centered audio file, when
	// padding produced one. Empty otherwise.
	PaddedAudioPath string
	// OutputPath is the path to the output video file.
	OutputPath string
	// Status is the current processing status.
	Status ItemStatus
	// Error contains any error message if processing failed.
	Error string
	// VideoURL is the S3 URL of the output, when uploads are enabled.
	VideoURL string
	// StartedAt is when pair processing started.
	StartedAt time.Time
	// CompletedAt is when pair processing finished.
	CompletedAt time.Time
}

// Counts aggregates item outcomes for one run.
type Counts struct {
	Total     int
	Completed int
	Failed    int
	Skipped   int
}

// Job represents a batch run aggregate.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this run.
	ID string
	// Folder is the directory that was scanned.
	Folder string
	// Status is the current run state.
	Status Status
	// Items contains the matched pairs in processing order.
	Items []Item
	// Error contains any error message if the run failed.
	Error string
	// CreatedAt is when the run was created.
	CreatedAt time.Time
	// UpdatedAt is when the run was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID and initial IN_QUEUE status.
func New(folder string) *Job {
	now := time.Now()
	return &Job{
		ID:        id.Generate(),
		Folder:    folder,
		Status:    StatusInQueue,
		Items:     make([]Item, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewWithID creates a new Job with the specified ID.
// Useful for testing or when the ID needs to be externally generated.
func NewWithID(jobID, folder string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Folder:    folder,
		Status:    StatusInQueue,
		Items:     make([]Item, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed, StatusCancelled:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from IN_QUEUE to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete transitions the job to COMPLETED state.
func (j *Job) Complete() error {
	return j.TransitionTo(StatusCompleted)
}

// Fail transitions the job to FAILED state with an error message.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return j.TransitionTo(StatusFailed)
}

// Cancel transitions the job to CANCELLED state.
func (j *Job) Cancel() error {
	return j.TransitionTo(StatusCancelled)
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// SetItems sets the items for this run.
func (j *Job) SetItems(items []Item) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Items = items
	j.UpdatedAt = time.Now()
}

// UpdateItem updates a specific item by index.
func (j *Job) UpdateItem(index int, item Item) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if index >= 0 && index < len(j.Items) {
		j.Items[index] = item
		j.UpdatedAt = time.Now()
	}
}

// ItemCounts returns aggregate item outcomes.
func (j *Job) ItemCounts() Counts {
	j.mu.RLock()
	defer j.mu.RUnlock()

	c := Counts{Total: len(j.Items)}
	for _, item := range j.Items {
		switch item.Status {
		case ItemCompleted:
			c.Completed++
		case ItemFailed:
			c.Failed++
		case ItemSkipped:
			c.Skipped++
		}
	}
	return c
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted ||
		j.Status == StatusFailed ||
		j.Status == StatusCancelled
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	items := make([]Item, len(j.Items))
	copy(items, j.Items)

	return &Job{
		ID:          j.ID,
		Folder:      j.Folder,
		Status:      j.Status,
		Items:       items,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
