package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Job tracks one file conversion end to end. ID is the row identity,
// JobID is the externally stable identifier carried on queue messages.
type Job struct {
	ID           uuid.UUID
	JobID        uuid.UUID
	UserID       string
	Status       JobStatus
	InputBucket  string
	InputKey     string
	OutputBucket string
	OutputKey    string
	Error        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewJob(userID, inputBucket, inputKey string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          uuid.New(),
		JobID:       uuid.New(),
		UserID:      userID,
		Status:      JobStatusProcessing,
		InputBucket: inputBucket,
		InputKey:    inputKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *Job) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.UpdatedAt = time.Now().UTC()
}

// MarkCompleted records the output location and clears any previous error,
// so a terminal job carries exactly one of {output location, error}.
func (j *Job) MarkCompleted(outputBucket, outputKey string) {
	j.Status = JobStatusCompleted
	j.OutputBucket = outputBucket
	j.OutputKey = outputKey
	j.Error = ""
	j.UpdatedAt = time.Now().UTC()
}

// MarkFailed records the error and clears any previous output location.
func (j *Job) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.Error = errMsg
	j.OutputBucket = ""
	j.OutputKey = ""
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
