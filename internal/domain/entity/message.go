package entity

import (
	"time"

	"github.com/google/uuid"
)

// BatchMessage is the inbound queue payload listing files to process for
// one user. Used by queues bound in batch mode.
type BatchMessage struct {
	UserID string   `json:"userId"`
	Files  []string `json:"files"`
}

// JobMessage references an already persisted job to (re)process. Used by
// queues bound in single-job mode.
type JobMessage struct {
	JobID uuid.UUID `json:"jobId"`
}

type NotificationType string

const (
	NotificationInfo  NotificationType = "INFO"
	NotificationError NotificationType = "ERROR"
)

// Notification is the outbound status payload, produced once per completed
// or failed file and once for a batch-level failure.
type Notification struct {
	Type      NotificationType `json:"type"`
	UserID    string           `json:"userId,omitempty"`
	JobID     string           `json:"jobId,omitempty"`
	FileKey   string           `json:"fileKey,omitempty"`
	Status    JobStatus        `json:"status,omitempty"`
	Message   string           `json:"message"`
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
