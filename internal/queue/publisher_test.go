package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyMarshalsPayload(t *testing.T) {
	q := &fakeQueue{}
	pub := NewNotificationPublisher(q)

	err := pub.Notify(context.Background(), entity.Notification{
		Type:      entity.NotificationInfo,
		UserID:    "u1",
		JobID:     "j1",
		FileKey:   "clip.mp4",
		Status:    entity.JobStatusCompleted,
		Message:   "file processing completed successfully",
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, q.sent, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal(q.sent[0], &got))
	assert.Equal(t, "INFO", got["type"])
	assert.Equal(t, "u1", got["userId"])
	assert.Equal(t, "clip.mp4", got["fileKey"])
	assert.Equal(t, "COMPLETED", got["status"])
	assert.Equal(t, "2024-06-01T12:00:00Z", got["timestamp"])
	assert.NotContains(t, got, "error")
}

func TestNotifyErrorIncludesStack(t *testing.T) {
	q := &fakeQueue{}
	pub := NewNotificationPublisher(q)

	require.NoError(t, pub.NotifyError(context.Background(), errors.New("download: network timeout")))
	require.Len(t, q.sent, 1)

	var got struct {
		Type      string    `json:"type"`
		Message   string    `json:"message"`
		Stack     string    `json:"stack"`
		Timestamp time.Time `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(q.sent[0], &got))
	assert.Equal(t, "ERROR", got.Type)
	assert.Equal(t, "download: network timeout", got.Message)
	assert.NotEmpty(t, got.Stack)
	assert.False(t, got.Timestamp.IsZero())
}

func TestDLQPublisherPreservesRawBody(t *testing.T) {
	q := &fakeQueue{}
	pub := NewDLQPublisher(q)

	raw := []byte(`{invalid json`)
	require.NoError(t, pub.PublishDeadLetter(context.Background(), raw, "unmarshal_error"))
	require.Len(t, q.sent, 1)

	var env struct {
		Reason    string    `json:"reason"`
		Body      string    `json:"body"`
		Timestamp time.Time `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(q.sent[0], &env))
	assert.Equal(t, "unmarshal_error", env.Reason)
	assert.Equal(t, `{invalid json`, env.Body)
}
