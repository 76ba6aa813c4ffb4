package minio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		prefix string
		want   string
	}{
		{"bare key", "clip.mp4", "raw-files/", "clip.mp4"},
		{"prefixed key", "raw-files/clip.mp4", "raw-files/", "raw-files/clip.mp4"},
		{"full path before prefix", "https://bucket.example.com/raw-files/clip.mp4", "raw-files/", "raw-files/clip.mp4"},
		{"no prefix configured", "some/deep/key.mp4", "", "some/deep/key.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeKey(tt.key, tt.prefix))
		})
	}
}
