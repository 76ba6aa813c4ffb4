package ffmpeg

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTransformer(mode Mode) *Transformer {
	return NewTransformer(TransformerConfig{
		Mode:         mode,
		FPS:          1,
		FrameFormat:  "png",
		Preset:       "medium",
		CRF:          23,
		AudioCodec:   "aac",
		AudioBitrate: "128k",
	}, zap.NewNop())
}

func TestFrameArgs(t *testing.T) {
	tr := newTestTransformer(ModeFrames)
	args := tr.frameArgs("/work/input.mp4", "/work/frames")

	assert.Equal(t, []string{
		"-i", "/work/input.mp4",
		"-vf", "fps=1",
		"-y",
		filepath.Join("/work/frames", "frame_%04d.png"),
	}, args)
}

func TestTranscodeArgs(t *testing.T) {
	tr := newTestTransformer(ModeTranscode)
	args := tr.transcodeArgs("/work/input.mp4", "/work/processed.mp4")

	assert.Equal(t, []string{
		"-i", "/work/input.mp4",
		"-c:v", "libx264",
		"-crf", "23",
		"-preset", "medium",
		"-c:a", "aac",
		"-b:a", "128k",
		"-y",
		"/work/processed.mp4",
	}, args)
}

func TestTransformErrorWrapping(t *testing.T) {
	cause := errors.New("no frames extracted")
	err := &TransformError{Stage: "extract", Err: cause}

	assert.Equal(t, "transform extract: no frames extracted", err.Error())
	require.ErrorIs(t, err, cause)
}
