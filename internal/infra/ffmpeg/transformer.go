package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/port"
	"go.uber.org/zap"
)

type Mode string

const (
	// ModeFrames extracts still frames at a fixed rate.
	ModeFrames Mode = "frames"
	// ModeTranscode re-encodes the video with the configured profile.
	ModeTranscode Mode = "transcode"
)

// TransformError is the single error type surfaced for tool invocation,
// empty-output and archive failures.
type TransformError struct {
	Stage string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s: %v", e.Stage, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

type TransformerConfig struct {
	Mode         Mode
	FPS          int
	FrameFormat  string
	Preset       string
	CRF          int
	AudioCodec   string
	AudioBitrate string
}

// Transformer invokes ffmpeg on a local input file and packages the result
// into a ZIP archive.
type Transformer struct {
	cfg    TransformerConfig
	logger *zap.Logger
}

func NewTransformer(cfg TransformerConfig, logger *zap.Logger) *Transformer {
	return &Transformer{cfg: cfg, logger: logger}
}

func (t *Transformer) Transform(ctx context.Context, inputPath, archivePath string) (*port.TransformResult, error) {
	duration, err := t.probeDuration(ctx, inputPath)
	if err != nil {
		t.logger.Warn("could not probe video duration", zap.Error(err))
	}

	var outputs []string
	switch t.cfg.Mode {
	case ModeTranscode:
		outputs, err = t.transcode(ctx, inputPath)
	default:
		outputs, err = t.extractFrames(ctx, inputPath)
	}
	if err != nil {
		return nil, err
	}

	if err := createArchive(outputs, archivePath); err != nil {
		return nil, &TransformError{Stage: "archive", Err: err}
	}

	t.logger.Info("artifact produced",
		zap.Int("entries", len(outputs)),
		zap.Float64("video_duration", duration),
	)

	return &port.TransformResult{
		EntryCount:    len(outputs),
		VideoDuration: duration,
	}, nil
}

func (t *Transformer) extractFrames(ctx context.Context, inputPath string) ([]string, error) {
	framesDir := filepath.Join(filepath.Dir(inputPath), "frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return nil, &TransformError{Stage: "extract", Err: err}
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", t.frameArgs(inputPath, framesDir)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, &TransformError{Stage: "extract", Err: fmt.Errorf("ffmpeg: %w, output: %s", err, out)}
	}

	frames, err := filepath.Glob(filepath.Join(framesDir, "*."+t.cfg.FrameFormat))
	if err != nil {
		return nil, &TransformError{Stage: "extract", Err: err}
	}
	if len(frames) == 0 {
		return nil, &TransformError{Stage: "extract", Err: errors.New("no frames extracted")}
	}
	return frames, nil
}

func (t *Transformer) transcode(ctx context.Context, inputPath string) ([]string, error) {
	outPath := filepath.Join(filepath.Dir(inputPath), "processed.mp4")

	cmd := exec.CommandContext(ctx, "ffmpeg", t.transcodeArgs(inputPath, outPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, &TransformError{Stage: "transcode", Err: fmt.Errorf("ffmpeg: %w, output: %s", err, out)}
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, &TransformError{Stage: "transcode", Err: fmt.Errorf("missing output: %w", err)}
	}
	if info.Size() == 0 {
		return nil, &TransformError{Stage: "transcode", Err: errors.New("empty output file")}
	}
	return []string{outPath}, nil
}

func (t *Transformer) frameArgs(inputPath, framesDir string) []string {
	pattern := filepath.Join(framesDir, fmt.Sprintf("frame_%%04d.%s", t.cfg.FrameFormat))
	return []string{
		"-i", inputPath,
		"-vf", fmt.Sprintf("fps=%d", t.cfg.FPS),
		"-y",
		pattern,
	}
}

func (t *Transformer) transcodeArgs(inputPath, outPath string) []string {
	return []string{
		"-i", inputPath,
		"-c:v", "libx264",
		"-crf", strconv.Itoa(t.cfg.CRF),
		"-preset", t.cfg.Preset,
		"-c:a", t.cfg.AudioCodec,
		"-b:a", t.cfg.AudioBitrate,
		"-y",
		outPath,
	}
}

func (t *Transformer) probeDuration(ctx context.Context, inputPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inputPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}
