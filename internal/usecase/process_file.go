package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/entity"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/port"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Processor turns one inbound queue message into completed or failed job
// records plus notifications. ExecuteBatch and ExecuteJob are the entry
// points for the two queue bindings; a nil return tells the consumer the
// message may be deleted.
type Processor struct {
	repo        port.JobRepository
	storage     port.BlobStore
	transformer port.ArtifactTransformer
	notifier    port.NotificationPublisher
	dlq         port.DeadLetterPublisher
	alerts      port.FailureNotifier
	logger      *zap.Logger
	cfg         ProcessorConfig
}

type ProcessorConfig struct {
	InputBucket  string
	OutputBucket string
	TempDir      string
}

func NewProcessor(
	repo port.JobRepository,
	storage port.BlobStore,
	transformer port.ArtifactTransformer,
	notifier port.NotificationPublisher,
	dlq port.DeadLetterPublisher,
	alerts port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *Processor {
	return &Processor{
		repo:        repo,
		storage:     storage,
		transformer: transformer,
		notifier:    notifier,
		dlq:         dlq,
		alerts:      alerts,
		logger:      logger,
		cfg:         cfg,
	}
}

// ExecuteBatch handles a {userId, files} message. Each file is processed
// independently; one file's failure never aborts the rest of the batch, so
// the batch as a whole is terminal and the message is always deleted.
func (p *Processor) ExecuteBatch(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "Processor.ExecuteBatch")
	defer span.End()

	var msg entity.BatchMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		p.deadLetter(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("batch.user_id", msg.UserID),
		attribute.Int("batch.files", len(msg.Files)),
	)

	log := p.logger.With(zap.String("user_id", msg.UserID))

	if len(msg.Files) == 0 {
		log.Warn("rejecting batch with empty file list")
		p.sendNotification(ctx, entity.Notification{
			Type:      entity.NotificationError,
			UserID:    msg.UserID,
			Status:    entity.JobStatusFailed,
			Message:   "file list is empty, nothing to process",
			Timestamp: time.Now().UTC(),
		}, log)
		return nil
	}

	for _, fileKey := range msg.Files {
		p.processFile(ctx, msg.UserID, fileKey, log)
	}
	return nil
}

// ExecuteJob handles a {jobId} message referencing an existing job. A
// pipeline failure is returned so the message is redelivered; a missing
// job is terminal and dead-lettered.
func (p *Processor) ExecuteJob(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "Processor.ExecuteJob")
	defer span.End()

	var msg entity.JobMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		p.deadLetter(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(attribute.String("job.id", msg.JobID.String()))
	log := p.logger.With(zap.String("job_id", msg.JobID.String()))

	job, err := p.repo.FindByJobID(ctx, msg.JobID)
	if err != nil {
		if errors.Is(err, port.ErrJobNotFound) {
			log.Error("no job record for message", zap.Error(err))
			p.deadLetter(ctx, rawMsg, "job_not_found: "+msg.JobID.String())
			return nil
		}
		return fmt.Errorf("find job: %w", err)
	}

	job.MarkProcessing()
	if err := p.repo.Update(ctx, job); err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()
	start := time.Now()

	outputKey, err := p.runPipeline(ctx, job, log)
	if err != nil {
		log.Error("job processing failed", zap.Error(err))
		job.MarkFailed(err.Error())
		if uerr := p.repo.Update(ctx, job); uerr != nil {
			log.Error("failed to update job to FAILED", zap.Error(uerr))
		}
		if nerr := p.notifier.NotifyError(ctx, err); nerr != nil {
			log.Error("failed to publish error notification", zap.Error(nerr))
		}
		p.sendNotification(ctx, failedNotification(job, job.InputKey, err), log)
		metrics.JobsProcessedTotal.WithLabelValues("failed").Inc()
		return err
	}

	job.MarkCompleted(p.cfg.OutputBucket, outputKey)
	if err := p.repo.Update(ctx, job); err != nil {
		return fmt.Errorf("update job completed: %w", err)
	}

	p.sendNotification(ctx, completedNotification(job, job.InputKey), log)
	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())

	log.Info("job completed", zap.String("output_key", outputKey))
	return nil
}

// processFile runs the full pipeline for one file of a batch. All failures
// are terminal here: recorded on the job, notified, and swallowed so the
// batch continues.
func (p *Processor) processFile(ctx context.Context, userID, fileKey string, log *zap.Logger) {
	log = log.With(zap.String("file_key", fileKey))
	start := time.Now()

	job := entity.NewJob(userID, p.cfg.InputBucket, fileKey)
	if err := p.repo.Create(ctx, job); err != nil {
		log.Error("failed to create job record", zap.Error(err))
		p.sendNotification(ctx, failedNotification(job, fileKey, err), log)
		metrics.JobsProcessedTotal.WithLabelValues("failed").Inc()
		return
	}

	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()

	outputKey, err := p.runPipeline(ctx, job, log)
	if err != nil {
		log.Error("file processing failed", zap.Error(err))
		job.MarkFailed(err.Error())
		if uerr := p.repo.Update(ctx, job); uerr != nil {
			log.Error("failed to update job to FAILED", zap.Error(uerr))
		}
		p.sendNotification(ctx, failedNotification(job, fileKey, err), log)
		metrics.JobsProcessedTotal.WithLabelValues("failed").Inc()
		return
	}

	job.MarkCompleted(p.cfg.OutputBucket, outputKey)
	if err := p.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
	}

	p.sendNotification(ctx, completedNotification(job, fileKey), log)
	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())

	log.Info("file processed", zap.String("output_key", outputKey))
}

// runPipeline is the download, transform, upload sequence for one attempt.
// The scratch workspace is removed unconditionally when it returns.
func (p *Processor) runPipeline(ctx context.Context, job *entity.Job, log *zap.Logger) (string, error) {
	tracer := otel.Tracer("usecase")

	if err := os.MkdirAll(p.cfg.TempDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp root: %w", err)
	}
	workDir, err := os.MkdirTemp(p.cfg.TempDir, "job-")
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workDir)

	dlStart := time.Now()
	dlCtx, dlSpan := tracer.Start(ctx, "download")
	data, err := p.storage.Download(dlCtx, job.InputBucket, job.InputKey)
	dlSpan.End()
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	metrics.JobProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	inputPath := filepath.Join(workDir, "input.mp4")
	if err := os.WriteFile(inputPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write input file: %w", err)
	}

	trStart := time.Now()
	trCtx, trSpan := tracer.Start(ctx, "transform")
	archivePath := filepath.Join(workDir, "artifact.zip")
	result, err := p.transformer.Transform(trCtx, inputPath, archivePath)
	trSpan.End()
	if err != nil {
		return "", err
	}
	metrics.JobProcessingDuration.WithLabelValues("transform").Observe(time.Since(trStart).Seconds())
	metrics.ArtifactEntriesTotal.Add(float64(result.EntryCount))

	artifact, err := os.ReadFile(archivePath)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}

	upStart := time.Now()
	upCtx, upSpan := tracer.Start(ctx, "upload")
	outputKey := deriveOutputKey(job.UserID, job.InputKey)
	err = p.storage.Upload(upCtx, p.cfg.OutputBucket, outputKey, artifact)
	upSpan.End()
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	metrics.JobProcessingDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	log.Debug("artifact uploaded",
		zap.String("output_key", outputKey),
		zap.Int("entries", result.EntryCount),
	)
	return outputKey, nil
}

// deadLetter records a message that can never succeed and alerts the
// operator. Both are best effort.
func (p *Processor) deadLetter(ctx context.Context, body []byte, reason string) {
	p.logger.Error("dead-lettering message", zap.String("reason", reason), zap.ByteString("body", body))

	if err := p.dlq.PublishDeadLetter(ctx, body, reason); err != nil {
		p.logger.Error("failed to publish dead letter", zap.Error(err))
	}
	if err := p.alerts.NotifyDeadLetter(ctx, reason, body); err != nil {
		p.logger.Error("failed to send dead-letter alert", zap.Error(err))
	}
	metrics.DeadLetteredTotal.Inc()
}

// sendNotification publishes best effort: a notification failure must not
// block job-status persistence, but it has to be observable.
func (p *Processor) sendNotification(ctx context.Context, n entity.Notification, log *zap.Logger) {
	if err := p.notifier.Notify(ctx, n); err != nil {
		log.Error("failed to publish notification", zap.Error(err))
	}
}

// deriveOutputKey is deterministic so a redelivered message overwrites the
// same object instead of accumulating duplicates.
func deriveOutputKey(userID, fileKey string) string {
	return path.Join("processed", userID, path.Base(fileKey))
}

func completedNotification(job *entity.Job, fileKey string) entity.Notification {
	return entity.Notification{
		Type:      entity.NotificationInfo,
		UserID:    job.UserID,
		JobID:     job.JobID.String(),
		FileKey:   fileKey,
		Status:    entity.JobStatusCompleted,
		Message:   "file processing completed successfully",
		Timestamp: time.Now().UTC(),
	}
}

func failedNotification(job *entity.Job, fileKey string, err error) entity.Notification {
	return entity.Notification{
		Type:      entity.NotificationError,
		UserID:    job.UserID,
		JobID:     job.JobID.String(),
		FileKey:   fileKey,
		Status:    entity.JobStatusFailed,
		Message:   "file processing failed",
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	}
}
