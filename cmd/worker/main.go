package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/port"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/infra/config"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/infra/email"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/infra/ffmpeg"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/infra/metrics"
	miniostorage "github.com/Grupo-26-FIAP/hackaton-file-processor/internal/infra/minio"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/infra/postgres"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/infra/rabbitmq"
	sqsinfra "github.com/Grupo-26-FIAP/hackaton-file-processor/internal/infra/sqs"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/infra/tracing"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/queue"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/usecase"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting hackaton-file-processor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// Blob store
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:    cfg.MinIOEndpoint,
		AccessKey:   cfg.MinIOAccessKey,
		SecretKey:   cfg.MinIOSecretKey,
		UseSSL:      cfg.MinIOUseSSL,
		InputPrefix: cfg.InputKeyPrefix,
	})
	fatalOnErr(err, "create blob store")
	fatalOnErr(storage.EnsureBuckets(ctx, cfg.InputBucket, cfg.OutputBucket), "ensure buckets")

	// Queues
	inputQueue, notifQueue, dlqQueue, closeQueues, err := buildQueues(ctx, cfg)
	fatalOnErr(err, "create queues")
	defer closeQueues()

	notifier := queue.NewNotificationPublisher(notifQueue)
	dlqPub := queue.NewDLQPublisher(dlqQueue)
	alerts := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.NotificationTo, log)

	// Infra adapters
	repo := postgres.NewJobRepository(pool)
	transformer := ffmpeg.NewTransformer(ffmpeg.TransformerConfig{
		Mode:         ffmpeg.Mode(cfg.TransformMode),
		FPS:          cfg.FFmpegFPS,
		FrameFormat:  cfg.FFmpegFormat,
		Preset:       cfg.FFmpegPreset,
		CRF:          cfg.VideoCRF,
		AudioCodec:   cfg.AudioCodec,
		AudioBitrate: cfg.AudioBitrate,
	}, log)

	// Use case
	proc := usecase.NewProcessor(
		repo, storage, transformer,
		notifier, dlqPub, alerts,
		log,
		usecase.ProcessorConfig{
			InputBucket:  cfg.InputBucket,
			OutputBucket: cfg.OutputBucket,
			TempDir:      cfg.TempDir,
		},
	)

	var handler queue.MessageHandler
	switch cfg.QueueBinding {
	case "job":
		handler = proc.ExecuteJob
	default:
		handler = proc.ExecuteBatch
	}

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer
	consumer := queue.NewConsumer(inputQueue, handler, queue.ConsumerConfig{
		MaxMessages: cfg.MaxMessagesPerPoll,
		RetryDelay:  time.Duration(cfg.ReceiveRetryDelayMs) * time.Millisecond,
		FIFO:        cfg.FIFO,
	}, log)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		consumer.Stop()
		cancel()
	}()

	log.Info("hackaton-file-processor started, consuming messages",
		zap.String("driver", cfg.QueueDriver),
		zap.String("binding", cfg.QueueBinding),
	)

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	log.Info("hackaton-file-processor stopped")
}

func buildQueues(ctx context.Context, cfg *config.Config) (input, notif, dlq port.Queue, closeFn func(), err error) {
	switch cfg.QueueDriver {
	case "rabbitmq":
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		wait := time.Duration(cfg.WaitTimeSeconds) * time.Second
		in, err := rabbitmq.NewQueue(conn, cfg.RabbitMQInputQueue, wait)
		if err != nil {
			conn.Close()
			return nil, nil, nil, nil, err
		}
		nt, err := rabbitmq.NewQueue(conn, cfg.RabbitMQNotificationQueue, wait)
		if err != nil {
			conn.Close()
			return nil, nil, nil, nil, err
		}
		dl, err := rabbitmq.NewQueue(conn, cfg.RabbitMQDeadLetterQueue, wait)
		if err != nil {
			conn.Close()
			return nil, nil, nil, nil, err
		}
		return in, nt, dl, func() { conn.Close() }, nil

	default: // sqs
		client, err := sqsinfra.NewClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		in := sqsinfra.NewQueue(client, sqsinfra.QueueConfig{
			QueueURL:          cfg.InputQueueURL,
			WaitTimeSeconds:   cfg.WaitTimeSeconds,
			VisibilityTimeout: cfg.VisibilityTimeout,
		})
		nt := sqsinfra.NewQueue(client, sqsinfra.QueueConfig{QueueURL: cfg.NotificationQueueURL})
		dl := sqsinfra.NewQueue(client, sqsinfra.QueueConfig{QueueURL: cfg.DeadLetterQueueURL})
		return in, nt, dl, func() {}, nil
	}
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
