package sqs

import (
	"context"
	"fmt"
	"strings"

	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/port"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
)

// NewClient builds an SQS client from the default credential chain.
func NewClient(ctx context.Context, region string) (*awssqs.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return awssqs.NewFromConfig(cfg), nil
}

type QueueConfig struct {
	QueueURL          string
	WaitTimeSeconds   int
	VisibilityTimeout int
	// MessageGroupID is attached to sends on .fifo queues.
	MessageGroupID string
}

// Queue adapts one SQS queue to the port.Queue contract.
type Queue struct {
	client *awssqs.Client
	cfg    QueueConfig
}

func NewQueue(client *awssqs.Client, cfg QueueConfig) *Queue {
	if cfg.MessageGroupID == "" {
		cfg.MessageGroupID = "file-processor"
	}
	return &Queue{client: client, cfg: cfg}
}

func (q *Queue) Receive(ctx context.Context, max int) ([]port.QueueMessage, error) {
	out, err := q.client.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.cfg.QueueURL),
		MaxNumberOfMessages: int32(max),
		WaitTimeSeconds:     int32(q.cfg.WaitTimeSeconds),
		VisibilityTimeout:   int32(q.cfg.VisibilityTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("receive from %s: %w", q.cfg.QueueURL, err)
	}

	msgs := make([]port.QueueMessage, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, port.QueueMessage{
			ID:            aws.ToString(m.MessageId),
			Body:          []byte(aws.ToString(m.Body)),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return msgs, nil
}

func (q *Queue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.cfg.QueueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", q.cfg.QueueURL, err)
	}
	return nil
}

// Release is a no-op: an undeleted message becomes visible again once the
// visibility timeout expires.
func (q *Queue) Release(_ context.Context, _ string) error {
	return nil
}

func (q *Queue) Send(ctx context.Context, body []byte) error {
	in := &awssqs.SendMessageInput{
		QueueUrl:    aws.String(q.cfg.QueueURL),
		MessageBody: aws.String(string(body)),
	}
	if strings.HasSuffix(q.cfg.QueueURL, ".fifo") {
		in.MessageGroupId = aws.String(q.cfg.MessageGroupID)
	}
	if _, err := q.client.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("send to %s: %w", q.cfg.QueueURL, err)
	}
	return nil
}
