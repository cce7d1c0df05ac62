package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Message is one queued event awaiting processing.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Queue is the transport the publisher writes to and workers drain.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type sqsAPI interface {
	SendMessage(context.Context, *sqs.SendMessageInput, ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(context.Context, *sqs.ReceiveMessageInput, ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(context.Context, *sqs.DeleteMessageInput, ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSQueue is the AWS/LocalStack SQS implementation of Queue.
type SQSQueue struct {
	client   sqsAPI
	queueURL string
}

var _ Queue = (*SQSQueue)(nil)

func NewSQSQueue(client sqsAPI, queueURL string) *SQSQueue {
	if client == nil {
		panic("events: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("events: SQS queueURL cannot be empty")
	}
	return &SQSQueue{
		client:   client,
		queueURL: queueURL,
	}
}

func (q *SQSQueue) Send(ctx context.Context, body string) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("events: send SQS message: %w", err)
	}
	return nil
}

func (q *SQSQueue) Receive(ctx context.Context, maxMessages, waitSeconds int) ([]Message, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: int32(maxMessages),
		WaitTimeSeconds:     int32(waitSeconds),
	})
	if err != nil {
		return nil, fmt.Errorf("events: receive SQS messages: %w", err)
	}
	messages := make([]Message, 0, len(out.Messages))
	for _, msg := range out.Messages {
		messages = append(messages, Message{
			ID:            aws.ToString(msg.MessageId),
			Body:          aws.ToString(msg.Body),
			ReceiptHandle: aws.ToString(msg.ReceiptHandle),
		})
	}
	return messages, nil
}

func (q *SQSQueue) Delete(ctx context.Context, receiptHandle string) error {
	if receiptHandle == "" {
		return nil
	}
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("events: delete SQS message: %w", err)
	}
	return nil
}

// InMemoryQueue is a Queue for tests and local runs without SQS.
type InMemoryQueue struct {
	mu       sync.Mutex
	messages []Message
	inflight map[string]Message
	nextID   int
}

var _ Queue = (*InMemoryQueue)(nil)

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{inflight: make(map[string]Message)}
}

func (q *InMemoryQueue) Send(_ context.Context, body string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	id := fmt.Sprintf("msg-%d", q.nextID)
	q.messages = append(q.messages, Message{ID: id, Body: body, ReceiptHandle: id})
	return nil
}

func (q *InMemoryQueue) Receive(_ context.Context, maxMessages, _ int) ([]Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := maxMessages
	if n > len(q.messages) {
		n = len(q.messages)
	}
	batch := make([]Message, n)
	copy(batch, q.messages[:n])
	q.messages = q.messages[n:]
	for _, msg := range batch {
		q.inflight[msg.ReceiptHandle] = msg
	}
	return batch, nil
}

func (q *InMemoryQueue) Delete(_ context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, receiptHandle)
	return nil
}

// Len reports how many messages are waiting, for test assertions.
func (q *InMemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}
