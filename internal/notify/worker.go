package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/docpoint/platform/internal/events"
	"github.com/docpoint/platform/pkg/logging"
)

const receiveBatchSize = 5

// Worker drains the event queue and sends the matching emails. Messages are
// deleted after a successful send; failed sends are left on the queue for
// redelivery. Unknown event types are logged and dropped.
type Worker struct {
	queue       events.Queue
	sender      EmailSender
	logger      *logging.Logger
	workerCount int
	waitSeconds int
}

func NewWorker(queue events.Queue, sender EmailSender, workerCount int, pollWait time.Duration, logger *logging.Logger) *Worker {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if sender == nil {
		panic("notify: email sender cannot be nil")
	}
	if workerCount < 1 {
		workerCount = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	waitSeconds := int(pollWait.Seconds())
	if waitSeconds < 1 {
		waitSeconds = 1
	}
	return &Worker{
		queue:       queue,
		sender:      sender,
		logger:      logger,
		workerCount: workerCount,
		waitSeconds: waitSeconds,
	}
}

// Run polls the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.poll(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (w *Worker) poll(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, receiveBatchSize, w.waitSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("receive events", "worker", id, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if len(messages) == 0 {
			// SQS long-polls; the in-memory queue returns immediately.
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		for _, msg := range messages {
			w.handle(ctx, msg)
		}
	}
}

// Drain processes whatever is currently queued and returns. Used by tests
// and the in-process mode where no long-running worker exists.
func (w *Worker) Drain(ctx context.Context) error {
	for {
		messages, err := w.queue.Receive(ctx, receiveBatchSize, 0)
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}
		for _, msg := range messages {
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg events.Message) {
	env, err := events.Decode(msg.Body)
	if err != nil {
		w.logger.Error("decode event", "message_id", msg.ID, "error", err)
		w.delete(ctx, msg)
		return
	}

	var email EmailMessage
	switch env.Type {
	case events.TypeAppointmentBooked:
		var evt events.AppointmentBookedV1
		if err := json.Unmarshal(env.Payload, &evt); err != nil {
			w.logger.Error("decode booked payload", "message_id", msg.ID, "error", err)
			w.delete(ctx, msg)
			return
		}
		email = BookingConfirmation(evt)
	case events.TypeAppointmentCancelled:
		var evt events.AppointmentCancelledV1
		if err := json.Unmarshal(env.Payload, &evt); err != nil {
			w.logger.Error("decode cancelled payload", "message_id", msg.ID, "error", err)
			w.delete(ctx, msg)
			return
		}
		email = CancellationNotice(evt)
	default:
		w.logger.Warn("unknown event type", "type", env.Type, "message_id", msg.ID)
		w.delete(ctx, msg)
		return
	}

	if email.To == "" {
		w.logger.Warn("event has no recipient", "type", env.Type, "message_id", msg.ID)
		w.delete(ctx, msg)
		return
	}
	if err := w.sender.Send(ctx, email); err != nil {
		// Leave the message for redelivery.
		w.logger.Error("send notification", "type", env.Type, "message_id", msg.ID, "error", err)
		return
	}
	w.delete(ctx, msg)
}

func (w *Worker) delete(ctx context.Context, msg events.Message) {
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Error("delete event message", "message_id", msg.ID, "error", err)
	}
}
