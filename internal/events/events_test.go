package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docpoint/platform/pkg/logging"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	occurred := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	body, err := Encode(TypeAppointmentBooked, occurred, AppointmentBookedV1{
		AppointmentID: "appt-1",
		PatientEmail:  "ada@example.com",
	})
	require.NoError(t, err)

	env, err := Decode(body)
	require.NoError(t, err)
	require.Equal(t, TypeAppointmentBooked, env.Type)
	require.True(t, env.OccurredAt.Equal(occurred))

	var evt AppointmentBookedV1
	require.NoError(t, json.Unmarshal(env.Payload, &evt))
	require.Equal(t, "appt-1", evt.AppointmentID)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not json")
	require.Error(t, err)

	_, err = Decode(`{"payload":{}}`)
	require.Error(t, err, "missing type should be rejected")
}

func TestInMemoryQueue(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, "first"))
	require.NoError(t, q.Send(ctx, "second"))
	require.Equal(t, 2, q.Len())

	batch, err := q.Receive(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.Equal(t, "first", batch[0].Body)

	require.NoError(t, q.Delete(ctx, batch[0].ReceiptHandle))
	require.Equal(t, 1, q.Len())
}

func TestPublisherNilSafe(t *testing.T) {
	var p *Publisher
	p.Publish(context.Background(), TypeAppointmentBooked, AppointmentBookedV1{})

	require.Nil(t, NewPublisher(nil, logging.New("error")))
}

func TestPublisherSendsEnvelope(t *testing.T) {
	q := NewInMemoryQueue()
	p := NewPublisher(q, logging.New("error"))

	p.Publish(context.Background(), TypeAppointmentCancelled, AppointmentCancelledV1{AppointmentID: "appt-9"})
	require.Equal(t, 1, q.Len())

	batch, err := q.Receive(context.Background(), 1, 0)
	require.NoError(t, err)
	env, err := Decode(batch[0].Body)
	require.NoError(t, err)
	require.Equal(t, TypeAppointmentCancelled, env.Type)
}
