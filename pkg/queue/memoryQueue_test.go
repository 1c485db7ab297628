package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoff-tech/go-orderflow/pkg/config"
)

func TestMemoryQueuePublishReceive(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()

	ctx := context.Background()
	err := q.Publish(ctx, Message{
		MessageID:     "m1",
		CorrelationID: "c1",
		Subject:       "order.submitted",
		ContentType:   "application/json",
		Body:          []byte(`{"orderId":"o1"}`),
		Properties:    map[string]string{"orderId": "o1"},
	})
	require.NoError(t, err)

	d, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m1", d.MessageID)
	assert.Equal(t, "c1", d.CorrelationID)
	assert.Equal(t, "order.submitted", d.Subject)
	assert.Equal(t, 1, d.DeliveryCount)
	assert.False(t, d.EnqueuedAt.IsZero())
	assert.Equal(t, "o1", d.Properties["orderId"])
}

func TestMemoryQueueRetryIncrementsDeliveryCount(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, Message{MessageID: "m1", Body: []byte("x")}))

	d, err := q.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, d.DeliveryCount)

	require.NoError(t, q.Retry(ctx, d))
	d, err = q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, d.DeliveryCount)

	require.NoError(t, q.Retry(ctx, d))
	d, err = q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, d.DeliveryCount)
}

func TestMemoryQueueDeadLetterAndPeek(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, Message{MessageID: "m1", Body: []byte("x")}))
	d, err := q.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, q.DeadLetter(ctx, d, "permanent failure", "card declined"))

	peeked, err := q.PeekDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, peeked, 1)
	require.NotNil(t, peeked[0].DeadLetter)
	assert.Equal(t, "permanent failure", peeked[0].DeadLetter.Reason)
	assert.Equal(t, "card declined", peeked[0].DeadLetter.Description)

	// peek is non-destructive
	peeked, err = q.PeekDeadLetters(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, peeked, 1)
}

func TestMemoryQueuePeekRespectsBatchSize(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.DeadLetter(ctx, Delivery{MessageID: "m"}, "r", "d"))
	}
	peeked, err := q.PeekDeadLetters(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, peeked, 3)
}

func TestMemoryQueueReceiveHonorsContext(t *testing.T) {
	q := NewMemoryQueue()
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueueClosedPublish(t *testing.T) {
	q := NewMemoryQueue()
	require.NoError(t, q.Close())
	err := q.Publish(context.Background(), Message{MessageID: "m1"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewQueueUnsupportedType(t *testing.T) {
	_, err := NewQueue(context.Background(), config.BrokerSettings{Type: "kafka", Queue: "orders-queue"})
	assert.Error(t, err)
}

func TestNewQueueMemory(t *testing.T) {
	q, err := NewQueue(context.Background(), config.BrokerSettings{Type: "memory", Queue: "orders-queue"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryQueue{}, q)
	q.Close()
}
