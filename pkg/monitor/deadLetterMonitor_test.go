package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoff-tech/go-orderflow/pkg/queue"
	"github.com/zoff-tech/go-orderflow/pkg/telemetry"
)

func TestSweepReportsEveryMessage(t *testing.T) {
	q := queue.NewMemoryQueue()
	defer q.Close()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		body := []byte(fmt.Sprintf(`{"orderId":"order-%d","customerId":"customer-%d"}`, i, i))
		if i == 4 {
			// one corrupt payload among the batch
			body = []byte("not json at all")
		}
		require.NoError(t, q.DeadLetter(ctx, queue.Delivery{
			MessageID:     fmt.Sprintf("m%d", i),
			Body:          body,
			DeliveryCount: 5,
		}, "transient failure", "connection timeout"))
	}

	rec := telemetry.NewRecorder()
	m := New(q, rec, slog.Default(), time.Minute, 10)

	m.Sweep(ctx)

	// nine decodable messages reported, one exception, none aborted the batch
	assert.Equal(t, 9, rec.EventCount("DeadLetterMessageFound"))
	require.Len(t, rec.Exceptions(), 1)
	assert.Contains(t, rec.Exceptions()[0].Error(), "undecodable dead-letter payload for message m4")

	events := rec.Events()
	assert.Equal(t, "order-0", events[0].Props["orderId"])
	assert.Equal(t, "transient failure", events[0].Props["reason"])
	assert.Equal(t, "connection timeout", events[0].Props["description"])
	assert.Equal(t, "5", events[0].Props["deliveryCount"])
}

func TestSweepRespectsBatchSize(t *testing.T) {
	q := queue.NewMemoryQueue()
	defer q.Close()
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, q.DeadLetter(ctx, queue.Delivery{
			MessageID: fmt.Sprintf("m%d", i),
			Body:      []byte(fmt.Sprintf(`{"orderId":"order-%d"}`, i)),
		}, "permanent failure", "card declined"))
	}

	rec := telemetry.NewRecorder()
	m := New(q, rec, slog.Default(), time.Minute, 10)

	m.Sweep(ctx)
	assert.Equal(t, 10, rec.EventCount("DeadLetterMessageFound"))
}

func TestSweepEmptyQueue(t *testing.T) {
	q := queue.NewMemoryQueue()
	defer q.Close()

	rec := telemetry.NewRecorder()
	m := New(q, rec, slog.Default(), time.Minute, 10)

	m.Sweep(context.Background())
	assert.Empty(t, rec.Events())
	assert.Empty(t, rec.Exceptions())
}

func TestRunSweepsOnInterval(t *testing.T) {
	q := queue.NewMemoryQueue()
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.DeadLetter(ctx, queue.Delivery{
		MessageID: "m1",
		Body:      []byte(`{"orderId":"order-1"}`),
	}, "permanent failure", "card declined"))

	rec := telemetry.NewRecorder()
	m := New(q, rec, slog.Default(), 20*time.Millisecond, 10)

	runCtx, cancel := context.WithTimeout(ctx, 110*time.Millisecond)
	defer cancel()
	m.Run(runCtx)

	// peek is non-destructive, so every tick reports the same message
	assert.GreaterOrEqual(t, rec.EventCount("DeadLetterMessageFound"), 2)
}

func TestNewAppliesDefaults(t *testing.T) {
	m := New(queue.NewMemoryQueue(), nil, nil, 0, 0)
	assert.Equal(t, DefaultInterval, m.interval)
	assert.Equal(t, DefaultBatchSize, m.batchSize)
}
