package queue

import (
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

func TestMainQueueArgsDeclareQuorum(t *testing.T) {
	args := mainQueueArgs("orders-queue.deadletter")

	// quorum queues are what make x-delivery-count survive redeliveries
	assert.Equal(t, "quorum", args["x-queue-type"])
	assert.Equal(t, "", args["x-dead-letter-exchange"])
	assert.Equal(t, "orders-queue.deadletter", args["x-dead-letter-routing-key"])
}

func TestToDeliveryCountsAttemptInFlight(t *testing.T) {
	r := &rabbitMqQueue{}

	d := r.toDelivery(amqp.Delivery{
		MessageId: "m1",
		Headers:   amqp.Table{"x-delivery-count": int64(3)},
	})
	// three prior unsuccessful attempts plus the one in flight
	assert.Equal(t, 4, d.DeliveryCount)

	first := r.toDelivery(amqp.Delivery{MessageId: "m2"})
	assert.Equal(t, 1, first.DeliveryCount)

	redelivered := r.toDelivery(amqp.Delivery{MessageId: "m3", Redelivered: true})
	assert.Equal(t, 2, redelivered.DeliveryCount)
}

func TestToDeliveryCopiesEnvelope(t *testing.T) {
	r := &rabbitMqQueue{}
	enqueued := time.Now().Add(-time.Minute)

	d := r.toDelivery(amqp.Delivery{
		MessageId:     "m1",
		CorrelationId: "c1",
		Type:          "order.submitted",
		ContentType:   "application/json",
		Body:          []byte(`{"orderId":"o1"}`),
		Timestamp:     enqueued,
		DeliveryTag:   7,
		Headers:       amqp.Table{"orderId": "o1", "ignored": int32(9)},
	})

	assert.Equal(t, "m1", d.MessageID)
	assert.Equal(t, "c1", d.CorrelationID)
	assert.Equal(t, "order.submitted", d.Subject)
	assert.Equal(t, enqueued, d.EnqueuedAt)
	assert.Equal(t, "o1", d.Properties["orderId"])
	assert.NotContains(t, d.Properties, "ignored")
	assert.Equal(t, uint64(7), d.tag)
}
