package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoff-tech/go-orderflow/pkg/config"
	"github.com/zoff-tech/go-orderflow/pkg/order"
	"github.com/zoff-tech/go-orderflow/pkg/queue"
	"github.com/zoff-tech/go-orderflow/pkg/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type capturingPublisher struct {
	messages []queue.Message
	err      error
}

func (p *capturingPublisher) Publish(ctx context.Context, msg queue.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func testSettings() *config.Settings {
	return &config.Settings{
		Broker: config.BrokerSettings{Type: "memory", Queue: "orders-queue"},
		Store:  config.StoreSettings{Type: "memory"},
	}
}

func submissionBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(order.SubmissionRequest{
		CustomerID:    "customer-1",
		CustomerEmail: "jane@example.com",
		Items: []order.Item{
			{ProductID: "prod-1", ProductName: "Widget", Quantity: 2, Price: 10.0},
			{ProductID: "prod-2", ProductName: "Gadget", Quantity: 1, Price: 10.0},
		},
		Currency: "USD",
	})
	require.NoError(t, err)
	return body
}

func TestSubmitOrderAccepted(t *testing.T) {
	pub := &capturingPublisher{}
	rec := telemetry.NewRecorder()
	router := NewRouter(pub, rec, slog.Default(), testSettings())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(submissionBody(t)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp order.SubmissionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, order.StatusSubmitted, resp.Status)

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, SubjectOrderSubmitted, msg.Subject)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, resp.OrderID, msg.Properties["orderId"])
	assert.Equal(t, "customer-1", msg.Properties["customerId"])
	assert.Equal(t, "30.00", msg.Properties["totalAmount"])
	assert.Equal(t, "USD", msg.Properties["currency"])
	assert.NotEmpty(t, msg.CorrelationID)

	var o order.Order
	require.NoError(t, json.Unmarshal(msg.Body, &o))
	assert.Equal(t, resp.OrderID, o.OrderID)
	assert.Equal(t, 30.0, o.TotalAmount)
	assert.Equal(t, order.StatusSubmitted, o.Status)
	require.NotNil(t, o.Metadata)
	assert.Equal(t, msg.CorrelationID, o.Metadata.CorrelationID)

	assert.Equal(t, 1, rec.EventCount("OrderSubmitted"))
}

func TestSubmitOrderDefaultsCurrency(t *testing.T) {
	pub := &capturingPublisher{}
	router := NewRouter(pub, telemetry.NewRecorder(), slog.Default(), testSettings())

	body, err := json.Marshal(order.SubmissionRequest{
		CustomerID:    "customer-1",
		CustomerEmail: "jane@example.com",
		Items:         []order.Item{{ProductID: "prod-1", ProductName: "Widget", Quantity: 1, Price: 5.0}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, order.DefaultCurrency, pub.messages[0].Properties["currency"])
}

func TestSubmitOrderInvalidBody(t *testing.T) {
	pub := &capturingPublisher{}
	router := NewRouter(pub, telemetry.NewRecorder(), slog.Default(), testSettings())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, pub.messages)
}

func TestSubmitOrderValidationFailure(t *testing.T) {
	pub := &capturingPublisher{}
	router := NewRouter(pub, telemetry.NewRecorder(), slog.Default(), testSettings())

	// no items
	body, err := json.Marshal(order.SubmissionRequest{
		CustomerID:    "customer-1",
		CustomerEmail: "jane@example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, pub.messages)
}

func TestSubmitOrderPublishFailure(t *testing.T) {
	pub := &capturingPublisher{err: errors.New("broker unreachable")}
	rec := telemetry.NewRecorder()
	router := NewRouter(pub, rec, slog.Default(), testSettings())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(submissionBody(t)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, rec.Exceptions(), 1)
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(&capturingPublisher{}, telemetry.NewRecorder(), slog.Default(), testSettings())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHealthEndpointDegraded(t *testing.T) {
	cfg := testSettings()
	cfg.Broker.Type = "rabbitmq" // no URL configured
	router := NewRouter(&capturingPublisher{}, telemetry.NewRecorder(), slog.Default(), cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
