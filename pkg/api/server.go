// Package api implements the order submission boundary: it validates a
// submission, computes the total server-side, assigns ids and enqueues the
// order. Processing outcomes are asynchronous; callers only ever see
// accepted, validation error or internal error.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zoff-tech/go-orderflow/pkg/config"
	"github.com/zoff-tech/go-orderflow/pkg/health"
	"github.com/zoff-tech/go-orderflow/pkg/order"
	"github.com/zoff-tech/go-orderflow/pkg/queue"
	"github.com/zoff-tech/go-orderflow/pkg/telemetry"
)

// SubjectOrderSubmitted is the message subject the consumer accepts.
const SubjectOrderSubmitted = "order.submitted"

type Server struct {
	publisher queue.Publisher
	telemetry telemetry.Sink
	logger    *slog.Logger
	cfg       *config.Settings
}

// NewRouter builds the gin engine with the submission and health routes.
func NewRouter(pub queue.Publisher, sink telemetry.Sink, logger *slog.Logger, cfg *config.Settings) *gin.Engine {
	if sink == nil {
		sink = telemetry.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{publisher: pub, telemetry: sink, logger: logger, cfg: cfg}

	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/api/orders", s.submitOrder)
	r.GET("/api/health", s.healthCheck)
	return r
}

func (s *Server) submitOrder(c *gin.Context) {
	var req order.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := order.ValidateSubmission(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID := uuid.NewString()
	correlationID := telemetry.NewCorrelationID()
	o := order.FromSubmission(req, orderID, time.Now().UTC(), &order.Metadata{
		CorrelationID: correlationID,
		IPAddress:     c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
	})

	body, err := json.Marshal(o)
	if err != nil {
		s.logger.Error("failed to encode order", "orderId", orderID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode order"})
		return
	}

	msg := queue.Message{
		MessageID:     orderID,
		CorrelationID: correlationID,
		Subject:       SubjectOrderSubmitted,
		ContentType:   "application/json",
		Body:          body,
		Properties: map[string]string{
			"orderId":     orderID,
			"customerId":  o.CustomerID,
			"totalAmount": strconv.FormatFloat(o.TotalAmount, 'f', 2, 64),
			"currency":    o.Currency,
		},
	}
	if err := s.publisher.Publish(c.Request.Context(), msg); err != nil {
		s.logger.Error("failed to enqueue order", "orderId", orderID, "error", err)
		s.telemetry.TrackException(err, telemetry.Properties{
			"orderId":       orderID,
			"correlationId": correlationID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue order"})
		return
	}

	s.telemetry.TrackEvent("OrderSubmitted", telemetry.Properties{
		"orderId":       orderID,
		"customerId":    o.CustomerID,
		"totalAmount":   strconv.FormatFloat(o.TotalAmount, 'f', 2, 64),
		"currency":      o.Currency,
		"correlationId": correlationID,
	})
	s.logger.Info("order submitted",
		"orderId", orderID, "customerId", o.CustomerID, "totalAmount", o.TotalAmount)

	c.JSON(http.StatusAccepted, order.SubmissionResponse{
		OrderID: orderID,
		Status:  order.StatusSubmitted,
		Message: "Order submitted for processing",
	})
}

func (s *Server) healthCheck(c *gin.Context) {
	report := health.FromSettings(s.cfg)
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
