package queue

import (
	"context"
	"fmt"

	"github.com/zoff-tech/go-orderflow/pkg/config"
)

// NewQueue creates the queue implementation selected by configuration.
func NewQueue(ctx context.Context, cfg config.BrokerSettings) (Queue, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryQueue(), nil
	case "rabbitmq":
		return newRabbitMqQueue(cfg)
	default:
		return nil, fmt.Errorf("unsupported broker type: %s", cfg.Type)
	}
}
