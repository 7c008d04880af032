package bus

import (
	"context"

	"go.uber.org/zap"
)

// Bus defines the interface for case change notification transports
type Bus interface {
	// PublishCaseChange appends a change message to the cases stream
	PublishCaseChange(ctx context.Context, msg CaseMessage) error

	// ReadCaseStream consumes the cases stream until ctx is cancelled
	ReadCaseStream(ctx context.Context, group, consumer string, handler CaseHandler) error

	// GetStats returns basic statistics about the bus
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// HealthCheck performs a health check on the bus connection
	HealthCheck(ctx context.Context) error

	// Close closes the bus connection
	Close() error
}

// CaseHandler processes one message read from the cases stream.
type CaseHandler func(ctx context.Context, msg CaseMessage) error

// NewBus creates a new bus instance based on the Redis URL.
// If redisURL is empty or Redis cannot be reached, returns a NullBus.
func NewBus(redisURL string, logger *zap.Logger) Bus {
	if logger == nil {
		logger = zap.NewNop()
	}

	if redisURL == "" {
		return NewNullBus(logger)
	}

	redisBus, err := NewRedisBus(redisURL, logger)
	if err == nil {
		return redisBus
	}

	logger.Warn("redis unavailable, case notifications disabled", zap.Error(err))
	return NewNullBus(logger)
}
