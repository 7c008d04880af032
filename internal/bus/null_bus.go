package bus

import (
	"context"

	"go.uber.org/zap"
)

// NullBus is a no-op implementation of the bus interface for when Redis is disabled
type NullBus struct {
	logger *zap.Logger
}

// NewNullBus creates a new null bus instance
func NewNullBus(logger *zap.Logger) *NullBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NullBus{logger: logger.Named("nullbus")}
}

// Close is a no-op for null bus
func (nb *NullBus) Close() error {
	return nil
}

// PublishCaseChange logs the change but doesn't actually publish it
func (nb *NullBus) PublishCaseChange(ctx context.Context, msg CaseMessage) error {
	nb.logger.Debug("would publish case change (redis disabled)",
		zap.String("action", msg.Action), zap.Int64("case_id", msg.CaseID))
	return nil
}

// ReadCaseStream blocks until the context is cancelled since there is nothing to read
func (nb *NullBus) ReadCaseStream(ctx context.Context, group, consumer string, handler CaseHandler) error {
	nb.logger.Debug("would read case stream (redis disabled)",
		zap.String("group", group), zap.String("consumer", consumer))
	<-ctx.Done()
	return ctx.Err()
}

// GetStats returns empty stats for null bus
func (nb *NullBus) GetStats(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{
		"type":   "null",
		"status": "disabled",
	}, nil
}

// HealthCheck always returns nil for null bus
func (nb *NullBus) HealthCheck(ctx context.Context) error {
	return nil
}
