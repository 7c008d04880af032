package bus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisBus publishes and consumes case changes over a Redis stream
type RedisBus struct {
	client *redis.Client
	logger *zap.Logger
	maxLen int64
}

// defaultMaxLen caps the cases stream so it cannot grow without bound.
const defaultMaxLen = 10000

// NewRedisBus creates a new Redis bus instance and pings the server.
func NewRedisBus(redisURL string, logger *zap.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &RedisBus{
		client: client,
		logger: logger.Named("redisbus"),
		maxLen: defaultMaxLen,
	}, nil
}

// Close closes the Redis connection
func (rb *RedisBus) Close() error {
	return rb.client.Close()
}

// PublishCaseChange appends msg to the cases stream
func (rb *RedisBus) PublishCaseChange(ctx context.Context, msg CaseMessage) error {
	result := rb.client.XAdd(ctx, &redis.XAddArgs{
		Stream: CaseStream,
		MaxLen: rb.maxLen,
		Approx: true,
		Values: msg.values(),
	})
	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to publish case change: %w", err)
	}

	rb.logger.Debug("published case change",
		zap.String("stream_id", result.Val()),
		zap.String("action", msg.Action),
		zap.Int64("case_id", msg.CaseID))
	return nil
}

// CreateConsumerGroup creates a consumer group for the cases stream if it doesn't exist
func (rb *RedisBus) CreateConsumerGroup(ctx context.Context, group string) error {
	err := rb.client.XGroupCreateMkStream(ctx, CaseStream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s for stream %s: %w", group, CaseStream, err)
	}
	return nil
}

// ReadCaseStream reads the cases stream through a consumer group, acknowledging
// every message the handler accepts.
func (rb *RedisBus) ReadCaseStream(ctx context.Context, group, consumer string, handler CaseHandler) error {
	if err := rb.CreateConsumerGroup(ctx, group); err != nil {
		return err
	}

	log := rb.logger.With(zap.String("group", group), zap.String("consumer", consumer))
	log.Info("starting case stream reader")

	for {
		if ctx.Err() != nil {
			log.Info("case stream reader stopping")
			return ctx.Err()
		}

		streams, err := rb.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{CaseStream, ">"},
			Count:    10,
			Block:    time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("error reading case stream", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				msg := caseMessageFromValues(message.ID, message.Values)
				if err := handler(ctx, msg); err != nil {
					log.Warn("error processing case message", zap.String("id", message.ID), zap.Error(err))
					continue
				}
				if err := rb.client.XAck(ctx, CaseStream, group, message.ID).Err(); err != nil {
					log.Warn("error acknowledging case message", zap.String("id", message.ID), zap.Error(err))
				}
			}
		}
	}
}

// HealthCheck pings Redis
func (rb *RedisBus) HealthCheck(ctx context.Context) error {
	if err := rb.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// GetStats returns stream length and consumer group count
func (rb *RedisBus) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{
		"type":   "redis",
		"status": "connected",
	}

	if info, err := rb.client.XInfoStream(ctx, CaseStream).Result(); err == nil {
		stats["cases_stream"] = map[string]interface{}{
			"length":         info.Length,
			"first_entry_id": info.FirstEntry.ID,
			"last_entry_id":  info.LastEntry.ID,
		}
	}
	if groups, err := rb.client.XInfoGroups(ctx, CaseStream).Result(); err == nil {
		stats["cases_consumer_groups"] = len(groups)
	}

	return stats, nil
}
