package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/msg"
	"go.uber.org/zap"
)

// EventProducer is satisfied by *msg.Producer.
type EventProducer interface {
	ProduceJSON(ctx context.Context, topic string, key string, v any) error
}

// Publisher drains the outbox to Kafka
type Publisher struct {
	store     *Store
	producer  EventProducer
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewPublisher creates a new outbox publisher
func NewPublisher(store *Store, producer EventProducer, logger *zap.Logger) *Publisher {
	return &Publisher{
		store:     store,
		producer:  producer,
		logger:    logger,
		interval:  250 * time.Millisecond,
		batchSize: 100,
		now:       time.Now,
	}
}

// Run publishes on every tick until ctx is done, then drains once more.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Drain once more so the final transitions are not left behind.
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if _, err := p.PublishPending(drainCtx); err != nil {
				p.logger.Warn("final outbox drain failed", zap.Error(err))
			}
			cancel()
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.PublishPending(ctx); err != nil {
				p.logger.Error("failed to publish batch", zap.Error(err))
			}
		}
	}
}

// PublishPending publishes one batch and returns how many events went out.
// Events that fail stay in the outbox for the next call.
func (p *Publisher) PublishPending(ctx context.Context) (int, error) {
	events, err := p.store.ListUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list unpublished events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	now := p.now().UnixMilli()
	published := 0

	for _, event := range events {
		var ev msg.LifecycleEventMsg
		if err := json.Unmarshal([]byte(event.PayloadJSON), &ev); err != nil {
			p.logger.Error("failed to unmarshal event payload",
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
			continue
		}

		if err := p.producer.ProduceJSON(ctx, event.Topic, event.Key, ev); err != nil {
			p.logger.Error("failed to produce event",
				zap.String("event_id", event.EventID),
				zap.String("cl_ord_id", event.ClOrdID),
				zap.Error(err),
			)
			continue
		}

		if err := p.store.MarkPublished(ctx, event.EventID, now); err != nil {
			// Stays unpublished and goes out again next batch.
			p.logger.Error("failed to mark event as published",
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
			continue
		}

		published++
		p.logger.Debug("published outbox event",
			zap.String("event_id", event.EventID),
			zap.String("cl_ord_id", event.ClOrdID),
		)
	}

	if published > 0 {
		p.logger.Info("published outbox batch",
			zap.Int("published", published),
			zap.Int("total", len(events)),
		)
	}
	return published, nil
}
