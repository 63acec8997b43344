package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/category"
	"github.com/fekuna/omnipos-backoffice/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventCategoryCreated = "CategoryCreated"
	EventCategoryUpdated = "CategoryUpdated"
	EventCategoryDeleted = "CategoryDeleted"
)

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Reloader refreshes whatever a merchant currently has open.
type Reloader interface {
	ReloadMerchant(ctx context.Context, merchantID string) error
}

type CategoryListener struct {
	consumer MessageReader
	uc       category.UseCase
	sessions Reloader
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewCategoryListener(consumer MessageReader, uc category.UseCase, sessions Reloader, logger logger.ZapLogger) *CategoryListener {
	return &CategoryListener{
		consumer: consumer,
		uc:       uc,
		sessions: sessions,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *CategoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting Category Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Category Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type CategoryEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   CategoryPayload `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type CategoryPayload struct {
	ID         int64  `json:"id"`
	MerchantID string `json:"merchant_id"`
	ParentID   *int64 `json:"parent_id"`
}

func (l *CategoryListener) processMessage(ctx context.Context, value []byte) {
	var event CategoryEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	switch event.EventType {
	case EventCategoryCreated, EventCategoryUpdated, EventCategoryDeleted:
	default:
		return
	}
	if event.Payload.MerchantID == "" {
		l.logger.Warn("Category event without merchant", zap.String("event_id", event.EventID))
		return
	}

	log := l.logger.With(
		zap.String("event_type", event.EventType),
		zap.Int64("category_id", event.Payload.ID),
		zap.String("merchant_id", event.Payload.MerchantID),
	)
	log.Info("Processing category event")

	l.uc.InvalidateCache(ctx, event.Payload.MerchantID)

	var err error
	if event.EventType == EventCategoryDeleted {
		err = l.uc.RemoveFromIndex(ctx, event.Payload.ID)
	} else {
		err = l.uc.IndexCategory(ctx, event.Payload.MerchantID, event.Payload.ID)
	}
	if err != nil {
		log.Error("Failed to sync category search index", zap.Error(err))
	}

	if err := l.sessions.ReloadMerchant(ctx, event.Payload.MerchantID); err != nil {
		log.Error("Failed to reload category explorer", zap.Error(err))
	}
}
