// Package events announces ledger changes on a redis pub/sub channel for
// downstream notification consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"investledger-backend/internal/logger"
)

type Type string

const (
	DepositCreated          Type = "deposit.created"
	DepositApproved         Type = "deposit.approved"
	DepositRejected         Type = "deposit.rejected"
	WithdrawalRequested     Type = "withdrawal.requested"
	WithdrawalApproved      Type = "withdrawal.approved"
	WithdrawalRejected      Type = "withdrawal.rejected"
	WithdrawalPaid          Type = "withdrawal.paid"
	ROIPaid                 Type = "roi.paid"
	InvestmentStatusChanged Type = "investment.status_changed"
)

type Event struct {
	Type          Type              `json:"event_type"`
	UserID        int64             `json:"user_id"`
	InvestmentID  int64             `json:"investment_id,omitempty"`
	TransactionID int64             `json:"transaction_id,omitempty"`
	Reference     string            `json:"reference,omitempty"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        string            `json:"status,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Publisher is called after the owning store transaction commits. Callers log
// a failed Publish and carry on; the ledger is already durable.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
}

func NewRedisPublisher(rdb redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	logger.ExternalServiceCall("redis", "Publish", "channel", p.channel, "event", event.Type)
	err = p.rdb.Publish(ctx, p.channel, payload).Err()
	logger.ExternalServiceResult("redis", "Publish", err, "event", event.Type, "user_id", event.UserID)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// NoopPublisher drops events. Used when redis is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event Event) error {
	logger.Debug("Event dropped", "event", event.Type, "user_id", event.UserID)
	return nil
}

// Emit publishes and logs any failure instead of returning it.
func Emit(ctx context.Context, p Publisher, event Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish ledger event", "event", event.Type, "user_id", event.UserID, "error", err)
	}
}
