// Package events publishes status-change notifications to Kafka. Delivery is
// best-effort: failures are logged and never surface to the operation that
// triggered them.
package events

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/solera/gemvault/internal/domain"
)

const publishTimeout = 2 * time.Second

type Publisher struct {
	writer *kafka.Writer
	logger *log.Logger
}

// NewPublisher builds a publisher for the given comma-separated broker list.
// An empty list yields a disabled publisher whose StatusChanged is a no-op.
func NewPublisher(brokersCSV, topic string, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.Default()
	}

	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return &Publisher{logger: logger}
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger,
	}
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.writer != nil
}

// StatusChanged emits one change event. The message key is the item or order
// ID so per-entity ordering survives partitioning.
func (p *Publisher) StatusChanged(ctx context.Context, change domain.StatusChange) {
	if !p.Enabled() {
		return
	}

	key := change.ItemID
	if key == "" {
		key = change.OrderID
	}
	payload, err := json.Marshal(change)
	if err != nil {
		p.logger.Printf("WARN: marshal status change: %v", err)
		return
	}

	// Detach from the request context so an already-served request cannot
	// cancel the publish mid-flight.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = p.writer.WriteMessages(pubCtx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		p.logger.Printf("WARN: publish status change key=%s: %v", key, err)
	}
}

func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.writer.Close()
}
