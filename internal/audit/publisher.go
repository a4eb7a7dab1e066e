package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	id "signet/pkg/domain"
)

// Publisher mirrors audit facts to an external stream. The relational store
// remains the source of truth; publishing is best-effort and callers only
// log failures.
type Publisher interface {
	PublishRegistration(ctx context.Context, reg *Registration) error
	PublishVerification(ctx context.Context, event *VerificationEvent) error
	Close()
}

// streamEvent is the JSON payload on the compliance topic.
type streamEvent struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	CustomerID int64  `json:"customer_id"`
	AdminID    int64  `json:"admin_id"`
	Outcome    string `json:"outcome,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// KafkaPublisher publishes audit events to a Kafka topic, keyed by customer
// ID so a customer's history stays ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

// NewKafkaPublisher connects to the given brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

func (p *KafkaPublisher) PublishRegistration(ctx context.Context, reg *Registration) error {
	return p.publish(ctx, reg.CustomerID, streamEvent{
		ID:         uuid.NewString(),
		Kind:       "registration",
		CustomerID: int64(reg.CustomerID),
		AdminID:    int64(reg.AdminID),
		Timestamp:  reg.RegisteredAt.Format(time.RFC3339Nano),
	})
}

func (p *KafkaPublisher) PublishVerification(ctx context.Context, event *VerificationEvent) error {
	return p.publish(ctx, event.CustomerID, streamEvent{
		ID:         uuid.NewString(),
		Kind:       "verification",
		CustomerID: int64(event.CustomerID),
		AdminID:    int64(event.AdminID),
		Outcome:    string(event.Outcome),
		Timestamp:  event.VerifiedAt.Format(time.RFC3339Nano),
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, customerID id.CustomerID, event streamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit stream event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(customerID.String()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit stream event: %w", err)
	}
	return nil
}

// Close flushes and tears down the Kafka client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
