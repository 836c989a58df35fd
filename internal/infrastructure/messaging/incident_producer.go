// Package messaging publishes and consumes network incident events over Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/pkg/logger"
)

// messageWriter is the subset of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// IncidentProducer publishes NetworkIncidentEvents keyed by identity ID, so all
// events for one identity land on the same partition in order.
type IncidentProducer struct {
	writer messageWriter
	signer Signer
	logger logger.Logger
}

// NewIncidentProducer creates a producer for cfg.IncidentTopic.
func NewIncidentProducer(cfg config.KafkaConfig, log logger.Logger) *IncidentProducer {
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.IncidentTopic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           writeTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newIncidentProducer(w, NewSigner(cfg.SigningKey), log)
}

func newIncidentProducer(w messageWriter, signer Signer, log logger.Logger) *IncidentProducer {
	return &IncidentProducer{writer: w, signer: signer, logger: log.WithComponent("incident_producer")}
}

// PublishIncident writes one event. The payload carries hashes-derived cache keys
// and identity aggregates only, never tenant ids or raw contact data.
func (p *IncidentProducer) PublishIncident(ctx context.Context, event *models.NetworkIncidentEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.IdentityID),
		Value: value,
		Time:  event.OccurredAt,
	}
	if p.signer.Enabled() {
		msg.Headers = append(msg.Headers, kafka.Header{Key: SignatureHeader, Value: []byte(p.signer.Sign(value))})
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(ctx, "failed to publish incident", err, logger.String("identity_id", event.IdentityID))
		return err
	}
	p.logger.Debug(ctx, "incident published", logger.String("identity_id", event.IdentityID), logger.Int("severity", event.Severity))
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *IncidentProducer) Close() error {
	return p.writer.Close()
}
