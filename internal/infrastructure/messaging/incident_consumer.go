package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/pkg/logger"
)

// LocalInvalidator drops keys from an in-process cache tier.
type LocalInvalidator interface {
	InvalidateLocal(keys ...string)
}

// messageReader is the subset of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// IncidentConsumer fans incident events in from every instance and evicts the
// affected identities from the local cache tier. Each instance joins its own
// consumer group so every instance sees every event.
type IncidentConsumer struct {
	reader      messageReader
	signer      Signer
	invalidator LocalInvalidator
	logger      logger.Logger
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewIncidentConsumer creates a consumer on cfg.IncidentTopic.
func NewIncidentConsumer(cfg config.KafkaConfig, invalidator LocalInvalidator, log logger.Logger) *IncidentConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.IncidentTopic,
		GroupID:        cfg.ConsumerGroup + "-" + uuid.NewString(),
		StartOffset:    kafka.LastOffset,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		CommitInterval: time.Second,
	})
	return newIncidentConsumer(reader, NewSigner(cfg.SigningKey), invalidator, log)
}

func newIncidentConsumer(r messageReader, signer Signer, invalidator LocalInvalidator, log logger.Logger) *IncidentConsumer {
	return &IncidentConsumer{
		reader:      r,
		signer:      signer,
		invalidator: invalidator,
		logger:      log.WithComponent("incident_consumer"),
		stop:        make(chan struct{}),
	}
}

// Start runs the consumer loop until ctx is cancelled or Stop is called. It blocks.
func (c *IncidentConsumer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	c.logger.Info(ctx, "starting incident consumer")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info(context.Background(), "stopping incident consumer")
				return
			}
			c.logger.Error(ctx, "failed to fetch message from kafka", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		c.handleMessage(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Warn(ctx, "failed to commit incident message", logger.Error(err))
		}
	}
}

// handleMessage never fails the message: eviction is best effort and the local
// tier expires on its own.
func (c *IncidentConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	if !c.signer.Verify(msg.Value, headerValue(msg.Headers, SignatureHeader)) {
		c.logger.Warn(ctx, "dropping incident with bad signature", logger.Int64("offset", msg.Offset))
		return
	}
	var event models.NetworkIncidentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error(ctx, "failed to unmarshal incident event", err, logger.Int64("offset", msg.Offset))
		return
	}
	if len(event.CacheKeys) == 0 {
		return
	}
	c.invalidator.InvalidateLocal(event.CacheKeys...)
	c.logger.Debug(ctx, "evicted identity from local cache",
		logger.String("identity_id", event.IdentityID), logger.Int("keys", len(event.CacheKeys)))
}

// Stop ends the loop and closes the reader.
func (c *IncidentConsumer) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	if err := c.reader.Close(); err != nil {
		c.logger.Error(context.Background(), "failed to close kafka reader", err)
	}
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
