package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/pkg/logger"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// fakeReader replays queued messages and then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) committedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type recordingInvalidator struct {
	mu   sync.Mutex
	keys []string
}

func (i *recordingInvalidator) InvalidateLocal(keys ...string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.keys = append(i.keys, keys...)
}

func (i *recordingInvalidator) snapshot() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.keys...)
}

func sampleEvent() *models.NetworkIncidentEvent {
	return &models.NetworkIncidentEvent{
		EventID:       "evt-1",
		IdentityID:    "ident-1",
		Severity:      4,
		Category:      "no_show",
		Negative:      true,
		WeightedScore: 24,
		RiskTier:      models.RiskTierMedium,
		CacheKeys:     []string{"crn:identity:phone:abc", "crn:identity:email:def"},
		OccurredAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSignerRoundTrip(t *testing.T) {
	s := NewSigner("k1")
	payload := []byte(`{"a":1}`)
	sig := s.Sign(payload)

	assert.True(t, s.Verify(payload, sig))
	assert.False(t, s.Verify([]byte(`{"a":2}`), sig))
	assert.False(t, NewSigner("k2").Verify(payload, sig))
	assert.False(t, s.Verify(payload, "not base64!"))
	assert.True(t, Signer{}.Verify(payload, ""), "an unkeyed signer accepts everything")
}

func TestPublishIncidentKeysByIdentityAndSigns(t *testing.T) {
	w := &fakeWriter{}
	p := newIncidentProducer(w, NewSigner("secret"), logger.NewNoopLogger())

	require.NoError(t, p.PublishIncident(context.Background(), sampleEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "ident-1", string(msg.Key))
	var decoded models.NetworkIncidentEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 24, decoded.WeightedScore)
	assert.Equal(t, sampleEvent().CacheKeys, decoded.CacheKeys)
	assert.True(t, NewSigner("secret").Verify(msg.Value, headerValue(msg.Headers, SignatureHeader)))
}

func TestPublishIncidentWithoutKeyHasNoSignature(t *testing.T) {
	w := &fakeWriter{}
	p := newIncidentProducer(w, Signer{}, logger.NewNoopLogger())

	require.NoError(t, p.PublishIncident(context.Background(), sampleEvent()))
	assert.Empty(t, w.msgs[0].Headers)
}

func TestPublishIncidentPropagatesWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newIncidentProducer(w, Signer{}, logger.NewNoopLogger())

	assert.Error(t, p.PublishIncident(context.Background(), sampleEvent()))
}

func signedMessage(t *testing.T, s Signer, offset int64, event *models.NetworkIncidentEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	msg := kafka.Message{Offset: offset, Value: value}
	if s.Enabled() {
		msg.Headers = []kafka.Header{{Key: SignatureHeader, Value: []byte(s.Sign(value))}}
	}
	return msg
}

func TestConsumerEvictsCacheKeysAndCommitsEverything(t *testing.T) {
	signer := NewSigner("secret")
	forged := signedMessage(t, NewSigner("other"), 2, &models.NetworkIncidentEvent{IdentityID: "x", CacheKeys: []string{"crn:identity:phone:forged"}})
	reader := &fakeReader{queue: []kafka.Message{
		signedMessage(t, signer, 1, sampleEvent()),
		forged,
		{Offset: 3, Value: []byte("not json"), Headers: []kafka.Header{{Key: SignatureHeader, Value: []byte(signer.Sign([]byte("not json")))}}},
	}}
	inv := &recordingInvalidator{}
	c := newIncidentConsumer(reader, signer, inv, logger.NewNoopLogger())

	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return reader.committedCount() == 3 }, 2*time.Second, 10*time.Millisecond)
	c.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	assert.Equal(t, sampleEvent().CacheKeys, inv.snapshot())
}

func TestConsumerStopsOnContextCancel(t *testing.T) {
	c := newIncidentConsumer(&fakeReader{}, Signer{}, &recordingInvalidator{}, logger.NewNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
	c.Stop()
}
