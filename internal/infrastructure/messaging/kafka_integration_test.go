//go:build integration

package messaging

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/crn/internal/config"
	"github.com/turtacn/crn/pkg/logger"
)

const kafkaBroker = "localhost:9092"

func TestMain(m *testing.M) {
	if os.Getenv("SKIP_DOCKER_TESTS") == "true" {
		os.Exit(m.Run())
	}
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}

	broker, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "apache/kafka",
		Tag:        "3.7.0",
		PortBindings: map[docker.Port][]docker.PortBinding{
			"9092/tcp": {{HostPort: "9092"}},
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
	})
	if err != nil {
		log.Fatalf("Could not start kafka: %s", err)
	}

	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error {
		conn, err := kafka.Dial("tcp", kafkaBroker)
		if err != nil {
			return err
		}
		defer conn.Close()
		_, err = conn.Brokers()
		return err
	}); err != nil {
		log.Fatalf("Could not connect to kafka: %s", err)
	}

	code := m.Run()

	if err := pool.Purge(broker); err != nil {
		log.Fatalf("Could not purge kafka: %s", err)
	}
	os.Exit(code)
}

func TestKafkaIncidentFanOut(t *testing.T) {
	if os.Getenv("SKIP_DOCKER_TESTS") == "true" {
		t.Skip("Skipping Docker-dependent tests")
	}
	topic := "crn-incidents-it"
	conn, err := kafka.Dial("tcp", kafkaBroker)
	require.NoError(t, err)
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
	_ = conn.Close()

	cfg := config.KafkaConfig{
		Enabled:       true,
		Brokers:       []string{kafkaBroker},
		IncidentTopic: topic,
		ConsumerGroup: "crn-it",
		SigningKey:    "it-secret",
	}
	log := logger.NewNoopLogger()

	// Two instances, each with its own group, both must evict.
	invA, invB := &recordingInvalidator{}, &recordingInvalidator{}
	consumerA := NewIncidentConsumer(cfg, invA, log)
	consumerB := NewIncidentConsumer(cfg, invB, log)
	go consumerA.Start(context.Background())
	go consumerB.Start(context.Background())
	defer consumerA.Stop()
	defer consumerB.Stop()

	producer := NewIncidentProducer(cfg, log)
	defer producer.Close()

	event := sampleEvent()
	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := producer.PublishIncident(ctx, event); err != nil {
			return false
		}
		return len(invA.snapshot()) > 0 && len(invB.snapshot()) > 0
	}, time.Minute, 2*time.Second)

	require.Contains(t, invA.snapshot(), event.CacheKeys[0])
	require.Contains(t, invB.snapshot(), event.CacheKeys[1])
}
