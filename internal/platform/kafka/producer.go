// Package kafka owns the franz-go client used for lifecycle notifications.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"oncofeliz/internal/platform/config"
)

const produceTimeout = 5 * time.Second

// Producer publishes keyed records to one topic.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer connects to the brokers. Returns nil when no brokers are
// configured.
func NewProducer(cfg config.Kafka) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RecordRetries(3),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: client, topic: cfg.Topic}, nil
}

// EnsureTopic creates the topic when it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, t := range resp {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

// Produce writes one record synchronously, bounded by a short timeout.
func (p *Producer) Produce(ctx context.Context, key string, value []byte, headers map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, produceTimeout)
	defer cancel()

	rec := &kgo.Record{Topic: p.topic, Key: []byte(key), Value: value}
	for k, v := range headers {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", p.topic, err)
	}
	return nil
}

// Ping checks broker connectivity.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes pending records and closes the client.
func (p *Producer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), produceTimeout)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
