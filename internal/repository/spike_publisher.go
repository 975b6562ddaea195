package repository

import (
	"context"

	"VolSpike/internal/domain/models"
	"VolSpike/internal/domain/repository"
	pkgkafka "VolSpike/pkg/kafka"
)

// KafkaSpikePublisher pushes detected spike candidates onto a Kafka topic so
// downstream consumers (alerting, dashboards) see them the moment a run
// finishes. Messages are keyed by symbol to keep one symbol on one partition.
type KafkaSpikePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSpikePublisher creates a Kafka-backed spike publisher.
func NewKafkaSpikePublisher(producer *pkgkafka.Producer, topic string) repository.SpikePublisher {
	return &KafkaSpikePublisher{producer: producer, topic: topic}
}

func (p *KafkaSpikePublisher) PublishSpikes(ctx context.Context, candidates []models.SpikeCandidate) error {
	if len(candidates) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(candidates))
	for i, c := range candidates {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(c.Symbol),
			Value: c,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSpikePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
