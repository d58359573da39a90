package repository

import (
	"context"

	"YutaiScan/internal/domain/models"
	"YutaiScan/internal/domain/repository"
	pkgkafka "YutaiScan/pkg/kafka"
)

// KafkaResultPublisher implements ResultPublisher for Kafka. Messages are
// keyed by instrument code so per-instrument ordering survives
// partitioning.
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) repository.ResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) Publish(ctx context.Context, res *models.OptimalTimingResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(res.Code), resultPayload(res))
}

func (p *KafkaResultPublisher) PublishBatch(ctx context.Context, results []*models.OptimalTimingResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(results))
	for i, res := range results {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(res.Code),
			Value: resultPayload(res),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func resultPayload(res *models.OptimalTimingResult) map[string]interface{} {
	return map[string]interface{}{
		"code":            res.Code,
		"name":            res.Name,
		"rights_month":    res.RightsMonth,
		"optimal_offset":  res.OptimalOffset,
		"win_rate":        res.Best.WinRate,
		"expected_return": res.Best.ExpectedReturn,
		"total_count":     res.Best.TotalCount,
		"score":           res.Best.Score(),
		"generated_at":    res.GeneratedAt,
	}
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
