package repository

import (
	"context"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	pkgkafka "MarketPulse/pkg/kafka"
	"MarketPulse/pkg/util"
)

// KafkaPublisher implements Publisher for Kafka. Bars are keyed by symbol so
// one symbol's stream stays ordered within a partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func candlePayload(class models.AssetClass, c models.Candle) map[string]interface{} {
	return map[string]interface{}{
		"class":            string(class),
		"symbol":           c.Symbol,
		"date":             c.Timestamp.Format(util.APITimeLayout),
		"open":             c.Open,
		"high":             c.High,
		"low":              c.Low,
		"close":            c.Close,
		"volume":           c.Volume,
		"source_bar_count": c.SourceBarCount,
	}
}

func barPayload(class models.AssetClass, b *models.Bar) map[string]interface{} {
	return candlePayload(class, models.Candle{
		Symbol:         b.Symbol,
		Timestamp:      b.Timestamp,
		Open:           b.Open,
		High:           b.High,
		Low:            b.Low,
		Close:          b.Close,
		Volume:         b.Volume,
		SourceBarCount: 1,
	})
}

func (p *KafkaPublisher) Publish(ctx context.Context, class models.AssetClass, b *models.Bar) error {
	return p.producer.Publish(ctx, p.topic, []byte(b.Symbol), barPayload(class, b))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, class models.AssetClass, bars []*models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(bars))
	for i, b := range bars {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(b.Symbol),
			Value: barPayload(class, b),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) PublishCandles(ctx context.Context, class models.AssetClass, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(candles))
	for i, c := range candles {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(c.Symbol),
			Value: candlePayload(class, c),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
