// Package kafka publishes analysis results so downstream consumers (alerting,
// long-term storage) can react to new hotspots and trend anomalies without
// polling the HTTP API.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/SeeSense-AK/dublin-dashboard/internal/config"
	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

// Publisher produces hotspot analyses and anomalous trend buckets to a Kafka
// topic after each analysis run.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishResult serializes every hotspot analysis and every anomalous trend
// bucket from the run into a single WriteMessages call.
func (p *Publisher) PublishResult(ctx context.Context, result *domain.Result) error {
	var msgs []kafkago.Message

	for i := range result.Hotspots {
		msg, err := hotspotMessage(result, &result.Hotspots[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	for _, bucket := range result.TrendBuckets {
		if !bucket.Anomaly {
			continue
		}
		msg, err := anomalyMessage(result, bucket)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if len(msgs) == 0 {
		return nil
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish analysis result: %w", err)
	}
	p.logger.Info("analysis result published", "run_id", result.RunID, "messages", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func hotspotMessage(result *domain.Result, a *domain.HotspotAnalysis) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hotspot analysis: %w", err)
	}
	return kafkago.Message{
		Key:     []byte(a.Hotspot.ID),
		Value:   data,
		Headers: resultHeaders(result, "hotspot"),
	}, nil
}

func anomalyMessage(result *domain.Result, bucket domain.TrendBucket) (kafkago.Message, error) {
	data, err := json.Marshal(bucket)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize trend anomaly: %w", err)
	}
	return kafkago.Message{
		Key:     []byte(bucket.Start.Format("2006-01-02")),
		Value:   data,
		Headers: resultHeaders(result, "trend_anomaly"),
	}, nil
}

func resultHeaders(result *domain.Result, kind string) []kafkago.Header {
	return []kafkago.Header{
		{Key: "kind", Value: []byte(kind)},
		{Key: "run_id", Value: []byte(result.RunID)},
		{Key: "generated_at", Value: []byte(result.GeneratedAt.Format(time.RFC3339))},
	}
}
