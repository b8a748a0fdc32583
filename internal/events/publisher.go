// Package events publishes finished tutor turns to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chative-tutor/server/internal/observability/metrics"
	"github.com/chative-tutor/server/internal/tutor/model"
	logx "github.com/chative-tutor/server/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// TurnEvent is the record emitted for every answered turn.
type TurnEvent struct {
	TurnID           string      `json:"turnId"`
	SessionKey       string      `json:"sessionKey"`
	UserID           string      `json:"userId,omitempty"`
	Phase            model.Phase `json:"phase,omitempty"`
	NextPhase        model.Phase `json:"nextPhase,omitempty"`
	Mode             model.Mode  `json:"mode,omitempty"`
	UsedBusinessMode bool        `json:"usedBusinessMode"`
	QuotaExceeded    bool        `json:"quotaExceeded"`
	ModelFailed      bool        `json:"modelFailed"`
	SecondsUsed      int         `json:"secondsUsed"`
	CostUSD          float64     `json:"costUsd"`
	OccurredAt       time.Time   `json:"occurredAt"`
}

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes turn events. Without brokers it only logs.
type Publisher struct {
	writer  Writer
	topic   string
	enabled bool
	metrics *metrics.Metrics
}

// New creates a Kafka turn publisher.
func New(cfg model.EventsConfig, m *metrics.Metrics) *Publisher {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		logx.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{topic: cfg.TopicTurns, metrics: m}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicTurns,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	logx.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.TopicTurns).
		Msg("Kafka publisher initialized")

	return NewWithWriter(writer, cfg.TopicTurns, m)
}

// NewWithWriter wraps an existing writer.
func NewWithWriter(w Writer, topic string, m *metrics.Metrics) *Publisher {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Publisher{writer: w, topic: topic, enabled: w != nil, metrics: m}
}

// PublishTurn writes ev keyed by session so a learner's turns stay ordered
// within one partition.
func (p *Publisher) PublishTurn(ctx context.Context, ev TurnEvent) error {
	start := time.Now()

	payload, err := json.Marshal(ev)
	if err != nil {
		logx.Error().Err(err).Str("topic", p.topic).Msg("Failed to marshal event")
		return err
	}

	logx.Debug().
		Str("topic", p.topic).
		Str("key", ev.SessionKey).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled {
		p.metrics.RecordKafkaPublish(p.topic, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(ev.SessionKey),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte("turn")},
			{Key: "turnId", Value: []byte(ev.TurnID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logx.Error().Err(err).Str("topic", p.topic).Str("key", ev.SessionKey).Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(p.topic, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(p.topic, nil, time.Since(start).Seconds())
	return nil
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		logx.Error().Err(err).Msg("Error closing Kafka writer")
		return err
	}
	return nil
}
