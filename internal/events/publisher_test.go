package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/chative-tutor/server/internal/observability/metrics"
	"github.com/chative-tutor/server/internal/tutor/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewDisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.EventsConfig
	}{
		{"disabled", model.EventsConfig{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", model.EventsConfig{Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg, metrics.NewMetrics(prometheus.NewRegistry()))
			assert.False(t, p.enabled)
			assert.Nil(t, p.writer)
			assert.NoError(t, p.PublishTurn(context.Background(), TurnEvent{SessionKey: "k"}))
			assert.NoError(t, p.Close())
		})
	}
}

func TestPublishTurn(t *testing.T) {
	w := &fakeWriter{}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	p := NewWithWriter(w, "tutor.turns", m)

	err := p.PublishTurn(context.Background(), TurnEvent{TurnID: "t1", SessionKey: "u1", Phase: model.PhaseWarmup, NextPhase: model.PhaseTopicIntro})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("u1"), w.msgs[0].Key)

	var got TurnEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, model.PhaseTopicIntro, got.NextPhase)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishTurnError(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	p := NewWithWriter(&fakeWriter{err: errors.New("broker down")}, "tutor.turns", m)

	assert.Error(t, p.PublishTurn(context.Background(), TurnEvent{SessionKey: "u1"}))
}
