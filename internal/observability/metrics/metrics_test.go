package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordTurn(PathGuided, 0.3)
	m.RecordTurn(PathQuota, 0.01)
	assert.Equal(t, 1.0, value(t, m.TurnsTotal.WithLabelValues(PathGuided)))
	assert.Equal(t, 1.0, value(t, m.QuotaRejections))

	m.RecordPhaseTransition("warmup", "topic_intro")
	assert.Equal(t, 1.0, value(t, m.PhaseTransitions.WithLabelValues("warmup", "topic_intro")))

	m.RecordModelCall(nil, 100, 20, 0.5)
	m.RecordModelCall(errors.New("boom"), 0, 0, 0)
	assert.Equal(t, 100.0, value(t, m.ModelTokens.WithLabelValues("prompt")))
	assert.Equal(t, 0.5, value(t, m.ModelCostUSD))
	assert.Equal(t, 1.0, value(t, m.ModelErrors))

	m.RecordSecondsAdded(30)
	m.RecordSecondsAdded(-5)
	assert.Equal(t, 30.0, value(t, m.SecondsRecorded))

	m.RecordBusinessMode("")
	assert.Equal(t, 1.0, value(t, m.BusinessModeSets.WithLabelValues("none")))

	m.RecordKafkaPublish("tutor.turns", errors.New("down"), 0.01)
	assert.Equal(t, 1.0, value(t, m.KafkaPublishErrors.WithLabelValues("tutor.turns")))
}
