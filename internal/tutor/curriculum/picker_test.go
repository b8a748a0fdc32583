package curriculum

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func TestPickTopicAvoidsPrevious(t *testing.T) {
	cur, err := Default()
	require.NoError(t, err)

	for seed := uint64(0); seed < 200; seed++ {
		p := NewPicker(cur, seeded(seed))
		topic, ok := p.PickTopic("travel")
		require.True(t, ok)
		assert.NotEqual(t, "travel", topic)
	}
}

func TestPickSubtopicAvoidsPrevious(t *testing.T) {
	cur, err := Default()
	require.NoError(t, err)

	for seed := uint64(0); seed < 200; seed++ {
		p := NewPicker(cur, seeded(seed))
		sub, ok := p.PickSubtopic("travel", "past_trips")
		require.True(t, ok)
		assert.NotEqual(t, "past_trips", sub)
		assert.Contains(t, []string{"dream_destinations", "travel_problems"}, sub)
	}
}

func TestPickWithoutTopics(t *testing.T) {
	cur, err := Parse([]byte(`{"topics": {}}`), "json")
	require.NoError(t, err)

	p := NewPicker(cur, seeded(1))
	_, ok := p.PickTopic("")
	assert.False(t, ok)
	_, ok = p.PickSubtopic("", "")
	assert.False(t, ok)
	_, ok = p.PickSubtopic("missing", "")
	assert.False(t, ok)
}

func TestSingleCandidateIsUnconditional(t *testing.T) {
	cur, err := Parse([]byte(jsonScript), "json")
	require.NoError(t, err)

	p := NewPicker(cur, seeded(7))
	topic, ok := p.PickTopic("music")
	require.True(t, ok)
	assert.Equal(t, "music", topic)

	sub, ok := p.PickSubtopic("music", "concerts")
	require.True(t, ok)
	assert.Equal(t, "concerts", sub)
}

func TestRepeatAllowedWithoutFlag(t *testing.T) {
	cur, err := Parse([]byte(`
topics:
  a: {rotation: {subtopics: [x]}}
  b: {rotation: {subtopics: [y]}}
`), "yaml")
	require.NoError(t, err)

	seen := map[string]bool{}
	for seed := uint64(0); seed < 100; seed++ {
		topic, _ := NewPicker(cur, seeded(seed)).PickTopic("a")
		seen[topic] = true
	}
	assert.True(t, seen["a"], "without avoid flag the previous topic stays a candidate")
	assert.True(t, seen["b"])
}

func TestPickIsReproducibleWithSeed(t *testing.T) {
	cur, err := Default()
	require.NoError(t, err)

	a, _ := NewPicker(cur, seeded(42)).PickTopic("")
	b, _ := NewPicker(cur, seeded(42)).PickTopic("")
	assert.Equal(t, a, b)
}
