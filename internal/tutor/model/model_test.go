package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("correction")
	require.NoError(t, err)
	assert.Equal(t, PhaseCorrection, p)

	_, err = ParsePhase("smalltalk")
	assert.Error(t, err)
}

func TestModeValid(t *testing.T) {
	for _, m := range AllModes {
		assert.True(t, m.Valid(), m)
	}
	assert.False(t, Mode("karaoke").Valid())
	assert.False(t, Mode(ModeExit).Valid())
	assert.Equal(t, "job_interview", NormalizeMode("  Job_Interview "))
}

func TestComputeCost(t *testing.T) {
	in, out, total := ComputeCost(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000}, ResolvePricing("gemini-2.5-flash"))
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 1.25, out, 1e-9)
	assert.InDelta(t, 1.55, total, 1e-9)

	_, _, total = ComputeCost(nil, ResolvePricing("gemini-2.5-flash"))
	assert.Zero(t, total)
	assert.Equal(t, Pricing{}, ResolvePricing("unknown-model"))
}
