package business

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chative-tutor/server/internal/tutor/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetModeAndExit(t *testing.T) {
	ctx := context.Background()
	o := NewOverlay(NewMemoryStore(10, time.Minute))

	mode, active, err := o.SetMode(ctx, "u1", " Job_Interview ")
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, model.ModeJobInterview, mode)

	got, ok := o.Active(ctx, "u1")
	assert.True(t, ok)
	assert.Equal(t, model.ModeJobInterview, got)

	_, active, err = o.SetMode(ctx, "u1", "exit")
	require.NoError(t, err)
	assert.False(t, active)

	_, ok = o.Active(ctx, "u1")
	assert.False(t, ok)
}

func TestInvalidModeKeepsStoredMode(t *testing.T) {
	ctx := context.Background()
	o := NewOverlay(NewMemoryStore(10, time.Minute))

	_, _, err := o.SetMode(ctx, "u1", "sales")
	require.NoError(t, err)

	_, _, err = o.SetMode(ctx, "u1", "karaoke")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMode)
	var invalid *InvalidModeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "karaoke", invalid.Mode)

	got, ok := o.Active(ctx, "u1")
	assert.True(t, ok)
	assert.Equal(t, model.ModeSales, got)
}

func TestSetModeRequiresUser(t *testing.T) {
	o := NewOverlay(NewMemoryStore(10, time.Minute))
	_, _, err := o.SetMode(context.Background(), "", "sales")
	assert.Error(t, err)
	_, ok := o.Active(context.Background(), "")
	assert.False(t, ok)
}

func TestModesAreIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	o := NewOverlay(NewMemoryStore(10, time.Minute))
	_, _, err := o.SetMode(ctx, "u1", "negotiation")
	require.NoError(t, err)

	_, ok := o.Active(ctx, "u2")
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	o := NewOverlay(store)

	_, _, err := o.SetMode(ctx, "u1", "presentation")
	require.NoError(t, err)
	v, err := mr.Get("tutor:business:u1")
	require.NoError(t, err)
	assert.Equal(t, "presentation", v)

	got, ok := o.Active(ctx, "u1")
	assert.True(t, ok)
	assert.Equal(t, model.ModePresentation, got)

	_, _, err = o.SetMode(ctx, "u1", "EXIT")
	require.NoError(t, err)
	assert.False(t, mr.Exists("tutor:business:u1"))
}

func TestRedisFailureMeansInactive(t *testing.T) {
	mr := miniredis.RunT(t)
	o := NewOverlay(NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour))
	mr.SetError("boom")

	_, ok := o.Active(context.Background(), "u1")
	assert.False(t, ok)
}

func TestStartSentinel(t *testing.T) {
	assert.True(t, IsStartSentinel("start the interview"))
	assert.True(t, IsStartSentinel("  Start   The Interview "))
	assert.False(t, IsStartSentinel("let's start the interview"))
}

func TestInstructionCoversEveryMode(t *testing.T) {
	for _, m := range model.AllModes {
		plain := Instruction(m, false)
		assert.NotEmpty(t, plain, m)
		auto := Instruction(m, true)
		assert.True(t, strings.HasPrefix(auto, plain), m)
		assert.Contains(t, auto, "Start the scenario now")
		assert.NotEqual(t, "Please start.", OpeningMessage(m))
	}
	assert.Empty(t, Instruction(model.Mode("karaoke"), false))
	assert.Len(t, NewOverlay(nil).Modes(), len(model.AllModes))
}
