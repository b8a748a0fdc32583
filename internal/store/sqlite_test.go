package store

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	errx "github.com/chative-tutor/server/internal/core/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "tutor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUsageLedger(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	used, err := s.SecondsUsed(ctx, "u1", "2025-01-02")
	require.NoError(t, err)
	assert.Zero(t, used)

	total, err := s.AddSeconds(ctx, "u1", "10.0.0.1", "2025-01-02", 40)
	require.NoError(t, err)
	assert.Equal(t, 40, total)

	total, err = s.AddSeconds(ctx, "u1", "", "2025-01-02", 25)
	require.NoError(t, err)
	assert.Equal(t, 65, total)

	used, err = s.SecondsUsed(ctx, "u1", "2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, 65, used)

	used, err = s.SecondsUsed(ctx, "u1", "2025-01-03")
	require.NoError(t, err)
	assert.Zero(t, used, "days are independent")

	used, err = s.SecondsUsed(ctx, "u2", "2025-01-02")
	require.NoError(t, err)
	assert.Zero(t, used, "identities are independent")
}

func TestAddSecondsConcurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddSeconds(ctx, "u1", "", "2025-01-02", 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	used, err := s.SecondsUsed(ctx, "u1", "2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, 100, used)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetProfile(ctx, "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.Equal(t, http.StatusNotFound, errx.StatusOf(err))

	require.NoError(t, s.UpsertProfile(ctx, Profile{UserID: "u1", FirstName: "Ana", LastName: "Silva", Email: "ana@example.com"}))
	require.NoError(t, s.UpsertProfile(ctx, Profile{UserID: "u1", FirstName: "Anita"}))

	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Anita", p.FirstName)
	assert.Equal(t, "Silva", p.LastName)
	assert.Equal(t, "ana@example.com", p.Email)

	assert.Error(t, s.UpsertProfile(ctx, Profile{}))
}

func TestToday(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2025, 3, 4, 23, 30, 0, 0, time.FixedZone("x", -5*3600)) }
	assert.Equal(t, "2025-03-05", s.Today())
	assert.NoError(t, s.Ping(context.Background()))
}
