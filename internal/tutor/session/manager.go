package session

import (
	"context"
	"errors"
	"time"

	"github.com/chative-tutor/server/internal/tutor/curriculum"
	"github.com/chative-tutor/server/internal/tutor/model"
	logx "github.com/chative-tutor/server/pkg/logger"
	"github.com/chative-tutor/server/pkg/keylock"
)

// Manager owns the session lifecycle: creation, new cycles and serialised
// read-modify-write per key.
type Manager struct {
	store  Store
	picker *curriculum.Picker
	locks  *keylock.KeyLock
	now    func() time.Time
}

func NewManager(store Store, picker *curriculum.Picker) *Manager {
	return &Manager{
		store:  store,
		picker: picker,
		locks:  keylock.New(),
		now:    time.Now,
	}
}

// NewCycle builds a fresh warmup session for key. Topic and subtopic avoid the
// ones of prev when the rotation rules ask for it; identity fields carry over.
func (m *Manager) NewCycle(key string, prev *Session) *Session {
	if prev == nil {
		prev = &Session{}
	}
	previousTopic := prev.Topic
	if previousTopic == "" {
		previousTopic = prev.LastTopic
	}
	previousSubtopic := prev.Subtopic
	if previousSubtopic == "" {
		previousSubtopic = prev.LastSubtopic
	}

	topic, _ := m.picker.PickTopic(previousTopic)
	subtopic, _ := m.picker.PickSubtopic(topic, previousSubtopic)

	now := m.now()
	created := prev.CreatedAt
	if created.IsZero() {
		created = now
	}
	s := &Session{
		Key:          key,
		Phase:        model.PhaseWarmup,
		Topic:        topic,
		Subtopic:     subtopic,
		LastTopic:    topic,
		LastSubtopic: subtopic,
		UserID:       prev.UserID,
		Name:         prev.Name,
		Cycle:        prev.Cycle + 1,
		CreatedAt:    created,
		UpdatedAt:    now,
	}
	logx.Info().
		Str("session_key", key).
		Str("topic", topic).
		Str("subtopic", subtopic).
		Int("cycle", s.Cycle).
		Msg("new session cycle")
	return s
}

// GetOrCreate returns the stored session for key, creating and saving a new
// one on a miss.
func (m *Manager) GetOrCreate(ctx context.Context, key string) (*Session, error) {
	unlock := m.locks.Lock(key)
	defer unlock()
	return m.loadOrCreate(ctx, key)
}

func (m *Manager) loadOrCreate(ctx context.Context, key string) (*Session, error) {
	s, err := m.store.Get(ctx, key)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, ErrNotFound):
		s = m.NewCycle(key, nil)
		if err := m.store.Put(ctx, s); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, err
	}
}

// WithSession runs fn with exclusive access to the session for key. The lock
// is held across fn, so fn may await external services without another turn
// for the same key interleaving. The session is saved when fn returns nil.
func (m *Manager) WithSession(ctx context.Context, key string, fn func(ctx context.Context, s *Session) error) error {
	unlock := m.locks.Lock(key)
	defer unlock()

	s, err := m.loadOrCreate(ctx, key)
	if err != nil {
		return err
	}
	if err := fn(ctx, s); err != nil {
		return err
	}
	s.UpdatedAt = m.now()
	return m.store.Put(ctx, s)
}

// Peek returns a copy of the stored session without creating one.
func (m *Manager) Peek(ctx context.Context, key string) (*Session, error) {
	s, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// Reset drops the stored session so the next turn starts a new cycle.
func (m *Manager) Reset(ctx context.Context, key string) error {
	unlock := m.locks.Lock(key)
	defer unlock()
	return m.store.Delete(ctx, key)
}
