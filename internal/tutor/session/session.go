// Package session keeps the per-learner pedagogical state between turns.
package session

import (
	"errors"
	"time"

	"github.com/chative-tutor/server/internal/tutor/model"
)

// ErrNotFound is returned by a Store when no session exists for a key.
var ErrNotFound = errors.New("session not found")

// Session is the mutable position of one learner inside a curriculum cycle.
type Session struct {
	Key            string      `json:"key"`
	Phase          model.Phase `json:"phase"`
	Topic          string      `json:"topic,omitempty"`
	Subtopic       string      `json:"subtopic,omitempty"`
	QuestionIndex  int         `json:"question_index"`
	GuidedCount    int         `json:"guided_count"`
	ExpansionCount int         `json:"expansion_count"`
	LastTopic      string      `json:"last_topic,omitempty"`
	LastSubtopic   string      `json:"last_subtopic,omitempty"`
	UserID         string      `json:"user_id,omitempty"`
	Name           string      `json:"name,omitempty"`
	Cycle          int         `json:"cycle"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Clone returns a copy that can be mutated without touching s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Replace copies every field of next into s, keeping the pointer identity.
func (s *Session) Replace(next *Session) {
	*s = *next
}
