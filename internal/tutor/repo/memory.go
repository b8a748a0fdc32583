package repo

import (
	"context"
	"sync"

	"github.com/chative-tutor/server/internal/tutor/model"
	"github.com/cloudwego/eino/schema"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryConversationRepository keeps histories in process for deployments
// without Redis. Learners are evicted LRU-first and after the configured TTL.
type MemoryConversationRepository struct {
	mu          sync.Mutex
	cache       *expirable.LRU[string, []*schema.Message]
	maxMessages int
}

func NewMemoryConversationRepository(maxLearners int, cfg model.ConversationConfig) *MemoryConversationRepository {
	return &MemoryConversationRepository{
		cache:       expirable.NewLRU[string, []*schema.Message](maxLearners, nil, cfg.TTL),
		maxMessages: cfg.MaxTurns * 2,
	}
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, learnerID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs, _ := r.cache.Get(learnerID)
	next := make([]*schema.Message, 0, len(msgs)+1)
	next = append(next, msgs...)
	next = append(next, message)
	if r.maxMessages > 0 && len(next) > r.maxMessages {
		next = next[len(next)-r.maxMessages:]
	}
	r.cache.Add(learnerID, next)
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, learnerID string) (*model.ConversationHistory, error) {
	msgs, _ := r.cache.Get(learnerID)
	out := make([]*schema.Message, len(msgs))
	copy(out, msgs)
	return &model.ConversationHistory{ConversationID: learnerID, Messages: out}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, learnerID string) error {
	r.cache.Remove(learnerID)
	return nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
