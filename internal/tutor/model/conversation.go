package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type ConversationRepository interface {
	// AddMessage appends a message to the learner's stored history
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory retrieves the stored history for a learner
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all stored history for a learner
	ClearHistory(ctx context.Context, conversationID string) error
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}

// HistoryTurn is one exchange as sent by the web client.
type HistoryTurn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}
