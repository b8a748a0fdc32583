// Package conversations assembles the chat history that accompanies a guided
// turn and records finished exchanges.
package conversations

import (
	"context"

	"github.com/chative-tutor/server/internal/tutor/model"

	"github.com/cloudwego/eino/schema"
)

type MessagesManager struct {
	conversationRepo model.ConversationRepository
	maxMessages      int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	maxTurns := config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 12
	}
	return &MessagesManager{
		conversationRepo: conversationRepo,
		maxMessages:      maxTurns * 2,
	}
}

// BuildHistory returns the messages placed between the system directive and
// the current user message. Client supplied turns win over stored history.
func (cm *MessagesManager) BuildHistory(ctx context.Context, learnerID string, clientTurns []model.HistoryTurn) ([]*schema.Message, error) {
	if len(clientTurns) > 0 {
		return trimTail(FromTurns(clientTurns), cm.maxMessages), nil
	}

	history, err := cm.conversationRepo.LoadHistory(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	messages := make([]*schema.Message, 0, len(history.Messages))
	for _, msg := range history.Messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		if msg.Role == schema.User || msg.Role == schema.Assistant {
			messages = append(messages, msg)
		}
	}
	return trimTail(messages, cm.maxMessages), nil
}

// SaveTurn appends one user/assistant exchange.
func (cm *MessagesManager) SaveTurn(ctx context.Context, learnerID, userText, reply string) error {
	if err := cm.conversationRepo.AddMessage(ctx, learnerID, schema.UserMessage(userText)); err != nil {
		return err
	}
	return cm.conversationRepo.AddMessage(ctx, learnerID, schema.AssistantMessage(reply, nil))
}

// Clear drops the stored history of a learner.
func (cm *MessagesManager) Clear(ctx context.Context, learnerID string) error {
	return cm.conversationRepo.ClearHistory(ctx, learnerID)
}

// FromTurns converts client transcript pairs into chat messages, skipping
// empty sides.
func FromTurns(turns []model.HistoryTurn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(turns)*2)
	for _, turn := range turns {
		if turn.User != "" {
			messages = append(messages, schema.UserMessage(turn.User))
		}
		if turn.Bot != "" {
			messages = append(messages, schema.AssistantMessage(turn.Bot, nil))
		}
	}
	return messages
}

// ====================== Helper function ======================
func trimTail(messages []*schema.Message, maxMessages int) []*schema.Message {
	if len(messages) <= maxMessages {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxMessages:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
