package llm

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	got   []*schema.Message
	reply *schema.Message
	err   error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.got = input
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.StreamReaderFromArray([]*schema.Message{f.reply}), nil
}

func TestCompleteBuildsMessagesAndCost(t *testing.T) {
	ctx := context.Background()
	reply := schema.AssistantMessage(" Nice! Where did you go? ", nil)
	reply.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000, TotalTokens: 2_000_000}}
	fake := &fakeChatModel{reply: reply}

	c, err := NewCompleter(ctx, fake, "gemini-2.5-flash-lite")
	require.NoError(t, err)

	out, err := c.Complete(ctx, Request{
		System:  "You are an English tutor. {not a placeholder}",
		History: []*schema.Message{schema.UserMessage("hi"), schema.AssistantMessage("hello", nil)},
		Message: "I {went} to the beach",
	})
	require.NoError(t, err)

	require.Len(t, fake.got, 4)
	assert.Equal(t, schema.System, fake.got[0].Role)
	assert.Equal(t, "You are an English tutor. {not a placeholder}", fake.got[0].Content)
	assert.Equal(t, "hi", fake.got[1].Content)
	assert.Equal(t, schema.Assistant, fake.got[2].Role)
	assert.Equal(t, "I {went} to the beach", fake.got[3].Content)

	assert.Equal(t, "Nice! Where did you go?", out.Content)
	assert.Equal(t, 2_000_000, out.TotalTokens)
	assert.InDelta(t, 0.50, out.CostUSD, 1e-9)
}

func TestCompleteWithoutHistory(t *testing.T) {
	ctx := context.Background()
	fake := &fakeChatModel{reply: schema.AssistantMessage("ok?", nil)}
	c, err := NewCompleter(ctx, fake, "unknown-model")
	require.NoError(t, err)

	out, err := c.Complete(ctx, Request{System: "sys", Message: "hello"})
	require.NoError(t, err)
	assert.Len(t, fake.got, 2)
	assert.Zero(t, out.CostUSD)
}

func TestCompleteErrors(t *testing.T) {
	ctx := context.Background()

	c, err := NewCompleter(ctx, &fakeChatModel{err: errors.New("quota")}, "m")
	require.NoError(t, err)
	_, err = c.Complete(ctx, Request{System: "s", Message: "m"})
	assert.Error(t, err)

	c, err = NewCompleter(ctx, &fakeChatModel{reply: schema.AssistantMessage("  ", nil)}, "m")
	require.NoError(t, err)
	_, err = c.Complete(ctx, Request{System: "s", Message: "m"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)

	_, err = NewCompleter(ctx, nil, "m")
	assert.Error(t, err)
}
