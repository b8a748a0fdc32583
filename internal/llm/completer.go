// Package llm runs the tutor's chat completion through an Eino chain:
// chat template, then chat model, with logging callbacks and usage cost.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chative-tutor/server/internal/tutor/model"
	logx "github.com/chative-tutor/server/pkg/logger"
	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ErrEmptyCompletion is returned when the model answers without content.
var ErrEmptyCompletion = errors.New("empty completion")

// Request is one model call: a system directive, prior messages and the
// current user message.
type Request struct {
	System  string
	History []*schema.Message
	Message string
}

// Completion is the model reply with its token accounting.
type Completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostUSD          float64
}

type Completer struct {
	runnable  compose.Runnable[map[string]any, *schema.Message]
	modelName string
	handlers  []einocb.Handler
}

// NewCompleter compiles the chain around chatModel. Values are substituted
// into the template, never parsed, so learner text containing braces is safe.
func NewCompleter(ctx context.Context, chatModel einomodel.BaseChatModel, modelName string) (*Completer, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	tpl := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{message}"),
	)

	runnable, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(tpl).
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to compile tutor chain")
		return nil, fmt.Errorf("compile tutor chain: %w", err)
	}

	return &Completer{
		runnable:  runnable,
		modelName: modelName,
		handlers:  []einocb.Handler{NewCallbacks()},
	}, nil
}

// Complete runs one chat completion.
func (c *Completer) Complete(ctx context.Context, req Request) (*Completion, error) {
	history := req.History
	if history == nil {
		history = []*schema.Message{}
	}
	out, err := c.runnable.Invoke(ctx, map[string]any{
		"system":  req.System,
		"history": history,
		"message": req.Message,
	}, compose.WithCallbacks(c.handlers...))
	if err != nil {
		return nil, err
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return nil, ErrEmptyCompletion
	}

	completion := &Completion{Content: strings.TrimSpace(out.Content), Model: c.modelName}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		usage := out.ResponseMeta.Usage
		inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(c.modelName))
		completion.PromptTokens = usage.PromptTokens
		completion.CompletionTokens = usage.CompletionTokens
		completion.TotalTokens = usage.TotalTokens
		completion.CostUSD = totalC

		logx.Debug().
			Str("model", c.modelName).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Int("total_tokens", usage.TotalTokens).
			Float64("input_cost_usd", inC).
			Float64("output_cost_usd", outC).
			Float64("total_cost_usd", totalC).
			Msg("LLM usage")
	}
	return completion, nil
}
