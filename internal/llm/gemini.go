package llm

import (
	"context"
	"fmt"

	"github.com/chative-tutor/server/internal/tutor/model"
	logx "github.com/chative-tutor/server/pkg/logger"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"
)

// GeminiConfig holds the configuration for chat model creation
type GeminiConfig struct {
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
}

// NewGeminiChatModel creates the tutor chat model. Thinking is disabled since
// tutor replies are capped to a few sentences.
func NewGeminiChatModel(ctx context.Context, cfg GeminiConfig, tutor model.TutorModelConfig) (*gemini.ChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	maxTokens := tutor.MaxTokens
	temperature := tutor.Temperature
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       tutor.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating tutor model")
		return nil, fmt.Errorf("error creating tutor model: %w", err)
	}

	logx.Debug().Str("model", tutor.Model).Int("max_tokens", maxTokens).Msg("Tutor chat model ready")
	return chatModel, nil
}
