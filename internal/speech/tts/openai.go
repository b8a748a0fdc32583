// Package tts synthesises tutor replies into audio.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	errx "github.com/chative-tutor/server/internal/core/error"
)

const (
	openAIBaseURL     = "https://api.openai.com/v1"
	openAITTSEndpoint = "/audio/speech"

	// ModelMiniTTS is the default speech model.
	ModelMiniTTS = "gpt-4o-mini-tts"
	// VoiceAlloy is the neutral default voice.
	VoiceAlloy = "alloy"

	defaultOpenAITimeout = 30 * time.Second
)

// ErrEmptyText is returned when there is nothing to synthesise.
var ErrEmptyText = errors.New("text is empty")

// Service turns text into encoded audio bytes.
type Service interface {
	Synthesize(ctx context.Context, text string, config Config) ([]byte, error)
}

// Config overrides the service defaults for one call.
type Config struct {
	Voice  string
	Model  string
	Format string
}

// OpenAIService implements TTS using OpenAI's speech endpoint.
type OpenAIService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	model   string
	voice   string
}

// OpenAIOption configures the OpenAI TTS service.
type OpenAIOption func(*OpenAIService)

// WithOpenAIBaseURL sets a custom base URL (for testing or proxies).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(s *OpenAIService) {
		s.baseURL = url
	}
}

// WithOpenAIClient sets a custom HTTP client.
func WithOpenAIClient(client *http.Client) OpenAIOption {
	return func(s *OpenAIService) {
		s.client = client
	}
}

// WithOpenAIModel sets the default speech model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(s *OpenAIService) {
		if model != "" {
			s.model = model
		}
	}
}

// WithOpenAIVoice sets the default voice.
func WithOpenAIVoice(voice string) OpenAIOption {
	return func(s *OpenAIService) {
		if voice != "" {
			s.voice = voice
		}
	}
}

func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAIService {
	s := &OpenAIService{
		apiKey:  apiKey,
		baseURL: openAIBaseURL,
		client:  &http.Client{Timeout: defaultOpenAITimeout},
		model:   ModelMiniTTS,
		voice:   VoiceAlloy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type openAIRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// Synthesize returns the encoded audio for text.
func (s *OpenAIService) Synthesize(ctx context.Context, text string, config Config) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	reqBody := openAIRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: config.Format,
	}
	if config.Model != "" {
		reqBody.Model = config.Model
	}
	if config.Voice != "" {
		reqBody.Voice = config.Voice
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+openAITTSEndpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errx.New(err, http.StatusBadGateway, "speech synthesis failed")
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		cause := fmt.Errorf("openai responded %d: %s", resp.StatusCode, bytes.TrimSpace(audio))
		return nil, errx.New(cause, http.StatusBadGateway, "speech synthesis failed")
	}
	return audio, nil
}

var _ Service = (*OpenAIService)(nil)
