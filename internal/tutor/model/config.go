package model

import "time"

// ================ Config ================
type TutorModelConfig struct {
	Model       string  `envconfig:"TUTOR_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"TUTOR_MAX_TOKENS" default:"120"`
	Temperature float32 `envconfig:"TUTOR_TEMPERATURE" default:"0.6"`
}

type SpeechConfig struct {
	OpenAIKey   string `envconfig:"OPENAI_API_KEY"`
	STTProvider string `envconfig:"STT_PROVIDER" default:"openai"`
	STTModel    string `envconfig:"STT_MODEL" default:"whisper-1"`
	STTLanguage string `envconfig:"STT_LANGUAGE" default:"en"`
	TTSModel    string `envconfig:"TTS_MODEL" default:"gpt-4o-mini-tts"`
	TTSVoice    string `envconfig:"TTS_VOICE" default:"alloy"`
}

type CurriculumConfig struct {
	// Path to a JSON or YAML curriculum; empty uses the embedded B1/B2 script.
	Path string `envconfig:"CURRICULUM_PATH"`
}

type SessionConfig struct {
	TTL             time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	MaxEntries      int           `envconfig:"SESSION_MAX_ENTRIES" default:"10000"`
	BusinessModeTTL time.Duration `envconfig:"BUSINESS_MODE_TTL" default:"2h"`
}

type ConversationConfig struct {
	TTL      time.Duration `envconfig:"CONVERSATION_TTL" default:"30m"`
	MaxTurns int           `envconfig:"CONVERSATION_MAX_TURNS" default:"12"`
}

type QuotaConfig struct {
	DailySeconds int    `envconfig:"QUOTA_DAILY_SECONDS" default:"300"`
	LimitMessage string `envconfig:"QUOTA_LIMIT_MESSAGE" default:"I'm sorry, but you reached your 5-minute limit for today."`
}

type IdentityConfig struct {
	AuthURL    string `envconfig:"AUTH_URL"`
	AuthAPIKey string `envconfig:"AUTH_API_KEY"`
	Required   bool   `envconfig:"AUTH_REQUIRED" default:"false"`
}

type EventsConfig struct {
	Enabled    bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers    []string `envconfig:"KAFKA_BROKERS"`
	TopicTurns string   `envconfig:"KAFKA_TOPIC_TURNS" default:"tutor.turns"`
}
