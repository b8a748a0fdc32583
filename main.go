package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chative-tutor/server/internal/api"
	"github.com/chative-tutor/server/internal/core"
	"github.com/chative-tutor/server/internal/events"
	"github.com/chative-tutor/server/internal/identity"
	"github.com/chative-tutor/server/internal/llm"
	"github.com/chative-tutor/server/internal/observability/metrics"
	"github.com/chative-tutor/server/internal/speech/stt"
	"github.com/chative-tutor/server/internal/speech/tts"
	"github.com/chative-tutor/server/internal/store"
	"github.com/chative-tutor/server/internal/tutor/business"
	"github.com/chative-tutor/server/internal/tutor/conversations"
	"github.com/chative-tutor/server/internal/tutor/curriculum"
	"github.com/chative-tutor/server/internal/tutor/model"
	"github.com/chative-tutor/server/internal/tutor/orchestrator"
	"github.com/chative-tutor/server/internal/tutor/phase"
	"github.com/chative-tutor/server/internal/tutor/repo"
	"github.com/chative-tutor/server/internal/tutor/session"
	logx "github.com/chative-tutor/server/pkg/logger"
	pkgredis "github.com/chative-tutor/server/pkg/redis"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AppConfig defines all configurable parameters of the tutor server,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":3000"`

	// Infrastructure
	Redis  pkgredis.Config
	SQLite store.Config
	Events model.EventsConfig

	// Providers
	Gemini   llm.GeminiConfig
	Speech   model.SpeechConfig
	Identity model.IdentityConfig

	// Tutor configs
	Tutor        model.TutorModelConfig
	Curriculum   model.CurriculumConfig
	Session      model.SessionConfig
	Conversation model.ConversationConfig
	Quota        model.QuotaConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("could not load .env file")
	}

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env, Level: cfg.LogLevel})
	logx.Info().Str("environment", env.String()).Msg("starting tutor server")

	cur, err := curriculum.Load(cfg.Curriculum.Path)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load curriculum")
	}
	if !cur.HasPhases() {
		logx.Warn().Msg("curriculum has no phases, every turn uses the generic directive")
	}

	// ====================================================
	// Stores: Redis when configured, bounded memory otherwise
	var (
		sessionStore session.Store
		modeStore    business.ModeStore
		convRepo     model.ConversationRepository
	)
	readiness := map[string]api.Pinger{}
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to initialise Redis client")
		}
		defer rdb.Close()

		sessionStore = session.NewRedisStore(rdb, cfg.Session.TTL)
		modeStore = business.NewRedisStore(rdb, cfg.Session.BusinessModeTTL)
		convRepo = repo.NewRedisConversationRepository(rdb, cfg.Conversation)
		readiness["redis"] = api.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		logx.Info().Msg("connected to Redis")
	} else {
		sessionStore = session.NewMemoryStore(cfg.Session.MaxEntries, cfg.Session.TTL)
		modeStore = business.NewMemoryStore(cfg.Session.MaxEntries, cfg.Session.BusinessModeTTL)
		convRepo = repo.NewMemoryConversationRepository(cfg.Session.MaxEntries, cfg.Conversation)
		logx.Info().Msg("Redis not configured, using in-memory stores")
	}

	ledger, err := store.NewSQLite(cfg.SQLite.Path)
	if err != nil {
		logx.Fatal().Err(err).Str("path", cfg.SQLite.Path).Msg("failed to open usage ledger")
	}
	defer ledger.Close()
	readiness["sqlite"] = ledger

	// ====================================================
	// Providers
	chatModel, err := llm.NewGeminiChatModel(ctx, cfg.Gemini, cfg.Tutor)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create chat model")
	}
	completer, err := llm.NewCompleter(ctx, chatModel, cfg.Tutor.Model)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build completion chain")
	}

	transcriber := newTranscriber(ctx, cfg.Speech)
	var synthesizer tts.Service
	if cfg.Speech.OpenAIKey != "" {
		synthesizer = tts.NewOpenAI(cfg.Speech.OpenAIKey,
			tts.WithOpenAIModel(cfg.Speech.TTSModel),
			tts.WithOpenAIVoice(cfg.Speech.TTSVoice))
	} else {
		logx.Warn().Msg("OPENAI_API_KEY not set, replies are sent without audio")
	}

	publisher := events.New(cfg.Events, metrics.DefaultMetrics)
	defer publisher.Close()

	var resolver identity.Resolver
	if cfg.Identity.AuthURL != "" {
		resolver = identity.NewHTTPResolver(cfg.Identity.AuthURL, cfg.Identity.AuthAPIKey, &http.Client{Timeout: 10 * time.Second})
	}

	// ====================================================
	// Tutor
	sessions := session.NewManager(sessionStore, curriculum.NewPicker(cur, nil))
	tutor := orchestrator.New(orchestrator.Deps{
		Sessions:  sessions,
		Engine:    phase.NewEngine(cur, sessions),
		Overlay:   business.NewOverlay(modeStore),
		History:   conversations.NewMessagesManager(convRepo, cfg.Conversation),
		Completer: completer,
		STT:       transcriber,
		TTS:       synthesizer,
		Ledger:    ledger,
		Events:    publisher,
		Metrics:   metrics.DefaultMetrics,
		Quota:     cfg.Quota,
		Speech:    cfg.Speech,
	})

	// Setup router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(api.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ready", api.Readiness(readiness))

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(resolver, cfg.Identity.Required))
		api.NewHandler(tutor, ledger).RegisterRoutes(r)
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()
	logx.Info().Msg("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("server forced to shutdown")
		return
	}
	logx.Info().Msg("server stopped")
}

// newTranscriber selects the STT provider. It returns nil when the selected
// provider cannot be used, in which case /stt answers empty transcripts.
func newTranscriber(ctx context.Context, cfg model.SpeechConfig) stt.Service {
	switch cfg.STTProvider {
	case "google":
		g, err := stt.NewGoogle(ctx)
		if err != nil {
			logx.Error().Err(err).Msg("failed to create Google speech client, transcription disabled")
			return nil
		}
		return g
	default:
		if cfg.OpenAIKey == "" {
			logx.Warn().Msg("OPENAI_API_KEY not set, transcription disabled")
			return nil
		}
		return stt.NewOpenAI(cfg.OpenAIKey, stt.WithOpenAIModel(cfg.STTModel))
	}
}
