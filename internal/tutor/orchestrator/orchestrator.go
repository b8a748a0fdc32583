// Package orchestrator runs one learner turn end to end: directive selection,
// quota, model call, phase advance, history and speech.
package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"time"

	errx "github.com/chative-tutor/server/internal/core/error"
	"github.com/chative-tutor/server/internal/events"
	"github.com/chative-tutor/server/internal/llm"
	"github.com/chative-tutor/server/internal/observability/metrics"
	"github.com/chative-tutor/server/internal/speech/stt"
	"github.com/chative-tutor/server/internal/speech/tts"
	"github.com/chative-tutor/server/internal/tutor/business"
	"github.com/chative-tutor/server/internal/tutor/conversations"
	"github.com/chative-tutor/server/internal/tutor/model"
	"github.com/chative-tutor/server/internal/tutor/phase"
	"github.com/chative-tutor/server/internal/tutor/session"
	logx "github.com/chative-tutor/server/pkg/logger"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ModelFailureReply is returned to the learner when the model call fails.
const ModelFailureReply = "Error"

// Completer runs a chat completion.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Completion, error)
}

// UsageLedger tracks speaking seconds per identity and day.
type UsageLedger interface {
	Today() string
	SecondsUsed(ctx context.Context, identity, date string) (int, error)
	AddSeconds(ctx context.Context, identity, clientAddr, date string, delta int) (int, error)
}

// EventPublisher emits finished turns.
type EventPublisher interface {
	PublishTurn(ctx context.Context, ev events.TurnEvent) error
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Sessions  *session.Manager
	Engine    *phase.Engine
	Overlay   *business.Overlay
	History   *conversations.MessagesManager
	Completer Completer
	STT       stt.Service
	TTS       tts.Service
	Ledger    UsageLedger
	Events    EventPublisher
	Metrics   *metrics.Metrics
	Quota     model.QuotaConfig
	Speech    model.SpeechConfig
}

type Orchestrator struct {
	Deps
	log zerolog.Logger
}

func New(deps Deps) *Orchestrator {
	if deps.Metrics == nil {
		deps.Metrics = metrics.DefaultMetrics
	}
	if deps.Quota.LimitMessage == "" {
		deps.Quota.LimitMessage = "I'm sorry, but you reached your 5-minute limit for today."
	}
	return &Orchestrator{Deps: deps, log: logx.WithComponent("orchestrator")}
}

// SessionKey keys the phase engine by the stable user identity when known,
// falling back to the network origin.
func SessionKey(userID, clientAddr string) string {
	if userID != "" {
		return userID
	}
	if clientAddr != "" {
		return "addr:" + clientAddr
	}
	return ""
}

// quotaIdentity is the usage ledger key: user identity, else network origin.
func quotaIdentity(userID, clientAddr string) string {
	if userID != "" {
		return userID
	}
	return clientAddr
}

// Turn answers one learner message.
func (o *Orchestrator) Turn(ctx context.Context, in model.TurnInput) (*model.TurnResult, error) {
	start := time.Now()
	if in.TurnID == "" {
		in.TurnID = uuid.NewString()
	}
	if in.SessionKey == "" {
		in.SessionKey = SessionKey(in.UserID, in.ClientAddr)
	}
	if in.SessionKey == "" {
		return nil, errx.BadRequest(errors.New("user id or client address is required"))
	}

	log := o.log.With().Str("turn_id", in.TurnID).Str("session_key", in.SessionKey).Logger()
	res := &model.TurnResult{TurnID: in.TurnID}
	var out outcome

	if mode, ok := o.Overlay.Active(ctx, in.UserID); ok {
		out = o.businessTurn(ctx, log, in, mode, res)
	} else {
		var err error
		out, err = o.guidedTurn(ctx, log, in, res)
		if err != nil {
			log.Error().Err(err).Msg("session update failed")
			return nil, err
		}
	}

	path := metrics.PathGuided
	switch {
	case res.QuotaExceeded:
		path = metrics.PathQuota
	case res.UsedBusinessMode:
		path = metrics.PathBusiness
	}
	if !res.QuotaExceeded {
		res.Audio = o.synthesize(ctx, log, res.Reply)
	}

	o.Metrics.RecordTurn(path, time.Since(start).Seconds())
	o.publish(ctx, log, in, res, out)

	log.Info().
		Str("path", path).
		Str("phase", res.Phase.String()).
		Str("mode", res.Mode.String()).
		Int("seconds_used", res.SecondsUsed).
		Dur("took", time.Since(start)).
		Msg("turn answered")
	return res, nil
}

// outcome carries per-turn facts that are not part of the reply.
type outcome struct {
	from     model.Phase
	modelErr error
}

// guidedTurn runs the phase engine path under the session lock. err reports
// session store failures only; a failed model call still advances the phase.
func (o *Orchestrator) guidedTurn(ctx context.Context, log zerolog.Logger, in model.TurnInput, res *model.TurnResult) (out outcome, err error) {
	err = o.Sessions.WithSession(ctx, in.SessionKey, func(ctx context.Context, s *session.Session) error {
		if s.UserID == "" && in.UserID != "" {
			s.UserID = in.UserID
		}
		if s.Name == "" && in.Name != "" {
			s.Name = in.Name
		}
		res.Phase = s.Phase
		out.from = s.Phase

		if o.quotaExceeded(ctx, log, quotaIdentity(s.UserID, in.ClientAddr), res) {
			return nil
		}

		d := normalPhase(s, o.Engine.Directive(s, in.Message))
		res.Directive = d.Text

		system, err := SystemPrompt(ctx, d, s.Name)
		if err != nil {
			return err
		}

		history, herr := o.History.BuildHistory(ctx, in.SessionKey, in.History)
		if herr != nil {
			log.Warn().Err(herr).Msg("failed to load history, continuing without it")
			history = nil
		}

		res.Reply, out.modelErr = o.complete(ctx, log, system, history, in.Message, res)

		from, to := o.Engine.Advance(s)
		res.Phase = to
		if from != to {
			o.Metrics.RecordPhaseTransition(from.String(), to.String())
		}

		if out.modelErr == nil {
			if serr := o.History.SaveTurn(ctx, in.SessionKey, in.Message, res.Reply); serr != nil {
				log.Warn().Err(serr).Msg("failed to save turn history")
			}
		}
		return nil
	})
	return out, err
}

// businessTurn answers inside a scenario. The session is neither locked nor
// advanced and no history is loaded or saved. Without a stored session the
// reported phase is warmup, where the guided cycle will start.
func (o *Orchestrator) businessTurn(ctx context.Context, log zerolog.Logger, in model.TurnInput, mode model.Mode, res *model.TurnResult) (out outcome) {
	res.UsedBusinessMode = true
	res.Mode = mode
	res.Phase = model.PhaseWarmup
	if s, err := o.Sessions.Peek(ctx, in.SessionKey); err == nil {
		res.Phase = s.Phase
	}
	out.from = res.Phase

	if o.quotaExceeded(ctx, log, quotaIdentity(in.UserID, in.ClientAddr), res) {
		return out
	}

	d := BusinessScenario{Mode: mode, AutoStart: business.IsStartSentinel(in.Message)}
	message := in.Message
	if d.AutoStart {
		message = business.OpeningMessage(mode)
	}

	text, err := Render(d)
	if err != nil {
		log.Error().Err(err).Str("mode", mode.String()).Msg("business directive failed")
		res.Reply = ModelFailureReply
		out.modelErr = err
		return out
	}
	res.Directive = text

	system, err := SystemPrompt(ctx, d, in.Name)
	if err != nil {
		res.Reply = ModelFailureReply
		out.modelErr = err
		return out
	}

	res.Reply, out.modelErr = o.complete(ctx, log, system, nil, message, res)
	return out
}

// quotaExceeded loads today's usage into res and reports whether the daily
// limit is reached. Ledger failures do not block the learner.
func (o *Orchestrator) quotaExceeded(ctx context.Context, log zerolog.Logger, identity string, res *model.TurnResult) bool {
	if o.Ledger == nil || identity == "" {
		return false
	}
	used, err := o.Ledger.SecondsUsed(ctx, identity, o.Ledger.Today())
	if err != nil {
		log.Warn().Err(err).Str("identity", identity).Msg("failed to read usage, skipping quota check")
		return false
	}
	res.SecondsUsed = used
	if o.Quota.DailySeconds > 0 && used >= o.Quota.DailySeconds {
		res.QuotaExceeded = true
		res.Reply = o.Quota.LimitMessage
		log.Info().Str("identity", identity).Int("seconds_used", used).Msg("daily quota reached")
		return true
	}
	return false
}

func (o *Orchestrator) complete(ctx context.Context, log zerolog.Logger, system string, history []*schema.Message, message string, res *model.TurnResult) (string, error) {
	out, err := o.Completer.Complete(ctx, llm.Request{System: system, History: history, Message: message})
	if err != nil {
		o.Metrics.RecordModelCall(err, 0, 0, 0)
		log.Error().Err(err).Msg("model call failed")
		return ModelFailureReply, err
	}
	o.Metrics.RecordModelCall(nil, out.PromptTokens, out.CompletionTokens, out.CostUSD)
	res.CostUSD = out.CostUSD
	return out.Content, nil
}

func (o *Orchestrator) synthesize(ctx context.Context, log zerolog.Logger, text string) []byte {
	if o.TTS == nil || text == "" {
		return nil
	}
	audio, err := o.TTS.Synthesize(ctx, text, tts.Config{Voice: o.Speech.TTSVoice, Model: o.Speech.TTSModel})
	if err != nil {
		o.Metrics.RecordSpeechError("tts")
		log.Warn().Err(err).Msg("speech synthesis failed, replying without audio")
		return nil
	}
	return audio
}

func (o *Orchestrator) publish(ctx context.Context, log zerolog.Logger, in model.TurnInput, res *model.TurnResult, out outcome) {
	if o.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := o.Events.PublishTurn(pubCtx, events.TurnEvent{
		TurnID:           in.TurnID,
		SessionKey:       in.SessionKey,
		UserID:           in.UserID,
		Phase:            out.from,
		NextPhase:        res.Phase,
		Mode:             res.Mode,
		UsedBusinessMode: res.UsedBusinessMode,
		QuotaExceeded:    res.QuotaExceeded,
		ModelFailed:      out.modelErr != nil,
		SecondsUsed:      res.SecondsUsed,
		CostUSD:          res.CostUSD,
		OccurredAt:       time.Now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to publish turn event")
	}
}

// AddTime adds spoken seconds to today's ledger for the user, or for the
// client address when the user is anonymous. It returns the new daily total.
func (o *Orchestrator) AddTime(ctx context.Context, userID, clientAddr string, seconds int) (int, error) {
	identity := quotaIdentity(userID, clientAddr)
	if identity == "" {
		return 0, errx.BadRequest(errors.New("user id or client address is required"))
	}
	if seconds < 0 {
		return 0, errx.BadRequest(errors.New("seconds must not be negative"))
	}
	if o.Ledger == nil {
		return 0, errx.New(errors.New("usage ledger not configured"), http.StatusServiceUnavailable, "usage ledger unavailable")
	}
	total, err := o.Ledger.AddSeconds(ctx, identity, clientAddr, o.Ledger.Today(), seconds)
	if err != nil {
		return 0, err
	}
	o.Metrics.RecordSecondsAdded(seconds)
	return total, nil
}

// Transcribe converts an upload into text. Failures yield an empty transcript.
func (o *Orchestrator) Transcribe(ctx context.Context, audio []byte, filename string) string {
	if o.STT == nil || len(audio) == 0 {
		return ""
	}
	text, err := o.STT.Transcribe(ctx, audio, stt.Config{
		Filename: filename,
		Language: o.Speech.STTLanguage,
		Model:    o.Speech.STTModel,
	})
	if err != nil {
		o.Metrics.RecordSpeechError("stt")
		o.log.Warn().Err(err).Str("provider", o.STT.Name()).Msg("transcription failed")
		return ""
	}
	return text
}

// SetPhase moves a session to an explicit phase, e.g. correction.
func (o *Orchestrator) SetPhase(ctx context.Context, sessionKey, raw string) (model.Phase, error) {
	p, err := model.ParsePhase(raw)
	if err != nil {
		return "", errx.BadRequest(err)
	}
	err = o.Sessions.WithSession(ctx, sessionKey, func(_ context.Context, s *session.Session) error {
		return o.Engine.SetPhase(s, p)
	})
	if err != nil {
		return "", err
	}
	return p, nil
}

// ResetSession drops the session and stored history of sessionKey so the next
// turn starts a fresh cycle.
func (o *Orchestrator) ResetSession(ctx context.Context, sessionKey string) error {
	if sessionKey == "" {
		return errx.BadRequest(errors.New("user id or client address is required"))
	}
	if err := o.Sessions.Reset(ctx, sessionKey); err != nil {
		return err
	}
	if err := o.History.Clear(ctx, sessionKey); err != nil {
		return err
	}
	o.log.Info().Str("session_key", sessionKey).Msg("session reset")
	return nil
}

// SetBusinessMode activates or clears ("exit") a scenario for userID.
func (o *Orchestrator) SetBusinessMode(ctx context.Context, userID, raw string) (model.Mode, bool, error) {
	if userID == "" {
		return "", false, errx.BadRequest(errors.New("userId is required"))
	}
	mode, active, err := o.Overlay.SetMode(ctx, userID, raw)
	if err != nil {
		if errors.Is(err, business.ErrInvalidMode) {
			return "", false, errx.BadRequest(err)
		}
		return "", false, err
	}
	o.Metrics.RecordBusinessMode(mode.String())
	return mode, active, nil
}

// BusinessMode reports the active scenario of userID.
func (o *Orchestrator) BusinessMode(ctx context.Context, userID string) (model.Mode, bool) {
	return o.Overlay.Active(ctx, userID)
}

// Modes lists the selectable scenarios.
func (o *Orchestrator) Modes() []model.Mode {
	return o.Overlay.Modes()
}
