// Package business implements the scenario overlay that replaces the guided
// curriculum while a learner practises a professional situation.
package business

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chative-tutor/server/internal/tutor/model"
	logx "github.com/chative-tutor/server/pkg/logger"
)

// StartSentinel is the control message a client sends to let the tutor open
// the scenario. It never reaches the model.
const StartSentinel = "start the interview"

// ErrInvalidMode is matched by every InvalidModeError.
var ErrInvalidMode = errors.New("invalid business mode")

// InvalidModeError reports a mode outside the enumerated scenario set.
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid business mode %q", e.Mode)
}

func (e *InvalidModeError) Unwrap() error {
	return ErrInvalidMode
}

// ParseMode validates a client supplied scenario name.
func ParseMode(raw string) (model.Mode, error) {
	m := model.Mode(model.NormalizeMode(raw))
	if !m.Valid() {
		return "", &InvalidModeError{Mode: raw}
	}
	return m, nil
}

type Overlay struct {
	store ModeStore
}

func NewOverlay(store ModeStore) *Overlay {
	return &Overlay{store: store}
}

// SetMode activates a scenario for userID, or clears it when raw is "exit".
// An invalid value leaves the stored mode untouched.
func (o *Overlay) SetMode(ctx context.Context, userID, raw string) (model.Mode, bool, error) {
	if userID == "" {
		return "", false, errors.New("user id is required")
	}
	if model.NormalizeMode(raw) == model.ModeExit {
		if err := o.store.Clear(ctx, userID); err != nil {
			return "", false, err
		}
		logx.Info().Str("user_id", userID).Msg("business mode cleared")
		return "", false, nil
	}

	mode, err := ParseMode(raw)
	if err != nil {
		logx.Warn().Str("user_id", userID).Str("mode", raw).Msg("rejected business mode")
		return "", false, err
	}
	if err := o.store.Set(ctx, userID, mode); err != nil {
		return "", false, err
	}
	logx.Info().Str("user_id", userID).Str("mode", mode.String()).Msg("business mode set")
	return mode, true, nil
}

// Active returns the scenario currently set for userID. Store failures are
// logged and treated as no active mode so the guided flow keeps working.
func (o *Overlay) Active(ctx context.Context, userID string) (model.Mode, bool) {
	if userID == "" {
		return "", false
	}
	mode, ok, err := o.store.Get(ctx, userID)
	if err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to read business mode")
		return "", false
	}
	if !ok || !mode.Valid() {
		return "", false
	}
	return mode, true
}

// Modes lists the scenarios a client may select.
func (o *Overlay) Modes() []model.Mode {
	return append([]model.Mode(nil), model.AllModes...)
}

// IsStartSentinel reports whether msg is the auto-start control message.
func IsStartSentinel(msg string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(msg), " "), StartSentinel)
}

// Instruction returns the persona block for mode. With autoStart the model is
// told to open the scenario itself.
func Instruction(mode model.Mode, autoStart bool) string {
	p, ok := personas[mode]
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(p.instructions)
	b.WriteString("\nRules:\n")
	b.WriteString("- Stay in character for the whole conversation.\n")
	b.WriteString("- Keep answers short (max 3 sentences) and always end with a question.\n")
	b.WriteString("- If the learner makes an important English mistake, add a one-line correction in brackets.")
	if autoStart {
		b.WriteString("\nStart the scenario now: introduce yourself, set the context in one sentence and ask your first question: ")
		b.WriteString(p.firstQuestion)
	}
	return b.String()
}

// OpeningMessage is sent to the model in place of the start sentinel.
func OpeningMessage(mode model.Mode) string {
	p, ok := personas[mode]
	if !ok {
		return "Please start."
	}
	return p.opening
}
