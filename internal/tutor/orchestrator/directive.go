package orchestrator

import (
	"fmt"

	"github.com/chative-tutor/server/internal/tutor/business"
	"github.com/chative-tutor/server/internal/tutor/model"
	"github.com/chative-tutor/server/internal/tutor/session"
)

// Directive is the instruction source of a turn: either the guided phase
// engine or a business scenario. The set of variants is closed.
type Directive interface {
	isDirective()
}

// NormalPhase is a directive produced by the phase engine.
type NormalPhase struct {
	Phase          model.Phase
	QuestionIndex  int
	GuidedCount    int
	ExpansionCount int
	Text           string
}

// BusinessScenario is a directive produced by the business-mode overlay.
type BusinessScenario struct {
	Mode      model.Mode
	AutoStart bool
}

func (NormalPhase) isDirective()      {}
func (BusinessScenario) isDirective() {}

func normalPhase(s *session.Session, text string) NormalPhase {
	return NormalPhase{
		Phase:          s.Phase,
		QuestionIndex:  s.QuestionIndex,
		GuidedCount:    s.GuidedCount,
		ExpansionCount: s.ExpansionCount,
		Text:           text,
	}
}

// Render returns the instruction text of d. A scenario without persona text
// is an error rather than an empty instruction.
func Render(d Directive) (string, error) {
	switch d := d.(type) {
	case NormalPhase:
		return d.Text, nil
	case BusinessScenario:
		text := business.Instruction(d.Mode, d.AutoStart)
		if text == "" {
			return "", &business.InvalidModeError{Mode: string(d.Mode)}
		}
		return text, nil
	default:
		return "", fmt.Errorf("unknown directive %T", d)
	}
}
