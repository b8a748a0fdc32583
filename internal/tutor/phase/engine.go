// Package phase drives a session through the guided-conversation cycle:
// warmup, topic intro, guided questions, expansion and wrapup.
package phase

import (
	"fmt"

	"github.com/chative-tutor/server/internal/tutor/curriculum"
	"github.com/chative-tutor/server/internal/tutor/model"
	"github.com/chative-tutor/server/internal/tutor/session"
	logx "github.com/chative-tutor/server/pkg/logger"
)

// GenericDirective is used when the curriculum defines no phases.
const GenericDirective = "Continue the conversation in a simple, friendly way."

const (
	fallbackWarmup     = "Ask a simple warm-up question."
	fallbackTopicIntro = "Introduce the topic naturally."
	fallbackGuided     = "Ask an open-ended question."
	fallbackCorrection = "Correct the student's message briefly."
	fallbackExpansion  = "Ask a deeper follow-up question."
	fallbackWrapup     = "Give positive feedback and summarize."
	fallbackUnknown    = "Continue the conversation naturally."
)

// Cycler starts a new cycle after wrapup.
type Cycler interface {
	NewCycle(key string, prev *session.Session) *session.Session
}

type Engine struct {
	cur    *curriculum.Curriculum
	cycler Cycler
}

func NewEngine(cur *curriculum.Curriculum, cycler Cycler) *Engine {
	return &Engine{cur: cur, cycler: cycler}
}

// Directive returns the instruction for the session's current phase.
// lastUserMessage is only quoted by the correction phase.
func (e *Engine) Directive(s *session.Session, lastUserMessage string) string {
	if !e.cur.HasPhases() {
		return GenericDirective
	}

	switch s.Phase {
	case model.PhaseWarmup:
		return e.cur.Prompt(curriculum.PromptWarmup, fallbackWarmup)

	case model.PhaseTopicIntro:
		topic, _ := e.cur.Topic(s.Topic)
		base := e.cur.Prompt(curriculum.PromptTopicIntro, fallbackTopicIntro)
		return fmt.Sprintf("%s Topic: \"%s\"", base, topic.Intro)

	case model.PhaseGuidedQuestions:
		questions := e.cur.Questions(s.Topic, s.Subtopic)
		q := fallbackGuided
		switch {
		case s.QuestionIndex >= 0 && s.QuestionIndex < len(questions) && questions[s.QuestionIndex].Q != "":
			q = questions[s.QuestionIndex].Q
		case len(questions) > 0 && questions[0].Q != "":
			q = questions[0].Q
		}
		base := e.cur.Prompt(curriculum.PromptGuidedQuestion, fallbackGuided)
		return fmt.Sprintf("%s Use this idea: \"%s\"", base, q)

	case model.PhaseCorrection:
		base := e.cur.Prompt(curriculum.PromptCorrection, fallbackCorrection)
		return fmt.Sprintf("%s Student said: \"%s\"", base, lastUserMessage)

	case model.PhaseExpansion:
		topic, _ := e.cur.Topic(s.Topic)
		example := fallbackExpansion
		if len(topic.Expansion) > 0 && topic.Expansion[0] != "" {
			example = topic.Expansion[0]
		}
		base := e.cur.Prompt(curriculum.PromptExpansion, fallbackExpansion)
		return fmt.Sprintf("%s For example: \"%s\"", base, example)

	case model.PhaseWrapup:
		return e.cur.Prompt(curriculum.PromptWrapup, fallbackWrapup)
	}
	return fallbackUnknown
}

// Advance moves s to its next phase after a completed turn and reports the
// transition. Wrapup replaces s with a fresh cycle.
func (e *Engine) Advance(s *session.Session) (from, to model.Phase) {
	from = s.Phase

	switch s.Phase {
	case model.PhaseWarmup:
		s.Phase = model.PhaseTopicIntro

	case model.PhaseTopicIntro:
		s.Phase = model.PhaseGuidedQuestions
		s.GuidedCount = 0
		s.QuestionIndex = 0

	case model.PhaseGuidedQuestions:
		s.GuidedCount++
		s.QuestionIndex++
		total := len(e.cur.Questions(s.Topic, s.Subtopic))
		minQ, maxQ := e.cur.GuidedLimits()

		enough := s.GuidedCount >= minQ
		exhausted := s.QuestionIndex >= total
		maxed := s.GuidedCount >= maxQ
		if maxed || (enough && exhausted) {
			s.Phase = model.PhaseExpansion
			s.ExpansionCount = 0
		}

	case model.PhaseCorrection:
		s.Phase = model.PhaseGuidedQuestions

	case model.PhaseExpansion:
		s.ExpansionCount++
		if s.ExpansionCount >= e.cur.MaxExpansion() {
			s.Phase = model.PhaseWrapup
		}

	case model.PhaseWrapup:
		s.Replace(e.cycler.NewCycle(s.Key, s))
	}

	to = s.Phase
	if from != to {
		logx.Debug().
			Str("session_key", s.Key).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("phase advanced")
	}
	return from, to
}

// SetPhase moves s to an explicit phase, for instance to request a correction.
func (e *Engine) SetPhase(s *session.Session, p model.Phase) error {
	if !p.Valid() {
		return fmt.Errorf("unknown phase %q", p)
	}
	s.Phase = p
	return nil
}
