package model

import "fmt"

// Phase is a stage of the guided-conversation cycle.
type Phase string

const (
	PhaseWarmup          Phase = "warmup"
	PhaseTopicIntro      Phase = "topic_intro"
	PhaseGuidedQuestions Phase = "guided_questions"
	// PhaseCorrection is never entered by normal advancement; callers set it explicitly.
	PhaseCorrection Phase = "correction"
	PhaseExpansion  Phase = "expansion"
	PhaseWrapup     Phase = "wrapup"
)

func (p Phase) String() string {
	return string(p)
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseWarmup, PhaseTopicIntro, PhaseGuidedQuestions, PhaseCorrection, PhaseExpansion, PhaseWrapup:
		return true
	}
	return false
}

// ParsePhase validates a raw phase name.
func ParsePhase(raw string) (Phase, error) {
	p := Phase(raw)
	if !p.Valid() {
		return "", fmt.Errorf("unknown phase %q", raw)
	}
	return p, nil
}
