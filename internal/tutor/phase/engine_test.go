package phase

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/chative-tutor/server/internal/tutor/curriculum"
	"github.com/chative-tutor/server/internal/tutor/model"
	"github.com/chative-tutor/server/internal/tutor/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func script(questions, minQ, maxQ int) []byte {
	qs := make([]string, questions)
	for i := range qs {
		qs[i] = fmt.Sprintf(`{"q": "Question %d?"}`, i+1)
	}
	return []byte(fmt.Sprintf(`{
  "flow": {"rotation": {"avoid_repeating_last_topic": true}},
  "phases": {
    "guided_questions": {"min_questions": %d, "max_questions": %d},
    "expansion": {"rules": {"max_questions": 2}}
  },
  "prompts": {
    "warmup": "Warm up.",
    "topic_intro": "Introduce.",
    "guided_question": "Ask.",
    "correction": "Correct.",
    "expansion": "Go deeper.",
    "wrapup": "Wrap up."
  },
  "topics": {
    "music": {
      "intro": "Music",
      "expansion": ["Why music?", "Second"],
      "rotation": {"subtopics": ["concerts"]},
      "subtopics": {"concerts": {"questions": [%s]}}
    },
    "films": {
      "intro": "Films",
      "rotation": {"subtopics": ["cinema"]},
      "subtopics": {"cinema": {"questions": [{"q": "Last film?"}]}}
    }
  }
}`, minQ, maxQ, strings.Join(qs, ",")))
}

func newEngine(t *testing.T, raw []byte) *Engine {
	t.Helper()
	cur, err := curriculum.Parse(raw, "json")
	require.NoError(t, err)
	mgr := session.NewManager(session.NewMemoryStore(10, time.Minute), curriculum.NewPicker(cur, rand.New(rand.NewPCG(1, 1))))
	return NewEngine(cur, mgr)
}

func guidedSession() *session.Session {
	return &session.Session{Key: "k", Phase: model.PhaseTopicIntro, Topic: "music", Subtopic: "concerts", Cycle: 1}
}

func TestGuidedExhaustsQuestionsAfterMinimum(t *testing.T) {
	e := newEngine(t, script(4, 3, 6))
	s := guidedSession()

	e.Advance(s)
	require.Equal(t, model.PhaseGuidedQuestions, s.Phase)

	for i := 0; i < 3; i++ {
		e.Advance(s)
		assert.Equal(t, model.PhaseGuidedQuestions, s.Phase)
	}
	e.Advance(s)
	assert.Equal(t, model.PhaseExpansion, s.Phase)
	assert.Equal(t, 4, s.GuidedCount)
	assert.Zero(t, s.ExpansionCount)
}

func TestGuidedStopsAtMaximum(t *testing.T) {
	e := newEngine(t, script(10, 1, 2))
	s := guidedSession()

	e.Advance(s)
	e.Advance(s)
	assert.Equal(t, model.PhaseGuidedQuestions, s.Phase)
	e.Advance(s)
	assert.Equal(t, model.PhaseExpansion, s.Phase)
	assert.Equal(t, 2, s.GuidedCount)
}

func TestGuidedWaitsForMinimumWhenQuestionsRunOut(t *testing.T) {
	e := newEngine(t, script(1, 3, 6))
	s := guidedSession()
	e.Advance(s)

	e.Advance(s)
	e.Advance(s)
	assert.Equal(t, model.PhaseGuidedQuestions, s.Phase)
	e.Advance(s)
	assert.Equal(t, model.PhaseExpansion, s.Phase)
}

func TestFullCycle(t *testing.T) {
	e := newEngine(t, script(3, 3, 6))
	s := &session.Session{Key: "k", Phase: model.PhaseWarmup, Topic: "music", Subtopic: "concerts", UserID: "u1", Name: "Ana", Cycle: 1}

	var seen []model.Phase
	for i := 0; i < 8; i++ {
		seen = append(seen, s.Phase)
		e.Advance(s)
	}

	assert.Equal(t, []model.Phase{
		model.PhaseWarmup,
		model.PhaseTopicIntro,
		model.PhaseGuidedQuestions,
		model.PhaseGuidedQuestions,
		model.PhaseGuidedQuestions,
		model.PhaseExpansion,
		model.PhaseExpansion,
		model.PhaseWrapup,
	}, seen)

	assert.Equal(t, model.PhaseWarmup, s.Phase)
	assert.Equal(t, "films", s.Topic, "new cycle avoids the previous topic")
	assert.Equal(t, "cinema", s.Subtopic)
	assert.Equal(t, 2, s.Cycle)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "Ana", s.Name)
	assert.Zero(t, s.GuidedCount)
}

func TestAdvanceReportsTransition(t *testing.T) {
	e := newEngine(t, script(3, 3, 6))
	s := &session.Session{Key: "k", Phase: model.PhaseWarmup}

	from, to := e.Advance(s)
	assert.Equal(t, model.PhaseWarmup, from)
	assert.Equal(t, model.PhaseTopicIntro, to)
}

func TestCorrectionReturnsToGuided(t *testing.T) {
	e := newEngine(t, script(6, 3, 6))
	s := guidedSession()
	e.Advance(s)
	e.Advance(s)

	require.NoError(t, e.SetPhase(s, model.PhaseCorrection))
	assert.Equal(t, `Correct. Student said: "I goed home"`, e.Directive(s, "I goed home"))

	e.Advance(s)
	assert.Equal(t, model.PhaseGuidedQuestions, s.Phase)
	assert.Equal(t, 1, s.GuidedCount)
	assert.Equal(t, 1, s.QuestionIndex)
}

func TestSetPhaseRejectsUnknown(t *testing.T) {
	e := newEngine(t, script(3, 3, 6))
	s := guidedSession()
	assert.Error(t, e.SetPhase(s, model.Phase("nap")))
	assert.Equal(t, model.PhaseTopicIntro, s.Phase)
}

func TestDirectives(t *testing.T) {
	e := newEngine(t, script(2, 3, 6))
	s := guidedSession()

	s.Phase = model.PhaseWarmup
	assert.Equal(t, "Warm up.", e.Directive(s, ""))

	s.Phase = model.PhaseTopicIntro
	assert.Equal(t, `Introduce. Topic: "Music"`, e.Directive(s, ""))

	s.Phase = model.PhaseGuidedQuestions
	s.QuestionIndex = 1
	assert.Equal(t, `Ask. Use this idea: "Question 2?"`, e.Directive(s, ""))

	s.QuestionIndex = 5
	assert.Equal(t, `Ask. Use this idea: "Question 1?"`, e.Directive(s, ""), "out of range falls back to the first question")

	s.Phase = model.PhaseExpansion
	assert.Equal(t, `Go deeper. For example: "Why music?"`, e.Directive(s, ""))

	s.Phase = model.PhaseWrapup
	assert.Equal(t, "Wrap up.", e.Directive(s, ""))
}

func TestDirectiveFallbacks(t *testing.T) {
	e := newEngine(t, []byte(`{
  "phases": {"guided_questions": {}},
  "topics": {"empty": {"subtopics": {"none": {"questions": []}}}}
}`))
	s := &session.Session{Key: "k", Topic: "empty", Subtopic: "none"}

	s.Phase = model.PhaseWarmup
	assert.Equal(t, "Ask a simple warm-up question.", e.Directive(s, ""))

	s.Phase = model.PhaseTopicIntro
	assert.Equal(t, `Introduce the topic naturally. Topic: ""`, e.Directive(s, ""))

	s.Phase = model.PhaseGuidedQuestions
	assert.Equal(t, `Ask an open-ended question. Use this idea: "Ask an open-ended question."`, e.Directive(s, ""))

	s.Phase = model.PhaseExpansion
	assert.Equal(t, `Ask a deeper follow-up question. For example: "Ask a deeper follow-up question."`, e.Directive(s, ""))

	s.Phase = model.PhaseWrapup
	assert.Equal(t, "Give positive feedback and summarize.", e.Directive(s, ""))
}

func TestDirectiveWithoutPhases(t *testing.T) {
	e := newEngine(t, []byte(`{"topics": {}}`))
	s := &session.Session{Key: "k", Phase: model.PhaseExpansion}
	assert.Equal(t, GenericDirective, e.Directive(s, "hi"))
}
