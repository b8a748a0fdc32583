package curriculum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonScript = `{
  "flow": {"rotation": {"avoid_repeating_last_topic": true}},
  "phases": {
    "guided_questions": {"min_questions": 2, "max_questions": 4},
    "expansion": {"rules": {"max_questions": 3}}
  },
  "prompts": {"warmup": "Say hi."},
  "topics": {
    "music": {
      "intro": "Music",
      "expansion": ["Why do people love music?"],
      "rotation": {"subtopics": ["concerts"]},
      "subtopics": {"concerts": {"questions": [{"q": "Last concert?"}, {"q": "Favourite band?"}]}}
    }
  }
}`

func TestDefaultCurriculum(t *testing.T) {
	cur, err := Default()
	require.NoError(t, err)

	assert.True(t, cur.HasPhases())
	assert.Equal(t, []string{"food", "technology", "travel", "work"}, cur.TopicKeys())
	assert.True(t, cur.AvoidRepeatingTopic())

	minQ, maxQ := cur.GuidedLimits()
	assert.Equal(t, 3, minQ)
	assert.Equal(t, 6, maxQ)
	assert.Equal(t, 2, cur.MaxExpansion())

	topic, ok := cur.Topic("travel")
	require.True(t, ok)
	assert.Equal(t, "Travelling and holidays", topic.Intro)
	assert.Len(t, cur.Questions("travel", "past_trips"), 4)
	assert.NotEmpty(t, cur.Prompt(PromptGuidedQuestion, ""))
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonScript), 0o600))

	cur, err := Load(path)
	require.NoError(t, err)

	minQ, maxQ := cur.GuidedLimits()
	assert.Equal(t, 2, minQ)
	assert.Equal(t, 4, maxQ)
	assert.Equal(t, 3, cur.MaxExpansion())
	assert.Equal(t, "Say hi.", cur.Prompt(PromptWarmup, "fallback"))
	assert.Equal(t, "fallback", cur.Prompt(PromptWrapup, "fallback"))
	assert.Equal(t, []string{"concerts"}, cur.SubtopicCandidates("music"))
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestAccessorsDoNotLeakInternalState(t *testing.T) {
	cur, err := Parse([]byte(jsonScript), "json")
	require.NoError(t, err)

	keys := cur.TopicKeys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"music"}, cur.TopicKeys())

	qs := cur.Questions("music", "concerts")
	qs[0].Q = "mutated"
	assert.Equal(t, "Last concert?", cur.Questions("music", "concerts")[0].Q)

	topic, _ := cur.Topic("music")
	topic.Expansion[0] = "mutated"
	again, _ := cur.Topic("music")
	assert.Equal(t, "Why do people love music?", again.Expansion[0])
}

func TestSubtopicCandidatesFallBackToKeys(t *testing.T) {
	cur, err := Parse([]byte(`
topics:
  sport:
    subtopics:
      tennis: {questions: [{q: a}]}
      football: {questions: [{q: b}]}
`), "yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{"football", "tennis"}, cur.SubtopicCandidates("sport"))
	assert.False(t, cur.HasPhases())
	assert.Nil(t, cur.SubtopicCandidates("unknown"))
}

func TestNilCurriculumDefaults(t *testing.T) {
	var cur *Curriculum
	minQ, maxQ := cur.GuidedLimits()
	assert.Equal(t, DefaultMinQuestions, minQ)
	assert.Equal(t, DefaultMaxQuestions, maxQ)
	assert.Equal(t, DefaultMaxExpansion, cur.MaxExpansion())
	assert.False(t, cur.HasPhases())
	assert.Empty(t, cur.TopicKeys())
}
