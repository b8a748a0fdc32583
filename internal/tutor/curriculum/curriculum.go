// Package curriculum holds the pedagogical script: topics, subtopics with their
// guided questions, per-phase prompt templates and rotation rules. A Curriculum
// is loaded once at startup and only exposes read accessors afterwards.
package curriculum

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/script_b1_b2.yaml
var defaultScript []byte

const (
	DefaultMinQuestions = 3
	DefaultMaxQuestions = 6
	DefaultMaxExpansion = 2
)

// Prompt keys as they appear in the script file.
const (
	PromptWarmup         = "warmup"
	PromptTopicIntro     = "topic_intro"
	PromptGuidedQuestion = "guided_question"
	PromptCorrection     = "correction"
	PromptExpansion      = "expansion"
	PromptWrapup         = "wrapup"
)

type Question struct {
	Q string `json:"q" yaml:"q"`
}

type Subtopic struct {
	Questions []Question `json:"questions" yaml:"questions"`
}

type TopicRotation struct {
	Subtopics                  []string `json:"subtopics" yaml:"subtopics"`
	AvoidRepeatingLastSubtopic bool     `json:"avoid_repeating_last_subtopic" yaml:"avoid_repeating_last_subtopic"`
}

type Topic struct {
	Intro     string              `json:"intro" yaml:"intro"`
	Expansion []string            `json:"expansion" yaml:"expansion"`
	Rotation  TopicRotation       `json:"rotation" yaml:"rotation"`
	Subtopics map[string]Subtopic `json:"subtopics" yaml:"subtopics"`
}

type PhaseRules struct {
	MinQuestions int `json:"min_questions" yaml:"min_questions"`
	MaxQuestions int `json:"max_questions" yaml:"max_questions"`
	Rules        struct {
		MaxQuestions int `json:"max_questions" yaml:"max_questions"`
	} `json:"rules" yaml:"rules"`
}

type Rotation struct {
	AvoidRepeatingLastTopic    bool `json:"avoid_repeating_last_topic" yaml:"avoid_repeating_last_topic"`
	AvoidRepeatingLastSubtopic bool `json:"avoid_repeating_last_subtopic" yaml:"avoid_repeating_last_subtopic"`
}

type document struct {
	Topics  map[string]Topic      `json:"topics" yaml:"topics"`
	Phases  map[string]PhaseRules `json:"phases" yaml:"phases"`
	Prompts map[string]string     `json:"prompts" yaml:"prompts"`
	Flow    struct {
		Rotation Rotation `json:"rotation" yaml:"rotation"`
	} `json:"flow" yaml:"flow"`
}

// Curriculum is the immutable, loaded-once script.
type Curriculum struct {
	doc       document
	topicKeys []string
}

// Default returns the embedded B1/B2 curriculum.
func Default() (*Curriculum, error) {
	return Parse(defaultScript, "yaml")
}

// Load reads a curriculum from path; the extension selects JSON or YAML.
// An empty path loads the embedded default.
func Load(path string) (*Curriculum, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curriculum: %w", err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return Parse(raw, format)
}

// Parse decodes a curriculum document. format is "json", "yaml" or "yml".
func Parse(raw []byte, format string) (*Curriculum, error) {
	var doc document
	switch format {
	case "json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode curriculum json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode curriculum yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported curriculum format %q", format)
	}
	return newCurriculum(doc), nil
}

func newCurriculum(doc document) *Curriculum {
	keys := make([]string, 0, len(doc.Topics))
	for k := range doc.Topics {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return &Curriculum{doc: doc, topicKeys: keys}
}

// HasPhases reports whether the script defines phase rules. Without them the
// phase engine only produces its generic fallback directive.
func (c *Curriculum) HasPhases() bool {
	return c != nil && len(c.doc.Phases) > 0
}

// TopicKeys returns the topic keys in sorted order.
func (c *Curriculum) TopicKeys() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.topicKeys)
}

// Topic returns a copy of the topic definition.
func (c *Curriculum) Topic(key string) (Topic, bool) {
	if c == nil {
		return Topic{}, false
	}
	t, ok := c.doc.Topics[key]
	if !ok {
		return Topic{}, false
	}
	t.Expansion = slices.Clone(t.Expansion)
	t.Rotation.Subtopics = slices.Clone(t.Rotation.Subtopics)
	t.Subtopics = nil
	return t, true
}

// Questions returns the guided questions of a subtopic.
func (c *Curriculum) Questions(topicKey, subtopicKey string) []Question {
	if c == nil {
		return nil
	}
	t, ok := c.doc.Topics[topicKey]
	if !ok {
		return nil
	}
	return slices.Clone(t.Subtopics[subtopicKey].Questions)
}

// SubtopicCandidates returns the rotation list of a topic, or its subtopic
// keys in sorted order when no rotation list is defined.
func (c *Curriculum) SubtopicCandidates(topicKey string) []string {
	if c == nil {
		return nil
	}
	t, ok := c.doc.Topics[topicKey]
	if !ok {
		return nil
	}
	if len(t.Rotation.Subtopics) > 0 {
		return slices.Clone(t.Rotation.Subtopics)
	}
	keys := make([]string, 0, len(t.Subtopics))
	for k := range t.Subtopics {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// AvoidRepeatingTopic is the global flow.rotation flag.
func (c *Curriculum) AvoidRepeatingTopic() bool {
	return c != nil && c.doc.Flow.Rotation.AvoidRepeatingLastTopic
}

// AvoidRepeatingSubtopic combines the topic level and the global flag.
func (c *Curriculum) AvoidRepeatingSubtopic(topicKey string) bool {
	if c == nil {
		return false
	}
	return c.doc.Topics[topicKey].Rotation.AvoidRepeatingLastSubtopic || c.doc.Flow.Rotation.AvoidRepeatingLastSubtopic
}

// Prompt returns the template for a phase, or fallback when it is unset.
func (c *Curriculum) Prompt(key, fallback string) string {
	if c == nil {
		return fallback
	}
	if p := c.doc.Prompts[key]; p != "" {
		return p
	}
	return fallback
}

// GuidedLimits returns the min/max guided question thresholds. Zero values
// fall back to the defaults.
func (c *Curriculum) GuidedLimits() (minQ, maxQ int) {
	minQ, maxQ = DefaultMinQuestions, DefaultMaxQuestions
	if c == nil {
		return
	}
	rules := c.doc.Phases["guided_questions"]
	if rules.MinQuestions > 0 {
		minQ = rules.MinQuestions
	}
	if rules.MaxQuestions > 0 {
		maxQ = rules.MaxQuestions
	}
	return
}

// MaxExpansion returns the number of expansion turns before wrapup.
func (c *Curriculum) MaxExpansion() int {
	if c == nil {
		return DefaultMaxExpansion
	}
	rules := c.doc.Phases["expansion"]
	if rules.Rules.MaxQuestions > 0 {
		return rules.Rules.MaxQuestions
	}
	if rules.MaxQuestions > 0 {
		return rules.MaxQuestions
	}
	return DefaultMaxExpansion
}
