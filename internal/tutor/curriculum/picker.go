package curriculum

import (
	"math/rand/v2"
	"slices"
	"sync"
)

// Picker selects the topic and subtopic of a new cycle, avoiding an immediate
// repeat of the previous selection when the curriculum asks for it.
type Picker struct {
	cur *Curriculum

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker builds a picker over cur. A nil rng is replaced by a randomly
// seeded PCG source.
func NewPicker(cur *Curriculum, rng *rand.Rand) *Picker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Picker{cur: cur, rng: rng}
}

// PickTopic returns a random topic key. ok is false when the curriculum has no topics.
func (p *Picker) PickTopic(previous string) (string, bool) {
	return p.pick(p.cur.TopicKeys(), previous, p.cur.AvoidRepeatingTopic())
}

// PickSubtopic returns a random subtopic of topicKey. ok is false when the
// topic is unknown or has no subtopics.
func (p *Picker) PickSubtopic(topicKey, previous string) (string, bool) {
	if topicKey == "" {
		return "", false
	}
	return p.pick(p.cur.SubtopicCandidates(topicKey), previous, p.cur.AvoidRepeatingSubtopic(topicKey))
}

func (p *Picker) pick(all []string, previous string, avoid bool) (string, bool) {
	if len(all) == 0 {
		return "", false
	}
	candidates := all
	if avoid && previous != "" && len(all) > 1 {
		candidates = slices.DeleteFunc(slices.Clone(all), func(k string) bool { return k == previous })
		if len(candidates) == 0 {
			candidates = all
		}
	}

	p.mu.Lock()
	i := p.rng.IntN(len(candidates))
	p.mu.Unlock()
	return candidates[i], true
}
