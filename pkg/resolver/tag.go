package resolver

import "math/rand/v2"

// Group tags are drawn from [MinTag, MaxTag].
const (
	MinTag = 1111
	MaxTag = 9999
)

const tagSpan = MaxTag - MinTag + 1

func randomTag() int {
	return MinTag + rand.IntN(tagSpan)
}

// tagger hands out group tags, avoiding tags already used in this run while
// unused ones remain.
type tagger struct {
	draw func() int
	used map[int]bool
}

func newTagger(draw func() int) *tagger {
	if draw == nil {
		draw = randomTag
	}
	return &tagger{draw: draw, used: make(map[int]bool)}
}

func (t *tagger) next() int {
	tag := t.draw()
	for attempt := 0; t.used[tag] && attempt < tagSpan && len(t.used) < tagSpan; attempt++ {
		tag = t.draw()
	}
	t.used[tag] = true
	return tag
}
