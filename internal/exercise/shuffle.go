// Package exercise holds the categorization exercise state machine: the
// presentation shuffle, bucket derivation, the drag/move coordinator and the
// session that reconciles local state with the authoritative store.
package exercise

import (
	"math/rand/v2"

	"github.com/mind-engage/mindengage-quiz/internal/question"
)

// Shuffle returns a new slice with the same items in uniformly random order.
// The argument is never reordered. rng may be nil, in which case the global
// source is used.
//
// Rand.Shuffle is Fisher-Yates walking from the last index down to 1 and
// drawing j from [0, i] at each step.
func Shuffle(items []question.Item, rng *rand.Rand) []question.Item {
	out := make([]question.Item, len(items))
	copy(out, items)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if rng == nil {
		rand.Shuffle(len(out), swap)
	} else {
		rng.Shuffle(len(out), swap)
	}
	return out
}
