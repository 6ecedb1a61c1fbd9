// Package queue builds randomized practice queues.
package queue

import (
	"errors"
	"math/rand"
	"time"

	"github.com/verte-zerg/dictype/internal/model"
)

// ErrScopeMisuse is returned when the wrong scope is requested for a normal library.
var ErrScopeMisuse = errors.New("wrong scope requires the wrong-item collection")

// Shuffler produces uniform permutations and random positions.
type Shuffler struct {
	rnd *rand.Rand
}

// New returns a Shuffler seeded with the current time.
func New() *Shuffler {
	return &Shuffler{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewWithSeed returns a deterministic Shuffler.
func NewWithSeed(seed int64) *Shuffler {
	return &Shuffler{rnd: rand.New(rand.NewSource(seed))}
}

// Intn returns a uniform integer in [0, n).
func (s *Shuffler) Intn(n int) int {
	return s.rnd.Intn(n)
}

// Shuffle returns a uniformly permuted copy of items.
func (s *Shuffler) Shuffle(items []model.Item) []model.Item {
	out := append([]model.Item(nil), items...)
	for i := len(out) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Build returns the shuffled queue for lib. The library scope only practices
// sentences; the wrong scope takes every entry of the wrong-item collection.
func (s *Shuffler) Build(lib model.Library, scope model.PracticeScope) ([]model.Item, error) {
	switch scope {
	case model.ScopeWrong:
		if !lib.IsWrongLibrary() {
			return nil, ErrScopeMisuse
		}
		return s.Shuffle(lib.Items), nil
	default:
		sentences := make([]model.Item, 0, len(lib.Items))
		for _, it := range lib.Items {
			if it.Type == model.ItemSentence {
				sentences = append(sentences, it)
			}
		}
		return s.Shuffle(sentences), nil
	}
}

// ReinsertPosition picks where an item answered at index goes back into a
// queue of length n: uniformly among positions index+1..n, where n appends.
func (s *Shuffler) ReinsertPosition(index, n int) int {
	lo := index + 1
	if lo >= n {
		return n
	}
	return lo + s.rnd.Intn(n-lo+1)
}

// Insert returns queue with item placed at pos.
func Insert(queue []model.Item, pos int, item model.Item) []model.Item {
	if pos < 0 {
		pos = 0
	}
	if pos >= len(queue) {
		return append(queue, item)
	}
	queue = append(queue, model.Item{})
	copy(queue[pos+1:], queue[pos:])
	queue[pos] = item
	return queue
}
