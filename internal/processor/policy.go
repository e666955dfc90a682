package processor

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/OpenNSW/customs/internal/declaration"
)

// SelectionPolicy picks the office a pending declaration is sent to. ids is never
// empty and is sorted, so a policy seeded the same way picks the same offices.
type SelectionPolicy interface {
	Select(ids []uuid.UUID, p declaration.Pending) (uuid.UUID, error)
}

// RandomPolicy picks uniformly among connected offices, ignoring declaration content.
type RandomPolicy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomPolicy) Select(ids []uuid.UUID, _ declaration.Pending) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ids[r.rng.Intn(len(ids))], nil
}

// PolicyFunc adapts a function to SelectionPolicy.
type PolicyFunc func(ids []uuid.UUID, p declaration.Pending) (uuid.UUID, error)

func (f PolicyFunc) Select(ids []uuid.UUID, p declaration.Pending) (uuid.UUID, error) {
	return f(ids, p)
}
