package mind

import (
	"sync"
	"time"
)

// ThoughtPool is the bounded set of not-yet-spoken thoughts for one context.
// Members are always Pending or Reserved; a thought leaves the pool the
// moment it transitions to Spoken, Discarded or Expired.
type ThoughtPool struct {
	mu       sync.Mutex
	capacity int
	thoughts []*Thought
}

func NewThoughtPool(capacity int) *ThoughtPool {
	if capacity <= 0 {
		capacity = DefaultParams().PoolCapacity
	}
	return &ThoughtPool{capacity: capacity}
}

// Insert adds t. When the pool is full the member with the lowest score is
// evicted first (oldest CreatedAt wins ties) and returned with status
// Discarded. Re-inserting an existing member updates it in place.
func (p *ThoughtPool) Insert(t *Thought) *Thought {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.removeLocked(t.ID)

	var evicted *Thought
	if len(p.thoughts) >= p.capacity {
		idx := 0
		for i := 1; i < len(p.thoughts); i++ {
			c, low := p.thoughts[i], p.thoughts[idx]
			if c.Score < low.Score || (c.Score == low.Score && c.CreatedAt.Before(low.CreatedAt)) {
				idx = i
			}
		}
		evicted = p.thoughts[idx]
		evicted.Status = ThoughtDiscarded
		p.thoughts = append(p.thoughts[:idx], p.thoughts[idx+1:]...)
	}
	p.thoughts = append(p.thoughts, t)
	return evicted
}

// Remove deletes the thought with the given id. Returns true when found.
func (p *ThoughtPool) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeLocked(id)
}

func (p *ThoughtPool) removeLocked(id string) bool {
	for i, t := range p.thoughts {
		if t.ID == id {
			p.thoughts = append(p.thoughts[:i], p.thoughts[i+1:]...)
			return true
		}
	}
	return false
}

// SweepExpired removes and returns every member whose ExpiresAt has passed,
// marking each Expired. A zero ExpiresAt never expires.
func (p *ThoughtPool) SweepExpired(now time.Time) []*Thought {
	p.mu.Lock()
	defer p.mu.Unlock()

	var expired []*Thought
	kept := p.thoughts[:0]
	for _, t := range p.thoughts {
		if !t.ExpiresAt.IsZero() && !t.ExpiresAt.After(now) {
			t.Status = ThoughtExpired
			expired = append(expired, t)
			continue
		}
		kept = append(kept, t)
	}
	p.thoughts = kept
	return expired
}

// HighestReserved returns the reserved member with the highest score that
// has not expired at now, or nil.
func (p *ThoughtPool) HighestReserved(now time.Time) *Thought {
	p.mu.Lock()
	defer p.mu.Unlock()

	var best *Thought
	for _, t := range p.thoughts {
		if t.Status != ThoughtReserved {
			continue
		}
		if !t.ExpiresAt.IsZero() && !t.ExpiresAt.After(now) {
			continue
		}
		if best == nil || t.Score > best.Score {
			best = t
		}
	}
	return best
}

func (p *ThoughtPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.thoughts)
}

// Pending returns copies of all members, for prompt context.
func (p *ThoughtPool) Pending() []Thought {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Thought, len(p.thoughts))
	for i, t := range p.thoughts {
		out[i] = *t
	}
	return out
}
