package mind

import (
	"log"
	"strings"
	"sync"
	"time"
)

// FactStore persists long-term user facts. Implemented by internal/storage;
// may be nil when no store is configured.
type FactStore interface {
	FactsFor(userID string) ([]Fact, error)
	SaveFacts(userID string, facts []Fact) error
}

// MemoryContext is the read-only composition handed to thought formation and
// motivation evaluation. Degraded is set when the long-term store failed and
// only short-term turns are present.
type MemoryContext struct {
	Turns    []Turn
	Facts    []Fact
	Degraded bool
}

// MemoryManager owns the per-context short-term ring and mediates long-term
// fact access. Upserts for the same user are serialized with a per-user lock
// so concurrent contexts cannot break the append/dedup invariant. No context
// lock is ever held while a user lock is taken.
type MemoryManager struct {
	mu        sync.RWMutex
	shortSize int
	short     map[string][]Turn
	userTurns map[string]int

	store   FactStore
	userMu  sync.Mutex
	perUser map[string]*sync.Mutex
}

func NewMemoryManager(store FactStore, shortSize int) *MemoryManager {
	if shortSize <= 0 {
		shortSize = 20
	}
	return &MemoryManager{
		shortSize: shortSize,
		short:     make(map[string][]Turn),
		userTurns: make(map[string]int),
		store:     store,
		perUser:   make(map[string]*sync.Mutex),
	}
}

// AppendTurn pushes a turn into the context's ring, evicting the oldest
// beyond capacity.
func (m *MemoryManager) AppendTurn(contextID string, t Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := append(m.short[contextID], t)
	if len(buf) > m.shortSize {
		buf = buf[len(buf)-m.shortSize:]
	}
	m.short[contextID] = buf
	if t.Role == "user" {
		m.userTurns[contextID]++
	}
}

// Turns returns a copy of the context's short-term buffer, oldest first.
func (m *MemoryManager) Turns(contextID string) []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	buf := m.short[contextID]
	out := make([]Turn, len(buf))
	copy(out, buf)
	return out
}

// UserTurnCount returns how many user turns this context has seen in total,
// which drives the fact-extraction cadence.
func (m *MemoryManager) UserTurnCount(contextID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userTurns[contextID]
}

// Forget drops the short-term state for a torn-down context. Long-term facts
// are keyed by user and survive.
func (m *MemoryManager) Forget(contextID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.short, contextID)
	delete(m.userTurns, contextID)
}

// UpsertFact adds a fact for the user unless an existing fact already covers
// it: comparison is case- and whitespace-insensitive containment in either
// direction. Existing facts are never modified.
func (m *MemoryManager) UpsertFact(userID, text string, importance float64) error {
	if m.store == nil {
		return nil
	}
	norm := normalizeFact(text)
	if norm == "" {
		return nil
	}

	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	facts, err := m.store.FactsFor(userID)
	if err != nil {
		return err
	}
	for _, f := range facts {
		existing := normalizeFact(f.Text)
		if strings.Contains(existing, norm) || strings.Contains(norm, existing) {
			return nil
		}
	}
	facts = append(facts, Fact{
		UserID:     userID,
		Text:       strings.TrimSpace(text),
		Importance: importance,
		CreatedAt:  time.Now(),
	})
	return m.store.SaveFacts(userID, facts)
}

// ContextFor composes short-term turns with the long-term facts of the given
// participants. A failing fact store degrades to short-term-only context and
// a warning; it never aborts the cycle.
func (m *MemoryManager) ContextFor(contextID string, participants []string) MemoryContext {
	mc := MemoryContext{Turns: m.Turns(contextID)}
	if m.store == nil {
		return mc
	}
	for _, uid := range participants {
		facts, err := m.store.FactsFor(uid)
		if err != nil {
			log.Printf("[MIND] long-term memory unavailable user=%s: %v", uid, err)
			mc.Degraded = true
			continue
		}
		mc.Facts = append(mc.Facts, facts...)
	}
	return mc
}

func (m *MemoryManager) userLock(userID string) *sync.Mutex {
	m.userMu.Lock()
	defer m.userMu.Unlock()
	l := m.perUser[userID]
	if l == nil {
		l = &sync.Mutex{}
		m.perUser[userID] = l
	}
	return l
}

func normalizeFact(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
