package chat

import (
	"sync"

	"orgdesk/pkg/llm"
)

// SessionStore keeps per-session conversation history. Implementations trim
// on Put so stored history never exceeds the configured window.
type SessionStore interface {
	Get(sessionID string) []llm.Turn
	Put(sessionID string, turns []llm.Turn)
}

// MemorySessionStore is a process-local session store. History does not
// survive restarts.
type MemorySessionStore struct {
	window int

	mu       sync.Mutex
	sessions map[string][]llm.Turn
	locks    map[string]*sync.Mutex
}

func NewMemorySessionStore(window int) *MemorySessionStore {
	if window <= 0 {
		window = 20
	}
	return &MemorySessionStore{
		window:   window,
		sessions: make(map[string][]llm.Turn),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *MemorySessionStore) Get(sessionID string) []llm.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.sessions[sessionID]
	copied := make([]llm.Turn, len(turns))
	copy(copied, turns)
	return copied
}

// Put stores the most recent window of turns for the session.
func (s *MemorySessionStore) Put(sessionID string, turns []llm.Turn) {
	if len(turns) > s.window {
		turns = turns[len(turns)-s.window:]
	}
	copied := make([]llm.Turn, len(turns))
	copy(copied, turns)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = copied
}

// LockSession serializes runs for one session id. History is read-modify-write
// across a run, so at most one run per session may be in flight.
func (s *MemorySessionStore) LockSession(sessionID string) (unlock func()) {
	s.mu.Lock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
