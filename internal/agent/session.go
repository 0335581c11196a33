package agent

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/payagent/internal/model"
)

// Session holds one conversation's history. The mutex serializes whole
// turns so that concurrent requests on the same session cannot
// interleave their history writes. lastActive is atomic so the sweeper
// can read it without waiting on a turn in flight.
type Session struct {
	ID string

	mu         sync.Mutex
	history    []model.Turn
	lastActive atomic.Int64
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) appendTurn(role, content string) {
	s.history = append(s.history, model.Turn{Role: role, Content: content})
}

// History returns a copy of the session's turns.
func (s *Session) History() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// SessionStore keeps sessions keyed by id. Each session's state lives
// only here; nothing about a conversation is global.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

func (s *SessionStore) GetOrCreate(id string) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess = &Session{ID: id}
	sess.touch()
	s.sessions[id] = sess
	return sess
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how
// many were removed. It never takes a session's turn mutex: a session
// stalled inside an external call must not make the sweep block every
// other session's lookup.
func (s *SessionStore) Sweep(ctx context.Context, maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle).UnixNano()
	s.mu.RLock()
	var idle []string
	for id, sess := range s.sessions {
		if sess.lastActive.Load() < cutoff {
			idle = append(idle, id)
		}
	}
	s.mu.RUnlock()
	if len(idle) == 0 {
		return 0
	}
	s.mu.Lock()
	removed := 0
	for _, id := range idle {
		sess, ok := s.sessions[id]
		if !ok || sess.lastActive.Load() >= cutoff {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	remaining := len(s.sessions)
	s.mu.Unlock()
	if removed > 0 {
		logutil.GetLogger(ctx).Info("idle sessions swept",
			zap.Int("removed", removed), zap.Int("remaining", remaining))
	}
	return removed
}
