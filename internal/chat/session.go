package chat

import (
	"sync"

	"github.com/JaimeStill/agent-chat/internal/conversations"
)

// State is the lifecycle position of one (user, agent) conversation.
type State int

const (
	Absent State = iota
	Loaded
	PendingSend
	Settled
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case PendingSend:
		return "pending_send"
	case Settled:
		return "settled"
	default:
		return "absent"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type pair struct {
	userID  string
	agentID string
}

// session is the in-memory view of one conversation. conv is nil until the
// pair is loaded. dirty marks local state the store has not acknowledged.
type session struct {
	mu    sync.Mutex
	state State
	conv  *conversations.Conversation
	dirty bool

	// gone is set once the agent is deleted; nothing is persisted after.
	gone bool
}

type sessions struct {
	mu sync.Mutex
	m  map[pair]*session
}

func (s *sessions) get(p pair) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.m == nil {
		s.m = make(map[pair]*session)
	}
	sess, ok := s.m[p]
	if !ok {
		sess = &session{}
		s.m[p] = sess
	}
	return sess
}

func (s *sessions) peek(p pair) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[p]
	return sess, ok
}

// drop forgets the pair and marks its session gone. It waits for any write
// the session is making, so the caller must not hold the session lock.
func (s *sessions) drop(p pair) {
	s.mu.Lock()
	sess, ok := s.m[p]
	delete(s.m, p)
	s.mu.Unlock()

	if ok {
		sess.mu.Lock()
		sess.gone = true
		sess.mu.Unlock()
	}
}

func (s *sessions) forUser(userID string) map[string]*session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*session)
	for p, sess := range s.m {
		if p.userID == userID {
			out[p.agentID] = sess
		}
	}
	return out
}
