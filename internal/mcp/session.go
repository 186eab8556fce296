// ABOUTME: In-memory session registry for the Streamable HTTP transport.
// ABOUTME: Per-session serialization, activity tracking, and event fan-out.

package mcp

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionEventBuffer bounds the per-session event queue. A session with no
// attached stream drops the oldest pending events rather than blocking the
// request path.
const sessionEventBuffer = 16

// sessionState is the lifecycle phase of a session. Transitions are
// forward-only: Initializing → Active → Closed.
type sessionState int

const (
	stateInitializing sessionState = iota
	stateActive
	stateClosed
)

// Event is one server-to-client message delivered over a session's GET
// stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// session tracks one initialized client. The handling mutex serializes
// request processing so responses on a session correspond 1:1, in order, to
// its requests; independent sessions proceed concurrently.
type session struct {
	id        string
	createdAt time.Time

	handling sync.Mutex

	mu           sync.Mutex
	state        sessionState
	lastActivity time.Time

	events chan Event
	done   chan struct{}
}

// touch records request activity on the session.
func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActivity = now
	s.mu.Unlock()
}

// activate moves the session from Initializing to Active. The initialize
// response carries the session id; the session is usable from then on.
func (s *session) activate() {
	s.mu.Lock()
	if s.state == stateInitializing {
		s.state = stateActive
	}
	s.mu.Unlock()
}

// publish queues an event for the session's stream, dropping the oldest
// pending event when the buffer is full. No-op on a closed session.
func (s *session) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	for {
		select {
		case s.events <- ev:
			return
		default:
			select {
			case <-s.events:
			default:
			}
		}
	}
}

// close marks the session Closed and wakes any attached stream.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	s.state = stateClosed
	close(s.done)
}

// sessionStore holds all live sessions. Ids are uuid v4 and are never
// reused: a closed session's id is evicted, and a new initialize always
// mints a fresh one.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

// create mints a new session in the Initializing state.
func (st *sessionStore) create() *session {
	sess := &session{
		id:           uuid.New().String(),
		createdAt:    time.Now(),
		state:        stateInitializing,
		lastActivity: time.Now(),
		events:       make(chan Event, sessionEventBuffer),
		done:         make(chan struct{}),
	}
	st.mu.Lock()
	st.sessions[sess.id] = sess
	st.mu.Unlock()
	return sess
}

// get returns a live session by id, or nil.
func (st *sessionStore) get(id string) *session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// close terminates and evicts a session. Reports whether it existed.
func (st *sessionStore) close(id string) bool {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		sess.close()
	}
	return ok
}

// closeAll terminates every session, for server shutdown.
func (st *sessionStore) closeAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*session)
	st.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}

// count returns the number of live sessions.
func (st *sessionStore) count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
