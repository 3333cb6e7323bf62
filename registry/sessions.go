package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/webmeet/signaling/model"
)

var (
	ErrSessionNotFound = errors.New("session is not found")
)

// SessionRegistry owns the set of all live sessions. Its mutex guards
// the session map itself; membership mutations inside a session are
// serialized by the router, which treats a session mutation and the
// corresponding participant mutation as one atomic step.
type SessionRegistry struct {
	mx *sync.Mutex
	db map[string]*model.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		mx: &sync.Mutex{},
		db: make(map[string]*model.Session),
	}
}

// Create allocates a fresh id, stores an empty session and returns it.
func (sr *SessionRegistry) Create(name string) *model.Session {
	sr.mx.Lock()
	defer sr.mx.Unlock()

	sess := &model.Session{
		ID:        uuid.NewString(),
		Name:      name,
		Members:   make(map[string]struct{}),
		CreatedAt: time.Now(),
	}
	sr.db[sess.ID] = sess
	return sess
}

func (sr *SessionRegistry) Get(sessionID string) (*model.Session, error) {
	sr.mx.Lock()
	defer sr.mx.Unlock()

	sess, ok := sr.db[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Remove deletes the session. The caller must have verified the session
// is empty; removing an absent id is a no-op.
func (sr *SessionRegistry) Remove(sessionID string) {
	sr.mx.Lock()
	defer sr.mx.Unlock()

	delete(sr.db, sessionID)
}

// List returns a snapshot of all live sessions.
func (sr *SessionRegistry) List() []*model.Session {
	sr.mx.Lock()
	defer sr.mx.Unlock()

	sessions := make([]*model.Session, 0, len(sr.db))
	for _, sess := range sr.db {
		sessions = append(sessions, sess)
	}
	return sessions
}
