package upload

import (
	"context"
	"sort"
	"sync"
	"time"

	mlerrors "github.com/meetlens/meetlens/pkg/errors"
)

// Session tracks one chunked upload in flight.
type Session struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	MimeType    string    `json:"mimeType"`
	TotalChunks int       `json:"totalChunks"`
	TmpDir      string    `json:"tmpDir"`
	CreatedAt   time.Time `json:"createdAt"`

	// Received is populated by the store, not serialized with the
	// session body.
	Received map[int]bool `json:"-"`
}

// ReceivedCount reports how many distinct chunks have arrived.
func (s *Session) ReceivedCount() int { return len(s.Received) }

// SessionStore persists upload sessions. The in-memory implementation
// is the default; the Redis implementation exists for deployments that
// want session metadata to survive a restart.
type SessionStore interface {
	Put(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Session, error)
	MarkChunk(ctx context.Context, id string, index int) (received int, err error)
}

// MemoryStore keeps sessions in process memory. Sessions are lost on
// restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Put(_ context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.Received == nil {
		session.Received = make(map[int]bool)
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, mlerrors.NewUnknownSession(id)
	}
	return session, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) MarkChunk(_ context.Context, id string, index int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return 0, mlerrors.NewUnknownSession(id)
	}
	session.Received[index] = true
	return len(session.Received), nil
}
