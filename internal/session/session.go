// Package session keeps live wizard instances between requests.
//
// A Session is owned by whoever holds its token; only the token's hash is
// stored. Sessions disappear on submit or cancel and are never resumed.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"research-assessment/internal/wizard"
)

var (
	// ErrNotFound is returned when no session exists under an id.
	ErrNotFound = errors.New("session not found")
	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("session already exists")
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Session is one wizard instance.
type Session struct {
	ID        string         `json:"id"`
	TokenHash string         `json:"token_hash"`
	Variant   wizard.Variant `json:"variant"`
	State     wizard.State   `json:"state"`
	Draft     *wizard.Draft  `json:"draft"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// AssessmentID is reserved on the first submit attempt.
	AssessmentID string `json:"assessment_id,omitempty"`
}

// New returns a session at step 0 with an empty draft.
func New(id, tokenHash string, v wizard.Variant) *Session {
	now := timeNow().UTC()
	return &Session{
		ID:        id,
		TokenHash: tokenHash,
		Variant:   v,
		State:     wizard.NewState(),
		Draft:     wizard.NewDraft(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch stamps UpdatedAt.
func (s *Session) Touch() {
	s.UpdatedAt = timeNow().UTC()
}

// Store defines the persistence interface for sessions.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// --- In-memory store ---

// MemoryStore keeps sessions in process memory. Values are deep-copied on
// the way in and out so callers never share a session with the store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewMemoryStore creates an empty store. A zero ttl keeps sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session), ttl: ttl}
}

func (m *MemoryStore) expired(s *Session) bool {
	return m.ttl > 0 && timeNow().UTC().Sub(s.UpdatedAt) > m.ttl
}

// sweep drops every expired session. Callers hold mu.
func (m *MemoryStore) sweep() {
	if m.ttl <= 0 {
		return
	}
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
		}
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	c, err := clone(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, s.ID)
	}
	m.sessions[s.ID] = c
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok && m.expired(s) {
		delete(m.sessions, id)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s)
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	c, err := clone(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if ok && m.expired(cur) {
		delete(m.sessions, s.ID)
		ok = false
	}
	if !ok {
		return ErrNotFound
	}
	m.sessions[s.ID] = c
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
