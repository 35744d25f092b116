// Package store holds the in-memory, process-wide collection of Session
// records keyed by session id. The store itself is injected as a
// capability rather than reached through a package-level singleton.
package store

import (
	"sync"

	"github.com/mycophonic/raop"
)

// Store is a concurrent session-id -> *raop.Session map.
type Store struct {
	sessions sync.Map // map[string]*raop.Session
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Get returns the session for id, or nil if none exists.
func (s *Store) Get(id string) *raop.Session {
	v, ok := s.sessions.Load(id)
	if !ok {
		return nil
	}

	return v.(*raop.Session) //nolint:forcetypeassert // only *raop.Session is ever stored
}

// GetOrCreate returns the existing session for id, or stores and returns
// create() if none existed yet. create is only invoked when needed.
func (s *Store) GetOrCreate(id string, create func() *raop.Session) *raop.Session {
	if existing, ok := s.sessions.Load(id); ok {
		return existing.(*raop.Session) //nolint:forcetypeassert // only *raop.Session is ever stored
	}

	actual, _ := s.sessions.LoadOrStore(id, create())

	return actual.(*raop.Session) //nolint:forcetypeassert // only *raop.Session is ever stored
}

// Upsert stores sess under its ID, replacing any existing record.
func (s *Store) Upsert(sess *raop.Session) {
	s.sessions.Store(sess.ID, sess)
}

// Delete removes the session for id, if any.
func (s *Store) Delete(id string) {
	s.sessions.Delete(id)
}
