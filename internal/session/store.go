// Package session keeps one interaction router per browser in memory.
// Sessions expire after an idle period and never survive a restart.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"tv-finder/internal/ui"
)

// CookieName is the cookie carrying the session id
const CookieName = "tvfinder_session"

// Store maps session ids to routers
type Store struct {
	cache     *cache.Cache
	newRouter func() *ui.Router
}

// NewStore creates a Store whose sessions expire after ttl without use
func NewStore(ttl time.Duration, newRouter func() *ui.Router) *Store {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Store{
		cache:     cache.New(ttl, cleanup),
		newRouter: newRouter,
	}
}

// Get returns the router for id and extends its expiry
func (s *Store) Get(id string) (*ui.Router, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	router := v.(*ui.Router)
	s.cache.Set(id, router, cache.DefaultExpiration)
	return router, true
}

// GetOrCreate returns the router for id, starting a new session when id is
// unknown or expired. The returned id is the one the client should keep.
func (s *Store) GetOrCreate(id string) (string, *ui.Router, bool) {
	if router, ok := s.Get(id); ok {
		return id, router, false
	}
	id = uuid.NewString()
	router := s.newRouter()
	s.cache.Set(id, router, cache.DefaultExpiration)
	return id, router, true
}

// Delete ends a session
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Len reports the number of live sessions, expired ones included until cleanup
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
