// Package cart keeps shopping carts server-side, one per browser session.
//
// The session cookie carries only a session id; quantities live here so that
// two concurrent requests from the same session cannot both act on the same
// copy of the cart. Every mutation of a session's cart, and checkout, runs
// under that session's lock.
package cart

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultTTL matches the default gorilla/sessions cookie lifetime.
	DefaultTTL  = 30 * 24 * time.Hour
	DefaultSize = 100_000
)

type entry struct {
	mu    sync.Mutex
	items map[int64]int
}

// Store maps session ids to carts. A cart untouched for the TTL is
// forgotten, and the least recently used carts go first once size is reached.
type Store struct {
	mu       sync.Mutex // serializes get-or-create
	sessions *expirable.LRU[string, *entry]
}

func NewStore() *Store {
	return New(DefaultSize, DefaultTTL)
}

// New returns a store holding at most size carts (0 means no limit), each
// expiring ttl after it was last added to.
func New(size int, ttl time.Duration) *Store {
	return &Store{sessions: expirable.NewLRU[string, *entry](size, nil, ttl)}
}

// session returns the cart for sid, creating it if needed, and restarts its TTL.
func (s *Store) session(sid string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions.Get(sid)
	if !ok {
		e = &entry{items: make(map[int64]int)}
	}
	s.sessions.Add(sid, e)
	return e
}

func (s *Store) lookup(sid string) (*entry, bool) {
	return s.sessions.Get(sid)
}

// Len reports the number of carts held.
func (s *Store) Len() int {
	return s.sessions.Len()
}

// Add increments the quantity of productID and returns the new quantity.
func (s *Store) Add(sid string, productID int64) int {
	e := s.session(sid)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items[productID]++
	return e.items[productID]
}

// Snapshot returns a copy of the session's cart. Unknown sessions read as empty.
func (s *Store) Snapshot(sid string) map[int64]int {
	e, ok := s.lookup(sid)
	if !ok {
		return map[int64]int{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyItems(e.items)
}

func (s *Store) Clear(sid string) {
	e, ok := s.lookup(sid)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.items)
}

// Drop forgets the session entirely, e.g. on logout.
func (s *Store) Drop(sid string) {
	s.sessions.Remove(sid)
}

// WithLocked calls fn with a snapshot of the cart while holding the session
// lock. The cart is emptied only when fn returns clear=true and a nil error.
// An unknown session is passed as an empty cart and is not created.
func (s *Store) WithLocked(sid string, fn func(items map[int64]int) (clear bool, err error)) error {
	e, ok := s.lookup(sid)
	if !ok {
		_, err := fn(map[int64]int{})
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	empty, err := fn(copyItems(e.items))
	if err != nil {
		return err
	}
	if empty {
		e.items = make(map[int64]int)
	}
	return nil
}

func copyItems(items map[int64]int) map[int64]int {
	out := make(map[int64]int, len(items))
	for id, qty := range items {
		out[id] = qty
	}
	return out
}
