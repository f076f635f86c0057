// Package store keeps the most recent result of each query kind for
// display. It is written by front doors after a query completes and read
// by renderers; reconstruction code never touches it.
package store

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind names a class of query result.
type Kind string

const (
	KindCounts   Kind = "counts"
	KindSessions Kind = "sessions"
)

// subscriberBuffer bounds how far a slow subscriber may fall behind
// before entries are dropped for it.
const subscriberBuffer = 8

// Entry is one stored query result.
type Entry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Query     any       `json:"query"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Store holds the latest entry per kind.
type Store struct {
	mu      sync.RWMutex
	latest  map[Kind]Entry
	subs    map[int]chan Entry
	nextSub int
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		latest:  make(map[Kind]Entry),
		subs:    make(map[int]chan Entry),
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Put replaces the latest entry of kind and notifies subscribers.
func (s *Store) Put(kind Kind, query, payload any) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	e := Entry{
		ID:        ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		Kind:      kind,
		Query:     query,
		Payload:   payload,
		CreatedAt: now,
	}
	s.latest[kind] = e

	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return e
}

// Latest returns the most recent entry of kind.
func (s *Store) Latest(kind Kind) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.latest[kind]
	return e, ok
}

// All returns the latest entry of every kind, keyed by kind.
func (s *Store) All() map[Kind]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Kind]Entry, len(s.latest))
	for k, e := range s.latest {
		out[k] = e
	}
	return out
}

// Subscribe returns a channel receiving every subsequent Put. The cancel
// func closes the channel and must be called once the caller is done.
func (s *Store) Subscribe() (<-chan Entry, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Entry, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}
