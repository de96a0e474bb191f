package wizard

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Store owns the form for one wizard session and notifies subscribers of
// every change. Subscribers always receive a copy; they cannot mutate the
// stored form.
type Store struct {
	mu          sync.Mutex
	form        Form
	sessionID   string
	nextID      int
	subscribers map[int]func(Form)

	// Snapshots waiting to be delivered, oldest first. delivering is set
	// while one goroutine drains the queue.
	pending    []Form
	delivering bool
}

// NewStore wraps form in a new session. A nil form starts from New().
func NewStore(form *Form) *Store {
	if form == nil {
		form = New()
	}
	s := &Store{
		form:        *form,
		sessionID:   uuid.NewString(),
		subscribers: make(map[int]func(Form)),
	}
	slog.Debug("wizard session started", slog.String("session_id", s.sessionID))
	return s
}

// SessionID identifies this wizard session.
func (s *Store) SessionID() string {
	return s.sessionID
}

// Snapshot returns a copy of the current form.
func (s *Store) Snapshot() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Subscribe registers fn and calls it immediately with the current form.
// The returned function removes the subscription and may be called more
// than once.
func (s *Store) Subscribe(fn func(Form)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	current := s.form
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Update mutates the form in place and then notifies subscribers with the
// resulting snapshot. Snapshots are delivered in the order the updates were
// applied; an Update issued from a subscriber is delivered after the current
// round.
func (s *Store) Update(fn func(*Form)) {
	if s.apply(fn) {
		s.deliver()
	}
}

// Set replaces the whole form and notifies subscribers.
func (s *Store) Set(form Form) {
	s.Update(func(f *Form) {
		*f = form
	})
}

// apply runs fn under the lock and queues the result. It reports whether the
// caller has to drain the queue.
func (s *Store) apply(fn func(*Form)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.form)
	s.pending = append(s.pending, s.form)
	if s.delivering {
		return false
	}
	s.delivering = true
	return true
}

// deliver runs subscribers outside the lock so they may call back into the
// store.
func (s *Store) deliver() {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.pending = nil
			s.delivering = false
			s.mu.Unlock()
			panic(r)
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.delivering = false
			s.mu.Unlock()
			return
		}
		snapshot := s.pending[0]
		s.pending = s.pending[1:]
		fns := make([]func(Form), 0, len(s.subscribers))
		for id := 0; id < s.nextID; id++ {
			if fn, ok := s.subscribers[id]; ok {
				fns = append(fns, fn)
			}
		}
		s.mu.Unlock()

		for _, fn := range fns {
			fn(snapshot)
		}
	}
}
