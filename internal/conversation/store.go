// Package conversation keeps the per-sender pending state of the chat flows.
package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aniladanir/lr-gateway/internal/domain"
)

// Kind tags the pending state a sender is in.
type Kind int

const (
	Idle Kind = iota
	AwaitingTemplateSelection
	AwaitingHelpMenuSelection
	AwaitingCancelSelection
)

func (k Kind) String() string {
	switch k {
	case AwaitingTemplateSelection:
		return "awaiting_template"
	case AwaitingHelpMenuSelection:
		return "awaiting_help_menu"
	case AwaitingCancelSelection:
		return "awaiting_cancel"
	default:
		return "idle"
	}
}

// State is what a sender's next message will be read against. A zero
// ExpiresAt never expires.
type State struct {
	Kind      Kind
	Items     []domain.LRRecord
	ExpiresAt time.Time
}

func (s State) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store holds one State per sender plus pending confirmations for
// destructive admin commands.
type Store struct {
	mu       sync.Mutex
	states   map[string]State
	confirms map[string]time.Time
	locks    map[string]*senderLock
	now      func() time.Time
	logger   *slog.Logger
}

type senderLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(*Store)

// WithClock replaces time.Now as the store's clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		states:   make(map[string]State),
		confirms: make(map[string]time.Time),
		locks:    make(map[string]*senderLock),
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the store's clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// Set replaces whatever state sender had.
func (s *Store) Set(sender string, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sender] = st
}

// Get returns sender's state. Expired state is treated as absent even before
// the sweep removes it.
func (s *Store) Get(sender string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[sender]
	if !ok {
		return State{}, false
	}
	if st.expired(s.now()) {
		delete(s.states, sender)
		return State{}, false
	}
	return st, true
}

func (s *Store) Clear(sender string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sender)
}

// Expect records that sender must send key to confirm an action within ttl.
func (s *Store) Expect(sender, key string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirms[sender+"\x00"+key] = s.now().Add(ttl)
}

// Confirm consumes a pending confirmation. It returns false when none is
// pending or it has expired.
func (s *Store) Confirm(sender, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := sender + "\x00" + key
	exp, ok := s.confirms[k]
	if !ok {
		return false
	}
	delete(s.confirms, k)
	return s.now().Before(exp)
}

// Sweep drops expired states and confirmations and returns how many.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for k, st := range s.states {
		if st.expired(now) {
			delete(s.states, k)
			n++
		}
	}
	for k, exp := range s.confirms {
		if !now.Before(exp) {
			delete(s.confirms, k)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("swept expired conversation state", slog.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Lock serializes message handling for one sender. The returned func
// releases it.
func (s *Store) Lock(sender string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[sender]
	if !ok {
		l = &senderLock{}
		s.locks[sender] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sender)
		}
		s.mu.Unlock()
	}
}
