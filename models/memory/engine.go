package memory

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/justinjudd/bracket/tournament"
)

// ErrSessionNotFound is returned for IDs that were never created, were deleted, or are not valid xids
var ErrSessionNotFound = errors.New("session not found")

// DefaultTTL is how long an unused session is kept before Sweep removes it
const DefaultTTL = 12 * time.Hour

// Engine keeps tournament sessions in memory until they sit idle longer than the TTL.
// Commands for one session run one at a time; different sessions do not block each other
type Engine struct {
	mu        sync.RWMutex
	sessions  map[string]*session
	newSource func() (tournament.Source, error)
	ttl       time.Duration
	now       func() time.Time
}

type session struct {
	sync.Mutex
	state    tournament.State
	rand     tournament.Source
	lastUsed time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithSource replaces the per-session shuffle source. Used by tests for deterministic brackets
func WithSource(fn func() tournament.Source) Option {
	return func(e *Engine) {
		e.newSource = func() (tournament.Source, error) {
			return fn(), nil
		}
	}
}

// WithTTL sets how long a session may go unused. Zero or less keeps sessions forever
func WithTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.ttl = ttl
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewStorageEngine creates an empty in-memory engine
func NewStorageEngine(opts ...Option) *Engine {
	e := &Engine{
		sessions:  map[string]*session{},
		newSource: seededSource,
		ttl:       DefaultTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func seededSource() (tournament.Source, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(b[:])))), nil
}

// CreateSession starts a new empty session and returns its ID
func (e *Engine) CreateSession() (string, error) {
	src, err := e.newSource()
	if err != nil {
		return "", fmt.Errorf("Unable to create session: %w", err)
	}
	id := xid.New().String()

	e.mu.Lock()
	e.sessions[id] = &session{state: tournament.NewState(), rand: src, lastUsed: e.now()}
	e.mu.Unlock()

	return id, nil
}

func (e *Engine) lookup(id string) (*session, error) {
	if _, err := xid.FromString(id); err != nil {
		return nil, ErrSessionNotFound
	}
	e.mu.RLock()
	s, ok := e.sessions[id]
	e.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetSession returns a snapshot of the session state
func (e *Engine) GetSession(id string) (tournament.State, error) {
	s, err := e.lookup(id)
	if err != nil {
		return tournament.State{}, err
	}
	s.Lock()
	defer s.Unlock()
	s.lastUsed = e.now()
	return s.state.Clone(), nil
}

// Apply runs cmd against the session and stores the result. The returned
// state is the stored state even when the command was rejected
func (e *Engine) Apply(id string, cmd tournament.Command) (tournament.State, error) {
	s, err := e.lookup(id)
	if err != nil {
		return tournament.State{}, err
	}
	s.Lock()
	defer s.Unlock()
	s.lastUsed = e.now()
	next, err := tournament.Apply(s.state, cmd, s.rand)
	s.state = next
	return next.Clone(), err
}

// DeleteSession forgets a session
func (e *Engine) DeleteSession(id string) {
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()
}

// Len returns the number of live sessions
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// Sweep deletes every session unused for longer than the TTL and returns how many it removed
func (e *Engine) Sweep() int {
	if e.ttl <= 0 {
		return 0
	}
	cutoff := e.now().Add(-e.ttl)

	var idle []string
	e.mu.RLock()
	for id, s := range e.sessions {
		s.Lock()
		if s.lastUsed.Before(cutoff) {
			idle = append(idle, id)
		}
		s.Unlock()
	}
	e.mu.RUnlock()

	// a session touched between the scan and the delete is still removed; its
	// cookie is then treated like any other stale one
	for _, id := range idle {
		e.DeleteSession(id)
	}
	return len(idle)
}

// RunSweeper calls Sweep every interval until ctx is cancelled
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	if interval <= 0 || e.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := e.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
