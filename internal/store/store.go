package store

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/auraproject/aura/internal/model/turn"
)

// Log is the durable append-only record of conversation turns.
type Log interface {
	AppendRecord(ctx context.Context, t turn.ConversationTurn) error
	Walk(ctx context.Context, fn func(turn.ConversationTurn) error) error
	Close() error
}

// ContextStore owns the conversational history: a bounded window of recent
// turns for classification context plus the full persisted log. Appends are
// serialized so log order always matches arrival order, no matter how many
// turns are mid-dispatch concurrently.
type ContextStore struct {
	mu       sync.Mutex
	window   []turn.ConversationTurn
	bound    int
	log      Log
	degraded bool
	// overflow holds turns that could not be persisted (or everything, when
	// no durable log is configured).
	overflow []turn.ConversationTurn
	entropy  *ulid.MonotonicEntropy
	now      func() time.Time
}

// NewContextStore builds a store with the given window bound. durable may be
// nil, in which case the store runs in-memory only.
func NewContextStore(durable Log, windowBound int) *ContextStore {
	if windowBound < 1 {
		windowBound = 1
	}
	return &ContextStore{
		window:  make([]turn.ConversationTurn, 0, windowBound),
		bound:   windowBound,
		log:     durable,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		now:     time.Now,
	}
}

// Append records a completed turn. It never fails the caller: a persistence
// error is logged and the store degrades to in-memory-only for the rest of
// the session.
func (s *ContextStore) Append(ctx context.Context, t turn.ConversationTurn) turn.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}

	if s.log != nil && !s.degraded {
		if err := s.log.AppendRecord(ctx, t); err != nil {
			log.Printf("[store] persistence failed, continuing in-memory: %v", err)
			s.degraded = true
		}
	}
	if s.log == nil || s.degraded {
		s.overflow = append(s.overflow, t)
	}

	s.window = append(s.window, t)
	if len(s.window) > s.bound {
		s.window = s.window[len(s.window)-s.bound:]
	}

	return t
}

// Window returns a read-only snapshot of the recent turns, oldest first.
func (s *ContextStore) Window() []turn.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]turn.ConversationTurn, len(s.window))
	copy(snapshot, s.window)
	return snapshot
}

// Full walks every recorded turn in arrival order: first the persisted log,
// then any turns held only in memory. Each call restarts from the beginning.
// Intended for export and debugging, never for live classification.
func (s *ContextStore) Full(ctx context.Context, fn func(turn.ConversationTurn) error) error {
	if s.log != nil {
		if err := s.log.Walk(ctx, fn); err != nil {
			return err
		}
	}

	s.mu.Lock()
	pending := make([]turn.ConversationTurn, len(s.overflow))
	copy(pending, s.overflow)
	s.mu.Unlock()

	for _, t := range pending {
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

// Degraded reports whether persistence has failed this session.
func (s *ContextStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Close releases the durable log, if any.
func (s *ContextStore) Close() error {
	if s.log == nil {
		return nil
	}
	return s.log.Close()
}
