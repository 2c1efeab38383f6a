package store_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/auraproject/aura/internal/model/turn"
	"github.com/auraproject/aura/internal/store"
)

func makeTurn(text string) turn.ConversationTurn {
	return turn.ConversationTurn{
		Utterance: turn.Utterance{Text: text, Modality: turn.ModalityTyped},
		Emotion:   turn.EmotionNeutral,
		Intent:    turn.ChatIntent(text),
		Envelope:  turn.ResponseEnvelope{Status: turn.StatusSuccess, Payload: turn.Payload{Text: "ok"}},
	}
}

func TestWindowBoundAndSuffix(t *testing.T) {
	s := store.NewContextStore(nil, 3)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		s.Append(ctx, makeTurn(fmt.Sprintf("turn-%d", i)))
	}

	window := s.Window()
	if len(window) != 3 {
		t.Fatalf("expected window of 3, got %d", len(window))
	}

	var full []turn.ConversationTurn
	if err := s.Full(ctx, func(ct turn.ConversationTurn) error {
		full = append(full, ct)
		return nil
	}); err != nil {
		t.Fatalf("Full err: %v", err)
	}
	if len(full) != 7 {
		t.Fatalf("expected 7 logged turns, got %d", len(full))
	}

	// The window must be a suffix of the log.
	tail := full[len(full)-len(window):]
	for i := range window {
		if window[i].ID != tail[i].ID {
			t.Fatalf("window[%d]=%s is not log tail %s", i, window[i].ID, tail[i].ID)
		}
	}
}

func TestAppendSerializesConcurrentTurns(t *testing.T) {
	s := store.NewContextStore(nil, 8)
	ctx := context.Background()

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			s.Append(ctx, makeTurn(fmt.Sprintf("turn-%d", i)))
		}(i)
	}
	wg.Wait()

	var ids []string
	if err := s.Full(ctx, func(ct turn.ConversationTurn) error {
		ids = append(ids, ct.ID)
		return nil
	}); err != nil {
		t.Fatalf("Full err: %v", err)
	}
	if len(ids) != n {
		t.Fatalf("expected %d turns, got %d", n, len(ids))
	}

	// ULIDs from a monotonic source must be strictly increasing in append order.
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("log order violated at %d: %s <= %s", i, ids[i], ids[i-1])
		}
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "turns.db")
	durable, err := store.NewSQLiteLog(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteLog err: %v", err)
	}

	s := store.NewContextStore(durable, 4)
	ctx := context.Background()

	const n = 5
	appended := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ct := s.Append(ctx, makeTurn(fmt.Sprintf("turn-%d", i)))
		appended = append(appended, ct.ID)
	}
	if s.Degraded() {
		t.Fatal("store unexpectedly degraded")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close err: %v", err)
	}

	// Reopen and confirm the log survived with order and content intact.
	durable, err = store.NewSQLiteLog(dbPath)
	if err != nil {
		t.Fatalf("reopen err: %v", err)
	}
	reopened := store.NewContextStore(durable, 4)
	defer reopened.Close()

	var got []turn.ConversationTurn
	if err := reopened.Full(ctx, func(ct turn.ConversationTurn) error {
		got = append(got, ct)
		return nil
	}); err != nil {
		t.Fatalf("Full err: %v", err)
	}
	if len(got) != n {
		t.Fatalf("expected %d turns after reopen, got %d", n, len(got))
	}
	for i, ct := range got {
		if ct.ID != appended[i] {
			t.Fatalf("turn %d out of order: got %s want %s", i, ct.ID, appended[i])
		}
		if ct.Utterance.Text != fmt.Sprintf("turn-%d", i) {
			t.Fatalf("turn %d text mismatch: %q", i, ct.Utterance.Text)
		}
		if ct.Intent.Category != turn.CategoryChat || ct.Intent.Chat == nil {
			t.Fatalf("turn %d lost its intent variant", i)
		}
	}
}

type failingLog struct{}

func (failingLog) AppendRecord(context.Context, turn.ConversationTurn) error {
	return errors.New("disk full")
}
func (failingLog) Walk(context.Context, func(turn.ConversationTurn) error) error { return nil }
func (failingLog) Close() error                                                  { return nil }

func TestPersistenceFailureDegradesInMemory(t *testing.T) {
	s := store.NewContextStore(failingLog{}, 4)
	ctx := context.Background()

	s.Append(ctx, makeTurn("first"))
	s.Append(ctx, makeTurn("second"))

	if !s.Degraded() {
		t.Fatal("expected degraded store after persistence failure")
	}

	var texts []string
	if err := s.Full(ctx, func(ct turn.ConversationTurn) error {
		texts = append(texts, ct.Utterance.Text)
		return nil
	}); err != nil {
		t.Fatalf("Full err: %v", err)
	}
	if len(texts) != 2 || texts[0] != "first" || texts[1] != "second" {
		t.Fatalf("unexpected in-memory log: %v", texts)
	}
}
