package brain_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/auraproject/aura/internal/handlers"
	"github.com/auraproject/aura/internal/model/turn"
	"github.com/auraproject/aura/internal/service/brain"
	"github.com/auraproject/aura/internal/service/dispatch"
	"github.com/auraproject/aura/internal/store"
)

type stubTagger struct {
	tag   turn.EmotionTag
	delay time.Duration
}

func (s stubTagger) Tag(ctx context.Context, utterance turn.Utterance, window []turn.ConversationTurn) turn.EmotionTag {
	time.Sleep(s.delay)
	return s.tag
}

type stubClassifier struct {
	delay time.Duration
}

func (s stubClassifier) Classify(ctx context.Context, utterance turn.Utterance, window []turn.ConversationTurn) turn.Intent {
	time.Sleep(s.delay)
	return turn.ChatIntent(utterance.Text)
}

type echoChat struct{}

func (echoChat) Run(ctx context.Context, params turn.ChatParams, emotion turn.EmotionTag, window []turn.ConversationTurn) (string, error) {
	return "echo: " + params.Message, nil
}

func newRouter(bound int) *brain.Router {
	turns := store.NewContextStore(nil, bound)
	d := dispatch.New(handlers.Set{Chat: echoChat{}}, nil, 0)
	return brain.NewRouter(stubTagger{tag: turn.EmotionNeutral}, stubClassifier{}, d, turns, nil)
}

func TestHandleRecordsCompleteTurn(t *testing.T) {
	r := newRouter(4)

	recorded := r.Handle(context.Background(), turn.Utterance{Text: "hello there", Modality: turn.ModalityTyped})

	if recorded.ID == "" {
		t.Fatal("expected assigned turn id")
	}
	if recorded.Emotion != turn.EmotionNeutral {
		t.Fatalf("expected exactly one emotion tag, got %q", recorded.Emotion)
	}
	if recorded.Intent.Category != turn.CategoryChat {
		t.Fatalf("expected chat intent, got %s", recorded.Intent.Category)
	}
	if recorded.Envelope.Status != turn.StatusSuccess {
		t.Fatalf("expected success, got %s", recorded.Envelope.Status)
	}
	if window := r.Window(); len(window) != 1 || window[0].ID != recorded.ID {
		t.Fatalf("turn not appended to window: %+v", window)
	}
}

func TestHandleJoinsBothClassifiers(t *testing.T) {
	turns := store.NewContextStore(nil, 4)
	d := dispatch.New(handlers.Set{Chat: echoChat{}}, nil, 0)
	// The tagger is slower than the classifier; dispatch must still see its
	// result.
	r := brain.NewRouter(stubTagger{tag: turn.EmotionUrgent, delay: 30 * time.Millisecond}, stubClassifier{}, d, turns, nil)

	recorded := r.Handle(context.Background(), turn.Utterance{Text: "hurry up"})
	if recorded.Emotion != turn.EmotionUrgent {
		t.Fatalf("dispatch ran before the tagger finished: got %q", recorded.Emotion)
	}
}

func TestConcurrentTurnsAppendInOrder(t *testing.T) {
	r := newRouter(64)

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			r.Handle(context.Background(), turn.Utterance{Text: fmt.Sprintf("turn %d", i)})
		}(i)
	}
	wg.Wait()

	var ids []string
	if err := r.Export(context.Background(), func(ct turn.ConversationTurn) error {
		ids = append(ids, ct.ID)
		return nil
	}); err != nil {
		t.Fatalf("Export err: %v", err)
	}
	if len(ids) != n {
		t.Fatalf("expected %d turns, got %d", n, len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("append order violated at %d", i)
		}
	}
}
