// Package brain is the public entry point of the routing core: one call per
// utterance, fanning out emotion tagging and intent classification, joining
// on both, dispatching to exactly one handler, and appending the completed
// turn to the context store.
package brain

import (
	"context"
	"sync"
	"time"

	"github.com/auraproject/aura/internal/model/turn"
	"github.com/auraproject/aura/internal/service/dispatch"
	"github.com/auraproject/aura/internal/store"
)

// Tagger labels an utterance with an emotion. It never fails.
type Tagger interface {
	Tag(ctx context.Context, utterance turn.Utterance, window []turn.ConversationTurn) turn.EmotionTag
}

// Classifier resolves an utterance to exactly one intent. It never fails.
type Classifier interface {
	Classify(ctx context.Context, utterance turn.Utterance, window []turn.ConversationTurn) turn.Intent
}

// Router ties the routing core together. Handlers never mutate the window;
// only the router appends, after a turn completes.
type Router struct {
	tagger     Tagger
	classifier Classifier
	dispatcher *dispatch.Dispatcher
	turns      *store.ContextStore
	observe    dispatch.Observer
	onTurn     func(turn.ConversationTurn)
}

// NewRouter wires the core. observe may be nil.
func NewRouter(tagger Tagger, classifier Classifier, dispatcher *dispatch.Dispatcher, turns *store.ContextStore, observe dispatch.Observer) *Router {
	return &Router{
		tagger:     tagger,
		classifier: classifier,
		dispatcher: dispatcher,
		turns:      turns,
		observe:    observe,
	}
}

// OnTurn registers a callback invoked with every recorded turn, after the
// append. Used to push completed turns to connected clients.
func (r *Router) OnTurn(fn func(turn.ConversationTurn)) {
	r.onTurn = fn
}

func (r *Router) emit(state dispatch.State, detail string) {
	if r.observe != nil {
		r.observe(state, detail)
	}
}

// Handle processes one utterance end to end and returns the recorded turn.
// The tagger and classifier run concurrently; dispatch starts only once both
// have completed.
func (r *Router) Handle(ctx context.Context, utterance turn.Utterance) turn.ConversationTurn {
	if utterance.ReceivedAt.IsZero() {
		utterance.ReceivedAt = time.Now().UTC()
	}
	window := r.turns.Window()

	r.emit(dispatch.StateClassifying, utterance.Text)

	var (
		wg      sync.WaitGroup
		emotion turn.EmotionTag
		intent  turn.Intent
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		emotion = r.tagger.Tag(ctx, utterance, window)
	}()
	go func() {
		defer wg.Done()
		intent = r.classifier.Classify(ctx, utterance, window)
	}()
	wg.Wait()

	envelope := r.dispatcher.Dispatch(ctx, utterance, intent, emotion, window)

	recorded := r.turns.Append(ctx, turn.ConversationTurn{
		Utterance: utterance,
		Emotion:   emotion,
		Intent:    intent,
		Envelope:  envelope,
	})

	if r.onTurn != nil {
		r.onTurn(recorded)
	}
	r.emit(dispatch.StateIdle, "")
	return recorded
}

// Window exposes the bounded recent-turn snapshot.
func (r *Router) Window() []turn.ConversationTurn {
	return r.turns.Window()
}

// Export walks the full persisted log in arrival order.
func (r *Router) Export(ctx context.Context, fn func(turn.ConversationTurn) error) error {
	return r.turns.Full(ctx, fn)
}
