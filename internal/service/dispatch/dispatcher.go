// Package dispatch owns the per-turn state machine: it selects exactly one
// handler for a classified intent, applies the per-variant failure policy,
// and wraps every outcome in a ResponseEnvelope. No internal error ever
// leaves this package as a raw error.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/auraproject/aura/internal/handlers"
	"github.com/auraproject/aura/internal/model/turn"
)

// State names the phases a turn moves through. Completed and Failed are
// terminal; Failed never transitions onward.
type State string

const (
	StateIdle            State = "idle"
	StateClassifying     State = "classifying"
	StateDispatching     State = "dispatching"
	StateAwaitingHandler State = "awaiting_handler"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
)

// Observer receives state transitions, e.g. for the GUI status feed.
type Observer func(state State, detail string)

// Dispatcher routes classified intents to handlers.
type Dispatcher struct {
	handlers handlers.Set
	observe  Observer
	timeout  time.Duration
}

// New builds a dispatcher. timeout bounds each handler invocation and is
// passed through unchanged; zero means no bound. observe may be nil.
func New(set handlers.Set, observe Observer, timeout time.Duration) *Dispatcher {
	return &Dispatcher{handlers: set, observe: observe, timeout: timeout}
}

func (d *Dispatcher) emit(state State, detail string) {
	if d.observe != nil {
		d.observe(state, detail)
	}
}

// Dispatch runs exactly one handler for the intent and envelopes the result.
// Unknown and unsupported variants route to the chat handler as open
// conversation rather than surfacing an internal error.
func (d *Dispatcher) Dispatch(ctx context.Context, utterance turn.Utterance, intent turn.Intent, emotion turn.EmotionTag, window []turn.ConversationTurn) turn.ResponseEnvelope {
	d.emit(StateDispatching, string(intent.Category))

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var envelope turn.ResponseEnvelope
	switch intent.Category {
	case turn.CategoryAutomation:
		envelope = d.runAutomation(ctx, *intent.Automation, emotion, window)
	case turn.CategorySearch:
		envelope = d.runSearch(ctx, intent.Search.Query, emotion, window)
	case turn.CategoryImageGeneration:
		envelope = d.runImage(ctx, *intent.Image, emotion, window)
	case turn.CategoryContentGeneration:
		envelope = d.runContent(ctx, *intent.Content, emotion, window)
	case turn.CategoryChat:
		envelope = d.runChat(ctx, intent.Chat.Message, emotion, window)
	default:
		// Unknown is a valid terminal classification; treat it as open
		// conversation.
		envelope = d.runChat(ctx, utterance.Text, emotion, window)
	}

	if envelope.Status == turn.StatusFailure {
		d.emit(StateFailed, envelope.ErrorDetail)
	} else {
		d.emit(StateCompleted, string(envelope.Status))
	}
	return envelope
}

func (d *Dispatcher) runChat(ctx context.Context, message string, emotion turn.EmotionTag, window []turn.ConversationTurn) turn.ResponseEnvelope {
	if d.handlers.Chat == nil {
		return failure("chat handler unavailable")
	}
	d.emit(StateAwaitingHandler, "chat")

	reply, err := d.handlers.Chat.Run(ctx, turn.ChatParams{Message: message}, emotion, window)
	if err != nil {
		return failure(fmt.Sprintf("chat failed: %v", err))
	}
	return turn.ResponseEnvelope{
		Status:  turn.StatusSuccess,
		Payload: turn.Payload{Text: reply},
	}
}

func (d *Dispatcher) runSearch(ctx context.Context, query string, emotion turn.EmotionTag, window []turn.ConversationTurn) turn.ResponseEnvelope {
	if d.handlers.Search == nil {
		return failure("search handler unavailable")
	}
	d.emit(StateAwaitingHandler, "search")

	results, answer, err := d.handlers.Search.Run(ctx, turn.SearchParams{Query: query}, emotion, window)
	if err != nil {
		return failure(fmt.Sprintf("search failed: %v", err))
	}
	return turn.ResponseEnvelope{
		Status:  turn.StatusSuccess,
		Payload: turn.Payload{Text: answer, Results: results},
	}
}

func (d *Dispatcher) runImage(ctx context.Context, params turn.ImageParams, emotion turn.EmotionTag, window []turn.ConversationTurn) turn.ResponseEnvelope {
	if d.handlers.Image == nil {
		return failure("image handler unavailable")
	}
	d.emit(StateAwaitingHandler, "image")

	paths, err := d.handlers.Image.Run(ctx, params, emotion, window)
	if err != nil {
		if len(paths) > 0 {
			return turn.ResponseEnvelope{
				Status:      turn.StatusPartialFailure,
				Payload:     turn.Payload{FilePaths: paths},
				ErrorDetail: fmt.Sprintf("image generation incomplete: %v", err),
			}
		}
		return failure(fmt.Sprintf("image generation failed: %v", err))
	}
	return turn.ResponseEnvelope{
		Status:  turn.StatusSuccess,
		Payload: turn.Payload{FilePaths: paths},
	}
}

func (d *Dispatcher) runContent(ctx context.Context, params turn.ContentParams, emotion turn.EmotionTag, window []turn.ConversationTurn) turn.ResponseEnvelope {
	if d.handlers.Content == nil {
		return failure("content handler unavailable")
	}
	d.emit(StateAwaitingHandler, "content")

	text, path, err := d.handlers.Content.Run(ctx, params, emotion, window)
	if err != nil {
		return failure(fmt.Sprintf("content generation failed: %v", err))
	}
	return turn.ResponseEnvelope{
		Status:  turn.StatusSuccess,
		Payload: turn.Payload{Text: text, FilePaths: []string{path}},
	}
}

func (d *Dispatcher) runAutomation(ctx context.Context, params turn.AutomationParams, emotion turn.EmotionTag, window []turn.ConversationTurn) turn.ResponseEnvelope {
	if d.handlers.Automation == nil {
		return failure("automation handler unavailable")
	}

	if params.Action == turn.ActionOpen {
		// Capability check first: an unresolvable target goes straight to
		// the single search fallback instead of a doomed open attempt.
		if !d.handlers.Automation.CanResolve(params.Canonical) {
			log.Printf("[dispatch] cannot resolve %q, falling back to search", params.Target)
			return d.openFallback(ctx, params, emotion, window)
		}

		d.emit(StateAwaitingHandler, "automation")
		detail, err := d.handlers.Automation.Run(ctx, params, emotion, window)
		if err != nil {
			log.Printf("[dispatch] open %q failed, falling back to search: %v", params.Target, err)
			return d.openFallback(ctx, params, emotion, window)
		}
		return turn.ResponseEnvelope{
			Status:  turn.StatusSuccess,
			Payload: turn.Payload{Text: detail},
		}
	}

	d.emit(StateAwaitingHandler, "automation")
	detail, err := d.handlers.Automation.Run(ctx, params, emotion, window)
	if err == nil {
		return turn.ResponseEnvelope{
			Status:  turn.StatusSuccess,
			Payload: turn.Payload{Text: detail},
		}
	}

	if params.Action == turn.ActionClose && errors.Is(err, handlers.ErrTabNotFound) {
		// Never escalate a tab close to killing the host process.
		return turn.ResponseEnvelope{
			Status:      turn.StatusPartialFailure,
			Payload:     turn.Payload{Text: fmt.Sprintf("Could not find a %s tab; the browser was left running.", params.Canonical)},
			ErrorDetail: err.Error(),
		}
	}
	return failure(fmt.Sprintf("automation failed: %v", err))
}

// openFallback is the single bounded hop from a failed open to a search on
// the target name. It is never retried and never chains further.
func (d *Dispatcher) openFallback(ctx context.Context, params turn.AutomationParams, emotion turn.EmotionTag, window []turn.ConversationTurn) turn.ResponseEnvelope {
	if d.handlers.Search == nil {
		return failure(fmt.Sprintf("could not open %q and no search fallback is available", params.Target))
	}
	d.emit(StateAwaitingHandler, "search (open fallback)")

	results, answer, err := d.handlers.Search.Run(ctx, turn.SearchParams{Query: params.Target}, emotion, window)
	if err != nil {
		return failure(fmt.Sprintf("could not open %q and the search fallback failed: %v", params.Target, err))
	}
	return turn.ResponseEnvelope{
		Status:  turn.StatusSuccess,
		Payload: turn.Payload{Text: answer, Results: results},
	}
}

func failure(detail string) turn.ResponseEnvelope {
	return turn.ResponseEnvelope{Status: turn.StatusFailure, ErrorDetail: detail}
}
