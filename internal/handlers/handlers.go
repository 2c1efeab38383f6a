// Package handlers defines the narrow interfaces the dispatcher invokes, one
// per intent variant, plus the built-in implementations. Handlers are treated
// as potentially long-running blocking calls; they either complete, fail, or
// time out via the caller's context. No handler touches the context window.
package handlers

import (
	"context"
	"errors"

	"github.com/auraproject/aura/internal/model/turn"
)

var (
	// ErrAppNotFound reports that an open request could not resolve its
	// target. The dispatcher answers it with a single search fallback.
	ErrAppNotFound = errors.New("application not found")
	// ErrTabNotFound reports that a close request could not locate the
	// specific tab. It must never escalate to killing the host process.
	ErrTabNotFound = errors.New("tab not found")
)

// Chat produces a conversational reply.
type Chat interface {
	Run(ctx context.Context, params turn.ChatParams, emotion turn.EmotionTag, window []turn.ConversationTurn) (string, error)
}

// Search answers a query with live web results and an optional synthesized
// summary.
type Search interface {
	Run(ctx context.Context, params turn.SearchParams, emotion turn.EmotionTag, window []turn.ConversationTurn) ([]turn.SearchResult, string, error)
}

// Image generates images for a prompt and returns the stored file paths.
type Image interface {
	Run(ctx context.Context, params turn.ImageParams, emotion turn.EmotionTag, window []turn.ConversationTurn) ([]string, error)
}

// Content writes long-form content and returns the text plus the file it was
// saved to.
type Content interface {
	Run(ctx context.Context, params turn.ContentParams, emotion turn.EmotionTag, window []turn.ConversationTurn) (string, string, error)
}

// Automation executes OS-level actions. CanResolve is the capability query
// the dispatcher consults before attempting an open, so an unresolvable
// target can skip straight to the search fallback.
type Automation interface {
	Run(ctx context.Context, params turn.AutomationParams, emotion turn.EmotionTag, window []turn.ConversationTurn) (string, error)
	CanResolve(target string) bool
}

// Set bundles one handler per intent variant for the dispatcher.
type Set struct {
	Chat       Chat
	Search     Search
	Image      Image
	Content    Content
	Automation Automation
}
