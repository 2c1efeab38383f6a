package intent

import (
	"strings"

	"github.com/auraproject/aura/internal/model/turn"
)

// commandKeywords are the only prefixes accepted from the decision model,
// longest first so "google search" wins over bare matches.
var commandKeywords = []string{
	"generate image",
	"google search",
	"youtube search",
	"realtime",
	"general",
	"content",
	"reminder",
	"system",
	"close",
	"open",
	"play",
	"exit",
}

// webTargets are things that live in a browser tab, not as their own
// process. Closing one must target the tab, never the host browser.
var webTargets = map[string]bool{
	"youtube":   true,
	"facebook":  true,
	"instagram": true,
	"twitter":   true,
	"gmail":     true,
	"reddit":    true,
	"netflix":   true,
	"whatsapp":  true,
}

// parseDecision reduces the decision model's comma-separated command list to
// exactly one Intent, breaking ties with the fixed category priority.
func parseDecision(output, utterance string) turn.Intent {
	segments := strings.Split(strings.ReplaceAll(output, "\n", " "), ",")

	best := turn.UnknownIntent()
	for _, segment := range segments {
		candidate, ok := parseCommand(strings.TrimSpace(segment), utterance)
		if !ok {
			continue
		}
		if candidate.Category.Priority() < best.Category.Priority() {
			best = candidate
		}
	}
	return best
}

// parseCommand converts one "keyword remainder" segment into an Intent.
func parseCommand(segment, utterance string) (turn.Intent, bool) {
	lowered := strings.ToLower(segment)

	for _, keyword := range commandKeywords {
		if !strings.HasPrefix(lowered, keyword) {
			continue
		}
		remainder := strings.TrimSpace(segment[len(keyword):])
		remainder = strings.Trim(remainder, "()")
		return commandToIntent(keyword, remainder, utterance)
	}
	return turn.Intent{}, false
}

func commandToIntent(keyword, remainder, utterance string) (turn.Intent, bool) {
	switch keyword {
	case "open":
		if remainder == "" {
			return turn.Intent{}, false
		}
		canonical, resolved := Canonicalize(remainder)
		return turn.AutomationIntent(turn.AutomationParams{
			Action:    turn.ActionOpen,
			Target:    remainder,
			Canonical: canonical,
			Resolved:  resolved,
		}), true

	case "close":
		if remainder == "" {
			return turn.Intent{}, false
		}
		canonical, resolved := Canonicalize(remainder)
		return turn.AutomationIntent(turn.AutomationParams{
			Action:    turn.ActionClose,
			Target:    remainder,
			Canonical: canonical,
			Scope:     closeScope(remainder, utterance),
			Resolved:  resolved,
		}), true

	case "system":
		if remainder == "" {
			return turn.Intent{}, false
		}
		return turn.AutomationIntent(turn.AutomationParams{
			Action:    turn.ActionSystemOp,
			Target:    remainder,
			Canonical: strings.ToLower(remainder),
			Resolved:  true,
		}), true

	case "realtime", "google search", "youtube search":
		query := remainder
		if query == "" {
			query = utterance
		}
		return turn.SearchIntent(query), true

	case "play":
		// Media playback resolves through a search; the source played the top
		// result for the query.
		if remainder == "" {
			return turn.Intent{}, false
		}
		return turn.SearchIntent(remainder), true

	case "generate image":
		if remainder == "" {
			return turn.Intent{}, false
		}
		return turn.ImageIntent(remainder), true

	case "content":
		if remainder == "" {
			return turn.Intent{}, false
		}
		return turn.ContentIntent(remainder), true

	case "general", "reminder", "exit":
		message := remainder
		if message == "" {
			message = utterance
		}
		return turn.ChatIntent(message), true
	}
	return turn.Intent{}, false
}

// closeScope decides whether a close request targets a browser tab or a
// whole process.
func closeScope(target, utterance string) turn.CloseScope {
	lowered := strings.ToLower(utterance)
	if strings.Contains(lowered, "tab") {
		return turn.ScopeTab
	}
	if webTargets[strings.ToLower(strings.TrimSpace(target))] {
		return turn.ScopeTab
	}
	return turn.ScopeProcess
}
