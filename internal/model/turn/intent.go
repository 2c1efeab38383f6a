package turn

import "strings"

// Category is the closed set of action categories an utterance can map to.
type Category string

const (
	CategoryAutomation        Category = "automation"
	CategoryChat              Category = "chat"
	CategorySearch            Category = "search"
	CategoryImageGeneration   Category = "image_generation"
	CategoryContentGeneration Category = "content_generation"
	CategoryUnknown           Category = "unknown"
)

// Priority returns the fixed tie-break rank of a category; lower wins.
// Action-taking intents are costlier to miss than conversational ones.
func (c Category) Priority() int {
	switch c {
	case CategoryAutomation:
		return 0
	case CategorySearch:
		return 1
	case CategoryImageGeneration:
		return 2
	case CategoryContentGeneration:
		return 3
	case CategoryChat:
		return 4
	default:
		return 5
	}
}

// AutomationAction distinguishes what an automation intent asks for.
type AutomationAction string

const (
	ActionOpen     AutomationAction = "open"
	ActionClose    AutomationAction = "close"
	ActionSystemOp AutomationAction = "system"
)

// CloseScope separates closing a tab from closing a whole process. Closing a
// tab must never escalate to killing the host process.
type CloseScope string

const (
	ScopeProcess CloseScope = "process"
	ScopeTab     CloseScope = "tab"
)

// AutomationParams describes an automation request.
type AutomationParams struct {
	Action AutomationAction `json:"action"`
	// Target is the user's wording, kept verbatim for the search fallback.
	Target string `json:"target"`
	// Canonical is the controlled-vocabulary identifier for Target, equal to
	// Target when no mapping exists.
	Canonical string     `json:"canonical"`
	Scope     CloseScope `json:"scope,omitempty"`
	// Resolved reports whether Target mapped into the known vocabulary.
	Resolved bool `json:"resolved"`
}

// ChatParams carries the conversational message.
type ChatParams struct {
	Message string `json:"message"`
}

// SearchParams carries a real-time search query.
type SearchParams struct {
	Query string `json:"query"`
}

// ImageParams carries an image generation prompt.
type ImageParams struct {
	Prompt string `json:"prompt"`
}

// ContentParams carries a content writing topic.
type ContentParams struct {
	Topic string `json:"topic"`
}

// Intent is the tagged classification of one utterance. Exactly the variant
// field matching Category is non-nil.
type Intent struct {
	Category   Category          `json:"category"`
	Automation *AutomationParams `json:"automation,omitempty"`
	Chat       *ChatParams       `json:"chat,omitempty"`
	Search     *SearchParams     `json:"search,omitempty"`
	Image      *ImageParams      `json:"image,omitempty"`
	Content    *ContentParams    `json:"content,omitempty"`
}

// UnknownIntent is the terminal classification for unclassifiable input.
func UnknownIntent() Intent {
	return Intent{Category: CategoryUnknown}
}

// ChatIntent builds a chat-variant intent for the given message.
func ChatIntent(message string) Intent {
	return Intent{Category: CategoryChat, Chat: &ChatParams{Message: message}}
}

// SearchIntent builds a search-variant intent for the given query.
func SearchIntent(query string) Intent {
	return Intent{Category: CategorySearch, Search: &SearchParams{Query: query}}
}

// ImageIntent builds an image-generation intent.
func ImageIntent(prompt string) Intent {
	return Intent{Category: CategoryImageGeneration, Image: &ImageParams{Prompt: prompt}}
}

// ContentIntent builds a content-generation intent.
func ContentIntent(topic string) Intent {
	return Intent{Category: CategoryContentGeneration, Content: &ContentParams{Topic: topic}}
}

// AutomationIntent builds an automation intent.
func AutomationIntent(params AutomationParams) Intent {
	return Intent{Category: CategoryAutomation, Automation: &params}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
