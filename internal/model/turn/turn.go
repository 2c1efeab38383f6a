package turn

import "time"

// Modality records how an utterance reached the assistant.
type Modality string

const (
	ModalityVoice Modality = "voice"
	ModalityTyped Modality = "typed"
)

// Utterance is a single normalized user input. Immutable once created.
type Utterance struct {
	Text       string    `json:"text"`
	Modality   Modality  `json:"modality"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// EmotionTag labels the sentiment of an utterance. It only modulates the
// tone passed to handlers and never changes routing.
type EmotionTag string

const (
	EmotionNeutral    EmotionTag = "neutral"
	EmotionHappy      EmotionTag = "happy"
	EmotionCurious    EmotionTag = "curious"
	EmotionUrgent     EmotionTag = "urgent"
	EmotionFrustrated EmotionTag = "frustrated"
)

// ParseEmotionTag maps a raw label to a known tag.
func ParseEmotionTag(raw string) (EmotionTag, bool) {
	switch EmotionTag(normalize(raw)) {
	case EmotionNeutral:
		return EmotionNeutral, true
	case EmotionHappy:
		return EmotionHappy, true
	case EmotionCurious:
		return EmotionCurious, true
	case EmotionUrgent:
		return EmotionUrgent, true
	case EmotionFrustrated:
		return EmotionFrustrated, true
	default:
		return "", false
	}
}

// Status classifies the outcome of a dispatched turn.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusFailure        Status = "failure"
)

// Payload carries the handler result. Exactly the fields matching the
// originating intent variant are populated.
type Payload struct {
	Text      string         `json:"text,omitempty"`
	FilePaths []string       `json:"filePaths,omitempty"`
	Results   []SearchResult `json:"results,omitempty"`
}

// SearchResult is one entry returned by the search handler.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// ResponseEnvelope is the normalized per-turn outcome. Never mutated after
// the dispatcher produces it.
type ResponseEnvelope struct {
	Status      Status  `json:"status"`
	Payload     Payload `json:"payload"`
	ErrorDetail string  `json:"errorDetail,omitempty"`
}

// ConversationTurn is one completed exchange. Immutable once appended.
type ConversationTurn struct {
	ID        string           `json:"id"`
	Utterance Utterance        `json:"utterance"`
	Emotion   EmotionTag       `json:"emotion"`
	Intent    Intent           `json:"intent"`
	Envelope  ResponseEnvelope `json:"envelope"`
	CreatedAt time.Time        `json:"createdAt"`
}
