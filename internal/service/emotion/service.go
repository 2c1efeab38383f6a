package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/auraproject/aura/internal/analysis/emotion"
	"github.com/auraproject/aura/internal/model/turn"
)

// Config controls the emotion tagging service.
type Config struct {
	Enabled      bool
	HistoryLimit int
}

// Service tags utterances with a sentiment label. The LLM classifier is
// optional; heuristic keyword scoring covers the degraded path. Tagging is a
// pure read: no side effects, and it never fails the caller.
type Service struct {
	enabled      bool
	classifier   compose.Runnable[map[string]any, *schema.Message]
	fallback     func(utterance, previous string) analysis.Decision
	historyLimit int
}

// NewService builds the tagger. chatModel may be nil, which pins the service
// to the heuristic path.
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 6
	}

	svc := &Service{
		enabled:      cfg.Enabled && chatModel != nil,
		fallback:     analysis.Analyze,
		historyLimit: historyLimit,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(emotionSystemPrompt),
		schema.UserMessage(emotionUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether the LLM classifier is wired up.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Tag labels the utterance with one emotion from the closed vocabulary.
// Classifier trouble of any kind degrades to the heuristic, and ultimately
// to Neutral.
func (s *Service) Tag(ctx context.Context, utterance turn.Utterance, window []turn.ConversationTurn) turn.EmotionTag {
	if !s.Enabled() {
		return s.heuristic(utterance, window)
	}

	input := map[string]any{
		"history":   formatHistory(window, s.historyLimit),
		"utterance": strings.TrimSpace(utterance.Text),
	}

	msg, err := s.classifier.Invoke(ctx, input)
	if err != nil {
		log.Printf("[emotion] classifier invoke failed, using heuristic: %v", err)
		return s.heuristic(utterance, window)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.heuristic(utterance, window)
	}

	payload, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Printf("[emotion] classifier output parse failed, using heuristic: %v", err)
		return s.heuristic(utterance, window)
	}

	label, ok := turn.ParseEmotionTag(payload.Emotion)
	if !ok {
		return s.heuristic(utterance, window)
	}
	return label
}

func (s *Service) heuristic(utterance turn.Utterance, window []turn.ConversationTurn) turn.EmotionTag {
	previous := ""
	if len(window) > 0 {
		previous = window[len(window)-1].Utterance.Text
	}
	return s.fallback(utterance.Text, previous).Emotion
}

type classifierPayload struct {
	Emotion    string  `json:"emotion"`
	Confidence float32 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// parseClassifierOutput extracts the JSON object from the model reply.
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func formatHistory(window []turn.ConversationTurn, limit int) string {
	if len(window) == 0 {
		return "no prior conversation"
	}
	if limit < 1 {
		limit = 1
	}
	start := len(window) - limit
	if start < 0 {
		start = 0
	}

	var builder strings.Builder
	for i := start; i < len(window); i++ {
		text := strings.TrimSpace(window[i].Utterance.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("user: ")
		builder.WriteString(text)
	}
	if builder.Len() == 0 {
		return "no prior conversation"
	}
	return builder.String()
}

const emotionSystemPrompt = `You are a sentiment analyst for a desktop assistant. Read the recent conversation and the user's latest utterance, then decide the user's current emotion.
Return only a JSON object with these fields: emotion (one of neutral/happy/curious/urgent/frustrated), confidence (0 to 1), reason (one short sentence). No extra text.`

const emotionUserPrompt = `Recent conversation:
{history}

Latest utterance:
{utterance}

Respond with the JSON object only.`
