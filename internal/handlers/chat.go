package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/auraproject/aura/internal/model/turn"
)

// ChatService is the conversational handler: an eino chain carrying the
// assistant persona, the rolling history, and an emotion-conditioned tone
// hint.
type ChatService struct {
	chain         compose.Runnable[map[string]any, *schema.Message]
	userName      string
	assistantName string
	historyLimit  int
}

// NewChatService compiles the conversation chain.
func NewChatService(ctx context.Context, chatModel model.ChatModel, userName, assistantName string) (*ChatService, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat handler requires a chat model")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ChatService{
		chain:         runnable,
		userName:      userName,
		assistantName: assistantName,
		historyLimit:  10,
	}, nil
}

// Run generates a reply for the user's message.
func (s *ChatService) Run(ctx context.Context, params turn.ChatParams, emotion turn.EmotionTag, window []turn.ConversationTurn) (string, error) {
	input := map[string]any{
		"system":  s.buildSystemPrompt(emotion),
		"history": s.buildHistory(window),
		"query":   strings.TrimSpace(params.Message),
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}
	return compactAnswer(response.Content), nil
}

func (s *ChatService) buildSystemPrompt(emotion turn.EmotionTag) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "You are %s, a helpful desktop assistant talking to %s. ", s.assistantName, s.userName)
	builder.WriteString("Answer concisely in plain language and stay on topic.")
	if hint := toneHint(emotion); hint != "" {
		builder.WriteString("\n")
		builder.WriteString(hint)
	}
	return builder.String()
}

func (s *ChatService) buildHistory(window []turn.ConversationTurn) []*schema.Message {
	if len(window) == 0 {
		return nil
	}

	start := 0
	if len(window) > s.historyLimit {
		start = len(window) - s.historyLimit
	}

	history := make([]*schema.Message, 0, 2*(len(window)-start))
	for _, ct := range window[start:] {
		if text := strings.TrimSpace(ct.Utterance.Text); text != "" {
			history = append(history, schema.UserMessage(text))
		}
		if reply := strings.TrimSpace(ct.Envelope.Payload.Text); reply != "" {
			history = append(history, schema.AssistantMessage(reply, nil))
		}
	}
	return history
}

// toneHint translates the emotion tag into a response-style instruction.
// The tag never changes what is answered, only how.
func toneHint(emotion turn.EmotionTag) string {
	switch emotion {
	case turn.EmotionHappy:
		return "The user is in a good mood; keep the reply light and warm."
	case turn.EmotionCurious:
		return "The user is curious; explain a little more than usual."
	case turn.EmotionUrgent:
		return "The user is in a hurry; lead with the answer and skip pleasantries."
	case turn.EmotionFrustrated:
		return "The user is frustrated; be calm, direct, and avoid filler."
	default:
		return ""
	}
}

// compactAnswer drops empty lines so replies render tightly.
func compactAnswer(answer string) string {
	lines := strings.Split(answer, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
