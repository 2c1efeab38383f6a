package intent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/auraproject/aura/internal/model/turn"
)

// Config controls the intent classification service.
type Config struct {
	Enabled      bool
	HistoryLimit int
}

// Service classifies utterances into exactly one intent variant. The
// decision model runs behind an eino chain; when it is unreachable the
// service degrades to Unknown rather than raising to the caller.
type Service struct {
	enabled      bool
	classifier   compose.Runnable[map[string]any, *schema.Message]
	historyLimit int
}

// NewService builds the classifier. chatModel may be nil, which leaves the
// service permanently degraded.
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 6
	}

	svc := &Service{
		enabled:      cfg.Enabled && chatModel != nil,
		historyLimit: historyLimit,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(decisionSystemPrompt),
		schema.UserMessage(decisionUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile decision chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether the decision model is wired up.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Classify resolves an utterance to exactly one Intent. It never fails:
// an unreachable decision model yields Unknown, and reachable-but-garbled
// output falls back to rule matching, then to open conversation, the same
// ladder the decision layer has always used.
func (s *Service) Classify(ctx context.Context, utterance turn.Utterance, window []turn.ConversationTurn) turn.Intent {
	if !s.Enabled() {
		return turn.UnknownIntent()
	}

	input := map[string]any{
		"history": formatHistory(window, s.historyLimit),
		"query":   strings.TrimSpace(utterance.Text),
	}

	msg, err := s.classifier.Invoke(ctx, input)
	if err != nil {
		log.Printf("[intent] decision model unreachable, classifying as unknown: %v", err)
		return turn.UnknownIntent()
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.recover(utterance)
	}

	parsed := parseDecision(msg.Content, utterance.Text)
	if parsed.Category == turn.CategoryUnknown {
		return s.recover(utterance)
	}
	return parsed
}

// recover handles a live model that produced nothing usable.
func (s *Service) recover(utterance turn.Utterance) turn.Intent {
	if intent, ok := RuleClassify(utterance.Text); ok {
		return intent
	}
	return turn.ChatIntent(strings.TrimSpace(utterance.Text))
}

// RuleClassify matches obvious imperative commands without a model. It only
// claims an intent on a confident verb match.
func RuleClassify(text string) (turn.Intent, bool) {
	lowered := strings.ToLower(strings.TrimSpace(text))

	switch {
	case strings.HasPrefix(lowered, "open "):
		return parseCommand("open "+strings.TrimPrefix(lowered, "open "), text)
	case strings.HasPrefix(lowered, "close "):
		return parseCommand("close "+strings.TrimPrefix(lowered, "close "), text)
	case strings.HasPrefix(lowered, "search for "):
		return turn.SearchIntent(strings.TrimSpace(text[len("search for "):])), true
	case strings.HasPrefix(lowered, "google "):
		return turn.SearchIntent(strings.TrimSpace(text[len("google "):])), true
	case strings.HasPrefix(lowered, "generate image of "):
		return turn.ImageIntent(strings.TrimSpace(text[len("generate image of "):])), true
	case strings.HasPrefix(lowered, "generate an image of "):
		return turn.ImageIntent(strings.TrimSpace(text[len("generate an image of "):])), true
	}

	for _, op := range []string{"mute", "unmute", "volume up", "volume down", "brightness up", "brightness down", "lock screen", "shutdown", "restart"} {
		if strings.Contains(lowered, op) {
			return turn.AutomationIntent(turn.AutomationParams{
				Action:    turn.ActionSystemOp,
				Target:    op,
				Canonical: op,
				Resolved:  true,
			}), true
		}
	}

	return turn.Intent{}, false
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
		ct := window[i]
		text := strings.TrimSpace(ct.Utterance.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("user: ")
		builder.WriteString(text)
		if reply := strings.TrimSpace(ct.Envelope.Payload.Text); reply != "" {
			builder.WriteString("\nassistant: ")
			builder.WriteString(reply)
		}
	}
	if builder.Len() == 0 {
		return "no prior conversation"
	}
	return builder.String()
}

const decisionSystemPrompt = `You are a very accurate decision-making model. You classify a user query into commands; you never answer the query itself.
Respond with one or more of the following commands, comma separated:
- 'general ( query )' for conversational or knowledge questions a language model can answer without live data, including incomplete queries like 'who is he?'.
- 'realtime ( query )' for questions that need up-to-date information such as news, weather, prices, or facts about specific people.
- 'open (application name)' to open an application or website. Always use the exact system name: 'files' means 'open file explorer', 'terminal' means 'open cmd', 'chrome' means 'open google chrome', 'edge' means 'open microsoft edge'.
- 'close (application name)' to close an application, site, or tab.
- 'play (song name)' for media playback.
- 'generate image (prompt)' for image creation requests.
- 'system (task name)' for hardware control: mute, unmute, volume up, volume down, brightness up, brightness down, lock screen, shutdown, restart.
- 'content (topic)' for writing tasks like letters, emails, code, or essays.
- 'google search (topic)' or 'youtube search (topic)' for explicit search requests.
If the query asks for several tasks, emit each command separated by commas. If you cannot decide, respond with 'general ( query )'. Output only commands, nothing else.`

const decisionUserPrompt = `Recent conversation:
{history}

User query:
{query}

Respond with the command list only.`
