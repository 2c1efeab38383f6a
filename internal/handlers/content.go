package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/auraproject/aura/internal/model/turn"
)

// ContentService writes long-form content (letters, code, essays) with an
// eino chain and saves the result to a text file the presentation layer can
// open in an editor.
type ContentService struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	outDir string
}

// NewContentService compiles the content-writer chain. outDir defaults to
// the system temp dir.
func NewContentService(ctx context.Context, chatModel model.ChatModel, outDir string) (*ContentService, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("content handler requires a chat model")
	}
	if outDir == "" {
		outDir = os.TempDir()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(contentSystemPrompt),
		schema.UserMessage("{topic}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile content chain: %w", err)
	}

	return &ContentService{chain: runnable, outDir: outDir}, nil
}

// Run writes content on the topic and returns the text plus the saved path.
func (s *ContentService) Run(ctx context.Context, params turn.ContentParams, emotion turn.EmotionTag, window []turn.ConversationTurn) (string, string, error) {
	topic := strings.TrimSpace(params.Topic)
	if topic == "" {
		return "", "", fmt.Errorf("empty content topic")
	}

	msg, err := s.chain.Invoke(ctx, map[string]any{"topic": topic})
	if err != nil {
		return "", "", fmt.Errorf("failed to run content chain: %w", err)
	}
	text := compactAnswer(msg.Content)

	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create content dir: %w", err)
	}
	path := filepath.Join(s.outDir, fmt.Sprintf("content_%s.txt", slugify(topic)))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", "", fmt.Errorf("save content: %w", err)
	}
	return text, path, nil
}

const contentSystemPrompt = `You are a content writer. Write the requested content: letters, code, applications, essays, notes, songs, poems, or summaries. Produce the content itself, with no preamble or commentary.`
