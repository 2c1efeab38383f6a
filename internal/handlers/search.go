package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/auraproject/aura/internal/model/turn"
)

// SearchProvider fetches live web results for a query.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]turn.SearchResult, error)
}

// HTTPSearchProvider queries a SearXNG-style JSON search endpoint.
type HTTPSearchProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSearchProvider builds the provider; baseURL points at the /search
// endpoint of the instance.
func NewHTTPSearchProvider(baseURL string, timeout time.Duration) *HTTPSearchProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSearchProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
	} `json:"results"`
}

// Search fetches the top results for the query.
func (p *HTTPSearchProvider) Search(ctx context.Context, query string, maxResults int) ([]turn.SearchResult, error) {
	endpoint := fmt.Sprintf("%s?q=%s&format=json", p.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint returned status %d", resp.StatusCode)
	}

	var payload searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]turn.SearchResult, 0, maxResults)
	for _, r := range payload.Results {
		if len(results) == maxResults {
			break
		}
		results = append(results, turn.SearchResult{
			Title:   r.Title,
			Snippet: r.Content,
			Link:    r.URL,
		})
	}
	return results, nil
}

// SearchService is the real-time search handler: provider results, optionally
// synthesized into a natural-language answer by an eino chain.
type SearchService struct {
	provider   SearchProvider
	summarizer compose.Runnable[map[string]any, *schema.Message]
	maxResults int
}

// NewSearchService builds the handler. chatModel may be nil; results are then
// returned without a synthesized summary.
func NewSearchService(ctx context.Context, provider SearchProvider, chatModel model.ChatModel, maxResults int) (*SearchService, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	svc := &SearchService{provider: provider, maxResults: maxResults}
	if chatModel == nil {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(searchSystemPrompt),
		schema.UserMessage(searchUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile search summarizer chain: %w", err)
	}
	svc.summarizer = runnable
	return svc, nil
}

// Run searches and, when a model is available, answers from the results.
func (s *SearchService) Run(ctx context.Context, params turn.SearchParams, emotion turn.EmotionTag, window []turn.ConversationTurn) ([]turn.SearchResult, string, error) {
	results, err := s.provider.Search(ctx, params.Query, s.maxResults)
	if err != nil {
		return nil, "", err
	}
	if len(results) == 0 {
		return nil, "", fmt.Errorf("no results for %q", params.Query)
	}

	if s.summarizer == nil {
		return results, formatResults(params.Query, results), nil
	}

	msg, err := s.summarizer.Invoke(ctx, map[string]any{
		"query":   params.Query,
		"results": formatResults(params.Query, results),
	})
	if err != nil {
		// The search itself succeeded; a summarizer hiccup should not fail
		// the turn.
		log.Printf("[search] summarizer failed, returning raw results: %v", err)
		return results, formatResults(params.Query, results), nil
	}
	return results, compactAnswer(msg.Content), nil
}

// formatResults brackets the results so the model can tell data from
// instructions.
func formatResults(query string, results []turn.SearchResult) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "The search results for '%s' are:\n[start]\n", query)
	for _, r := range results {
		fmt.Fprintf(&builder, "Title: %s\nDescription: %s\nLink: %s\n\n", r.Title, r.Snippet, r.Link)
	}
	builder.WriteString("[end]")
	return builder.String()
}

const searchSystemPrompt = `You are a desktop assistant with access to fresh web search results. Answer the user's question using only the information between [start] and [end]. Be concise and do not mention the search mechanics.`

const searchUserPrompt = `{results}

Question: {query}`
