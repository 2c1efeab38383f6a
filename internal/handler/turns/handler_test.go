package turns_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/auraproject/aura/internal/handler/turns"
	"github.com/auraproject/aura/internal/handlers"
	"github.com/auraproject/aura/internal/model/turn"
	"github.com/auraproject/aura/internal/service/brain"
	"github.com/auraproject/aura/internal/service/dispatch"
	"github.com/auraproject/aura/internal/store"
)

type fixedTagger struct{}

func (fixedTagger) Tag(ctx context.Context, utterance turn.Utterance, window []turn.ConversationTurn) turn.EmotionTag {
	return turn.EmotionNeutral
}

type chatClassifier struct{}

func (chatClassifier) Classify(ctx context.Context, utterance turn.Utterance, window []turn.ConversationTurn) turn.Intent {
	return turn.ChatIntent(utterance.Text)
}

type cannedChat struct{}

func (cannedChat) Run(ctx context.Context, params turn.ChatParams, emotion turn.EmotionTag, window []turn.ConversationTurn) (string, error) {
	return "reply to " + params.Message, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	turnStore := store.NewContextStore(nil, 8)
	dispatcher := dispatch.New(handlers.Set{Chat: cannedChat{}}, nil, 0)
	brainRouter := brain.NewRouter(fixedTagger{}, chatClassifier{}, dispatcher, turnStore, nil)

	r := chi.NewRouter()
	turns.New(brainRouter).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postTurn(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(srv.URL+"/turns", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCreateTurnReturnsRecordedTurn(t *testing.T) {
	srv := newTestServer(t)

	resp := postTurn(t, srv, `{"text": "tell me a joke", "modality": "typed"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var recorded turn.ConversationTurn
	if err := json.NewDecoder(resp.Body).Decode(&recorded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if recorded.ID == "" {
		t.Fatal("expected assigned turn id")
	}
	if recorded.Intent.Category != turn.CategoryChat {
		t.Fatalf("expected chat intent, got %s", recorded.Intent.Category)
	}
	if recorded.Envelope.Status != turn.StatusSuccess {
		t.Fatalf("expected success envelope, got %s", recorded.Envelope.Status)
	}
	if recorded.Envelope.Payload.Text != "reply to tell me a joke" {
		t.Fatalf("unexpected payload text %q", recorded.Envelope.Payload.Text)
	}
}

func TestCreateTurnRejectsEmptyText(t *testing.T) {
	srv := newTestServer(t)

	resp := postTurn(t, srv, `{"text": "   "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateTurnRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	resp := postTurn(t, srv, `{"text": `)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateTurnDefaultsUnknownModalityToTyped(t *testing.T) {
	srv := newTestServer(t)

	resp := postTurn(t, srv, `{"text": "hello", "modality": "telepathy"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var recorded turn.ConversationTurn
	if err := json.NewDecoder(resp.Body).Decode(&recorded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if recorded.Utterance.Modality != turn.ModalityTyped {
		t.Fatalf("expected typed modality, got %s", recorded.Utterance.Modality)
	}
}

func TestWindowReflectsRecentTurns(t *testing.T) {
	srv := newTestServer(t)

	postTurn(t, srv, `{"text": "first"}`)
	postTurn(t, srv, `{"text": "second"}`)

	resp, err := http.Get(srv.URL + "/turns/window")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()

	var window []turn.ConversationTurn
	if err := json.NewDecoder(resp.Body).Decode(&window); err != nil {
		t.Fatalf("failed to decode window: %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("expected 2 turns in window, got %d", len(window))
	}
	if window[0].Utterance.Text != "first" || window[1].Utterance.Text != "second" {
		t.Fatalf("window out of order: %q, %q", window[0].Utterance.Text, window[1].Utterance.Text)
	}
}

func TestExportStreamsNDJSONInOrder(t *testing.T) {
	srv := newTestServer(t)

	for _, text := range []string{"one", "two", "three"} {
		postTurn(t, srv, `{"text": "`+text+`"}`)
	}

	resp, err := http.Get(srv.URL + "/turns/export")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "application/x-ndjson" {
		t.Fatalf("unexpected content type %q", got)
	}

	var texts []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ct turn.ConversationTurn
		if err := json.Unmarshal([]byte(line), &ct); err != nil {
			t.Fatalf("bad NDJSON line %q: %v", line, err)
		}
		texts = append(texts, ct.Utterance.Text)
	}

	want := []string{"one", "two", "three"}
	if len(texts) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(texts))
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], texts[i])
		}
	}
}
