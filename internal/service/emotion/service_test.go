package emotion

import (
	"context"
	"testing"

	"github.com/auraproject/aura/internal/model/turn"
)

func TestTagWithoutModelUsesHeuristic(t *testing.T) {
	svc, err := NewService(context.Background(), nil, Config{Enabled: true})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	if svc.Enabled() {
		t.Fatal("service without a model must not report enabled")
	}

	tag := svc.Tag(context.Background(), turn.Utterance{Text: "this is broken again, useless"}, nil)
	if tag != turn.EmotionFrustrated {
		t.Fatalf("expected frustrated, got %s", tag)
	}
}

func TestTagNeutralDefault(t *testing.T) {
	svc, _ := NewService(context.Background(), nil, Config{})

	tag := svc.Tag(context.Background(), turn.Utterance{Text: "set a timer for ten minutes"}, nil)
	if tag != turn.EmotionNeutral {
		t.Fatalf("expected neutral default, got %s", tag)
	}
}

func TestParseClassifierOutput(t *testing.T) {
	payload, err := parseClassifierOutput("Sure! {\"emotion\":\"curious\",\"confidence\":0.8,\"reason\":\"asks how\"} done")
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if payload.Emotion != "curious" {
		t.Fatalf("unexpected emotion %q", payload.Emotion)
	}

	if _, err := parseClassifierOutput("no json here"); err == nil {
		t.Fatal("expected error for missing json")
	}
}
