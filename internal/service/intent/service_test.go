package intent

import (
	"context"
	"testing"

	"github.com/auraproject/aura/internal/model/turn"
)

func TestClassifyUnavailableReturnsUnknown(t *testing.T) {
	svc, err := NewService(context.Background(), nil, Config{Enabled: true})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	if svc.Enabled() {
		t.Fatal("service without a model must not report enabled")
	}

	intent := svc.Classify(context.Background(), turn.Utterance{Text: "what's the weather"}, nil)
	if intent.Category != turn.CategoryUnknown {
		t.Fatalf("expected unknown intent, got %s", intent.Category)
	}
}

func TestParseDecisionSingleCommand(t *testing.T) {
	intent := parseDecision("open notepad", "open notepad")
	if intent.Category != turn.CategoryAutomation {
		t.Fatalf("expected automation, got %s", intent.Category)
	}
	if intent.Automation.Action != turn.ActionOpen {
		t.Fatalf("expected open action, got %s", intent.Automation.Action)
	}
	if intent.Automation.Canonical != "notepad" || !intent.Automation.Resolved {
		t.Fatalf("unexpected canonicalization: %+v", intent.Automation)
	}
}

func TestParseDecisionPriorityTieBreak(t *testing.T) {
	// Mixed output: automation must win over general chat.
	intent := parseDecision("general tell me about gandhi, open chrome", "open chrome and tell me about gandhi")
	if intent.Category != turn.CategoryAutomation {
		t.Fatalf("expected automation to win tie-break, got %s", intent.Category)
	}
	if intent.Automation.Canonical != "google chrome" {
		t.Fatalf("expected canonical chrome target, got %q", intent.Automation.Canonical)
	}

	// Search outranks content and chat.
	intent = parseDecision("content essay on rivers, google search longest river", "")
	if intent.Category != turn.CategorySearch {
		t.Fatalf("expected search to win, got %s", intent.Category)
	}
	if intent.Search.Query != "longest river" {
		t.Fatalf("unexpected query %q", intent.Search.Query)
	}
}

func TestParseDecisionUnmappedTargetPassesThrough(t *testing.T) {
	intent := parseDecision("open quantum notepad", "Open Quantum Notepad")
	if intent.Category != turn.CategoryAutomation {
		t.Fatalf("expected automation, got %s", intent.Category)
	}
	if intent.Automation.Resolved {
		t.Fatal("unmapped target must not be marked resolved")
	}
	if intent.Automation.Canonical != "quantum notepad" {
		t.Fatalf("unmapped target must pass through verbatim, got %q", intent.Automation.Canonical)
	}
}

func TestParseDecisionCloseTabScope(t *testing.T) {
	intent := parseDecision("close youtube", "Close YouTube")
	if intent.Category != turn.CategoryAutomation {
		t.Fatalf("expected automation, got %s", intent.Category)
	}
	if intent.Automation.Scope != turn.ScopeTab {
		t.Fatalf("closing a site must scope to the tab, got %s", intent.Automation.Scope)
	}

	intent = parseDecision("close notepad", "close notepad")
	if intent.Automation.Scope != turn.ScopeProcess {
		t.Fatalf("closing an app must scope to the process, got %s", intent.Automation.Scope)
	}
}

func TestParseDecisionGarbageIsUnknown(t *testing.T) {
	intent := parseDecision("the answer is 42", "what is the answer")
	if intent.Category != turn.CategoryUnknown {
		t.Fatalf("expected unknown for unparseable output, got %s", intent.Category)
	}
}

func TestParseDecisionVariantsCarryParams(t *testing.T) {
	if intent := parseDecision("generate image a lion at dusk", ""); intent.Image == nil || intent.Image.Prompt != "a lion at dusk" {
		t.Fatalf("image params lost: %+v", intent)
	}
	if intent := parseDecision("content application for sick leave", ""); intent.Content == nil || intent.Content.Topic != "application for sick leave" {
		t.Fatalf("content params lost: %+v", intent)
	}
	if intent := parseDecision("system volume up", ""); intent.Automation == nil || intent.Automation.Action != turn.ActionSystemOp {
		t.Fatalf("system op lost: %+v", intent)
	}
	if intent := parseDecision("play let her go", ""); intent.Search == nil || intent.Search.Query != "let her go" {
		t.Fatalf("play must resolve through search: %+v", intent)
	}
}

func TestRuleClassify(t *testing.T) {
	intent, ok := RuleClassify("open calculator")
	if !ok || intent.Category != turn.CategoryAutomation {
		t.Fatalf("expected automation rule hit, got ok=%v %+v", ok, intent)
	}
	if intent.Automation.Canonical != "calculator" {
		t.Fatalf("unexpected canonical %q", intent.Automation.Canonical)
	}

	intent, ok = RuleClassify("turn the volume up please")
	if !ok || intent.Automation == nil || intent.Automation.Action != turn.ActionSystemOp {
		t.Fatalf("expected system-op rule hit, got ok=%v %+v", ok, intent)
	}

	if _, ok = RuleClassify("what's the weather like"); ok {
		t.Fatal("rules must not claim conversational queries")
	}
}

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in       string
		want     string
		resolved bool
	}{
		{"chrome", "google chrome", true},
		{"the terminal", "cmd", true},
		{"Files", "file explorer", true},
		{"Quantum Notepad", "Quantum Notepad", false},
	}
	for _, tc := range cases {
		got, resolved := Canonicalize(tc.in)
		if got != tc.want || resolved != tc.resolved {
			t.Fatalf("Canonicalize(%q) = %q,%v want %q,%v", tc.in, got, resolved, tc.want, tc.resolved)
		}
	}
}
