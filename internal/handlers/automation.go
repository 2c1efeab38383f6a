package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/auraproject/aura/internal/model/turn"
)

// Executor is the port to the OS automation primitives. The desktop
// integration supplies the real bindings; this core never manipulates
// windows or processes itself.
type Executor interface {
	OpenApp(ctx context.Context, app string) error
	CloseProcess(ctx context.Context, app string) error
	// CloseTab closes one matching tab inside the host browser. It must
	// report ErrTabNotFound rather than touching the process when the tab
	// cannot be located.
	CloseTab(ctx context.Context, target string) error
	SystemOp(ctx context.Context, op string) error
	CanResolve(app string) bool
}

// AutomationService adapts an Executor to the dispatcher's handler contract.
type AutomationService struct {
	exec Executor
}

// NewAutomationService wraps the given executor.
func NewAutomationService(exec Executor) *AutomationService {
	return &AutomationService{exec: exec}
}

// CanResolve reports whether the executor knows the target.
func (s *AutomationService) CanResolve(target string) bool {
	return s.exec.CanResolve(target)
}

// Run executes one automation action and describes the outcome.
func (s *AutomationService) Run(ctx context.Context, params turn.AutomationParams, emotion turn.EmotionTag, window []turn.ConversationTurn) (string, error) {
	switch params.Action {
	case turn.ActionOpen:
		if err := s.exec.OpenApp(ctx, params.Canonical); err != nil {
			return "", fmt.Errorf("open %s: %w", params.Canonical, err)
		}
		return fmt.Sprintf("Opened %s.", params.Canonical), nil

	case turn.ActionClose:
		if params.Scope == turn.ScopeTab {
			if err := s.exec.CloseTab(ctx, params.Canonical); err != nil {
				return "", fmt.Errorf("close tab %s: %w", params.Canonical, err)
			}
			return fmt.Sprintf("Closed the %s tab.", params.Canonical), nil
		}
		if err := s.exec.CloseProcess(ctx, params.Canonical); err != nil {
			return "", fmt.Errorf("close %s: %w", params.Canonical, err)
		}
		return fmt.Sprintf("Closed %s.", params.Canonical), nil

	case turn.ActionSystemOp:
		if err := s.exec.SystemOp(ctx, params.Canonical); err != nil {
			return "", fmt.Errorf("system op %s: %w", params.Canonical, err)
		}
		return fmt.Sprintf("Done: %s.", params.Canonical), nil
	}
	return "", fmt.Errorf("unsupported automation action %q", params.Action)
}

// SimulatedExecutor models a desktop with a fixed set of installed apps and
// open browser tabs. It stands in until a real OS integration is bound and
// backs the handler tests.
type SimulatedExecutor struct {
	mu   sync.Mutex
	apps map[string]bool
	tabs map[string]bool
}

// NewSimulatedExecutor seeds the simulated desktop.
func NewSimulatedExecutor(apps, tabs []string) *SimulatedExecutor {
	e := &SimulatedExecutor{
		apps: make(map[string]bool, len(apps)),
		tabs: make(map[string]bool, len(tabs)),
	}
	for _, app := range apps {
		e.apps[strings.ToLower(app)] = true
	}
	for _, tab := range tabs {
		e.tabs[strings.ToLower(tab)] = true
	}
	return e
}

func (e *SimulatedExecutor) CanResolve(app string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apps[strings.ToLower(app)]
}

func (e *SimulatedExecutor) OpenApp(ctx context.Context, app string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.apps[strings.ToLower(app)] {
		return ErrAppNotFound
	}
	log.Printf("[automation] open %s", app)
	return nil
}

func (e *SimulatedExecutor) CloseProcess(ctx context.Context, app string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.apps[strings.ToLower(app)] {
		return ErrAppNotFound
	}
	log.Printf("[automation] close process %s", app)
	return nil
}

func (e *SimulatedExecutor) CloseTab(ctx context.Context, target string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := strings.ToLower(target)
	if !e.tabs[key] {
		return ErrTabNotFound
	}
	delete(e.tabs, key)
	log.Printf("[automation] close tab %s", target)
	return nil
}

func (e *SimulatedExecutor) SystemOp(ctx context.Context, op string) error {
	log.Printf("[automation] system op %s", op)
	return nil
}
