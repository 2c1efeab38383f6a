package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/auraproject/aura/internal/config"
	"github.com/auraproject/aura/internal/handler"
	"github.com/auraproject/aura/internal/handler/events"
	"github.com/auraproject/aura/internal/handlers"
	"github.com/auraproject/aura/internal/service/brain"
	"github.com/auraproject/aura/internal/service/dispatch"
	emotionservice "github.com/auraproject/aura/internal/service/emotion"
	intentservice "github.com/auraproject/aura/internal/service/intent"
	"github.com/auraproject/aura/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Durable conversation log; a broken database degrades to in-memory.
	var durable store.Log
	if sqliteLog, err := store.NewSQLiteLog(cfg.Brain.LogPath); err != nil {
		log.Printf("warning: conversation log unavailable, running in-memory: %v", err)
	} else {
		durable = sqliteLog
	}
	turnStore := store.NewContextStore(durable, cfg.Brain.WindowSize)
	defer turnStore.Close()

	// One chat model instance backs every chain; without credentials the
	// classifiers fall back to heuristics and the generation handlers stay
	// unbound.
	var chatModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing without LLM functionality")
		} else {
			log.Println("chat model initialized")
		}
	} else {
		log.Println("model credentials not configured, running degraded")
	}

	tagger, err := emotionservice.NewService(ctx, chatModel, emotionservice.Config{
		Enabled:      true,
		HistoryLimit: cfg.Brain.HistoryLimit,
	})
	if err != nil {
		log.Fatalf("failed to initialize emotion tagger: %v", err)
	}

	classifier, err := intentservice.NewService(ctx, chatModel, intentservice.Config{
		Enabled:      true,
		HistoryLimit: cfg.Brain.HistoryLimit,
	})
	if err != nil {
		log.Fatalf("failed to initialize intent classifier: %v", err)
	}

	handlerSet := buildHandlers(ctx, cfg, chatModel)

	hub := events.NewHub()
	observer := func(state dispatch.State, detail string) {
		hub.PublishState(state, detail)
	}

	dispatcher := dispatch.New(handlerSet, observer, time.Duration(cfg.Brain.HandlerTimeout)*time.Second)
	brainRouter := brain.NewRouter(tagger, classifier, dispatcher, turnStore, observer)
	brainRouter.OnTurn(hub.PublishTurn)

	router := handler.NewRouter(brainRouter, hub)

	startServer(ctx, cfg.Server, router)
}

// buildHandlers wires one handler per intent variant. Handlers that need the
// chat model are skipped when it is absent; the dispatcher envelopes the gap.
func buildHandlers(ctx context.Context, cfg *config.Config, chatModel model.ChatModel) handlers.Set {
	var set handlers.Set

	provider := handlers.NewHTTPSearchProvider(cfg.Search.BaseURL, time.Duration(cfg.Search.Timeout)*time.Second)
	searchSvc, err := handlers.NewSearchService(ctx, provider, chatModel, cfg.Search.MaxResults)
	if err != nil {
		log.Printf("warning: search handler unavailable: %v", err)
	} else {
		set.Search = searchSvc
	}

	set.Image = handlers.NewImageService(cfg.Image.BaseURL, cfg.Image.OutDir, cfg.Image.Count, time.Duration(cfg.Image.Timeout)*time.Second)

	if chatModel != nil {
		chatSvc, err := handlers.NewChatService(ctx, chatModel, cfg.Brain.UserName, cfg.Brain.AssistantName)
		if err != nil {
			log.Printf("warning: chat handler unavailable: %v", err)
		} else {
			set.Chat = chatSvc
		}

		contentSvc, err := handlers.NewContentService(ctx, chatModel, cfg.Brain.ContentDir)
		if err != nil {
			log.Printf("warning: content handler unavailable: %v", err)
		} else {
			set.Content = contentSvc
		}
	}

	// The OS integration binds its own executor; until then automation runs
	// against a simulated desktop.
	exec := handlers.NewSimulatedExecutor(
		[]string{"notepad", "calculator", "camera", "settings", "file explorer", "cmd", "task manager", "google chrome", "microsoft edge", "brave"},
		[]string{"youtube", "gmail"},
	)
	set.Automation = handlers.NewAutomationService(exec)

	return set
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Aura brain listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
