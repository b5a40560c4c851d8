package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/heartbeat-engine/internal/config"
	"github.com/jwebster45206/heartbeat-engine/internal/handlers"
	"github.com/jwebster45206/heartbeat-engine/internal/heartbeat"
	"github.com/jwebster45206/heartbeat-engine/internal/logger"
	"github.com/jwebster45206/heartbeat-engine/internal/middleware"
	"github.com/jwebster45206/heartbeat-engine/internal/planner"
	"github.com/jwebster45206/heartbeat-engine/internal/services"
	"github.com/jwebster45206/heartbeat-engine/internal/services/events"
	"github.com/jwebster45206/heartbeat-engine/internal/session"
	"github.com/jwebster45206/heartbeat-engine/internal/storage"
	"github.com/jwebster45206/heartbeat-engine/internal/transport/ws"
	"github.com/jwebster45206/heartbeat-engine/pkg/choice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Heartbeat Engine",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"choices_enabled", cfg.ChoicesEnabled)

	if cfg.APIKey() == "" {
		log.Error("API key is required for the configured LLM provider", "provider", cfg.LLMProvider)
		os.Exit(1)
	}

	var llmService, plannerLLM services.LLMService
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log)
		plannerLLM = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.PlannerModelName, log)
	default:
		llmService = services.NewOpenRouterService(cfg.OpenRouterAPIKey, cfg.ModelName, log)
		plannerLLM = services.NewOpenRouterService(cfg.OpenRouterAPIKey, cfg.PlannerModelName, log)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := llmService.InitModel(ctx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	redisClient, err := storage.NewRedisClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Invalid Redis configuration", "error", err)
		os.Exit(1)
	}
	history, err := storage.OpenSQLiteHistory(cfg.HistoryDBPath)
	if err != nil {
		log.Error("Failed to open history database", "error", err, "path", cfg.HistoryDBPath)
		os.Exit(1)
	}
	store := storage.NewRedisStorage(redisClient, history, log)
	if err := store.WaitForConnection(ctx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	var choices choice.Store
	if cfg.ChoiceStore == config.ChoiceStoreRedis {
		choices = storage.NewRedisChoiceStore(redisClient)
	} else {
		choices = choice.NewMemoryStore()
	}

	broadcaster := events.NewBroadcaster(redisClient, log)
	sessions := session.NewRegistry()
	locks := heartbeat.NewCharacterLocks()

	pipeline := heartbeat.NewPipeline(log,
		heartbeat.NewDecay(cfg.Tuning),
		heartbeat.NewQueueRefill(planner.NewLLMPlanner(plannerLLM, log), cfg.Tuning, log),
	)

	var generator *heartbeat.Generator
	if cfg.ChoicesEnabled {
		generator = heartbeat.NewGenerator(llmService, choices, store, broadcaster, sessions, log)
	}
	processor := heartbeat.NewProcessor(store, pipeline, generator, cfg.Tuning, log)

	scheduler := heartbeat.NewScheduler(heartbeat.SchedulerConfig{
		Store:     store,
		Processor: processor,
		Choices:   choices,
		Sessions:  sessions,
		Publisher: broadcaster,
		Locks:     locks,
		Tuning:    cfg.Tuning,
		Logger:    log,
	})
	runtime := heartbeat.NewRuntime(store, sessions, scheduler, broadcaster, log)
	resolver := heartbeat.NewResolver(store, choices, locks, log)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, scheduler, log))

	runtimeHandler := handlers.NewRuntimeHandler(runtime, resolver, log)
	mux.Handle("/v1/runtime/", runtimeHandler)

	mux.Handle("/v1/ws", ws.NewServer(sessions, broadcaster, runtime, log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(mux),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: websocket connections are long-lived
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	// Let in-flight ticks finish their saves before storage goes away.
	scheduler.Shutdown()

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
