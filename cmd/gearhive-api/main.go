// GearHive assistant API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gearhive/gearhive/cmd/gearhive-api/handlers"
	"github.com/gearhive/gearhive/cmd/gearhive-api/middleware"
	"github.com/gearhive/gearhive/internal/assistant"
	"github.com/gearhive/gearhive/internal/cache"
	"github.com/gearhive/gearhive/internal/config"
	"github.com/gearhive/gearhive/internal/llm"
	"github.com/gearhive/gearhive/internal/observability"
	"github.com/gearhive/gearhive/internal/storage"
	"github.com/gearhive/gearhive/internal/websearch"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	// Missing .env is fine; environment variables may come from anywhere.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx := context.Background()

	db, err := storage.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	cacheClient, err := newCacheClient(cfg)
	if err != nil {
		return fmt.Errorf("create cache client: %w", err)
	}
	defer cacheClient.Close()

	store, closeStore := newConversationStore(cfg, cacheClient)
	defer closeStore()

	partRepo := storage.NewPartRepository(db)
	knowledgeRepo := storage.NewKnowledgeRepository(db)
	sessionRepo := storage.NewSessionRepository(db)

	var webSearcher assistant.WebSearcher
	if cfg.WebSearch.Enabled && len(cfg.WebSearch.Endpoints) > 0 {
		webSearcher = websearch.NewClient(cfg.WebSearch, cacheClient, logger)
	}

	var completer assistant.Completer
	llmClient, err := llm.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("create llm client: %w", err)
	}
	if llmClient != nil {
		completer = llmClient
		defer llmClient.Close()
	} else {
		logger.Warn().Msg("No LLM API key configured, replies use templated fallback")
	}

	orchestrator := assistant.NewOrchestrator(
		store,
		assistant.NewClassifier(cfg.Assistant.VagueLengthThreshold),
		partRepo,
		knowledgeRepo,
		webSearcher,
		completer,
		assistant.Options{
			HistoryWindow: cfg.Assistant.HistoryWindow,
			MaxWebResults: cfg.Assistant.MaxWebResults,
			SearchTimeout: cfg.Assistant.SearchTimeout,
			Scorer: assistant.ScorerConfig{
				MinRelevance: cfg.Assistant.MinRelevance,
				MaxResults:   cfg.Assistant.MaxWebResults,
				TierOne:      cfg.WebSearch.TierOne,
				TierTwo:      cfg.WebSearch.TierTwo,
				Marketplaces: cfg.WebSearch.Marketplaces,
				FreshWindow:  cfg.WebSearch.FreshWindow,
			},
		},
		logger,
	)

	auth := middleware.NewAuthenticator(sessionRepo, cfg.Auth, logger)
	chatHandler := handlers.NewChatHandler(orchestrator, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      newRouter(auth, chatHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Bool("auth_enabled", cfg.Auth.Enabled).
			Bool("web_search_enabled", webSearcher != nil).
			Bool("ai_powered", completer != nil).
			Msg("Starting GearHive assistant API")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.GracefulShutdown)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	logger.Info().Msg("Server stopped")
	return nil
}

func newCacheClient(cfg *config.Config) (cache.Client, error) {
	if cfg.Cache.Driver == "redis" {
		return cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
	}
	return cache.NewMemoryClient(cfg.Cache.MaxEntries), nil
}

func newConversationStore(cfg *config.Config, cacheClient cache.Client) (assistant.Store, func()) {
	if cfg.Assistant.MemoryDriver == "redis" {
		return assistant.NewRedisStore(cacheClient, cfg.Assistant.MemoryTTL), func() {}
	}
	s := assistant.NewMemoryStore(cfg.Assistant.MemoryTTL)
	return s, func() { s.Close() }
}
