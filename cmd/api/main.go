package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jwebster45206/fairytale-engine/internal/bot"
	"github.com/jwebster45206/fairytale-engine/internal/config"
	"github.com/jwebster45206/fairytale-engine/internal/engine"
	"github.com/jwebster45206/fairytale-engine/internal/handlers"
	"github.com/jwebster45206/fairytale-engine/internal/logger"
	"github.com/jwebster45206/fairytale-engine/internal/middleware"
	"github.com/jwebster45206/fairytale-engine/internal/resources"
	"github.com/jwebster45206/fairytale-engine/internal/token"
	"github.com/jwebster45206/fairytale-engine/pkg/profile"
	"github.com/jwebster45206/fairytale-engine/pkg/textfilter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	if err := run(cfg, log); err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server exited")
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("Starting Fairytale Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"store_backend", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := loadResources(cfg)
	if err != nil {
		return err
	}

	tiers := profile.DefaultTiers()
	if cfg.TiersFile != "" {
		if tiers, err = profile.LoadTiers(cfg.TiersFile); err != nil {
			return err
		}
		log.Info("Loaded tier table", "path", cfg.TiersFile)
	}

	llm, err := newCompletionService(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info("Using LLM provider", "provider", llm.Provider())

	store, locker, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing store", "error", err)
		}
	}()

	eng, err := engine.New(engine.Config{
		StructureMaxTokens: cfg.StructureMaxTokens,
		CompletionTimeout:  cfg.CompletionTimeout,
		ContextWindow:      cfg.ContextWindow,
		Tiers:              tiers,
	}, store, locker, llm, res, log)
	if err != nil {
		return err
	}

	if counter, err := token.NewCounter(cfg.TokenEncoding); err != nil {
		log.Warn("Token counting disabled", "encoding", cfg.TokenEncoding, "error", err)
	} else {
		eng.WithTokenCounter(counter)
	}
	if cfg.ContentFilter {
		eng.WithTextFilter(textfilter.Default())
	}

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, llm, log))
	mux.Handle("/v1/commands", handlers.NewCommandHandler(bot.NewRouter(eng, cfg.BotName, log), log))
	mux.Handle("/v1/profiles/", handlers.NewProfileHandler(eng, log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log)(mux),
		ReadTimeout: 15 * time.Second,
		// a randomize or lazy begin makes two completion calls per request
		WriteTimeout: 2*cfg.CompletionTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Server is shutting down...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loadResources(cfg *config.Config) (*resources.Resources, error) {
	if cfg.ResourcesDir != "" {
		return resources.LoadDir(cfg.ResourcesDir)
	}
	return resources.Default()
}
