// Package main wires the formulation-core services into an HTTP server:
// Neo4j-backed graph store, LLM/embedding clients, the five-agent
// orchestrator, event publishing, and the nine-endpoint HTTP API — built
// once as plain structs and passed by pointer, with signal.NotifyContext
// driving graceful shutdown in the teacher's cmd/api/main.go style.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dparitosh/recipe-organizer-sub000/internal/admission"
	"github.com/dparitosh/recipe-organizer-sub000/internal/agents"
	"github.com/dparitosh/recipe-organizer-sub000/internal/cache"
	"github.com/dparitosh/recipe-organizer-sub000/internal/config"
	"github.com/dparitosh/recipe-organizer-sub000/internal/events"
	"github.com/dparitosh/recipe-organizer-sub000/internal/graphrag"
	"github.com/dparitosh/recipe-organizer-sub000/internal/graphstore"
	"github.com/dparitosh/recipe-organizer-sub000/internal/history"
	"github.com/dparitosh/recipe-organizer-sub000/internal/httpapi"
	"github.com/dparitosh/recipe-organizer-sub000/internal/llmclient"
	"github.com/dparitosh/recipe-organizer-sub000/internal/nutrition"
	"github.com/dparitosh/recipe-organizer-sub000/internal/orchestrator"
	"github.com/dparitosh/recipe-organizer-sub000/internal/persistence"
	"github.com/dparitosh/recipe-organizer-sub000/pkg/metrics"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer neo4jDriver.Close(ctx)

	store := graphstore.New(neo4jDriver)
	if err := store.Bootstrap(ctx, cfg.EmbeddingDimension); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}

	registry := metrics.New()

	embedder := llmclient.NewEmbeddingClient(cfg.EmbeddingBaseURL, cfg.EmbeddingModel, cfg.LLMQPS, cfg.LLMBurst)
	completer := llmclient.NewCompletionClient(cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMQPS, cfg.LLMBurst)

	ingredientCache := cache.New[string, string](registry, "ingredient", 1000, time.Hour)
	densityCache := cache.New[string, float64](registry, "density", 500, 24*time.Hour)
	costCache := cache.New[string, float64](registry, "cost", 500, 6*time.Hour)
	fdcCache := cache.New[string, string](registry, "fdc", 2000, 7*24*time.Hour)

	var nc *nats.Conn
	if conn, err := nats.Connect(cfg.NATSURL); err != nil {
		logger.Warn("nats connect failed, event publishing disabled", "err", err)
	} else {
		nc = conn
		defer nc.Close()
	}
	publisher := events.New(nc, registry, logger)

	persist := persistence.New(store)
	orch := orchestrator.New(
		agents.NewRecipeEngineer(completer, ingredientCache, fdcCache),
		agents.NewScalingCalculator(densityCache, costCache),
		agents.NewGraphBuilder(),
		agents.NewQAValidator(),
		agents.NewUIDesigner(),
		persist,
		publisher,
	)

	admissionQueue := admission.New(registry, cfg.AdmissionCapacity)
	nutritionSvc := nutrition.New(store)
	historySvc := history.New(store)
	graphragSvc := graphrag.New(store, embedder, registry)

	server := httpapi.NewServer(httpapi.Deps{
		Orchestrator: orch,
		Admission:    admissionQueue,
		Nutrition:    nutritionSvc,
		History:      historySvc,
		GraphRAG:     graphragSvc,
		Store:        store,
		Completion:   completer,
		LLMAvailable: func() bool { return completer.IsAvailable(ctx) },
		Registry:     registry,
		Logger:       logger,
		CORSOrigin:   cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("formulation-core server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
