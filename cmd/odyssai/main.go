package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"odyssai/internal/config"
	"odyssai/internal/engine"
	"odyssai/internal/generation"
	"odyssai/internal/httpapi"
	"odyssai/internal/memory"
	"odyssai/internal/registry"
	"odyssai/internal/session"
)

// Prometheus metrics
var (
	worldsInDB = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "odyssai_worlds_total",
			Help: "Total number of registered worlds",
		},
	)
	fragmentsInDB = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "odyssai_lore_fragments_total",
			Help: "Total number of stored lore fragments",
		},
	)
)

func init() {
	prometheus.MustRegister(worldsInDB)
	prometheus.MustRegister(fragmentsInDB)
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	gemini, err := generation.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbeddingModel, cfg.GenerationTimeout)
	if err != nil {
		log.Fatalf("Failed to create generation client: %v", err)
	}
	defer gemini.Close()

	reg, err := registry.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize registry: %v", err)
	}
	defer reg.Close()
	if err := reg.CreateTables(ctx); err != nil {
		log.Fatalf("Failed to create registry tables: %v", err)
	}

	lore, err := memory.Open(ctx, cfg.LoreDBURL, gemini, cfg.RetrievalTimeout)
	if err != nil {
		log.Fatalf("Failed to initialize lore index: %v", err)
	}
	defer lore.Close()
	if err := lore.CreateTables(ctx); err != nil {
		log.Fatalf("Failed to create lore tables: %v", err)
	}

	sessions, err := session.Open(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	defer sessions.Close()

	eng := engine.New(reg, lore, sessions, gemini, engine.Options{
		RetrievalK:    cfg.RetrievalK,
		ContextBudget: cfg.ContextBudget,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpapi.NewServer(eng).Router(),
	}

	// Start metrics updater
	go updateMetrics(reg, lore)

	// Graceful shutdown
	go func() {
		log.Printf("Odyssai core starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

func updateMetrics(reg *registry.Registry, lore *memory.Index) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if count, err := reg.CountWorlds(ctx); err == nil {
			worldsInDB.Set(float64(count))
		}
		if count, err := lore.CountFragments(ctx); err == nil {
			fragmentsInDB.Set(float64(count))
		}
		cancel()
	}
}
