package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/agentassist/backend/config"
	httpDelivery "github.com/agentassist/backend/internal/delivery/http"
	"github.com/agentassist/backend/internal/domain"
	"github.com/agentassist/backend/internal/infrastructure/cache"
	"github.com/agentassist/backend/internal/infrastructure/catalog"
	"github.com/agentassist/backend/internal/infrastructure/freshdesk"
	"github.com/agentassist/backend/internal/infrastructure/gemini"
	"github.com/agentassist/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Agent Assist Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Data dir: %s", cfg.Data.Dir)

	// Build the product index. A missing catalog is fatal: serving queries
	// against an empty index would report false "not found" answers.
	loader := catalog.NewLoader(cfg.Data.Dir)
	index := usecase.NewProductIndex()
	reload := func() error {
		bulk, media, err := loader.Load()
		if err != nil {
			return err
		}
		return index.Rebuild(bulk, media)
	}
	if err := reload(); err != nil {
		log.Fatalf("Failed to build product index: %v", err)
	}

	resolver := usecase.NewResolver(index, usecase.ResolverConfig{
		EnableNearMiss:     cfg.Matching.EnableNearMiss,
		NearMissConfidence: cfg.Matching.NearMissConfidence,
		MinPrefixLength:    cfg.Matching.MinPrefixLength,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})
	log.Printf("Matching: near_miss=%v, prefix_len=%d, debug=%v",
		cfg.Matching.EnableNearMiss,
		cfg.Matching.MinPrefixLength,
		cfg.Matching.EnableDebugLogging)

	// Text-generation collaborator
	geminiClient := gemini.NewClient(
		cfg.Gemini.APIKey,
		cfg.Gemini.BaseURL,
		cfg.Gemini.FileSearchStore,
		cfg.Gemini.FlashModel,
		cfg.Gemini.ReasoningModel,
	)
	if cfg.Server.Environment == "development" {
		geminiClient.SetDebug(true)
		log.Printf("Gemini client debug mode enabled")
	}
	if cfg.Gemini.FileSearchStore != "" {
		log.Printf("File search store configured: %s", cfg.Gemini.FileSearchStore)
	} else {
		log.Printf("File search store not configured; unstructured retrieval disabled")
	}

	// Answer cache
	memoryCache := cache.NewMemoryCache()
	log.Printf("Answer cache TTL: %s", cfg.Cache.TTL)

	// Research pipeline
	research := usecase.NewResearchService(
		resolver,
		geminiClient,
		memoryCache,
		usecase.ResearchServiceConfig{
			CacheTTL:           cfg.Cache.TTL,
			MaxSearchResults:   cfg.Gemini.MaxSearchResults,
			EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		},
	)

	// Ticketing collaborator (optional)
	var tickets domain.TicketNotes
	if cfg.Freshdesk.Domain != "" {
		fdClient := freshdesk.NewClient(cfg.Freshdesk.Domain, cfg.Freshdesk.APIKey)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if fdClient.ValidateConnection(ctx) {
			log.Printf("Freshdesk connection validated")
		} else {
			log.Printf("WARNING: Freshdesk connection validation failed")
		}
		cancel()
		tickets = fdClient
	} else {
		log.Printf("Freshdesk service not configured (optional)")
	}

	// Watch the data directory for catalog updates
	if cfg.Data.Watch {
		watcher, err := catalog.NewWatcher(cfg.Data.Dir, reload)
		if err != nil {
			log.Fatalf("Failed to start catalog watcher: %v", err)
		}
		defer watcher.Close()
		log.Printf("Watching %s for catalog changes", cfg.Data.Dir)
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(research, index, tickets, reload)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	stats := index.Stats()
	log.Printf("Index ready: %d products (%d with media, %d with specs)",
		stats.TotalProducts, stats.ProductsWithMedia, stats.ProductsWithSpecs)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
