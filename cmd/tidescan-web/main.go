package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tidescan/tidescan/internal/analysis"
	"github.com/tidescan/tidescan/internal/config"
	"github.com/tidescan/tidescan/internal/embedding"
	"github.com/tidescan/tidescan/internal/server"
	"github.com/tidescan/tidescan/internal/service"
	"github.com/tidescan/tidescan/internal/storage"
	"github.com/tidescan/tidescan/internal/storage/postgres"
	"github.com/tidescan/tidescan/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (default: $TIDESCAN_CONFIG)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfigFromFile(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize the analysis history store
	if dir := filepath.Dir(cfg.Storage.ResultsPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}
	results, err := sqlite.NewResultStore(cfg.Storage.ResultsPath)
	if err != nil {
		log.Fatalf("Failed to initialize result store: %v", err)
	}
	defer results.Close()

	// Content corpus is optional; without it every analysis must supply its
	// own content batch.
	var contents storage.ContentStore
	if cfg.Storage.PostgresDSN != "" {
		contents, err = postgres.NewContentStore(cfg.Storage.PostgresDSN, cfg.Storage.EmbeddingDim)
		if err != nil {
			log.Fatalf("Failed to connect to content store: %v", err)
		}
		defer contents.Close()
		log.Printf("Content corpus connected (dim=%d)", cfg.Storage.EmbeddingDim)
	} else {
		log.Println("No content corpus configured; analyses require inline content batches")
	}

	// The Ollama URL only applies to the local provider; hosted providers
	// keep their own default base URL.
	baseURL := ""
	if cfg.Embedding.Provider != "openai" {
		baseURL = cfg.Embedding.OllamaURL
	}
	provider, err := embedding.NewProvider(embedding.ProviderConfig{
		Provider: cfg.Embedding.Provider,
		BaseURL:  baseURL,
		APIKey:   cfg.Embedding.OpenAIAPIKey,
		Model:    cfg.Embedding.Model,
	})
	if err != nil {
		log.Fatalf("Failed to initialize embedding provider: %v", err)
	}
	embedder := embedding.NewBatchEmbedder(provider, embedding.BatchConfig{
		Workers:           cfg.Embedding.Workers,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})

	analyzer, err := service.NewAnalyzer(embedder, contents, results, nil, service.AnalyzerConfig{
		Pipeline: analysis.PipelineConfig{
			Cluster: analysis.ClusterConfig{
				SimilarityThreshold: cfg.Analysis.SimilarityThreshold,
				MinNeighbors:        cfg.Analysis.MinNeighbors,
			},
			TrendWindowDays: cfg.Analysis.TrendWindowDays,
		},
		CandidateLimit: cfg.Analysis.CandidateLimit,
	})
	if err != nil {
		log.Fatalf("Failed to initialize analyzer: %v", err)
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, _ := server.Start(ctx, cfg, analyzer)
	log.Printf("Tidescan API running at http://%s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}
