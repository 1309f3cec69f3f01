// Command tidescan-analyze runs a single saturation analysis from the
// command line: it reads a content batch from a JSON file, scores the idea
// against it, prints the result as JSON, and records it in the analysis
// history.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/tidescan/tidescan/internal/analysis"
	"github.com/tidescan/tidescan/internal/config"
	"github.com/tidescan/tidescan/internal/embedding"
	"github.com/tidescan/tidescan/internal/service"
	"github.com/tidescan/tidescan/internal/storage/sqlite"
	"github.com/tidescan/tidescan/pkg/types"
)

func main() {
	idea := flag.String("idea", "", "Idea text to analyze (required)")
	input := flag.String("input", "", "Path to a JSON file holding the content batch, or - for stdin (required)")
	pretty := flag.Bool("pretty", false, "Indent the JSON output")
	flag.Parse()

	if *idea == "" || *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	items, err := readBatch(*input)
	if err != nil {
		log.Fatalf("Failed to read content batch: %v", err)
	}

	if dir := filepath.Dir(cfg.Storage.ResultsPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}
	results, err := sqlite.NewResultStore(cfg.Storage.ResultsPath)
	if err != nil {
		log.Fatalf("Failed to open result store: %v", err)
	}
	defer results.Close()

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

	analyzer, err := service.NewAnalyzer(embedder, nil, results, nil, service.AnalyzerConfig{
		Pipeline: analysis.PipelineConfig{
			Cluster: analysis.ClusterConfig{
				SimilarityThreshold: cfg.Analysis.SimilarityThreshold,
				MinNeighbors:        cfg.Analysis.MinNeighbors,
			},
			TrendWindowDays: cfg.Analysis.TrendWindowDays,
		},
	})
	if err != nil {
		log.Fatalf("Failed to initialize analyzer: %v", err)
	}

	result, err := analyzer.AnalyzeIdea(context.Background(), *idea, items)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}

// readBatch loads a content batch from a JSON file or stdin. The input holds
// either a bare array of items or an object with an "items" field.
func readBatch(path string) ([]types.ContentItem, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var items []types.ContentItem
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var wrapped struct {
		Items []types.ContentItem `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("not a content batch: %w", err)
	}
	return wrapped.Items, nil
}
