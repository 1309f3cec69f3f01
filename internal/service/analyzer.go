// Package service wires the analysis pipeline to its infrastructure: the
// embedding provider, the content corpus, the result history, and progress
// notification. Handlers and CLI commands talk to this layer, never to the
// pipeline directly.
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/tidescan/tidescan/internal/analysis"
	"github.com/tidescan/tidescan/internal/storage"
	"github.com/tidescan/tidescan/pkg/types"
)

// Embedder generates embeddings for idea text and content titles.
// *embedding.BatchEmbedder satisfies this interface.
type Embedder interface {
	Embed(ctx context.Context, text string) (types.Embedding, error)
	EmbedBatch(ctx context.Context, texts []string) ([]types.Embedding, error)
}

// ProgressNotifier receives stage updates while an analysis runs.
// The websocket hub implements this; a nil notifier disables updates.
type ProgressNotifier interface {
	NotifyProgress(analysisID, stage, message string)
}

// AnalyzerConfig configures the analyzer service.
type AnalyzerConfig struct {
	// Pipeline configures the scoring pipeline.
	Pipeline analysis.PipelineConfig

	// CandidateLimit caps how many corpus items are retrieved per analysis
	// when the caller does not supply its own content batch (default: 200).
	CandidateLimit int
}

// Analyzer runs saturation analyses end to end.
type Analyzer struct {
	embedder       Embedder
	contents       storage.ContentStore // optional; nil disables corpus retrieval
	results        storage.ResultStore
	notifier       ProgressNotifier // optional
	pipeline       *analysis.Pipeline
	candidateLimit int
}

// NewAnalyzer creates an analyzer service. embedder and results are required;
// contents and notifier may be nil.
func NewAnalyzer(embedder Embedder, contents storage.ContentStore, results storage.ResultStore, notifier ProgressNotifier, cfg AnalyzerConfig) (*Analyzer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if results == nil {
		return nil, fmt.Errorf("result store is required")
	}

	pipeline, err := analysis.NewPipeline(cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	limit := cfg.CandidateLimit
	if limit < 1 {
		limit = 200
	}

	return &Analyzer{
		embedder:       embedder,
		contents:       contents,
		results:        results,
		notifier:       notifier,
		pipeline:       pipeline,
		candidateLimit: limit,
	}, nil
}

// SetNotifier installs the progress notifier. Called during server startup
// once the websocket hub exists; must not be called while analyses run.
func (a *Analyzer) SetNotifier(n ProgressNotifier) {
	a.notifier = n
}

// AnalyzeIdea scores an idea against a content batch and persists the result.
// When items is empty and a content store is configured, candidates are
// retrieved from the corpus by embedding similarity. Items missing embeddings
// are embedded from their titles before scoring.
func (a *Analyzer) AnalyzeIdea(ctx context.Context, idea string, items []types.ContentItem) (*types.AnalysisResult, error) {
	if idea == "" {
		return nil, fmt.Errorf("%w: idea text is required", storage.ErrInvalidInput)
	}

	id := uuid.New().String()
	a.notify(id, "embedding", "generating idea embedding")

	ideaEmb, err := a.embedder.Embed(ctx, idea)
	if err != nil {
		return nil, fmt.Errorf("failed to embed idea: %w", err)
	}

	if len(items) == 0 && a.contents != nil {
		a.notify(id, "retrieving", "retrieving candidate content")
		items, err = a.contents.SimilarContent(ctx, ideaEmb, a.candidateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve candidates: %w", err)
		}
	}

	if err := a.fillMissingEmbeddings(ctx, id, items); err != nil {
		return nil, err
	}

	a.notify(id, "analyzing", fmt.Sprintf("scoring against %d items", len(items)))
	result, err := a.pipeline.Run(ctx, analysis.Request{
		ID:            id,
		Idea:          idea,
		IdeaEmbedding: ideaEmb,
		Items:         items,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	if err := a.results.Save(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	a.notify(id, "complete", string(result.Recommendation.Action))
	log.Printf("analysis %s complete: saturation=%.0f novelty=%.0f stage=%s action=%s",
		id, result.SaturationScore, result.NoveltyScore, result.Stage, result.Recommendation.Action)
	return result, nil
}

// GetAnalysis retrieves a stored result by ID.
func (a *Analyzer) GetAnalysis(ctx context.Context, id string) (*types.AnalysisResult, error) {
	return a.results.Get(ctx, id)
}

// ListAnalyses retrieves stored results with pagination, newest first.
func (a *Analyzer) ListAnalyses(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[types.AnalysisResult], error) {
	return a.results.List(ctx, opts)
}

// DeleteAnalysis removes a stored result by ID.
func (a *Analyzer) DeleteAnalysis(ctx context.Context, id string) error {
	return a.results.Delete(ctx, id)
}

// fillMissingEmbeddings embeds the titles of items that arrived without an
// embedding, in one rate-limited batch.
func (a *Analyzer) fillMissingEmbeddings(ctx context.Context, analysisID string, items []types.ContentItem) error {
	var missing []*types.ContentItem
	var texts []string
	for i := range items {
		if items[i].Embedding.IsZero() {
			missing = append(missing, &items[i])
			texts = append(texts, items[i].Title)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	a.notify(analysisID, "embedding", fmt.Sprintf("embedding %d content items", len(missing)))
	embs, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed content items: %w", err)
	}
	for i, item := range missing {
		item.Embedding = embs[i]
	}
	return nil
}

// notify forwards a progress update when a notifier is configured.
func (a *Analyzer) notify(analysisID, stage, message string) {
	if a.notifier != nil {
		a.notifier.NotifyProgress(analysisID, stage, message)
	}
}
