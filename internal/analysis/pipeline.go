package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tidescan/tidescan/pkg/types"
)

// TopSimilarLimit is the maximum number of entries in the top-similar
// content listing of an analysis result.
const TopSimilarLimit = 5

// PipelineConfig holds the tunables for one analysis pipeline.
type PipelineConfig struct {
	// Cluster configures the density-based clustering stage.
	Cluster ClusterConfig

	// TrendWindowDays is the lookback window for trend analysis (default: 90).
	TrendWindowDays int

	// Now supplies the analysis timestamp. Defaults to time.Now; tests inject
	// a fixed clock to make results reproducible byte for byte.
	Now func() time.Time
}

// DefaultPipelineConfig returns a PipelineConfig with the system defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Cluster:         DefaultClusterConfig(),
		TrendWindowDays: DefaultTrendWindowDays,
		Now:             time.Now,
	}
}

// Request is the input to one analysis run. The pipeline owns the items for
// the duration of the run and does not mutate them.
type Request struct {
	// ID becomes the result ID. Minted by the caller so the pipeline itself
	// stays a pure function of its inputs.
	ID string

	// Idea is the cleaned idea text, used only for reporting.
	Idea string

	// IdeaEmbedding is the embedding of the idea text.
	IdeaEmbedding types.Embedding

	// Items is the normalized content batch with embeddings attached.
	Items []types.ContentItem
}

// Pipeline sequences the analysis stages for one request: similarity,
// clustering, scoring, trend classification, and recommendation. A Pipeline
// is stateless and safe for concurrent use; each Run works only on its own
// inputs.
type Pipeline struct {
	cfg PipelineConfig
}

// NewPipeline creates a pipeline with the given configuration.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if err := cfg.Cluster.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	if cfg.TrendWindowDays <= 0 {
		cfg.TrendWindowDays = DefaultTrendWindowDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{cfg: cfg}, nil
}

// Run executes the full analysis for one request.
//
// The stages run synchronously and deterministically; identical inputs (and
// an identical clock) produce identical results. Cancellation is observed
// cooperatively between stages, there is no ability to interrupt a stage
// mid-computation.
//
// An empty content set is not an error: it returns the documented default of
// saturation 0, novelty 100, stage Emerging, recommendation Create, since an
// empty competitive landscape is itself informative. A dimension mismatch
// between any embeddings is fatal and aborts the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*types.AnalysisResult, error) {
	now := p.cfg.Now().UTC()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 1: per-item similarity against the idea. This both feeds the
	// top-similar listing and surfaces dimension mismatches before any
	// heavier work starts.
	sims := make([]float64, len(req.Items))
	for i := range req.Items {
		sim, err := CosineSimilarity(req.IdeaEmbedding, req.Items[i].Embedding)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", req.Items[i].ID, err)
		}
		sims[i] = sim
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: density-based clustering. Fewer than 2 items degrades to
	// similarity-only mode with no clusters.
	itemRefs := make([]*types.ContentItem, len(req.Items))
	for i := range req.Items {
		itemRefs[i] = &req.Items[i]
	}
	clusters, err := Cluster(itemRefs, p.cfg.Cluster)
	if err != nil {
		return nil, fmt.Errorf("clustering: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: match the idea against cluster centroids and score.
	match, err := FindMostSimilarCluster(req.IdeaEmbedding, clusters)
	if err != nil {
		return nil, fmt.Errorf("cluster match: %w", err)
	}

	maxSim := 0.0
	if match != nil {
		maxSim = match.Similarity
	} else {
		// No cluster absorbed the idea; fall back to the closest single item
		// so novelty still reflects the raw landscape.
		for _, s := range sims {
			if s > maxSim {
				maxSim = s
			}
		}
	}

	saturation := SaturationScore(match, now)
	novelty := NoveltyScore(maxSim)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: trend lifecycle of the matched cluster. With no match the
	// trend is computed over an empty member set and the volume falls back
	// to the full batch size.
	var matchedCluster *types.ContentCluster
	volume := len(req.Items)
	if match != nil {
		matchedCluster = match.Cluster
		volume = match.Cluster.Size
	}
	trend := AnalyzeEngagementTrend(matchedCluster, now, p.cfg.TrendWindowDays)
	stage := DetectLifecycleStage(trend, volume)

	// Stage 5: recommendation.
	rec := GenerateRecommendation(saturation, novelty, stage)

	// Clamp all numeric outputs as the last defensive step before assembly.
	saturation = clamp(saturation, 0, 100)
	novelty = clamp(novelty, 0, 100)
	rec.Confidence = clamp(rec.Confidence, 0, 100)

	return &types.AnalysisResult{
		ID:              req.ID,
		Idea:            req.Idea,
		SaturationScore: saturation,
		NoveltyScore:    novelty,
		Stage:           stage,
		Recommendation:  rec,
		TopSimilar:      topSimilar(req.Items, sims),
		Trend:           trend,
		ContentCount:    len(req.Items),
		ClusterCount:    len(clusters),
		CreatedAt:       now,
	}, nil
}

// topSimilar builds the top-N similar content listing: sorted by similarity
// descending, deduplicated by item ID, at most TopSimilarLimit entries.
// Ties keep input order so the listing is deterministic.
func topSimilar(items []types.ContentItem, sims []float64) []types.SimilarContent {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return sims[idx[a]] > sims[idx[b]] })

	seen := make(map[string]struct{}, TopSimilarLimit)
	out := make([]types.SimilarContent, 0, TopSimilarLimit)
	for _, i := range idx {
		if _, dup := seen[items[i].ID]; dup {
			continue
		}
		seen[items[i].ID] = struct{}{}
		out = append(out, types.SimilarContent{
			ID:         items[i].ID,
			Platform:   items[i].Platform,
			Title:      items[i].Title,
			Similarity: sims[i],
		})
		if len(out) == TopSimilarLimit {
			break
		}
	}
	return out
}
