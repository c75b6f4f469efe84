package query

import (
	"fmt"

	"context"

	"github.com/turtacn/mfa-engine/internal/infrastructure/search/milvus"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// CandidateRanker ranks gap-fill candidate reactions and compounds by
// embedding similarity against the reaction_candidates / compound_candidates
// Milvus collections (see milvus.ReactionCandidateSchema,
// milvus.CompoundCandidateSchema). Its output feeds directly into
// analysis.Orchestrator.GapFill's candidate list, narrowing a large
// universal reaction database down to the handful worth solving over.
type CandidateRanker struct {
	searcher *milvus.Searcher
	topK     int
	logger   logging.Logger
}

// NewCandidateRanker constructs a CandidateRanker over an already configured
// milvus.Searcher. defaultTopK is used whenever a caller asks for topK <= 0;
// it is typically config.MilvusConfig.DefaultTopK.
func NewCandidateRanker(searcher *milvus.Searcher, defaultTopK int, logger logging.Logger) *CandidateRanker {
	if defaultTopK <= 0 {
		defaultTopK = 20
	}
	return &CandidateRanker{searcher: searcher, topK: defaultTopK, logger: logger}
}

// RankReactionCandidates returns up to topK reaction IDs whose stored
// embeddings are nearest to queryEmbedding, most similar first.
func (r *CandidateRanker) RankReactionCandidates(ctx context.Context, queryEmbedding []float32, topK int) ([]ids.ReactionID, error) {
	hits, err := r.search(ctx, "reaction_candidates", queryEmbedding, topK)
	if err != nil {
		return nil, err
	}
	out := make([]ids.ReactionID, 0, len(hits))
	for _, h := range hits {
		id, ok := h.Fields["reaction_id"].(string)
		if !ok {
			continue
		}
		out = append(out, ids.ReactionID(id))
	}
	return out, nil
}

// RankCompoundCandidates returns up to topK compound IDs whose stored
// embeddings are nearest to queryEmbedding, most similar first.
func (r *CandidateRanker) RankCompoundCandidates(ctx context.Context, queryEmbedding []float32, topK int) ([]ids.CompoundID, error) {
	hits, err := r.search(ctx, "compound_candidates", queryEmbedding, topK)
	if err != nil {
		return nil, err
	}
	out := make([]ids.CompoundID, 0, len(hits))
	for _, h := range hits {
		id, ok := h.Fields["compound_id"].(string)
		if !ok {
			continue
		}
		out = append(out, ids.CompoundID(id))
	}
	return out, nil
}

func (r *CandidateRanker) search(ctx context.Context, collection string, queryEmbedding []float32, topK int) ([]milvus.VectorHit, error) {
	if len(queryEmbedding) == 0 {
		return nil, mfaerr.InvalidParam("query: empty query embedding")
	}
	if topK <= 0 {
		topK = r.topK
	}

	outputField := "reaction_id"
	if collection == "compound_candidates" {
		outputField = "compound_id"
	}

	result, err := r.searcher.Search(ctx, milvus.VectorSearchRequest{
		CollectionName:   collection,
		VectorFieldName:  "embedding",
		Vectors:          [][]float32{queryEmbedding},
		TopK:             topK,
		MetricType:       "COSINE",
		OutputFields:     []string{outputField},
	})
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeInternal, fmt.Sprintf("query: rank candidates in %s", collection))
	}
	if len(result.Results) == 0 {
		return nil, nil
	}

	r.logger.Debug("candidate ranking completed",
		logging.String("collection", collection),
		logging.Int("hits", len(result.Results[0])),
	)
	return result.Results[0], nil
}
