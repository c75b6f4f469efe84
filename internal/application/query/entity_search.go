// Package query provides the neutral get_object/get_objects lookup surface
// over the reaction, compound, and gene indices, plus embedding-similarity
// candidate ranking for gap-fill, backed by OpenSearch and Milvus.
package query

import (
	"context"
	"fmt"

	"github.com/turtacn/mfa-engine/internal/infrastructure/search/opensearch"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// ObjectKind names the entity index an EntitySearchService queries against.
type ObjectKind string

const (
	ObjectReaction ObjectKind = "reaction"
	ObjectCompound ObjectKind = "compound"
	ObjectGene     ObjectKind = "gene"
)

func indexName(kind ObjectKind) (string, error) {
	switch kind {
	case ObjectReaction:
		return "reactions", nil
	case ObjectCompound:
		return "compounds", nil
	case ObjectGene:
		return "genes", nil
	default:
		return "", mfaerr.InvalidParam(fmt.Sprintf("query: unknown object kind %q", kind))
	}
}

// ObjectRef is one hit returned by GetObjects: the index-assigned ID, its
// relevance score, and the raw source document for the caller to unmarshal
// into the concrete domain type it expects.
type ObjectRef struct {
	ID     string
	Score  float64
	Source []byte
}

// EntitySearchService answers free-text lookups over the reaction, compound,
// and gene indices. It is the neutral query interface other components (the
// HTTP handlers, the CLI) use instead of reaching into OpenSearch directly.
type EntitySearchService struct {
	searcher *opensearch.Searcher
	logger   logging.Logger
}

// NewEntitySearchService constructs an EntitySearchService over an already
// configured opensearch.Searcher (see opensearch.NewSearcher).
func NewEntitySearchService(searcher *opensearch.Searcher, logger logging.Logger) *EntitySearchService {
	return &EntitySearchService{searcher: searcher, logger: logger}
}

// GetObject fetches the single best match for id within kind's index.
func (s *EntitySearchService) GetObject(ctx context.Context, kind ObjectKind, id string) (*ObjectRef, error) {
	refs, err := s.GetObjects(ctx, kind, id, 1)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, mfaerr.NotFound(fmt.Sprintf("query: no %s matched %q", kind, id))
	}
	return &refs[0], nil
}

// GetObjects runs a free-text match query across kind's index and returns up
// to limit results ordered by relevance score.
func (s *EntitySearchService) GetObjects(ctx context.Context, kind ObjectKind, text string, limit int) ([]ObjectRef, error) {
	idx, err := indexName(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	result, err := s.searcher.Search(ctx, opensearch.SearchRequest{
		IndexName: idx,
		Query: &opensearch.Query{
			QueryType: "multi_match",
			Fields:    []string{"id", "name", "formula", "subsystem"},
			Value:     text,
		},
		Pagination: &opensearch.Pagination{Limit: limit},
	})
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeInternal, fmt.Sprintf("query: search %s index", idx))
	}

	refs := make([]ObjectRef, 0, len(result.Hits))
	for _, hit := range result.Hits {
		refs = append(refs, ObjectRef{ID: hit.ID, Score: hit.Score, Source: hit.Source})
	}

	s.logger.Debug("entity search completed",
		logging.String("kind", string(kind)),
		logging.String("query", text),
		logging.Int("hits", len(refs)),
	)
	return refs, nil
}
