package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/mfa-engine/internal/application/query"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
)

func TestRankReactionCandidates_RejectsEmptyEmbedding(t *testing.T) {
	ranker := query.NewCandidateRanker(nil, 20, logging.NewNopLogger())

	_, err := ranker.RankReactionCandidates(context.Background(), nil, 5)
	assert.Error(t, err)
}

func TestRankCompoundCandidates_RejectsEmptyEmbedding(t *testing.T) {
	ranker := query.NewCandidateRanker(nil, 20, logging.NewNopLogger())

	_, err := ranker.RankCompoundCandidates(context.Background(), []float32{}, 5)
	assert.Error(t, err)
}

func TestNewCandidateRanker_DefaultsTopK(t *testing.T) {
	ranker := query.NewCandidateRanker(nil, 0, logging.NewNopLogger())
	assert.NotNil(t, ranker)
}
