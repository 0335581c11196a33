package kb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/payagent/internal/ai"
	"github.com/xxxsen/payagent/internal/model"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vec, nil
}

func (s *stubEmbedder) ModelName() string {
	return "stub"
}

func buildRetriever(t *testing.T, embedder ai.IEmbedder) *Retriever {
	t.Helper()
	stripe, err := NewDocumentIndex("stripe", []model.KnowledgeChunk{
		makeChunk("s1", 0, "stripe close", []float32{1, 0}),
		makeChunk("s2", 0, "stripe far", []float32{0, 1}),
	})
	require.NoError(t, err)
	paypal, err := NewDocumentIndex("paypal", []model.KnowledgeChunk{
		makeChunk("p1", 0, "paypal mid", []float32{1, 1}),
		makeChunk("p2", 0, "paypal far", []float32{-1, 0}),
	})
	require.NoError(t, err)
	return NewRetriever(embedder, []*DocumentIndex{stripe, paypal})
}

func TestRetrieverSearchSingleProvider(t *testing.T) {
	r := buildRetriever(t, &stubEmbedder{vec: []float32{1, 0}})

	results, err := r.Search(context.Background(), "stripe", "query", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "s1", results[0].DocumentID)

	results, err = r.Search(context.Background(), "unknown", "query", 3)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestRetrieverSearchAllMergesByScore(t *testing.T) {
	r := buildRetriever(t, &stubEmbedder{vec: []float32{1, 0}})

	results, err := r.SearchAll(context.Background(), "query", 2, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "s1", results[0].DocumentID)
	require.Equal(t, "p1", results[1].DocumentID)
	require.Equal(t, "s2", results[2].DocumentID)
	require.Equal(t, "stripe", results[0].Provider)
	require.Equal(t, "paypal", results[1].Provider)
	for i := 1; i < len(results); i++ {
		require.LessOrEqual(t, results[i].RelevanceScore, results[i-1].RelevanceScore)
	}
}

func TestRetrieverEmbedFailure(t *testing.T) {
	r := buildRetriever(t, &stubEmbedder{err: errors.New("backend down")})
	_, err := r.Search(context.Background(), "stripe", "query", 3)
	require.Error(t, err)
}

func TestRetrieverNoEmbedder(t *testing.T) {
	r := buildRetriever(t, nil)
	_, err := r.Search(context.Background(), "stripe", "query", 3)
	require.ErrorIs(t, err, ai.ErrUnavailable)
}

func TestRetrieverChunkCounts(t *testing.T) {
	r := buildRetriever(t, &stubEmbedder{vec: []float32{1, 0}})
	counts := r.ChunkCounts()
	require.Equal(t, map[string]int{"stripe": 2, "paypal": 2}, counts)
	require.True(t, r.HasProvider("stripe"))
	require.False(t, r.HasProvider("square"))
}
