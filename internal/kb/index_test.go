package kb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/payagent/internal/model"
)

func makeChunk(docID string, chunkID int, text string, embedding []float32) model.KnowledgeChunk {
	return model.KnowledgeChunk{
		DocumentID: docID,
		ChunkID:    model.ChunkIDFromIndex(chunkID),
		Title:      "Doc " + docID,
		Text:       text,
		Category:   "payment_processing",
		Embedding:  embedding,
	}
}

func TestNewDocumentIndexValidation(t *testing.T) {
	_, err := NewDocumentIndex("stripe", []model.KnowledgeChunk{
		{DocumentID: "d1", Category: "general", Embedding: []float32{1, 0}},
	})
	require.Error(t, err)

	_, err = NewDocumentIndex("stripe", []model.KnowledgeChunk{
		{DocumentID: "d1", Text: "some text", Embedding: []float32{1, 0}},
	})
	require.Error(t, err)

	_, err = NewDocumentIndex("stripe", []model.KnowledgeChunk{
		{DocumentID: "d1", Text: "some text", Category: "general"},
	})
	require.Error(t, err)

	_, err = NewDocumentIndex("stripe", []model.KnowledgeChunk{
		makeChunk("d1", 0, "a", []float32{1, 0}),
		makeChunk("d1", 1, "b", []float32{1, 0, 0}),
	})
	require.Error(t, err)

	idx, err := NewDocumentIndex("stripe", []model.KnowledgeChunk{
		makeChunk("d1", 0, "a", []float32{1, 0}),
		makeChunk("d1", 1, "b", []float32{0, 1}),
	})
	require.NoError(t, err)
	require.Equal(t, 2, idx.Len())
	require.Equal(t, 2, idx.Dim())
}

func TestSearchOrdersByRelevance(t *testing.T) {
	idx, err := NewDocumentIndex("stripe", []model.KnowledgeChunk{
		makeChunk("far", 0, "orthogonal", []float32{0, 1}),
		makeChunk("near", 0, "same direction", []float32{2, 0}),
		makeChunk("anti", 0, "opposite", []float32{-1, 0}),
	})
	require.NoError(t, err)

	results := idx.Search([]float32{1, 0}, 3)
	require.Len(t, results, 3)
	require.Equal(t, "near", results[0].DocumentID)
	require.Equal(t, "far", results[1].DocumentID)
	require.Equal(t, "anti", results[2].DocumentID)
	require.InDelta(t, 1.0, results[0].RelevanceScore, 1e-9)
	require.InDelta(t, 0.0, results[1].RelevanceScore, 1e-9)
	require.InDelta(t, -1.0, results[2].RelevanceScore, 1e-9)
	require.Equal(t, "stripe", results[0].Provider)
}

func TestSearchTopKBounds(t *testing.T) {
	idx, err := NewDocumentIndex("stripe", []model.KnowledgeChunk{
		makeChunk("d1", 0, "a", []float32{1, 0}),
		makeChunk("d2", 0, "b", []float32{0, 1}),
	})
	require.NoError(t, err)

	require.Len(t, idx.Search([]float32{1, 0}, 1), 1)
	require.Len(t, idx.Search([]float32{1, 0}, 10), 2)
	require.Empty(t, idx.Search([]float32{1, 0}, 0))

	empty, err := NewDocumentIndex("paypal", nil)
	require.NoError(t, err)
	require.Empty(t, empty.Search([]float32{1, 0}, 5))
}

func TestSearchStableOnTies(t *testing.T) {
	idx, err := NewDocumentIndex("stripe", []model.KnowledgeChunk{
		makeChunk("first", 0, "a", []float32{1, 0}),
		makeChunk("second", 0, "b", []float32{1, 0}),
		makeChunk("third", 0, "c", []float32{3, 0}),
	})
	require.NoError(t, err)

	results := idx.Search([]float32{1, 0}, 3)
	require.Equal(t, "first", results[0].DocumentID)
	require.Equal(t, "second", results[1].DocumentID)
	require.Equal(t, "third", results[2].DocumentID)
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	require.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	require.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
