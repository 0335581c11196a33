package kb

import (
	"fmt"
	"math"
	"sort"

	"github.com/xxxsen/payagent/internal/model"
)

// DocumentIndex holds all chunks for one provider together with their
// embedding vectors. Built once at startup and read-only afterwards, so
// concurrent searches need no locking.
type DocumentIndex struct {
	provider string
	chunks   []model.KnowledgeChunk
	dim      int
}

// NewDocumentIndex validates and freezes a chunk collection. Missing
// text, category or embedding on any record is a construction error,
// as is inconsistent embedding dimensionality.
func NewDocumentIndex(provider string, chunks []model.KnowledgeChunk) (*DocumentIndex, error) {
	idx := &DocumentIndex{provider: provider}
	for i, chunk := range chunks {
		if chunk.Text == "" {
			return nil, fmt.Errorf("chunk %d of %s: text is required", i, provider)
		}
		if chunk.Category == "" {
			return nil, fmt.Errorf("chunk %d of %s: category is required", i, provider)
		}
		if len(chunk.Embedding) == 0 {
			return nil, fmt.Errorf("chunk %d of %s: embedding is required", i, provider)
		}
		if idx.dim == 0 {
			idx.dim = len(chunk.Embedding)
		} else if len(chunk.Embedding) != idx.dim {
			return nil, fmt.Errorf("chunk %d of %s: embedding dim %d, index dim %d", i, provider, len(chunk.Embedding), idx.dim)
		}
	}
	idx.chunks = chunks
	return idx, nil
}

func (idx *DocumentIndex) Provider() string {
	return idx.provider
}

func (idx *DocumentIndex) Len() int {
	return len(idx.chunks)
}

func (idx *DocumentIndex) Dim() int {
	return idx.dim
}

// Search scores every chunk against the query vector and returns up to
// topK results ordered by descending relevance, ties kept in chunk
// order. Relevance is 1 - cosine distance: identical vectors score 1,
// orthogonal 0, anti-correlated negative. Scores are not clamped.
func (idx *DocumentIndex) Search(queryEmbedding []float32, topK int) []model.RetrievedResult {
	if topK <= 0 || len(idx.chunks) == 0 {
		return nil
	}
	results := make([]model.RetrievedResult, 0, len(idx.chunks))
	for _, chunk := range idx.chunks {
		results = append(results, model.RetrievedResult{
			DocumentID:     chunk.DocumentID,
			ChunkID:        chunk.ChunkID,
			Title:          chunk.Title,
			Text:           chunk.Text,
			Category:       chunk.Category,
			Code:           chunk.Code,
			Language:       chunk.Language,
			Provider:       idx.provider,
			RelevanceScore: cosineSimilarity(queryEmbedding, chunk.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK]
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
