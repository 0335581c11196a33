package kb

import (
	"context"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/payagent/internal/ai"
	"github.com/xxxsen/payagent/internal/model"
)

const embedTaskQuery = "RETRIEVAL_QUERY"

// Retriever fans a query out over one or more provider indices. The
// embedder is the only external call on the query path; its failure is
// reported to the caller so the turn can degrade to a no-documentation
// answer.
type Retriever struct {
	embedder ai.IEmbedder
	indices  map[string]*DocumentIndex
	order    []string
}

func NewRetriever(embedder ai.IEmbedder, indices []*DocumentIndex) *Retriever {
	r := &Retriever{
		embedder: embedder,
		indices:  make(map[string]*DocumentIndex, len(indices)),
	}
	for _, idx := range indices {
		if idx == nil {
			continue
		}
		r.indices[idx.Provider()] = idx
		r.order = append(r.order, idx.Provider())
	}
	return r
}

func (r *Retriever) HasProvider(provider string) bool {
	_, ok := r.indices[provider]
	return ok
}

func (r *Retriever) ChunkCounts() map[string]int {
	out := make(map[string]int, len(r.indices))
	for name, idx := range r.indices {
		out[name] = idx.Len()
	}
	return out
}

// Search queries a single provider index.
func (r *Retriever) Search(ctx context.Context, provider, query string, topK int) ([]model.RetrievedResult, error) {
	idx, ok := r.indices[provider]
	if !ok {
		return nil, nil
	}
	if topK <= 0 || idx.Len() == 0 {
		return nil, nil
	}
	emb, err := r.embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return idx.Search(emb, topK), nil
}

// SearchAll queries every index with perIndex results each and merges
// the union by descending relevance, capped at limit. Provider tags on
// each result are preserved.
func (r *Retriever) SearchAll(ctx context.Context, query string, perIndex, limit int) ([]model.RetrievedResult, error) {
	if limit <= 0 || perIndex <= 0 {
		return nil, nil
	}
	emb, err := r.embed(ctx, query)
	if err != nil {
		return nil, err
	}
	var merged []model.RetrievedResult
	for _, name := range r.order {
		idx := r.indices[name]
		part := idx.Search(emb, perIndex)
		logutil.GetLogger(ctx).Debug("index searched",
			zap.String("provider", name),
			zap.Int("results", len(part)),
		)
		merged = append(merged, part...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RelevanceScore > merged[j].RelevanceScore
	})
	if limit > len(merged) {
		limit = len(merged)
	}
	return merged[:limit], nil
}

func (r *Retriever) embed(ctx context.Context, query string) ([]float32, error) {
	if r.embedder == nil {
		return nil, ai.ErrUnavailable
	}
	return r.embedder.Embed(ctx, query, embedTaskQuery)
}
