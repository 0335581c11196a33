package kb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/payagent/internal/filestore"
	"github.com/xxxsen/payagent/internal/model"
	"github.com/xxxsen/payagent/internal/repo"
)

// EmbeddingsKey is the snapshot file name for one provider's index,
// stored under "{provider}/embeddings.json".
func EmbeddingsKey(provider string) string {
	return provider + "/embeddings.json"
}

// LoadIndexesFromStore reads one persisted index per provider from a
// snapshot store. A malformed or missing file is fatal: the agent must
// not come up with a partially loaded knowledge base.
func LoadIndexesFromStore(ctx context.Context, store filestore.Store, providers []string) ([]*DocumentIndex, error) {
	indices := make([]*DocumentIndex, 0, len(providers))
	for _, provider := range providers {
		if _, ok := GetProvider(provider); !ok {
			return nil, fmt.Errorf("unknown provider: %s", provider)
		}
		rc, err := store.Open(ctx, EmbeddingsKey(provider))
		if err != nil {
			return nil, fmt.Errorf("open index for %s: %w", provider, err)
		}
		var chunks []model.KnowledgeChunk
		err = json.NewDecoder(rc).Decode(&chunks)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("decode index for %s: %w", provider, err)
		}
		idx, err := NewDocumentIndex(provider, chunks)
		if err != nil {
			return nil, fmt.Errorf("build index for %s: %w", provider, err)
		}
		logutil.GetLogger(ctx).Info("knowledge index loaded",
			zap.String("provider", provider),
			zap.Int("chunks", idx.Len()),
			zap.Int("dim", idx.Dim()),
		)
		indices = append(indices, idx)
	}
	return indices, nil
}

// LoadIndexesFromDB builds the same immutable indices from the
// postgres kb_chunks table.
func LoadIndexesFromDB(ctx context.Context, chunkRepo *repo.KBChunkRepo, providers []string) ([]*DocumentIndex, error) {
	indices := make([]*DocumentIndex, 0, len(providers))
	for _, provider := range providers {
		if _, ok := GetProvider(provider); !ok {
			return nil, fmt.Errorf("unknown provider: %s", provider)
		}
		chunks, err := chunkRepo.ListByProvider(ctx, provider)
		if err != nil {
			return nil, fmt.Errorf("list chunks for %s: %w", provider, err)
		}
		idx, err := NewDocumentIndex(provider, chunks)
		if err != nil {
			return nil, fmt.Errorf("build index for %s: %w", provider, err)
		}
		logutil.GetLogger(ctx).Info("knowledge index loaded",
			zap.String("provider", provider),
			zap.Int("chunks", idx.Len()),
			zap.Int("dim", idx.Dim()),
		)
		indices = append(indices, idx)
	}
	return indices, nil
}
