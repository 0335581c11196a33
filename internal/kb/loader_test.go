package kb

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/payagent/internal/filestore"
)

func newSnapshotStore(t *testing.T) filestore.Store {
	t.Helper()
	store, err := filestore.New(filestore.Config{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	return store
}

func TestLoadIndexesFromStore(t *testing.T) {
	store := newSnapshotStore(t)
	ctx := context.Background()

	snapshot := `[
		{"document_id": "d1", "chunk_id": 0, "title": "Payments", "text": "charge a card", "category": "payment_processing", "embedding": [0.1, 0.2]},
		{"document_id": "d1", "chunk_id": "1", "title": "Payments", "text": "capture later", "category": "payment_processing", "embedding": [0.3, 0.4]}
	]`
	require.NoError(t, store.Save(ctx, EmbeddingsKey("stripe"), strings.NewReader(snapshot)))

	indices, err := LoadIndexesFromStore(ctx, store, []string{"stripe"})
	require.NoError(t, err)
	require.Len(t, indices, 1)
	require.Equal(t, "stripe", indices[0].Provider())
	require.Equal(t, 2, indices[0].Len())
	require.Equal(t, 2, indices[0].Dim())
}

func TestLoadIndexesFromStoreMissingSnapshot(t *testing.T) {
	store := newSnapshotStore(t)
	_, err := LoadIndexesFromStore(context.Background(), store, []string{"stripe"})
	require.Error(t, err)
}

func TestLoadIndexesFromStoreInvalidChunk(t *testing.T) {
	store := newSnapshotStore(t)
	ctx := context.Background()

	snapshot := `[{"document_id": "d1", "chunk_id": 0, "title": "Payments", "text": "", "category": "general", "embedding": [0.1]}]`
	require.NoError(t, store.Save(ctx, EmbeddingsKey("stripe"), strings.NewReader(snapshot)))

	_, err := LoadIndexesFromStore(ctx, store, []string{"stripe"})
	require.Error(t, err)
}

func TestLoadIndexesFromStoreUnknownProvider(t *testing.T) {
	store := newSnapshotStore(t)
	_, err := LoadIndexesFromStore(context.Background(), store, []string{"square"})
	require.Error(t, err)
}
