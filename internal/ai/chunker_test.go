package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkSplitsOnHeadings(t *testing.T) {
	markdown := "intro paragraph\n\n# Payments\n\nhow to charge a card\n\n## Refunds\n\nhow to refund"
	chunks := NewChunker(0).Chunk(context.Background(), "Guide", markdown)
	require.Len(t, chunks, 3)
	require.Equal(t, "Guide", chunks[0].Title)
	require.Equal(t, "intro paragraph", chunks[0].Text)
	require.Equal(t, "Payments", chunks[1].Title)
	require.Equal(t, "Refunds", chunks[2].Title)
}

func TestChunkExtractsFencedCode(t *testing.T) {
	markdown := "# Charge\n\nsome prose\n\n```javascript\nconst x = 1;\n```\n"
	chunks := NewChunker(0).Chunk(context.Background(), "Guide", markdown)
	require.Len(t, chunks, 2)
	require.Equal(t, "some prose", chunks[0].Text)
	require.Equal(t, "const x = 1;", chunks[1].Code)
	require.Equal(t, "javascript", chunks[1].Language)
	require.Equal(t, "Code example (javascript): const x = 1;", chunks[1].Text)
	require.Equal(t, "Charge", chunks[1].Title)
}

func TestChunkFlushesOnMaxTokens(t *testing.T) {
	markdown := "one two three four five\n\nsix seven eight nine ten"
	chunks := NewChunker(5).Chunk(context.Background(), "Guide", markdown)
	require.Len(t, chunks, 2)
}

func TestChunkEmptyDocument(t *testing.T) {
	chunks := NewChunker(0).Chunk(context.Background(), "Guide", "")
	require.Empty(t, chunks)
}

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 3, estimateTokens("one two three"))
	require.Equal(t, 0, estimateTokens(""))
}
