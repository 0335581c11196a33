package kb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/payagent/internal/ai"
	"github.com/xxxsen/payagent/internal/filestore"
	"github.com/xxxsen/payagent/internal/model"
	"github.com/xxxsen/payagent/internal/repo"
)

const embedTaskDocument = "RETRIEVAL_DOCUMENT"

// categoryKeywords maps a chunk category to the keywords that select
// it. Scan order matters: the first category with a hit wins.
var categoryOrder = []string{
	"authentication",
	"payment_processing",
	"subscription",
	"refund",
	"webhook",
	"error_handling",
}

var categoryKeywords = map[string][]string{
	"authentication":     {"auth", "token", "key", "credential", "connect", "setup"},
	"payment_processing": {"payment", "charge", "transaction", "checkout"},
	"subscription":       {"subscription", "recurring", "billing"},
	"refund":             {"refund", "return", "cancel", "void"},
	"webhook":            {"webhook", "event", "notification", "callback"},
	"error_handling":     {"error", "exception", "troubleshoot", "debug"},
}

// Categorize picks a category for a documentation page from its title
// and body, falling back to "general".
func Categorize(title string, content string) string {
	haystack := strings.ToLower(title + " " + content)
	for _, category := range categoryOrder {
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(haystack, keyword) {
				return category
			}
		}
	}
	return "general"
}

// Builder turns a directory of markdown documentation into an embedded
// knowledge index, persisted either as a JSON snapshot or as rows in
// postgres.
type Builder struct {
	chunker  *ai.Chunker
	embedder ai.IEmbedder
}

func NewBuilder(chunker *ai.Chunker, embedder ai.IEmbedder) *Builder {
	return &Builder{chunker: chunker, embedder: embedder}
}

// BuildChunks walks docsDir for .md files, chunks and embeds each one.
// The file name without extension becomes the document id and its
// first h1 (or the file name) the title.
func (b *Builder) BuildChunks(ctx context.Context, provider string, docsDir string) ([]model.KnowledgeChunk, error) {
	if _, ok := GetProvider(provider); !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	entries, err := os.ReadDir(docsDir)
	if err != nil {
		return nil, fmt.Errorf("read docs dir: %w", err)
	}
	logger := logutil.GetLogger(ctx)
	var out []model.KnowledgeChunk
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(docsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		docID := strings.TrimSuffix(entry.Name(), ".md")
		title := firstHeading(raw)
		if title == "" {
			title = docID
		}
		category := Categorize(title, string(raw))
		chunks := b.chunker.Chunk(ctx, title, string(raw))
		for idx, chunk := range chunks {
			embedding, err := b.embedder.Embed(ctx, chunk.Text, embedTaskDocument)
			if err != nil {
				return nil, fmt.Errorf("embed %s chunk %d: %w", docID, idx, err)
			}
			out = append(out, model.KnowledgeChunk{
				DocumentID: docID,
				ChunkID:    model.ChunkIDFromIndex(idx),
				Title:      chunk.Title,
				Text:       chunk.Text,
				Category:   category,
				Code:       chunk.Code,
				Language:   chunk.Language,
				Embedding:  embedding,
			})
		}
		logger.Info("document embedded",
			zap.String("provider", provider),
			zap.String("document_id", docID),
			zap.String("category", category),
			zap.Int("chunks", len(chunks)),
		)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no markdown documents under %s", docsDir)
	}
	return out, nil
}

// WriteToStore persists the chunks as the provider's JSON snapshot.
func WriteToStore(ctx context.Context, store filestore.Store, provider string, chunks []model.KnowledgeChunk) error {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chunks); err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}
	if err := store.Save(ctx, EmbeddingsKey(provider), buf); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// WriteToDB replaces the provider's rows in the kb_chunks table.
func WriteToDB(ctx context.Context, chunkRepo *repo.KBChunkRepo, provider string, chunks []model.KnowledgeChunk) error {
	if _, err := chunkRepo.DeleteByProvider(ctx, provider); err != nil {
		return fmt.Errorf("clear old chunks: %w", err)
	}
	for i := range chunks {
		if err := chunkRepo.Save(ctx, provider, &chunks[i]); err != nil {
			return fmt.Errorf("save chunk %s/%s: %w", chunks[i].DocumentID, chunks[i].ChunkID.String(), err)
		}
	}
	return nil
}

func firstHeading(raw []byte) string {
	for _, line := range bytes.Split(raw, []byte("\n")) {
		trimmed := strings.TrimSpace(string(line))
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return ""
}
