package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/payagent/internal/model"
	"github.com/xxxsen/payagent/internal/pkg/dbutil"
)

// KBChunkRepo persists documentation chunks when the knowledge base is
// backed by postgres instead of snapshot files. Rows are written by the
// offline builder and read in full at agent startup.
type KBChunkRepo struct {
	db *sql.DB
}

func NewKBChunkRepo(db *sql.DB) *KBChunkRepo {
	return &KBChunkRepo{db: db}
}

func (r *KBChunkRepo) Save(ctx context.Context, provider string, chunk *model.KnowledgeChunk) error {
	const query = `
		INSERT INTO kb_chunks (provider, document_id, chunk_id, title, chunk_text, category, code, code_language, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (provider, document_id, chunk_id) DO UPDATE SET
			title = EXCLUDED.title,
			chunk_text = EXCLUDED.chunk_text,
			category = EXCLUDED.category,
			code = EXCLUDED.code,
			code_language = EXCLUDED.code_language,
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	_, err := r.db.ExecContext(ctx, query,
		provider,
		chunk.DocumentID,
		chunk.ChunkID.String(),
		chunk.Title,
		chunk.Text,
		chunk.Category,
		chunk.Code,
		chunk.Language,
		pgvector.NewVector(chunk.Embedding),
		time.Now().Unix(),
	)
	return err
}

func (r *KBChunkRepo) ListByProvider(ctx context.Context, provider string) ([]model.KnowledgeChunk, error) {
	where := map[string]interface{}{
		"provider": provider,
		"_orderby": "document_id, chunk_id",
	}
	fields := []string{"document_id", "chunk_id", "title", "chunk_text", "category", "code", "code_language", "embedding"}
	sqlStr, args, err := builder.BuildSelect("kb_chunks", where, fields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.KnowledgeChunk
	for rows.Next() {
		var item model.KnowledgeChunk
		var chunkID string
		var embedding pgvector.Vector
		if err := rows.Scan(&item.DocumentID, &chunkID, &item.Title, &item.Text, &item.Category, &item.Code, &item.Language, &embedding); err != nil {
			return nil, err
		}
		item.ChunkID = model.ChunkID(chunkID)
		item.Embedding = embedding.Slice()
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *KBChunkRepo) DeleteByProvider(ctx context.Context, provider string) (int64, error) {
	const query = `DELETE FROM kb_chunks WHERE provider = $1`
	res, err := r.db.ExecContext(ctx, query, provider)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
