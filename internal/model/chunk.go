package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ChunkID accepts both numeric and string chunk ids from persisted
// indexes (text chunks carry numeric ids, code chunks ids like "code_0").
type ChunkID string

func (c *ChunkID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty chunk id")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ChunkID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chunk id must be string or number: %w", err)
	}
	*c = ChunkID(n.String())
	return nil
}

func (c ChunkID) String() string {
	return string(c)
}

func ChunkIDFromIndex(idx int) ChunkID {
	return ChunkID(strconv.Itoa(idx))
}

// KnowledgeChunk is one retrievable unit of provider documentation.
// Chunks are loaded once at index construction and never mutated;
// identity is (document_id, chunk_id).
type KnowledgeChunk struct {
	DocumentID string    `json:"document_id"`
	ChunkID    ChunkID   `json:"chunk_id"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	Category   string    `json:"category"`
	Code       string    `json:"code,omitempty"`
	Language   string    `json:"language,omitempty"`
	Embedding  []float32 `json:"embedding"`
}

// RetrievedResult is a KnowledgeChunk scored against a query, with the
// raw embedding stripped before it reaches downstream consumers.
type RetrievedResult struct {
	DocumentID     string  `json:"document_id"`
	ChunkID        ChunkID `json:"chunk_id"`
	Title          string  `json:"title"`
	Text           string  `json:"text"`
	Category       string  `json:"category"`
	Code           string  `json:"code,omitempty"`
	Language       string  `json:"language,omitempty"`
	Provider       string  `json:"provider"`
	RelevanceScore float64 `json:"relevance_score"`
}
