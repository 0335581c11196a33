package ai

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"
)

// DocChunk is one pre-embedding unit produced from a documentation
// page: either a run of prose under a heading, or a fenced code block.
type DocChunk struct {
	Title    string
	Text     string
	Code     string
	Language string
}

type Chunker struct {
	maxTokens int
}

func NewChunker(maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	return &Chunker{maxTokens: maxTokens}
}

// Chunk splits a markdown documentation page into prose and code
// chunks. Level 1-2 headings start a new section and become the chunk
// title; prose is accumulated until maxTokens and then flushed.
func (c *Chunker) Chunk(ctx context.Context, title string, markdown string) []DocChunk {
	logger := logutil.GetLogger(ctx)
	md := goldmark.New()
	reader := text.NewReader([]byte(markdown))
	doc := md.Parser().Parse(reader)

	var chunks []DocChunk
	var current []string
	currentTokens := 0
	heading := title

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, DocChunk{
			Title: heading,
			Text:  strings.Join(current, "\n\n"),
		})
		current = nil
		currentTokens = 0
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			if n.Level <= 2 {
				flush()
				heading = string(n.Text(reader.Source()))
			} else {
				txt := string(n.Text(reader.Source()))
				current = append(current, txt)
				currentTokens += estimateTokens(txt)
			}
		case *ast.FencedCodeBlock:
			lang := string(n.Language(reader.Source()))
			var sb strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				sb.Write(line.Value(reader.Source()))
			}
			code := strings.TrimRight(sb.String(), "\n")
			if code == "" {
				continue
			}
			flush()
			chunks = append(chunks, DocChunk{
				Title:    heading,
				Text:     "Code example (" + codeLang(lang) + "): " + code,
				Code:     code,
				Language: codeLang(lang),
			})
		default:
			txt := extractText(node, reader.Source())
			if txt == "" {
				continue
			}
			tokens := estimateTokens(txt)
			if currentTokens+tokens > c.maxTokens {
				flush()
			}
			current = append(current, txt)
			currentTokens += tokens
		}
	}
	flush()
	logger.Debug("markdown chunked", zap.String("title", title), zap.Int("chunks", len(chunks)))
	return chunks
}

func codeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "unknown"
	}
	return lang
}

func estimateTokens(text string) int {
	count := 0
	for _, r := range text {
		if r > 127 {
			count++
		}
	}
	count += len(strings.Fields(text))
	if count == 0 && len(text) > 0 {
		return 1
	}
	return count
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
