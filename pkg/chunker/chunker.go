package chunker

import (
	"fmt"
	"strings"

	"docgraph/pkg/common"
)

const (
	defaultMaxChunkSize = 512
	defaultOverlapSize  = 50
	defaultMinChunkSize = 100
)

// Config holds the character-count limits for chunking. Sizes are measured
// in characters, not bytes, so accented text is split correctly.
type Config struct {
	MaxChunkSize int
	OverlapSize  int
	MinChunkSize int
}

// Chunker splits extracted page elements into bounded, overlapping chunks.
// It is a pure transform: identical input always yields identical chunks.
type Chunker struct {
	maxChunkSize int
	overlapSize  int
	minChunkSize int
}

// New creates a Chunker with the given limits. Zero or negative values fall
// back to the defaults.
func New(cfg Config) *Chunker {
	c := &Chunker{
		maxChunkSize: cfg.MaxChunkSize,
		overlapSize:  cfg.OverlapSize,
		minChunkSize: cfg.MinChunkSize,
	}
	if c.maxChunkSize <= 0 {
		c.maxChunkSize = defaultMaxChunkSize
	}
	if c.overlapSize <= 0 {
		c.overlapSize = defaultOverlapSize
	}
	if c.minChunkSize <= 0 {
		c.minChunkSize = defaultMinChunkSize
	}
	return c
}

// ChunkDocument walks the elements in page order then element order and
// emits chunks with ids of the form {document_id}_chunk_{seq:04d}. The
// sequence counter is shared across the whole document, never reset per
// element or page.
//
// Elements whose trimmed content is shorter than the minimum chunk size are
// discarded. Elements longer than the maximum chunk size are split into
// overlapping sub-chunks. Every emitted chunk is trimmed of surrounding
// whitespace; the minimum-size check happens before that trim and is not
// re-validated afterwards.
func (c *Chunker) ChunkDocument(doc common.Document, elements []common.Element) []common.Chunk {
	var chunks []common.Chunk
	seq := 0

	for _, element := range elements {
		content := strings.TrimSpace(element.Content)
		if len([]rune(content)) < c.minChunkSize {
			continue
		}

		if len([]rune(content)) > c.maxChunkSize {
			for _, part := range c.SplitText(content) {
				chunks = append(chunks, newChunk(doc.ID, seq, part, element))
				seq++
			}
		} else {
			chunks = append(chunks, newChunk(doc.ID, seq, content, element))
			seq++
		}
	}

	return chunks
}

// SplitText splits a single oversized text into overlapping windows of at
// most MaxChunkSize characters. When a window's right edge falls strictly
// inside the text and a space exists past the window midpoint, the window
// is trimmed back to that space so words are not split. The next window
// starts OverlapSize characters before the previous window's end.
func (c *Chunker) SplitText(text string) []string {
	runes := []rune(text)

	var parts []string
	start := 0
	for start < len(runes) {
		end := start + c.maxChunkSize

		var window []rune
		if end < len(runes) {
			window = runes[start:end]
			if idx := lastSpace(window); idx > c.maxChunkSize/2 {
				window = window[:idx]
				end = start + idx
			}
		} else {
			window = runes[start:]
		}

		parts = append(parts, strings.TrimSpace(string(window)))

		next := end - c.overlapSize
		if next <= start {
			// Degenerate config (overlap >= window); force progress.
			next = start + 1
		}
		start = next
	}

	return parts
}

func lastSpace(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == ' ' {
			return i
		}
	}
	return -1
}

func newChunk(documentID string, seq int, content string, element common.Element) common.Chunk {
	return common.Chunk{
		ID:         fmt.Sprintf("%s_chunk_%04d", documentID, seq),
		DocumentID: documentID,
		Content:    content,
		Metadata: common.ChunkMetadata{
			Page:        element.Page,
			ElementType: element.Type,
			BBox:        element.BBox,
			Length:      len([]rune(content)),
		},
	}
}
