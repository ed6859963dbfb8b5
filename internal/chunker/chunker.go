// Package chunker splits document content into overlapping token-budgeted chunks.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
)

// DefaultMaxTokens is the default token budget per chunk.
const DefaultMaxTokens = 512

// DefaultOverlapTokens is the default token overlap between consecutive chunks.
const DefaultOverlapTokens = 64

// Splitter splits document content into chunks.
// Splitting is deterministic: the same content and parameters always
// produce the same chunks, which is what makes re-sync comparison and
// fingerprint-based dedup sound.
type Splitter struct {
	maxTokens int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithMaxTokens sets the token budget per chunk.
func WithMaxTokens(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithOverlap sets the token overlap between consecutive chunks.
func WithOverlap(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.overlap = n
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		maxTokens: DefaultMaxTokens,
		overlap:   DefaultOverlapTokens,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Overlap must stay below the budget or chunking cannot advance
	if s.overlap >= s.maxTokens {
		s.overlap = s.maxTokens / 4
	}

	return s
}

// MaxTokens returns the configured token budget per chunk.
func (s *Splitter) MaxTokens() int {
	return s.maxTokens
}

// Overlap returns the configured token overlap.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split chunks the content of a document. Consecutive chunks overlap by
// exactly the configured token count except at the document boundary.
// Content that fits the budget yields exactly one chunk.
// Returns domain.ErrEmptyContent for empty or whitespace-only content.
func (s *Splitter) Split(documentID, content string) ([]domain.Chunk, error) {
	tokens := Tokenize(content)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("chunk document %s: %w", documentID, domain.ErrEmptyContent)
	}

	step := s.maxTokens - s.overlap
	estimated := (len(tokens) / step) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	index := 0
	for start := 0; start < len(tokens); start += step {
		end := start + s.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		chunks = append(chunks, domain.Chunk{
			DocumentID: documentID,
			Index:      index,
			Text:       strings.Join(tokens[start:end], " "),
			TokenCount: end - start,
		})
		index++

		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}

// Tokenize splits text into the token units the splitter budgets against.
// Whitespace-delimited words approximate the embedding model's tokeniser
// closely enough for chunk sizing.
func Tokenize(text string) []string {
	return strings.Fields(text)
}
