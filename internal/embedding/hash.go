package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/hyperjump/merkon/internal/vector"
)

// DefaultDimensions is used when a HashEmbedder is created with a non-positive size.
const DefaultDimensions = 256

// HashEmbedder is a deterministic bag-of-words embedder. Every lowercased token is
// hashed into one signed bucket and the result is L2-normalized, so texts that share
// words score a positive cosine similarity. It needs no model files.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder that produces vectors of the given dimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the embedding for text. Text without any token embeds to the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb := make([]float32, e.dimensions)
	for _, tok := range Tokenize(text) {
		h := hashToken(tok)
		bucket := int(h % uint64(e.dimensions))
		if h&(1<<63) != 0 {
			emb[bucket]--
		} else {
			emb[bucket]++
		}
	}
	vector.Normalize(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}

// Tokenize splits text into lowercase runs of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func hashToken(tok string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tok))
	return h.Sum64()
}
