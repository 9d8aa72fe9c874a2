package quiz

import (
	"math/rand"
	"sort"
	"strings"

	"pdf-quiz/internal/models"
)

// SampleChunks picks k chunks for the generation context. With a nil rng
// it takes the first k; otherwise a random k, kept in document order.
func SampleChunks(chunks []models.Chunk, k int, rng *rand.Rand) []models.Chunk {
	if k <= 0 || len(chunks) == 0 {
		return nil
	}
	if k >= len(chunks) {
		return chunks
	}
	if rng == nil {
		return chunks[:k]
	}

	picked := rng.Perm(len(chunks))[:k]
	sort.Ints(picked)
	sample := make([]models.Chunk, 0, k)
	for _, i := range picked {
		sample = append(sample, chunks[i])
	}
	return sample
}

// JoinContext joins chunk contents with single spaces.
func JoinContext(chunks []models.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, " ")
}
