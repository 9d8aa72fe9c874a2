package parser

import (
	"unicode/utf8"

	"pdf-quiz/internal/config"
	"pdf-quiz/internal/models"
)

// ChunkText splits text into consecutive chunks of chunkSize characters
// (code points); only the last chunk may be shorter. A character is never
// split across chunks, and concatenating the chunks yields text.
// A non-positive chunkSize falls back to the default.
func ChunkText(text string, chunkSize int) []models.Chunk {
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	if len(text) == 0 {
		return nil
	}

	n := utf8.RuneCountInString(text)
	chunks := make([]models.Chunk, 0, (n+chunkSize-1)/chunkSize)
	start, count := 0, 0
	for i := range text {
		if count == chunkSize {
			chunks = append(chunks, models.Chunk{Index: len(chunks), Content: text[start:i]})
			start, count = i, 0
		}
		count++
	}
	return append(chunks, models.Chunk{Index: len(chunks), Content: text[start:]})
}
