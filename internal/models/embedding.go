package models

// Chunk is a contiguous slice of a document's text and its 0-based
// position within the document.
type Chunk struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// VectorRecord is what gets upserted into the vector store.
type VectorRecord struct {
	ID        string            `json:"id"`
	Namespace string            `json:"namespace"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"-"`
	Metadata  map[string]string `json:"metadata"`
}
