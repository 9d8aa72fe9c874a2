package parser

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextReconstructs(t *testing.T) {
	docs := []string{
		"",
		"a",
		strings.Repeat("x", 999),
		strings.Repeat("x", 1000),
		strings.Repeat("lorem ipsum ", 250),
		"héllo wörld, ünïcode text",
		"ééé",
		strings.Repeat("日本語のテキスト", 40),
	}
	sizes := []int{1, 3, 7, 1000, 4096}

	for _, doc := range docs {
		for _, size := range sizes {
			chunks := ChunkText(doc, size)

			runes := utf8.RuneCountInString(doc)
			want := (runes + size - 1) / size
			if len(chunks) != want {
				t.Fatalf("runes=%d size=%d: got %d chunks, want %d", runes, size, len(chunks), want)
			}

			var b strings.Builder
			for i, c := range chunks {
				if c.Index != i {
					t.Errorf("chunk %d has index %d", i, c.Index)
				}
				if !utf8.ValidString(c.Content) {
					t.Errorf("chunk %d is not valid UTF-8: %q", i, c.Content)
				}
				l := utf8.RuneCountInString(c.Content)
				if l > size {
					t.Errorf("chunk %d longer than %d", i, size)
				}
				if i < len(chunks)-1 && l != size {
					t.Errorf("non-final chunk %d has length %d, want %d", i, l, size)
				}
				b.WriteString(c.Content)
			}
			if b.String() != doc {
				t.Errorf("size=%d: chunks do not reconstruct the document", size)
			}
		}
	}
}

func TestChunkTextLengths(t *testing.T) {
	chunks := ChunkText(strings.Repeat("a", 2500), 1000)
	got := make([]int, len(chunks))
	for i, c := range chunks {
		got[i] = len(c.Content)
	}
	want := []int{1000, 1000, 500}
	if len(got) != len(want) {
		t.Fatalf("got lengths %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got lengths %v, want %v", got, want)
		}
	}
}

func TestChunkTextDefaultSize(t *testing.T) {
	if got := len(ChunkText(strings.Repeat("a", 1500), 0)); got != 2 {
		t.Errorf("got %d chunks with default size, want 2", got)
	}
}

func TestChunkTextKeepsCharactersWhole(t *testing.T) {
	chunks := ChunkText("ééé", 2)
	if len(chunks) != 2 || chunks[0].Content != "éé" || chunks[1].Content != "é" {
		t.Errorf("got %+v", chunks)
	}
}
