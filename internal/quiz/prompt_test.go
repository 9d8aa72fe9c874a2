package quiz

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"pdf-quiz/internal/models"
	"pdf-quiz/internal/parser"
)

func TestBuildPrompt(t *testing.T) {
	docContext := "The mitochondria is the powerhouse of the cell.\nSecond line %d kept verbatim."
	prompt := BuildPrompt(docContext, 7)

	for _, want := range []string{
		"generate 7 multiple-choice questions",
		"four answer options labeled A, B, C, and D",
		"Q1. <question>\nA. <option>\nB. <option>\nC. <option>\nD. <option>\nAnswer: <letter>\nExplanation: <short explanation>",
		"Document:\n" + docContext,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt is missing %q", want)
		}
	}
}

func TestGenerateSendsSystemAndPrompt(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"raw text"}}
	got, err := Generate(context.Background(), gen, "some context", 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != "raw text" {
		t.Errorf("got %q", got)
	}
	if gen.systems[0] != models.SystemPrompt || gen.prompts[0] != BuildPrompt("some context", 3) {
		t.Errorf("unexpected request %q / %q", gen.systems[0], gen.prompts[0])
	}
}

func TestGeneratePropagatesServiceError(t *testing.T) {
	boom := errors.New("quota")
	gen := &scriptedGenerator{replies: []string{""}, errs: []error{boom}}
	if _, err := Generate(context.Background(), gen, "c", 1); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestSampleChunks(t *testing.T) {
	chunks := parser.ChunkText("aaaabbbbccccddddeeee", 4)

	first := SampleChunks(chunks, 3, nil)
	if JoinContext(first) != "aaaa bbbb cccc" {
		t.Errorf("deterministic sample = %q", JoinContext(first))
	}

	random := SampleChunks(chunks, 3, rand.New(rand.NewSource(42)))
	if len(random) != 3 {
		t.Fatalf("got %d chunks", len(random))
	}
	for i := 1; i < len(random); i++ {
		if random[i-1].Index >= random[i].Index {
			t.Errorf("sample not in document order: %+v", random)
		}
	}

	if got := SampleChunks(chunks[:2], 3, nil); len(got) != 2 {
		t.Errorf("sampling more than available returned %d", len(got))
	}
	if got := SampleChunks(nil, 3, nil); len(got) != 0 {
		t.Errorf("empty input returned %d", len(got))
	}
}
