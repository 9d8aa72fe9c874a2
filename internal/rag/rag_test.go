package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"pdf-quiz/internal/chromemdb"
	"pdf-quiz/internal/config"
	"pdf-quiz/internal/models"
	"pdf-quiz/internal/quiz"
)

const twoQuestions = `Q1. What is chunked first?
A. The end
B. The beginning
C. The middle
D. Nothing
Answer: B
Explanation: Chunks start at offset zero.

Q2. How large is a chunk?
A. 1000 characters
B. 10 characters
C. One page
D. One line
Answer: A
Explanation: The default chunk size is 1000.`

type fakeEmbedder struct {
	calls int
}

// EmbedQuery maps text to a vector keyed on its first letter so retrieval
// is predictable.
func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	v := []float32{0.01, 0.01, 0.01}
	if text != "" {
		switch text[0] {
		case 'a':
			v[0] = 1
		case 'b':
			v[1] = 1
		case 'c':
			v[2] = 1
		}
	}
	return v, nil
}

type recordingStore struct {
	upserted []models.VectorRecord
	deleted  []string
}

func (s *recordingStore) Upsert(ctx context.Context, ns string, records []models.VectorRecord) error {
	s.upserted = append(s.upserted, records...)
	return nil
}

func (s *recordingStore) DeleteNamespace(ctx context.Context, ns string) error {
	s.deleted = append(s.deleted, ns)
	return nil
}

func (s *recordingStore) Query(ctx context.Context, ns string, vector []float32, k int) ([]models.VectorRecord, error) {
	return nil, nil
}

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func testConfig() *config.Config {
	return &config.Config{
		RAG: config.RAGConfig{
			ChunkSize:      config.DefaultChunkSize,
			ContextChunks:  config.DefaultContextChunks,
			TopK:           2,
			ClearAfterQuiz: true,
		},
		Quiz: config.QuizConfig{NumQuestions: config.DefaultNumQuestions},
	}
}

func TestProcessEndToEnd(t *testing.T) {
	store := &recordingStore{}
	gen := &fakeGenerator{reply: twoQuestions}
	emb := &fakeEmbedder{}
	p := NewPipeline(emb, store, gen, testConfig())
	p.extract = func(path string) (string, error) {
		return strings.Repeat("x", 2500), nil
	}

	questions, err := p.Process(context.Background(), Upload{Path: "uploads/abc_doc.pdf", Name: "doc.pdf"})
	if err != nil {
		t.Fatal(err)
	}

	wantIDs := []string{"doc_chunk_0", "doc_chunk_1", "doc_chunk_2"}
	if len(store.upserted) != len(wantIDs) {
		t.Fatalf("upserted %d records", len(store.upserted))
	}
	for i, id := range wantIDs {
		if store.upserted[i].ID != id {
			t.Errorf("record %d id = %s, want %s", i, store.upserted[i].ID, id)
		}
	}
	if emb.calls != 3 {
		t.Errorf("embedding calls = %d, want 3", emb.calls)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "doc" {
		t.Errorf("deleted = %v", store.deleted)
	}

	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "generate 2 multiple-choice questions") {
		t.Fatalf("prompts = %v", gen.prompts)
	}
	// first three chunks joined by single spaces
	wantContext := strings.Repeat("x", 1000) + " " + strings.Repeat("x", 1000) + " " + strings.Repeat("x", 500)
	if !strings.HasSuffix(gen.prompts[0], wantContext) {
		t.Error("prompt does not end with the document context")
	}

	if len(questions) != 2 {
		t.Fatalf("got %d questions", len(questions))
	}
	res := quiz.Score(questions, []string{"B", "C"})
	if res.Score != 1 || res.Total != 2 {
		t.Errorf("score = %d/%d, want 1/2", res.Score, res.Total)
	}
}

func TestProcessServiceErrorWithoutRetry(t *testing.T) {
	boom := errors.New("upstream unavailable")
	store := &recordingStore{}
	p := NewPipeline(&fakeEmbedder{}, store, &fakeGenerator{err: boom}, testConfig())

	_, err := p.FromText(context.Background(), Upload{Name: "notes.pdf"}, "some text")
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if len(store.deleted) != 1 {
		t.Errorf("namespace not cleared on failure: %v", store.deleted)
	}
}

func TestProcessExhaustedWithRetry(t *testing.T) {
	cfg := testConfig()
	cfg.Quiz.UseRetry = true
	cfg.Quiz.MaxAttempts = 1
	cfg.Quiz.RetryDelay = 1
	gen := &fakeGenerator{reply: "no questions here"}
	p := NewPipeline(&fakeEmbedder{}, &recordingStore{}, gen, cfg)

	_, err := p.FromText(context.Background(), Upload{Name: "notes.pdf"}, "some text")
	if !errors.Is(err, quiz.ErrGenerationExhausted) {
		t.Fatalf("got %v", err)
	}
	if len(gen.prompts) != 1 {
		t.Errorf("calls = %d, want 1", len(gen.prompts))
	}
}

func TestProcessExtractError(t *testing.T) {
	p := NewPipeline(&fakeEmbedder{}, &recordingStore{}, &fakeGenerator{}, testConfig())
	if _, err := p.Process(context.Background(), Upload{Path: "notes.odt"}); err == nil {
		t.Fatal("expected extraction error")
	}
}

func TestTopicRetrievalUsesNearestChunks(t *testing.T) {
	store, err := chromemdb.NewVectorDBManager("", true, false, "")
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.RAG.ClearAfterQuiz = false
	gen := &fakeGenerator{reply: twoQuestions}
	p := NewPipeline(&fakeEmbedder{}, store, gen, cfg)

	// chunk size 4 splits this into "cccc", "aaaa", "bbbb", "aaab"
	text := "ccccaaaabbbbaaab"
	if _, err := p.FromText(context.Background(), Upload{Name: "doc.pdf", ChunkSize: 4, Topic: "a"}, text); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(gen.prompts[0], "aaaa aaab") {
		t.Errorf("prompt context = %q", gen.prompts[0][strings.LastIndex(gen.prompts[0], "\n")+1:])
	}

	got, err := p.Retrieve(context.Background(), "doc", "b", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Content != "bbbb" || got[0].Index != 2 {
		t.Errorf("got %+v", got)
	}
}

type lockedStore struct {
	mu sync.Mutex
	recordingStore
}

func (s *lockedStore) Upsert(ctx context.Context, ns string, records []models.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordingStore.Upsert(ctx, ns, records)
}

func (s *lockedStore) DeleteNamespace(ctx context.Context, ns string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordingStore.DeleteNamespace(ctx, ns)
}

type fixedEmbedder struct{}

func (fixedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type echoGenerator struct{}

func (echoGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	return twoQuestions, nil
}

// Run with -race: concurrent uploads must not share sampling state.
func TestFromTextConcurrentRandomSample(t *testing.T) {
	cfg := testConfig()
	cfg.RAG.RandomSample = true
	cfg.RAG.ContextChunks = 2
	p := NewPipeline(fixedEmbedder{}, &lockedStore{}, echoGenerator{}, cfg)

	text := strings.Repeat("abcdefghij", 10)
	var wg sync.WaitGroup
	errs := make(chan error, 8*20)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if _, err := p.FromText(context.Background(), Upload{Name: "doc.pdf", ChunkSize: 10}, text); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestFromTextContextIsValidUTF8(t *testing.T) {
	gen := &fakeGenerator{reply: twoQuestions}
	p := NewPipeline(&fakeEmbedder{}, &recordingStore{}, gen, testConfig())

	if _, err := p.FromText(context.Background(), Upload{Name: "doc.pdf", ChunkSize: 3}, "éééé日本"); err != nil {
		t.Fatal(err)
	}
	prompt := gen.prompts[0]
	if !utf8.ValidString(prompt) {
		t.Fatalf("prompt is not valid UTF-8: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "ééé é日本") {
		t.Errorf("prompt context = %q", prompt[strings.LastIndex(prompt, "\n")+1:])
	}
}
