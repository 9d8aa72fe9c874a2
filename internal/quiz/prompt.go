package quiz

import (
	"context"
	"fmt"

	"pdf-quiz/internal/llmservice"
	"pdf-quiz/internal/models"

	"github.com/rs/zerolog/log"
)

// BuildPrompt returns the instruction asking for n questions in the
// fixed Q/A/B/C/D/Answer/Explanation layout, followed by docContext
// verbatim.
func BuildPrompt(docContext string, n int) string {
	return fmt.Sprintf(models.MCQPromptTemplate, n, docContext)
}

// Generate sends one generation request and returns the raw reply.
// Nothing about the reply is checked here.
func Generate(ctx context.Context, gen llmservice.Generator, docContext string, n int) (string, error) {
	prompt := BuildPrompt(docContext, n)
	log.Debug().Int("num_questions", n).Int("context_chars", len(docContext)).Msg("Requesting questions")

	raw, err := gen.Generate(ctx, models.SystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("question generation failed: %w", err)
	}
	return raw, nil
}
