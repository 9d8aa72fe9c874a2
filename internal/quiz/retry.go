package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pdf-quiz/internal/config"
	"pdf-quiz/internal/llmservice"

	"github.com/rs/zerolog/log"
)

// ErrGenerationExhausted means every attempt failed or produced output
// without a single well-formed question.
var ErrGenerationExhausted = errors.New("could not generate valid questions")

// RetryPolicy controls how Generate is retried.
type RetryPolicy struct {
	MaxAttempts int
	// Delay is waited after every unsuccessful attempt, the last included.
	Delay time.Duration
	// Backoff, when set, replaces Delay. attempt starts at 1.
	Backoff func(attempt int) time.Duration
	// Valid decides whether raw output is accepted. Defaults to IsValidMCQ.
	Valid func(raw string) bool

	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy is three attempts five seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: config.DefaultMaxAttempts,
		Delay:       config.DefaultRetryDelay,
		Valid:       IsValidMCQ,
	}
}

// NewRetryPolicy builds a policy from the quiz config section.
func NewRetryPolicy(cfg config.QuizConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.RetryDelay > 0 {
		p.Delay = cfg.RetryDelay
	}
	return p
}

// Generate calls the generator until its output passes Valid. Service
// errors count as failed attempts. After MaxAttempts failures it returns
// an error wrapping ErrGenerationExhausted.
func (p RetryPolicy) Generate(ctx context.Context, gen llmservice.Generator, docContext string, n int) (string, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = config.DefaultMaxAttempts
	}
	valid := p.Valid
	if valid == nil {
		valid = IsValidMCQ
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := Generate(ctx, gen, docContext, n)
		switch {
		case err != nil:
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", maxAttempts).Msg("Generation attempt failed")
		case !valid(raw):
			lastErr = nil
			log.Warn().Int("attempt", attempt).Int("max_attempts", maxAttempts).Msg("Generated output has no well-formed question")
		default:
			log.Info().Int("attempt", attempt).Msg("Generated valid questions")
			return raw, nil
		}

		if err := sleep(ctx, p.delay(attempt)); err != nil {
			return "", err
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w after %d attempts: last error: %v", ErrGenerationExhausted, maxAttempts, lastErr)
	}
	return "", fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, maxAttempts)
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.Backoff != nil {
		return p.Backoff(attempt)
	}
	return p.Delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
