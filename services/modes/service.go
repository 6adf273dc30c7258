// Package modes implements the study modes: explain, summarize, quiz
// generation, question solving and answer evaluation.
package modes

import (
	"context"
	"fmt"

	"studybuddy/prompts"
	"studybuddy/services/llm"

	"go.uber.org/zap"
)

const rawTextLimit = 8000

// Document is the uploaded study material a mode may draw on.
type Document interface {
	// IsReady reports whether the document has a searchable index.
	IsReady() bool
	// Retrieve returns up to k relevant sections, or "" on any failure.
	Retrieve(ctx context.Context, query string, k int) string
	// Text returns the raw extracted text, or "" when nothing is loaded.
	Text() string
}

type Service struct {
	llm     llm.Client
	prompts *prompts.Store
}

func NewService(client llm.Client, store *prompts.Store) *Service {
	return &Service{llm: client, prompts: store}
}

func (s *Service) complete(ctx context.Context, mode, template string, data any) (string, error) {
	prompt, err := s.prompts.Render(template, data)
	if err != nil {
		return "", err
	}

	zap.S().Infof("Calling LLM for %s (prompt length: %d chars)", mode, len(prompt))
	out, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		zap.S().Errorf("Failed to generate %s response: %v", mode, err)
		return "", fmt.Errorf("failed to generate %s response: %w", mode, err)
	}
	return out, nil
}

func ready(doc Document) bool {
	return doc != nil && doc.IsReady()
}

func retrieve(ctx context.Context, doc Document, query string, k int) string {
	if !ready(doc) {
		return ""
	}
	return doc.Retrieve(ctx, query, k)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
