package modes

import (
	"context"
	"fmt"
	"strings"

	"studybuddy/prompts"
)

const TooShortToSummarize = "⚠️ This text is too short to summarize. Please provide longer content."

var followUpStarters = map[string]bool{
	"what": true, "why": true, "how": true, "when": true, "which": true,
	"who": true, "where": true, "explain": true, "describe": true,
}

// Summarize condenses text. A non-empty instruction (or focus when the
// instruction is empty) narrows the summary; with an indexed document the
// most relevant sections replace the full text.
func (s *Service) Summarize(ctx context.Context, text, history, focus, instruction string, doc Document) (string, error) {
	if len(strings.TrimSpace(text)) < 50 {
		return TooShortToSummarize, nil
	}

	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = strings.TrimSpace(focus)
	}

	content := text
	var note string
	switch {
	case ready(doc) && instruction != "":
		if found := doc.Retrieve(ctx, instruction, 4); found != "" {
			content = found
			note = " (Using RAG: Retrieved most relevant sections)"
		}
	case ready(doc):
		if found := doc.Retrieve(ctx, truncate(text, 1500), 8); found != "" {
			content = found
			note = " (Using RAG: Overview from key sections)"
		}
	case len([]rune(text)) > rawTextLimit:
		content = truncate(text, rawTextLimit)
		note = fmt.Sprintf(" (Using first %d chars)", rawTextLimit)
	}

	return s.complete(ctx, "summary", prompts.Summarize, prompts.SummarizeData{
		Instruction: instruction,
		Note:        note,
		History:     history,
		Content:     content,
	})
}

// IsFollowUp reports whether a chat message sent while a document is loaded
// reads as a question about an earlier summary rather than a new
// instruction.
func IsFollowUp(message string) bool {
	p := strings.TrimSpace(message)
	if p == "" {
		return false
	}
	words := strings.Fields(p)
	if len(words) <= 12 || strings.HasSuffix(p, "?") {
		return true
	}
	return followUpStarters[strings.ToLower(words[0])]
}

// FollowUpInstruction turns a follow-up question into a summarize
// instruction.
func FollowUpInstruction(message string) string {
	return fmt.Sprintf("Follow-up question: %s. Use the previous assistant response and the PDF content to answer concisely.", strings.TrimSpace(message))
}
