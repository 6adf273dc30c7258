package tools

import (
	"context"
	"fmt"

	"studybuddy/models"
	"studybuddy/services/modes"
)

const rawTextLimit = 8000

func defaultTool(id models.ToolID, m *modes.Service) Tool {
	switch id {
	case models.ToolConceptExplainer:
		return Tool{
			ID:          id,
			Description: "Explains academic concepts, topics, or questions in simple, easy-to-understand terms. Best for: 'Explain X', 'What is Y', 'Help me understand Z'. Uses PDF content if available.",
			Parameters:  []string{"concept", "previous_context", "document"},
			Category:    "learning",
			Handler: func(ctx context.Context, in Input) (string, error) {
				return m.Explain(ctx, in.Request, in.History, in.Document)
			},
		}
	case models.ToolContentSummarizer:
		return Tool{
			ID:               id,
			Description:      "Summarizes long text, notes, or PDF documents into concise key points. Best for: 'Summarize this', 'Give me the main points', 'TL;DR of chapter X'. Requires content to summarize.",
			Parameters:       []string{"text", "previous_context", "user_focus", "extra_instruction", "document"},
			Category:         "comprehension",
			RequiresDocument: true,
			Handler: func(ctx context.Context, in Input) (string, error) {
				text := documentContext(ctx, in)
				if text == "" {
					text = in.Request
				}
				return m.Summarize(ctx, text, in.History, in.Request, "", in.Document)
			},
		}
	case models.ToolQuizGenerator:
		return Tool{
			ID:          id,
			Description: "Creates practice quizzes with multiple choice, true/false, fill-in-the-blank, and short answer questions. Best for: 'Make a quiz on X', 'Test me on Y', 'Practice questions for Z'. Includes answer key.",
			Parameters:  []string{"text", "previous_context", "document"},
			Category:    "assessment",
			Handler: func(ctx context.Context, in Input) (string, error) {
				return m.GenerateQuiz(ctx, in.Request, in.History, in.Document)
			},
		}
	case models.ToolQuestionSolver:
		return Tool{
			ID:          id,
			Description: "Solves exam-style questions with detailed answers. Adapts answer length based on marks/word limits. Best for: 'Solve this question', 'Answer: Q1. ...', 'Help with this problem'. Uses PDF as reference if available.",
			Parameters:  []string{"user_questions", "previous_context", "document"},
			Category:    "problem_solving",
			Handler: func(ctx context.Context, in Input) (string, error) {
				return m.SolveQuestions(ctx, in.Request, in.History, in.Document)
			},
		}
	case models.ToolAnswerEvaluator:
		return Tool{
			ID:          id,
			Description: "Evaluates and grades user's answers to questions. Provides detailed feedback, marks allocation, and improvement suggestions. Best for: 'Check my answer', 'Evaluate this', 'How did I do?'",
			Parameters:  []string{"questions", "user_answers", "previous_context", "document"},
			Category:    "assessment",
			Handler: func(ctx context.Context, in Input) (string, error) {
				return m.EvaluateAnswers(ctx, in.Request, "", in.History, in.Document)
			},
		}
	default:
		panic(fmt.Sprintf("tools: no handler for %q", id))
	}
}

// documentContext is the document text relevant to the request: retrieved
// sections when indexed, otherwise the leading raw text.
func documentContext(ctx context.Context, in Input) string {
	if in.Document == nil {
		return ""
	}
	if in.Document.IsReady() {
		return in.Document.Retrieve(ctx, in.Request, 3)
	}
	text := []rune(in.Document.Text())
	if len(text) > rawTextLimit {
		text = text[:rawTextLimit]
	}
	return string(text)
}
