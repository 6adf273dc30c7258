package modes

import (
	"context"
	"strings"

	"studybuddy/prompts"
)

// GenerateQuiz writes a mixed-format quiz with a trailing answer key. Short
// inputs are treated as topic names and expanded from the document.
func (s *Service) GenerateQuiz(ctx context.Context, text, history string, doc Document) (string, error) {
	content := text
	if len(strings.Fields(text)) < 20 {
		if found := retrieve(ctx, doc, text, 4); found != "" {
			content = found
		}
	}

	return s.complete(ctx, "quiz", prompts.Quiz, prompts.QuizData{
		History: history,
		Content: content,
	})
}

func (s *Service) SolveQuestions(ctx context.Context, questions, history string, doc Document) (string, error) {
	var material string
	if found := retrieve(ctx, doc, questions, 3); found != "" {
		material = "[Relevant material from uploaded PDF:]\n" + found
	}

	return s.complete(ctx, "solution", prompts.Solve, prompts.SolveData{
		Questions: questions,
		Material:  material,
		History:   history,
	})
}

func (s *Service) EvaluateAnswers(ctx context.Context, questions, answers, history string, doc Document) (string, error) {
	var material string
	if found := retrieve(ctx, doc, questions, 2); found != "" {
		material = "[Reference material from PDF:]\n" + found
	}

	return s.complete(ctx, "evaluation", prompts.Evaluate, prompts.EvaluateData{
		Questions: questions,
		Answers:   answers,
		Material:  material,
		History:   history,
	})
}

// SplitQuestionsAnswers splits "questions --- answers" input. Without a
// separator the whole text is treated as questions.
func SplitQuestionsAnswers(input string) (questions, answers string) {
	q, a, _ := strings.Cut(input, "---")
	return strings.TrimSpace(q), strings.TrimSpace(a)
}
