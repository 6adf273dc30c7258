package tools

import (
	"strings"

	"studybuddy/models"

	"github.com/samber/lo"
)

var keywordRules = []struct {
	tool     models.ToolID
	keywords []string
}{
	{models.ToolConceptExplainer, []string{"explain", "what is", "how does", "help me understand", "clarify"}},
	{models.ToolContentSummarizer, []string{"summarize", "summary", "tldr", "main points", "key points", "condense"}},
	{models.ToolQuizGenerator, []string{"quiz", "test", "practice", "questions", "mcq", "exam prep"}},
	{models.ToolQuestionSolver, []string{"solve", "answer", "solution", "work out", "calculate"}},
	{models.ToolAnswerEvaluator, []string{"check", "evaluate", "grade", "feedback", "review my answer"}},
}

// Suggest picks tools for a request by keyword. The result is never empty:
// it falls back to the concept explainer.
func (r *Registry) Suggest(request string, hasDocument bool) []models.ToolID {
	lower := strings.ToLower(request)

	var suggestions []models.ToolID
	for _, rule := range keywordRules {
		if lo.SomeBy(rule.keywords, func(k string) bool { return strings.Contains(lower, k) }) {
			suggestions = append(suggestions, rule.tool)
		}
	}
	if len(suggestions) == 0 {
		suggestions = []models.ToolID{models.ToolConceptExplainer}
	}

	if !hasDocument {
		suggestions = lo.Filter(suggestions, func(id models.ToolID, _ int) bool {
			tool, ok := r.Get(id)
			return id == models.ToolConceptExplainer || (ok && !tool.RequiresDocument)
		})
	}
	if len(suggestions) == 0 {
		suggestions = []models.ToolID{models.ToolConceptExplainer}
	}
	return suggestions
}
