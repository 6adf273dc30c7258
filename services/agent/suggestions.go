package agent

import (
	"strings"

	"studybuddy/models"

	"github.com/samber/lo"
)

const (
	maxSuggestions     = 3
	longSessionTurns   = 5
	suggestionsHeading = "\n\n---\n\n💡 **I can also help you with:**\n"
)

// ProactiveSuggestions derives follow-up offers from the request, its
// complexity and how long the session has been running.
func ProactiveSuggestions(request string, complexity models.Complexity, turns int) []string {
	lower := strings.ToLower(request)
	var out []string

	if complexity == models.ComplexitySimple && strings.Contains(lower, "explain") {
		out = append(out,
			"Would you like a quiz to test your understanding?",
			"Should I provide some practice problems?",
		)
	}
	if strings.Contains(lower, "quiz") || strings.Contains(lower, "test") {
		out = append(out,
			"After attempting, I can evaluate your answers",
			"Want me to explain any concepts from the quiz?",
		)
	}
	if strings.Contains(lower, "summarize") || strings.Contains(lower, "summary") {
		out = append(out,
			"Need detailed explanation of any specific point?",
			"Should I create a quiz based on this summary?",
		)
	}
	if strings.Contains(lower, "exam") || strings.Contains(lower, "test") {
		out = append(out,
			"I can create a comprehensive study schedule",
			"Want me to identify the most important topics?",
		)
	}
	if turns > longSessionTurns {
		out = append(out,
			"I can summarize what we've covered in this session",
			"Ready for a comprehensive assessment?",
		)
	}

	out = lo.Uniq(out)
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// AppendSuggestions adds the suggestions section to a reply.
func AppendSuggestions(reply string, suggestions []string) string {
	if len(suggestions) == 0 {
		return reply
	}

	var b strings.Builder
	b.WriteString(reply)
	b.WriteString(suggestionsHeading)
	for _, s := range suggestions {
		b.WriteString("- " + s + "\n")
	}
	return b.String()
}

// parseSuggestionLines reads up to three suggestions from a model reply,
// dropping list markers.
func parseSuggestionLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "-*•0123456789.) ")
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
