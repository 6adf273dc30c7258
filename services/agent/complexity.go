package agent

import (
	"strings"

	"studybuddy/models"
)

var complexIndicators = []string{
	"exam", "test preparation", "prepare for", "study plan",
	"help me learn", "master", "comprehensive", "everything about",
}

var moderateIndicators = []string{
	" and ", " then ", "also", "after that", "quiz me", "test me", "check my",
}

// AnalyzeComplexity classifies a request by keyword. Complex indicators win
// over moderate ones.
func AnalyzeComplexity(request string) models.Complexity {
	lower := strings.ToLower(request)
	switch {
	case containsAny(lower, complexIndicators):
		return models.ComplexityComplex
	case containsAny(lower, moderateIndicators):
		return models.ComplexityModerate
	default:
		return models.ComplexitySimple
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
