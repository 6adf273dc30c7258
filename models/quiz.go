package models

import "fmt"

// Mode selects a mode function directly, bypassing the planner.
type Mode string

const (
	ModeAgent     Mode = "agent"
	ModeExplain   Mode = "explain"
	ModeSummarize Mode = "summarize"
	ModeQuiz      Mode = "quiz"
	ModeSolve     Mode = "solve"
	ModeEvaluate  Mode = "evaluate"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeAgent, nil
	case ModeAgent, ModeExplain, ModeSummarize, ModeQuiz, ModeSolve, ModeEvaluate:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}
