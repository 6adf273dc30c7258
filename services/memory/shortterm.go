// Package memory keeps the conversation window of the current study
// session and an archive of ended sessions.
package memory

import (
	"strings"
	"time"

	"studybuddy/models"
)

const (
	DefaultMaxTurns   = 10
	DefaultContextLen = 2000

	responseLimit     = 500
	contextTurns      = 5
	contextReplyLimit = 200
	topicLimit        = 50
)

// ShortTerm is a FIFO window of the most recent turns. It is not safe for
// concurrent use; Manager serializes access.
type ShortTerm struct {
	maxTurns int
	turns    []models.ConversationTurn
}

func NewShortTerm(maxTurns int) *ShortTerm {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &ShortTerm{maxTurns: maxTurns}
}

// Add appends a turn, evicting the oldest once the window is full.
func (m *ShortTerm) Add(turn models.ConversationTurn) {
	turn.AgentResponse = clip(turn.AgentResponse, responseLimit)
	m.turns = append(m.turns, turn)
	if len(m.turns) > m.maxTurns {
		m.turns = append([]models.ConversationTurn(nil), m.turns[len(m.turns)-m.maxTurns:]...)
	}
}

func (m *ShortTerm) Turns() []models.ConversationTurn {
	return append([]models.ConversationTurn(nil), m.turns...)
}

func (m *ShortTerm) Len() int {
	return len(m.turns)
}

// Context renders the last few turns, keeping the most recent maxLen
// characters.
func (m *ShortTerm) Context(maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultContextLen
	}

	recent := m.turns[max(0, len(m.turns)-contextTurns):]
	lines := make([]string, 0, 2*len(recent))
	for _, t := range recent {
		lines = append(lines,
			"User: "+t.UserInput,
			"Assistant: "+clip(t.AgentResponse, contextReplyLimit)+"...",
		)
	}

	context := []rune(strings.Join(lines, "\n"))
	if len(context) > maxLen {
		context = context[len(context)-maxLen:]
	}
	return string(context)
}

// RecentTopics returns the opening of each of the last n user inputs that
// has more than two words.
func (m *ShortTerm) RecentTopics(n int) []string {
	if n <= 0 {
		n = 3
	}

	var topics []string
	for _, t := range m.turns[max(0, len(m.turns)-n):] {
		if len(strings.Fields(t.UserInput)) > 2 {
			topics = append(topics, clip(t.UserInput, topicLimit))
		}
	}
	return topics
}

func (m *ShortTerm) ToolUsage() map[models.ToolID]int {
	usage := make(map[models.ToolID]int)
	for _, t := range m.turns {
		for _, tool := range t.ToolsUsed {
			usage[tool]++
		}
	}
	return usage
}

func (m *ShortTerm) Clear() {
	m.turns = nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func newTurn(user, assistant string, tools []models.ToolID, complexity models.Complexity, metadata map[string]string) models.ConversationTurn {
	if complexity == "" {
		complexity = models.ComplexitySimple
	}
	return models.ConversationTurn{
		Timestamp:     time.Now(),
		UserInput:     user,
		AgentResponse: assistant,
		ToolsUsed:     append([]models.ToolID(nil), tools...),
		Complexity:    complexity,
		Metadata:      metadata,
	}
}
