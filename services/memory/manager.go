package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"studybuddy/db"
	"studybuddy/models"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	recallWords = 3
	// maxRecallDistance bounds how many extra letters a remembered word may
	// have around a query word.
	maxRecallDistance = 2
)

// Manager combines the short-term window of the current session with the
// long-term archive. It is safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	short     *ShortTerm
	long      *LongTerm
	sessionID string
	started   time.Time
	now       func() time.Time
}

func NewManager(maxTurns int, repo db.SessionRepository) *Manager {
	return &Manager{
		short:     NewShortTerm(maxTurns),
		long:      NewLongTerm(repo),
		sessionID: uuid.NewString(),
		started:   time.Now(),
		now:       time.Now,
	}
}

// LoadHistory pulls archived sessions from the repository, if any.
func (m *Manager) LoadHistory(ctx context.Context, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.long.Load(ctx, limit)
}

// Record stores one interaction in the current session.
func (m *Manager) Record(user, assistant string, tools []models.ToolID, complexity models.Complexity, metadata map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.short.Add(newTurn(user, assistant, tools, complexity, metadata))
}

func (m *Manager) Turns() []models.ConversationTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.short.Turns()
}

func (m *Manager) TurnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.short.Len()
}

func (m *Manager) Context(maxLen int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.short.Context(maxLen)
}

func (m *Manager) RecentTopics(n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.short.RecentTopics(n)
}

func (m *Manager) ToolUsage() map[models.ToolID]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.short.ToolUsage()
}

func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// RelevantContext is the recent conversation followed by the learning
// history summary.
func (m *Manager) RelevantContext() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.short.Context(DefaultContextLen) + "\n\n" + m.long.HistorySummary()
}

func (m *Manager) SessionSummary() models.SessionSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaryLocked()
}

func (m *Manager) summaryLocked() models.SessionSummary {
	return models.SessionSummary{
		SessionID:         m.sessionID,
		DurationMinutes:   int(m.now().Sub(m.started).Minutes()),
		TopicsCovered:     m.short.RecentTopics(3),
		ToolsUsed:         m.short.ToolUsage(),
		TotalInteractions: m.short.Len(),
	}
}

// EndSession archives the current session and clears the window. The
// session ID is kept until StartNewSession.
func (m *Manager) EndSession(ctx context.Context, documentUsed bool) models.StudySession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endLocked(ctx, documentUsed)
}

func (m *Manager) endLocked(ctx context.Context, documentUsed bool) models.StudySession {
	summary := m.summaryLocked()
	session := models.StudySession{
		SessionID:      summary.SessionID,
		StartTime:      m.started,
		EndTime:        m.now(),
		TopicsCovered:  summary.TopicsCovered,
		ToolsUsedCount: summary.ToolsUsed,
		TotalTurns:     summary.TotalInteractions,
		DocumentUsed:   documentUsed,
	}
	m.long.Save(ctx, session)
	m.short.Clear()
	return session
}

// StartNewSession ends the current session and opens a fresh one.
func (m *Manager) StartNewSession(ctx context.Context, documentUsed bool) models.StudySession {
	m.mu.Lock()
	defer m.mu.Unlock()

	ended := m.endLocked(ctx, documentUsed)
	m.sessionID = uuid.NewString()
	m.started = m.now()
	return ended
}

func (m *Manager) HistorySummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.long.HistorySummary()
}

func (m *Manager) Archive() []models.StudySession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.long.Sessions()
}

func (m *Manager) LearningInsights() models.LearningInsights {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.LearningInsights{
		CurrentSession: m.summaryLocked(),
		Patterns:       m.long.Patterns(),
		Suggestions:    m.long.PersonalizedSuggestions(),
	}
}

// RecallSimilar finds the latest turn whose input shares one of the first
// few words of query, or returns "".
func (m *Manager) RecallSimilar(query string) string {
	words := strings.Fields(strings.ToLower(query))
	if len(words) > recallWords {
		words = words[:recallWords]
	}
	if len(words) == 0 {
		return ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.short.turns
	for i := len(turns) - 1; i >= 0; i-- {
		candidates := strings.Fields(turns[i].UserInput)
		for _, w := range words {
			for _, rank := range fuzzy.RankFindNormalizedFold(w, candidates) {
				if rank.Distance <= maxRecallDistance {
					return "Previously, you asked about: " + turns[i].UserInput
				}
			}
		}
	}
	return ""
}
