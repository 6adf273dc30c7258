package memory

import (
	"context"
	"fmt"
	"strings"

	"studybuddy/db"
	"studybuddy/models"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	commonTopicLimit = 20
	recentTopicLimit = 5
	FirstSession     = "This is your first session!"
)

// LongTerm archives ended sessions and the learning patterns derived from
// them. A nil repository keeps the archive in memory only.
type LongTerm struct {
	repo     db.SessionRepository
	sessions []models.StudySession
	patterns models.LearningPatterns
}

func NewLongTerm(repo db.SessionRepository) *LongTerm {
	return &LongTerm{
		repo:     repo,
		patterns: models.LearningPatterns{MostUsedTools: map[models.ToolID]int{}},
	}
}

// Load replays up to limit persisted sessions, oldest first, into the
// archive.
func (m *LongTerm) Load(ctx context.Context, limit int) error {
	if m.repo == nil {
		return nil
	}

	sessions, err := m.repo.ListSessions(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load session history: %w", err)
	}
	for _, s := range lo.Reverse(sessions) {
		m.add(s)
	}
	zap.S().Infof("Successfully loaded %d archived sessions", len(sessions))
	return nil
}

// Save archives a session. Persistence failures are logged, never
// returned.
func (m *LongTerm) Save(ctx context.Context, session models.StudySession) {
	m.add(session)

	if m.repo == nil {
		return
	}
	if err := m.repo.SaveSession(ctx, session); err != nil {
		zap.S().Warnf("Failed to persist session %s: %v", session.SessionID, err)
	}
}

func (m *LongTerm) add(session models.StudySession) {
	m.sessions = append(m.sessions, session)

	for tool, count := range session.ToolsUsedCount {
		m.patterns.MostUsedTools[tool] += count
	}

	topics := append(m.patterns.CommonTopics, session.TopicsCovered...)
	m.patterns.CommonTopics = lo.Uniq(topics[max(0, len(topics)-commonTopicLimit):])
}

func (m *LongTerm) Sessions() []models.StudySession {
	return append([]models.StudySession(nil), m.sessions...)
}

func (m *LongTerm) Patterns() models.LearningPatterns {
	return models.LearningPatterns{
		MostUsedTools: lo.Assign(m.patterns.MostUsedTools),
		CommonTopics:  append([]string(nil), m.patterns.CommonTopics...),
	}
}

// MostUsedTool returns the tool used most across archived sessions, or
// "None". Ties go to the tool registered first.
func (m *LongTerm) MostUsedTool() string {
	best, bestCount := "None", 0
	for _, id := range models.AllToolIDs {
		if c := m.patterns.MostUsedTools[id]; c > bestCount {
			best, bestCount = string(id), c
		}
	}
	return best
}

func (m *LongTerm) HistorySummary() string {
	if len(m.sessions) == 0 {
		return FirstSession
	}

	topics := m.patterns.CommonTopics[max(0, len(m.patterns.CommonTopics)-recentTopicLimit):]
	recent := "None"
	if len(topics) > 0 {
		recent = strings.Join(topics, ", ")
	}

	return fmt.Sprintf("**Your Learning History:**\n- Total study sessions: %d\n- Most used feature: %s\n- Recent topics: %s",
		len(m.sessions), m.MostUsedTool(), recent)
}

func (m *LongTerm) PersonalizedSuggestions() []string {
	var suggestions []string
	if m.patterns.MostUsedTools[models.ToolConceptExplainer] > 5 {
		suggestions = append(suggestions, "You learn well through explanations - keep that up!")
	}
	if len(m.patterns.CommonTopics) > 3 {
		suggestions = append(suggestions, "Ready for a comprehensive quiz on all your recent topics?")
	}
	return suggestions
}
