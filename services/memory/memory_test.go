package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"studybuddy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	saved   []models.StudySession
	saveErr error
}

func (r *memoryRepo) SaveSession(_ context.Context, s models.StudySession) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, s)
	return nil
}

func (r *memoryRepo) ListSessions(_ context.Context, limit int) ([]models.StudySession, error) {
	out := append([]models.StudySession(nil), r.saved...)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) Close() error { return nil }

func TestShortTermEvictsOldestFirst(t *testing.T) {
	const n = 10
	m := NewShortTerm(n)

	for i := 0; i <= n; i++ {
		m.Add(models.ConversationTurn{UserInput: fmt.Sprintf("question %d", i)})
	}

	turns := m.Turns()
	require.Len(t, turns, n)
	for i, turn := range turns {
		assert.Equal(t, fmt.Sprintf("question %d", i+1), turn.UserInput)
	}
}

func TestShortTermTruncatesResponses(t *testing.T) {
	m := NewShortTerm(0)
	m.Add(models.ConversationTurn{UserInput: "q", AgentResponse: strings.Repeat("a", 900)})

	assert.Len(t, m.Turns()[0].AgentResponse, 500)
	assert.Equal(t, "User: q\nAssistant: "+strings.Repeat("a", 200)+"...", m.Context(0))
}

func TestShortTermContext(t *testing.T) {
	m := NewShortTerm(10)
	for i := 0; i < 7; i++ {
		m.Add(models.ConversationTurn{UserInput: fmt.Sprintf("q%d", i), AgentResponse: fmt.Sprintf("a%d", i)})
	}

	ctx := m.Context(2000)
	assert.NotContains(t, ctx, "q1")
	assert.True(t, strings.HasPrefix(ctx, "User: q2\nAssistant: a2..."))
	assert.True(t, strings.HasSuffix(ctx, "User: q6\nAssistant: a6..."))

	tail := m.Context(10)
	assert.Equal(t, "Assistant: a6..."[len("Assistant: a6...")-10:], tail)
}

func TestShortTermTopicsAndUsage(t *testing.T) {
	m := NewShortTerm(10)
	m.Add(models.ConversationTurn{UserInput: "explain the krebs cycle", ToolsUsed: []models.ToolID{models.ToolConceptExplainer}})
	m.Add(models.ConversationTurn{UserInput: "thanks", ToolsUsed: []models.ToolID{models.ToolConceptExplainer}})
	m.Add(models.ConversationTurn{
		UserInput: "quiz me on " + strings.Repeat("cellular respiration ", 5),
		ToolsUsed: []models.ToolID{models.ToolQuizGenerator, models.ToolAnswerEvaluator},
	})

	topics := m.RecentTopics(3)
	require.Len(t, topics, 2)
	assert.Equal(t, "explain the krebs cycle", topics[0])
	assert.Len(t, topics[1], 50)

	assert.Equal(t, map[models.ToolID]int{
		models.ToolConceptExplainer: 2,
		models.ToolQuizGenerator:    1,
		models.ToolAnswerEvaluator:  1,
	}, m.ToolUsage())
}

func TestManagerSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepo{}
	m := NewManager(10, repo)

	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	m.started = start
	m.now = func() time.Time { return start.Add(25 * time.Minute) }

	assert.Equal(t, FirstSession, m.HistorySummary())

	m.Record("explain photosynthesis in plants", "Photosynthesis is...", []models.ToolID{models.ToolConceptExplainer}, models.ComplexitySimple, nil)
	m.Record("quiz me on photosynthesis", "1. Which pigment...", []models.ToolID{models.ToolQuizGenerator}, models.ComplexityModerate, nil)

	summary := m.SessionSummary()
	assert.Equal(t, 25, summary.DurationMinutes)
	assert.Equal(t, 2, summary.TotalInteractions)
	assert.Len(t, summary.TopicsCovered, 2)

	firstID := m.SessionID()
	ended := m.StartNewSession(ctx, true)

	assert.Equal(t, firstID, ended.SessionID)
	assert.True(t, ended.DocumentUsed)
	assert.Equal(t, 2, ended.TotalTurns)
	assert.NotEqual(t, firstID, m.SessionID())
	assert.Zero(t, m.TurnCount())
	require.Len(t, repo.saved, 1)

	history := m.HistorySummary()
	assert.Contains(t, history, "Total study sessions: 1")
	assert.Contains(t, history, "Most used feature: concept_explainer")
	assert.Contains(t, history, "explain photosynthesis in plants")

	assert.True(t, strings.HasSuffix(m.RelevantContext(), history))
}

func TestManagerPersistenceFailureIsNotFatal(t *testing.T) {
	m := NewManager(10, &memoryRepo{saveErr: errors.New("disk full")})
	m.Record("explain osmosis to me", "Osmosis...", []models.ToolID{models.ToolConceptExplainer}, "", nil)

	ended := m.EndSession(context.Background(), false)
	assert.Equal(t, 1, ended.TotalTurns)
	assert.Len(t, m.Archive(), 1)
}

func TestManagerLoadHistory(t *testing.T) {
	repo := &memoryRepo{}
	for i := 0; i < 3; i++ {
		repo.saved = append(repo.saved, models.StudySession{
			SessionID:      fmt.Sprintf("s%d", i),
			TopicsCovered:  []string{fmt.Sprintf("topic number %d", i)},
			ToolsUsedCount: map[models.ToolID]int{models.ToolConceptExplainer: 3},
		})
	}

	m := NewManager(10, repo)
	require.NoError(t, m.LoadHistory(context.Background(), 10))

	archive := m.Archive()
	require.Len(t, archive, 3)
	assert.Equal(t, "s0", archive[0].SessionID)

	insights := m.LearningInsights()
	assert.Equal(t, 9, insights.Patterns.MostUsedTools[models.ToolConceptExplainer])
	assert.Equal(t, []string{"You learn well through explanations - keep that up!"}, insights.Suggestions)
}

func TestRecallSimilar(t *testing.T) {
	m := NewManager(10, nil)
	m.Record("explain mitosis stages", "Mitosis...", nil, "", nil)
	m.Record("what is osmosis", "Osmosis...", nil, "", nil)

	assert.Equal(t, "Previously, you asked about: explain mitosis stages", m.RecallSimilar("Mitosis vs meiosis"))
	assert.Equal(t, "Previously, you asked about: what is osmosis", m.RecallSimilar("osmosis again"))
	assert.Empty(t, m.RecallSimilar("thermodynamics"))
	assert.Empty(t, m.RecallSimilar("   "))
}

func TestRecallSimilarIgnoresScatteredLetters(t *testing.T) {
	m := NewManager(10, nil)
	m.Record("calculate the derivative of x squared", "2x", nil, "", nil)

	assert.Empty(t, m.RecallSimilar("cat behaviour biology"))
	assert.Equal(t, "Previously, you asked about: calculate the derivative of x squared", m.RecallSimilar("derivative rules"))
}
