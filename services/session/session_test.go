package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"studybuddy/models"
	"studybuddy/prompts"
	"studybuddy/services/llm/llmtest"
	"studybuddy/services/modes"
	"studybuddy/services/retriever/retrievertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const explainPlan = `{"user_intent": "Understand photosynthesis", "complexity": "simple", "reasoning": "Single concept",
  "steps": [{"step": 1, "action": "Explain photosynthesis", "tool": "concept_explainer"}],
  "proactive_suggestions": ["Want a quiz?"]}`

func newSession(t *testing.T, fake *llmtest.Fake, embedder *retrievertest.Embedder) *Session {
	t.Helper()
	deps := Deps{LLM: fake, Prompts: prompts.MustLoad(), MaxTurns: 10}
	if embedder != nil {
		deps.Embedder = embedder
	}
	s, err := New(context.Background(), "test-session", deps)
	require.NoError(t, err)
	return s
}

func lectureNotes() string {
	return strings.Repeat("Enzymes are biological catalysts that lower activation energy. ", 20) +
		"\n\n" + strings.Repeat("Photosynthesis stores light energy as glucose in chloroplasts. ", 20)
}

func TestSubmitRejectsEmptyInput(t *testing.T) {
	s := newSession(t, llmtest.New(), nil)

	_, err := s.Submit(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestSubmitRunsAgentAndRecordsTurn(t *testing.T) {
	fake := llmtest.New(explainPlan, "Photosynthesis turns light into sugar.")
	s := newSession(t, fake, nil)

	resp, err := s.Respond(context.Background(), models.ModeAgent, "explain photosynthesis")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.Response, "Photosynthesis turns light into sugar."))
	assert.Contains(t, resp.Response, "- Want a quiz?")
	assert.Equal(t, []models.ToolID{models.ToolConceptExplainer}, resp.ToolsUsed)
	assert.Contains(t, resp.Trace, "**Step 1:** Explain photosynthesis (using concept_explainer)")

	summary := s.Summary()
	assert.Equal(t, 1, summary.Summary.TotalInteractions)
	assert.Equal(t, 1, summary.Planning.TotalPlans)
	assert.Equal(t, 1, s.ToolStats().Successful)
}

func TestSubmitFailureBecomesMessage(t *testing.T) {
	fake := llmtest.New(explainPlan)
	fake.Push(llmtest.Reply{Err: errors.New("rate limit exceeded")})
	s := newSession(t, fake, nil)

	reply, err := s.Submit(context.Background(), "explain photosynthesis")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(reply, "❌ Sorry, there was an error processing your request. Please try again in a few seconds.\n\nError: "))
	assert.Contains(t, reply, "rate limit exceeded")
	assert.Zero(t, s.Summary().Summary.TotalInteractions)
}

func TestUploadDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("indexed", func(t *testing.T) {
		s := newSession(t, llmtest.New(), &retrievertest.Embedder{})

		status, err := s.UploadDocument(ctx, lectureNotes())
		require.NoError(t, err)
		assert.Contains(t, status, "RAG enabled: ")
		assert.Contains(t, status, " chunks created & indexed")

		doc := s.DocumentStatus()
		assert.True(t, doc.RAGEnabled)
		assert.True(t, doc.Loaded)
		assert.Positive(t, doc.ChunkCount)

		found, err := s.Search(ctx, "enzymes catalysts", 1)
		require.NoError(t, err)
		assert.Contains(t, found, "Enzymes")

		require.NoError(t, s.ResetDocument(ctx))
		assert.Equal(t, models.DocumentResponse{}, s.DocumentStatus())
	})

	t.Run("too short", func(t *testing.T) {
		s := newSession(t, llmtest.New(), &retrievertest.Embedder{})

		status, err := s.UploadDocument(ctx, "two lines")
		require.NoError(t, err)
		assert.Equal(t, "❌ PDF text too short to process (minimum 50 characters required)", status)
		assert.False(t, s.DocumentStatus().RAGEnabled)
	})

	t.Run("embedding unavailable", func(t *testing.T) {
		s := newSession(t, llmtest.New(), &retrievertest.Embedder{Err: retrievertest.ErrUnavailable})

		status, err := s.UploadDocument(ctx, lectureNotes())
		require.NoError(t, err)
		assert.Contains(t, status, "Using direct document content")

		doc := s.DocumentStatus()
		assert.False(t, doc.RAGEnabled)
		assert.True(t, doc.Loaded)
	})

	t.Run("empty", func(t *testing.T) {
		s := newSession(t, llmtest.New(), nil)

		_, err := s.UploadDocument(ctx, "\n\n")
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
}

func TestSubmitModeSummarizeFollowUp(t *testing.T) {
	fake := llmtest.New("Enzymes speed up reactions.")
	s := newSession(t, fake, nil)

	_, err := s.UploadDocument(context.Background(), lectureNotes())
	require.NoError(t, err)

	reply, err := s.SubmitMode(context.Background(), models.ModeSummarize, "what about enzymes?")
	require.NoError(t, err)
	assert.Equal(t, "Enzymes speed up reactions.", reply)

	sent := fake.Prompts()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Follow-up question: what about enzymes?")
	assert.Contains(t, sent[0], "Photosynthesis stores light energy")
}

func TestSubmitModeSummarizeShortTextSkipsLLM(t *testing.T) {
	fake := llmtest.New()
	s := newSession(t, fake, nil)

	reply, err := s.SubmitMode(context.Background(), models.ModeSummarize, "too short")
	require.NoError(t, err)
	assert.Equal(t, modes.TooShortToSummarize, reply)
	assert.Zero(t, fake.Calls())
}

func TestSubmitModeEvaluateSplitsAnswers(t *testing.T) {
	fake := llmtest.New("Score: 4/5")
	s := newSession(t, fake, nil)

	resp, err := s.Respond(context.Background(), models.ModeEvaluate, "1. Define osmosis.\n---\n1. Water moving across a membrane.")
	require.NoError(t, err)
	assert.Equal(t, "Score: 4/5", resp.Response)
	assert.Equal(t, []models.ToolID{models.ToolAnswerEvaluator}, resp.ToolsUsed)

	sent := fake.Prompts()[0]
	assert.Contains(t, sent, "1. Define osmosis.")
	assert.Contains(t, sent, "1. Water moving across a membrane.")
}

func TestSubmitModeUnknown(t *testing.T) {
	s := newSession(t, llmtest.New(), nil)

	reply, err := s.SubmitMode(context.Background(), models.Mode("dance"), "hello there")
	require.NoError(t, err)
	assert.Contains(t, reply, `unknown mode "dance"`)
}

func TestNewSessionArchivesConversation(t *testing.T) {
	fake := llmtest.New()
	fake.Default = "Here is an explanation."
	s := newSession(t, fake, nil)

	_, err := s.SubmitMode(context.Background(), models.ModeExplain, "explain the krebs cycle")
	require.NoError(t, err)

	firstID := s.Summary().Summary.SessionID
	ended := s.NewSession(context.Background())
	assert.Equal(t, firstID, ended.SessionID)
	assert.Equal(t, 1, ended.TotalTurns)

	summary := s.Summary()
	assert.NotEqual(t, firstID, summary.Summary.SessionID)
	assert.Zero(t, summary.Summary.TotalInteractions)
	assert.Contains(t, summary.History, "Total study sessions: 1")
}

func TestGreeting(t *testing.T) {
	s := newSession(t, llmtest.New(), nil)
	assert.Contains(t, s.Greeting(), "Study Buddy")
}

func TestManager(t *testing.T) {
	ctx := context.Background()
	fake := llmtest.New()
	fake.Default = "ok"
	m := NewManager(Deps{LLM: fake, Prompts: prompts.MustLoad(), MaxTurns: 10})

	var ids []string
	for i := 0; i < 4; i++ {
		s, err := m.Create(ctx)
		require.NoError(t, err)
		ids = append(ids, s.ID())
	}
	assert.Equal(t, 4, m.Len())

	var wg sync.WaitGroup
	for _, id := range ids {
		s, err := m.Get(id)
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			reply, err := s.Submit(ctx, "what is osmosis")
			assert.NoError(t, err)
			assert.True(t, strings.HasPrefix(reply, "ok"))
		}()
	}
	wg.Wait()

	require.NoError(t, m.Delete(ctx, ids[0]))
	_, err := m.Get(ids[0])
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(ctx, ids[0]), ErrSessionNotFound)

	m.CloseAll(ctx)
	assert.Zero(t, m.Len())
}
