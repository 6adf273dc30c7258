package tools

import (
	"context"
	"errors"
	"testing"

	"studybuddy/models"
	"studybuddy/prompts"
	"studybuddy/services/llm/llmtest"
	"studybuddy/services/modes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, replies ...string) (*Registry, *llmtest.Fake) {
	t.Helper()
	fake := llmtest.New(replies...)
	return NewRegistry(modes.NewService(fake, prompts.MustLoad())), fake
}

type rawDoc struct{ text string }

func (d rawDoc) IsReady() bool                                { return false }
func (d rawDoc) Retrieve(context.Context, string, int) string { return "" }
func (d rawDoc) Text() string                                 { return d.text }

func TestEveryToolIDResolves(t *testing.T) {
	r, _ := newRegistry(t)

	for _, id := range models.AllToolIDs {
		tool, ok := r.Get(id)
		require.True(t, ok, id)
		assert.NotNil(t, tool.Handler, id)
		assert.NotEmpty(t, tool.Description, id)
	}
	assert.Len(t, r.All(), len(models.AllToolIDs))
}

func TestDescribeAll(t *testing.T) {
	r, _ := newRegistry(t)
	out := r.DescribeAll()

	assert.Contains(t, out, "1. **concept_explainer** (learning)\n   - Explains academic concepts")
	assert.Contains(t, out, "2. **content_summarizer** (comprehension)")
	assert.Contains(t, out, "   - Requires PDF: Yes")
	assert.Contains(t, out, "5. **answer_evaluator** (assessment)")
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name        string
		request     string
		hasDocument bool
		want        []models.ToolID
	}{
		{name: "explain", request: "Explain photosynthesis", want: []models.ToolID{models.ToolConceptExplainer}},
		{name: "no keywords", request: "mitochondria", want: []models.ToolID{models.ToolConceptExplainer}},
		{
			name:    "explain and quiz",
			request: "What is osmosis? Then quiz me",
			want:    []models.ToolID{models.ToolConceptExplainer, models.ToolQuizGenerator},
		},
		{
			name:        "summarize with document",
			request:     "Summarize chapter 3",
			hasDocument: true,
			want:        []models.ToolID{models.ToolContentSummarizer},
		},
		{
			name:    "summarize without document",
			request: "Summarize chapter 3",
			want:    []models.ToolID{models.ToolConceptExplainer},
		},
		{
			name:    "grade answers",
			request: "Please GRADE this",
			want:    []models.ToolID{models.ToolAnswerEvaluator},
		},
	}

	r, _ := newRegistry(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Suggest(tt.request, tt.hasDocument))
		})
	}
}

func TestExecute(t *testing.T) {
	r, fake := newRegistry(t, "An explanation")

	out, err := r.Execute(context.Background(), models.ToolConceptExplainer, Input{Request: "explain entropy"})
	require.NoError(t, err)
	assert.Equal(t, "An explanation", out)
	assert.Equal(t, 1, fake.Calls())

	_, err = r.Execute(context.Background(), models.ToolID("pdf_retriever"), Input{})
	require.ErrorIs(t, err, ErrUnknownTool)
}

func TestExecuteRecordsFailures(t *testing.T) {
	r, _ := newRegistry(t)
	r.Register(Tool{
		ID:       models.ToolQuestionSolver,
		Category: "problem_solving",
		Handler: func(context.Context, Input) (string, error) {
			return "", errors.New("model offline")
		},
	})

	_, err := r.Execute(context.Background(), models.ToolQuestionSolver, Input{Request: "solve x+1=2"})
	require.Error(t, err)

	summary := r.ExecutionSummary()
	assert.Equal(t, 1, summary.TotalExecutions)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.SuccessRate)

	all := r.All()
	assert.Equal(t, models.ToolQuestionSolver, all[3].ID, "replacement keeps registration order")
}

func TestSummarizerToolUsesDocumentText(t *testing.T) {
	r, fake := newRegistry(t, "Summary")
	doc := rawDoc{text: "Enzymes are biological catalysts that speed up chemical reactions in cells."}

	_, err := r.Execute(context.Background(), models.ToolContentSummarizer, Input{Request: "summarize", Document: doc})
	require.NoError(t, err)
	assert.Contains(t, fake.Prompts()[0], "Enzymes are biological catalysts")
}
