package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultCatalogue(t *testing.T) {
	store, err := Load()
	require.NoError(t, err)

	assert.Equal(t,
		"You are Study Buddy, a helpful AI tutor. Provide clear, educational responses.",
		store.Text(System))
	assert.Contains(t, store.Text(Greeting), "Study Buddy AI Agent")
}

func TestRender(t *testing.T) {
	store := MustLoad()

	tests := []struct {
		name     string
		template string
		data     any
		contains []string
		excludes []string
	}{
		{
			name:     "planning embeds identity catalogue and schema",
			template: Planning,
			data: PlanningData{
				Request:     "explain photosynthesis",
				Tools:       "1. **concept_explainer** (learning)",
				HasDocument: false,
				Complexity:  "simple",
				Schema:      `{"type":"object"}`,
			},
			contains: []string{
				"Study Buddy Agentic AI",
				"explain photosynthesis",
				"No previous context",
				"1. **concept_explainer** (learning)",
				"PDF AVAILABLE: False",
				"COMPLEXITY LEVEL: simple",
				`{"type":"object"}`,
			},
		},
		{
			name:     "reasoning joins topics",
			template: Reasoning,
			data: ReasoningData{
				Request: "quiz me",
				Context: "User: hi",
				HasRAG:  true,
				Topics:  []string{"cell biology basics", "krebs cycle steps"},
			},
			contains: []string{"RAG System: Active", "PDF Content: No", "cell biology basics, krebs cycle steps", "User: hi"},
		},
		{
			name:     "proactive without topics",
			template: Proactive,
			data:     ProactiveData{Request: "summarize chapter 2", Response: "Chapter 2 covers..."},
			contains: []string{"Current Request: summarize chapter 2", "Topics Covered: None"},
		},
		{
			name:     "error recovery names the tool",
			template: ErrorRecovery,
			data:     ErrorRecoveryData{Tool: "quiz_generator", Error: "timeout", Request: "quiz me"},
			contains: []string{"Failed Tool: quiz_generator", "Error: timeout", "Original Goal: quiz me"},
		},
		{
			name:     "explain without material",
			template: Explain,
			data:     ExplainData{Concept: "Heap Sort"},
			contains: []string{"[Current topic/question:]\nHeap Sort"},
			excludes: []string{"RAG retrieval"},
		},
		{
			name:     "evaluate without answers",
			template: Evaluate,
			data:     EvaluateData{Questions: "Q1. What is 2+2?"},
			contains: []string{"Q1. What is 2+2?", "no separate answers given"},
		},
		{
			name:     "summarize carries instruction and note",
			template: Summarize,
			data:     SummarizeData{Instruction: "focus on applications", Note: " (Using first 8000 chars)", Content: "body"},
			contains: []string{"focus on applications (Using first 8000 chars)", "Content:\nbody"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := store.Render(tt.template, tt.data)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, out, unwanted)
			}
			assert.Equal(t, strings.TrimSpace(out), out)
		})
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := MustLoad().Render("nope", nil)
	assert.ErrorContains(t, err, "unknown prompt template")
}

func TestParseRejectsIncompleteCatalogue(t *testing.T) {
	_, err := Parse([]byte("system: hello\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt templates missing")
	assert.Contains(t, err.Error(), Planning)
}
