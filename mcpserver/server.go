// Package mcpserver exposes a study session as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"studybuddy/models"
	"studybuddy/services/session"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "0.1.0"

type ConceptInput struct {
	Concept string `json:"concept" jsonschema:"The concept or question to explain"`
}

type SummarizeInput struct {
	Text string `json:"text" jsonschema:"Text to summarize, or an instruction when a document is loaded"`
}

type QuizInput struct {
	Topic string `json:"topic" jsonschema:"A topic name or a passage to build the quiz from"`
}

type SolveInput struct {
	Questions string `json:"questions" jsonschema:"Exam questions, with marks or word limits if any"`
}

type EvaluateInput struct {
	Questions string `json:"questions" jsonschema:"The questions that were answered"`
	Answers   string `json:"answers" jsonschema:"The learner's answers"`
}

type DocumentInput struct {
	Text string `json:"text" jsonschema:"Extracted text of the study material"`
}

type AskInput struct {
	Message string `json:"message" jsonschema:"Free-form request; the agent plans which tools to use"`
}

type tools struct {
	session *session.Session
}

// New registers the study tools against one shared session.
func New(s *session.Session) *mcp.Server {
	t := &tools{session: s}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "studybuddy",
		Version: Version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "explain_concept",
		Description: "Explain a concept step by step, using the uploaded document when available",
	}, t.ExplainConcept)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "summarize_text",
		Description: "Summarize text, or the uploaded document following an instruction",
	}, t.SummarizeText)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "generate_quiz",
		Description: "Generate a mixed-format quiz with an answer key",
	}, t.GenerateQuiz)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "solve_questions",
		Description: "Solve exam questions with worked answers",
	}, t.SolveQuestions)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "evaluate_answers",
		Description: "Grade answers to questions with feedback",
	}, t.EvaluateAnswers)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "upload_document",
		Description: "Load study material and index it for retrieval",
	}, t.UploadDocument)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "ask_agent",
		Description: "Let the study agent plan and answer a free-form request",
	}, t.AskAgent)

	return srv
}

func (t *tools) ExplainConcept(ctx context.Context, _ *mcp.CallToolRequest, input ConceptInput) (*mcp.CallToolResult, any, error) {
	return t.submit(ctx, models.ModeExplain, input.Concept)
}

func (t *tools) SummarizeText(ctx context.Context, _ *mcp.CallToolRequest, input SummarizeInput) (*mcp.CallToolResult, any, error) {
	return t.submit(ctx, models.ModeSummarize, input.Text)
}

func (t *tools) GenerateQuiz(ctx context.Context, _ *mcp.CallToolRequest, input QuizInput) (*mcp.CallToolResult, any, error) {
	return t.submit(ctx, models.ModeQuiz, input.Topic)
}

func (t *tools) SolveQuestions(ctx context.Context, _ *mcp.CallToolRequest, input SolveInput) (*mcp.CallToolResult, any, error) {
	return t.submit(ctx, models.ModeSolve, input.Questions)
}

func (t *tools) EvaluateAnswers(ctx context.Context, _ *mcp.CallToolRequest, input EvaluateInput) (*mcp.CallToolResult, any, error) {
	if input.Answers == "" {
		return toolError("answers are required"), nil, nil
	}
	return t.submit(ctx, models.ModeEvaluate, input.Questions+"\n---\n"+input.Answers)
}

func (t *tools) UploadDocument(ctx context.Context, _ *mcp.CallToolRequest, input DocumentInput) (*mcp.CallToolResult, any, error) {
	status, err := t.session.UploadDocument(ctx, input.Text)
	if err != nil {
		return toolError("Failed to upload document: %v", err), nil, nil
	}
	return toolText(status), nil, nil
}

func (t *tools) AskAgent(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, any, error) {
	return t.submit(ctx, models.ModeAgent, input.Message)
}

func (t *tools) submit(ctx context.Context, mode models.Mode, text string) (*mcp.CallToolResult, any, error) {
	reply, err := t.session.SubmitMode(ctx, mode, text)
	if errors.Is(err, session.ErrEmptyInput) {
		return toolError("%s input is required", mode), nil, nil
	}
	if err != nil {
		return toolError("Failed to process %s request: %v", mode, err), nil, nil
	}
	return toolText(reply), nil, nil
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
