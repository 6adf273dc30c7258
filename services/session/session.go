// Package session is the boundary the HTTP, CLI and MCP surfaces drive: one
// learner's conversation, document and memory.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"studybuddy/db"
	"studybuddy/models"
	"studybuddy/prompts"
	"studybuddy/services/agent"
	"studybuddy/services/llm"
	"studybuddy/services/memory"
	"studybuddy/services/modes"
	"studybuddy/services/retriever"
	"studybuddy/services/tools"

	"github.com/tmc/langchaingo/embeddings"
	"go.uber.org/zap"
)

const (
	historyLimit = 20
	recentTopics = 3
)

var ErrEmptyInput = errors.New("message is empty")

// StoreFactory builds the vector store backing one session's document
// index. A nil factory, or a nil store, means an in-process index.
type StoreFactory func(ctx context.Context, sessionID string) (retriever.VectorStore, error)

// Deps are shared by every session a Manager creates.
type Deps struct {
	LLM      llm.Client
	Prompts  *prompts.Store
	Embedder embeddings.Embedder
	Stores   StoreFactory
	Repo     db.SessionRepository
	MaxTurns int
	Agent    agent.Options
}

// Session serializes its operations: one request is planned, executed and
// synthesized before the next starts.
type Session struct {
	mu sync.Mutex

	id        string
	modes     *modes.Service
	registry  *tools.Registry
	agent     *agent.Service
	memory    *memory.Manager
	retriever *retriever.Retriever
	prompts   *prompts.Store
	text      string
}

func New(ctx context.Context, id string, deps Deps) (*Session, error) {
	var store retriever.VectorStore
	if deps.Stores != nil {
		var err error
		if store, err = deps.Stores(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to create vector store for session %s: %w", id, err)
		}
	}

	m := modes.NewService(deps.LLM, deps.Prompts)
	registry := tools.NewRegistry(m)

	mem := memory.NewManager(deps.MaxTurns, deps.Repo)
	if err := mem.LoadHistory(ctx, historyLimit); err != nil {
		zap.S().Warnf("Failed to load learning history: %v", err)
	}

	return &Session{
		id:        id,
		modes:     m,
		registry:  registry,
		agent:     agent.NewService(deps.LLM, deps.Prompts, registry, deps.Agent),
		memory:    mem,
		retriever: retriever.New(deps.Embedder, store),
		prompts:   deps.Prompts,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

// Greeting is the welcome text shown when a conversation opens.
func (s *Session) Greeting() string {
	return s.prompts.Text(prompts.Greeting)
}

// Submit routes text through the agent.
func (s *Session) Submit(ctx context.Context, text string) (string, error) {
	resp, err := s.Respond(ctx, models.ModeAgent, text)
	return resp.Response, err
}

// SubmitMode sends text straight to one mode function.
func (s *Session) SubmitMode(ctx context.Context, mode models.Mode, text string) (string, error) {
	resp, err := s.Respond(ctx, mode, text)
	return resp.Response, err
}

// Respond handles one message. Processing failures come back as an
// apology in the response; only empty input is an error.
func (s *Session) Respond(ctx context.Context, mode models.Mode, text string) (models.MessageResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.MessageResponse{}, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		resp models.MessageResponse
		err  error
	)
	if mode == models.ModeAgent || mode == "" {
		resp, err = s.runAgent(ctx, text)
	} else {
		resp, err = s.runMode(ctx, mode, text)
	}
	if err != nil {
		zap.S().Errorf("Failed to process message in session %s: %v", s.id, err)
		return models.MessageResponse{Response: ErrorMessage(err)}, nil
	}
	return resp, nil
}

func (s *Session) runAgent(ctx context.Context, text string) (models.MessageResponse, error) {
	history := s.memory.Context(memory.DefaultContextLen)
	if recall := s.memory.RecallSimilar(text); recall != "" {
		history = recall + "\n\n" + history
	}

	result, err := s.agent.Run(ctx, agent.Request{
		Text:     text,
		Context:  history,
		Document: s.document(),
		Turns:    s.memory.TurnCount(),
		Topics:   s.memory.RecentTopics(recentTopics),
	})
	if err != nil {
		return models.MessageResponse{}, err
	}

	s.memory.Record(text, result.Response, result.ToolsUsed, result.Plan.Complexity, nil)
	return models.MessageResponse{
		Response:    result.Response,
		ToolsUsed:   result.ToolsUsed,
		Trace:       result.Trace,
		Suggestions: result.Suggestions,
		Reflection:  result.Reflection,
	}, nil
}

func (s *Session) runMode(ctx context.Context, mode models.Mode, text string) (models.MessageResponse, error) {
	history := s.memory.Context(memory.DefaultContextLen)
	doc := s.document()

	var (
		tool  models.ToolID
		reply string
		err   error
	)
	switch mode {
	case models.ModeExplain:
		tool = models.ToolConceptExplainer
		reply, err = s.modes.Explain(ctx, text, history, doc)
	case models.ModeSummarize:
		tool = models.ToolContentSummarizer
		if s.text != "" {
			instruction := text
			if modes.IsFollowUp(text) {
				instruction = modes.FollowUpInstruction(text)
			}
			reply, err = s.modes.Summarize(ctx, s.text, history, "", instruction, doc)
		} else {
			reply, err = s.modes.Summarize(ctx, text, history, "", "", doc)
		}
	case models.ModeQuiz:
		tool = models.ToolQuizGenerator
		reply, err = s.modes.GenerateQuiz(ctx, text, history, doc)
	case models.ModeSolve:
		tool = models.ToolQuestionSolver
		reply, err = s.modes.SolveQuestions(ctx, text, history, doc)
	case models.ModeEvaluate:
		tool = models.ToolAnswerEvaluator
		questions, answers := modes.SplitQuestionsAnswers(text)
		reply, err = s.modes.EvaluateAnswers(ctx, questions, answers, history, doc)
	default:
		return models.MessageResponse{}, fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return models.MessageResponse{}, err
	}

	used := []models.ToolID{tool}
	s.memory.Record(text, reply, used, models.ComplexitySimple, map[string]string{"mode": string(mode)})
	return models.MessageResponse{Response: reply, ToolsUsed: used}, nil
}

// UploadDocument replaces the session's document and tries to index it.
// When indexing is unavailable the raw text still serves the modes.
func (s *Session) UploadDocument(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.text = text
	n, err := s.retriever.Index(ctx, text)
	switch {
	case err == nil:
		return fmt.Sprintf("✅ RAG enabled: %d chunks created & indexed", n), nil
	case errors.Is(err, retriever.ErrContentTooShort):
		return "❌ " + err.Error(), nil
	case errors.Is(err, retriever.ErrEmbeddingUnavailable):
		zap.S().Warnf("Failed to index document, using raw text: %v", err)
		return "ℹ️ RAG unavailable. Using direct document content instead.", nil
	default:
		zap.S().Warnf("Failed to index document: %v", err)
		return fmt.Sprintf("⚠️ RAG not available: %v. Using direct document content.", err), nil
	}
}

// ResetDocument forgets the uploaded document and its index.
func (s *Session) ResetDocument(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.text = ""
	if err := s.retriever.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset document: %w", err)
	}
	return nil
}

func (s *Session) DocumentStatus() models.DocumentResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.DocumentResponse{
		RAGEnabled: s.retriever.IsReady(),
		ChunkCount: s.retriever.ChunkCount(),
		Loaded:     s.text != "",
	}
}

// NewSession archives the conversation so far and starts a fresh one. The
// document stays loaded.
func (s *Session) NewSession(ctx context.Context) models.StudySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.StartNewSession(ctx, s.text != "")
}

func (s *Session) Summary() models.SummaryResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.SummaryResponse{
		Summary:  s.memory.SessionSummary(),
		History:  s.memory.HistorySummary(),
		Insights: s.memory.LearningInsights(),
		Planning: s.agent.Stats(),
	}
}

// Search returns the indexed document sections most relevant to query, or
// "" when nothing is indexed.
func (s *Session) Search(ctx context.Context, query string, k int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retriever.Query(ctx, query, k)
}

// ToolStats reports how the session's tools have fared so far.
func (s *Session) ToolStats() tools.ExecutionSummary {
	return s.registry.ExecutionSummary()
}

// Close archives the conversation and drops the document index.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.memory.EndSession(ctx, s.text != "")
	if err := s.retriever.Reset(ctx); err != nil {
		zap.S().Warnf("Failed to reset document index for session %s: %v", s.id, err)
	}
}

func (s *Session) document() modes.Document {
	if s.text == "" {
		return nil
	}
	return &document{retriever: s.retriever, text: s.text}
}

// ErrorMessage is the reply shown when a request cannot be processed.
func ErrorMessage(err error) string {
	return "❌ Sorry, there was an error processing your request. Please try again in a few seconds.\n\nError: " + err.Error()
}
