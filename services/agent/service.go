// Package agent plans a request into tool steps, runs them and synthesizes
// one reply.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"studybuddy/models"
	"studybuddy/prompts"
	"studybuddy/services/llm"
	"studybuddy/services/modes"
	"studybuddy/services/tools"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	reflectionInputLimit = 1000
	traceNoteLimit       = 300
)

// ToolExecutionError reports that no step of a plan produced a result.
type ToolExecutionError struct {
	Tool models.ToolID
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// Request is one user message with the context the planner needs.
type Request struct {
	Text     string
	Context  string
	Document modes.Document
	// Turns is the number of turns already in the session.
	Turns  int
	Topics []string
}

func (r Request) hasDocument() bool {
	return r.Document != nil && (r.Document.IsReady() || r.Document.Text() != "")
}

// Result is the outcome of one agent run. Body is the synthesized answer;
// Response adds the suggestions section.
type Result struct {
	Body        string
	Response    string
	Plan        models.ExecutionPlan
	ToolsUsed   []models.ToolID
	StepResults []models.StepResult
	Suggestions []string
	Trace       []string
	Reflection  *models.Reflection
}

type Options struct {
	Reflect bool
	// Reason runs an analysis pass whose output is added to the planning
	// context.
	Reason bool
	// Recover asks the model how to recover from each failed step and adds
	// the answer to the trace.
	Recover bool
	// ModelSuggestions asks the model for follow-ups when no suggestion rule
	// matches.
	ModelSuggestions bool
}

// Service is safe for concurrent use.
type Service struct {
	llm      llm.Client
	prompts  *prompts.Store
	registry *tools.Registry
	opts     Options

	mu    sync.Mutex
	stats planCounters
}

type planCounters struct {
	plans      int
	steps      int
	confidence float64
	complexity map[models.Complexity]int
}

func NewService(client llm.Client, store *prompts.Store, registry *tools.Registry, opts Options) *Service {
	return &Service{
		llm:      client,
		prompts:  store,
		registry: registry,
		opts:     opts,
		stats:    planCounters{complexity: map[models.Complexity]int{}},
	}
}

// Plan asks the model for an execution plan. It never fails: any planning
// problem yields FallbackPlan.
func (s *Service) Plan(ctx context.Context, req Request) models.ExecutionPlan {
	complexity := AnalyzeComplexity(req.Text)
	hasDocument := req.hasDocument()

	plan, err := s.plan(ctx, req, complexity, hasDocument)
	if err != nil {
		zap.S().Warnf("Failed to create execution plan, using fallback: %v", err)
		plan = FallbackPlan(s.registry, req.Text, hasDocument)
	}

	s.record(plan)
	return plan
}

func (s *Service) plan(ctx context.Context, req Request, complexity models.Complexity, hasDocument bool) (models.ExecutionPlan, error) {
	prompt, err := s.prompts.Render(prompts.Planning, prompts.PlanningData{
		Request:     req.Text,
		Context:     req.Context,
		Tools:       s.registry.DescribeAll(),
		HasDocument: hasDocument,
		Complexity:  string(complexity),
		Schema:      PlanSchema(),
	})
	if err != nil {
		return models.ExecutionPlan{}, err
	}

	raw, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return models.ExecutionPlan{}, fmt.Errorf("failed to get plan from %s: %w", s.llm.Name(), err)
	}

	return ParsePlan(raw, s.registry, req.Text, complexity)
}

// Run plans and executes a request. Failed steps are skipped; if every step
// fails the last failure is returned as a ToolExecutionError.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	zap.S().Infof("Starting agent run for request: %q", clipRunes(req.Text, 80))

	var notes []string
	planReq := req
	if s.opts.Reason {
		if analysis := s.reason(ctx, req); analysis != "" {
			notes = append(notes, "**Analysis:** "+clipRunes(analysis, traceNoteLimit))
			planReq.Context = strings.TrimSpace(req.Context + "\n\nAgent analysis:\n" + analysis)
		}
	}

	plan := s.Plan(ctx, planReq)
	result := &Result{Plan: plan}

	var lastErr *ToolExecutionError
	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("agent run cancelled: %w", err)
		}

		out, err := s.registry.Execute(ctx, step.Tool, tools.Input{
			Request:  req.Text,
			History:  req.Context,
			Document: req.Document,
		})
		result.ToolsUsed = append(result.ToolsUsed, step.Tool)

		sr := models.StepResult{Step: step.Step, Action: step.Action, Tool: step.Tool}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("agent run cancelled: %w", err)
			}
			zap.S().Warnf("Failed to execute step %d (%s): %v", step.Step, step.Tool, err)
			sr.Error = err.Error()
			lastErr = &ToolExecutionError{Tool: step.Tool, Err: err}
			if s.opts.Recover {
				if note := s.recoveryNote(ctx, step, err, req.Text); note != "" {
					notes = append(notes, fmt.Sprintf("**Recovery (step %d):** %s", step.Step, clipRunes(note, traceNoteLimit)))
				}
			}
		} else {
			sr.Result = out
		}
		result.StepResults = append(result.StepResults, sr)
	}

	succeeded := lo.Filter(result.StepResults, func(r models.StepResult, _ int) bool { return r.Succeeded() })
	if len(succeeded) == 0 {
		if lastErr == nil {
			lastErr = &ToolExecutionError{Err: errors.New("plan has no steps")}
		}
		return nil, lastErr
	}

	result.Body = s.synthesize(ctx, req.Text, succeeded)

	result.Suggestions = plan.ProactiveSuggestions
	if len(result.Suggestions) == 0 {
		result.Suggestions = ProactiveSuggestions(req.Text, plan.Complexity, req.Turns)
	}
	if len(result.Suggestions) == 0 && s.opts.ModelSuggestions {
		result.Suggestions = s.suggest(ctx, req, result.Body)
	}
	result.Response = AppendSuggestions(result.Body, result.Suggestions)

	if s.opts.Reflect {
		reflection := s.Reflect(ctx, result.Response, req.Text)
		result.Reflection = &reflection
	}

	result.Trace = append(Trace(plan), notes...)
	zap.S().Infof("Successfully completed agent run with %d/%d steps", len(succeeded), len(plan.Steps))
	return result, nil
}

// synthesize merges step results. A single result is returned as is.
func (s *Service) synthesize(ctx context.Context, request string, results []models.StepResult) string {
	if len(results) == 1 {
		return results[0].Result
	}

	merged, err := s.synthesizeWithModel(ctx, request, results)
	if err != nil {
		zap.S().Warnf("Failed to synthesize results, concatenating instead: %v", err)
		sections := lo.Map(results, func(r models.StepResult, _ int) string {
			return "### " + r.Action + "\n\n" + r.Result
		})
		return strings.Join(sections, "\n\n")
	}
	return merged
}

func (s *Service) synthesizeWithModel(ctx context.Context, request string, results []models.StepResult) (string, error) {
	dump, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal step results: %w", err)
	}

	prompt, err := s.prompts.Render(prompts.Synthesis, prompts.SynthesisData{
		Request: request,
		Results: string(dump),
	})
	if err != nil {
		return "", err
	}

	return s.llm.Complete(ctx, prompt)
}

// reason asks the model to analyze the request before planning. It returns
// "" when the analysis cannot be obtained.
func (s *Service) reason(ctx context.Context, req Request) string {
	prompt, err := s.prompts.Render(prompts.Reasoning, prompts.ReasoningData{
		Request:     req.Text,
		Context:     req.Context,
		HasDocument: req.hasDocument(),
		HasRAG:      req.Document != nil && req.Document.IsReady(),
		Topics:      req.Topics,
	})
	if err != nil {
		zap.S().Warnf("Failed to render reasoning prompt: %v", err)
		return ""
	}

	out, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		zap.S().Warnf("Failed to get request analysis: %v", err)
		return ""
	}
	return strings.TrimSpace(out)
}

func (s *Service) recoveryNote(ctx context.Context, step models.PlanStep, stepErr error, request string) string {
	prompt, err := s.prompts.Render(prompts.ErrorRecovery, prompts.ErrorRecoveryData{
		Tool:    string(step.Tool),
		Error:   stepErr.Error(),
		Request: request,
	})
	if err != nil {
		zap.S().Warnf("Failed to render error recovery prompt: %v", err)
		return ""
	}

	out, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		zap.S().Warnf("Failed to get recovery strategy for step %d: %v", step.Step, err)
		return ""
	}
	zap.S().Infof("Recovery strategy for step %d: %s", step.Step, clipRunes(out, traceNoteLimit))
	return strings.TrimSpace(out)
}

// suggest asks the model for follow-up suggestions, one per line.
func (s *Service) suggest(ctx context.Context, req Request, body string) []string {
	prompt, err := s.prompts.Render(prompts.Proactive, prompts.ProactiveData{
		Request:  req.Text,
		Response: clipRunes(body, reflectionInputLimit),
		History:  req.Context,
		Topics:   req.Topics,
	})
	if err != nil {
		zap.S().Warnf("Failed to render suggestion prompt: %v", err)
		return nil
	}

	out, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		zap.S().Warnf("Failed to get suggestions: %v", err)
		return nil
	}
	return parseSuggestionLines(out)
}

// DefaultReflection is reported when the model's self-assessment cannot be
// obtained.
func DefaultReflection() models.Reflection {
	return models.Reflection{
		QualityScore: 7,
		Strengths:    []string{"Completed the task"},
		Weaknesses:   []string{},
		Improvements: []string{},
		ShouldRetry:  false,
	}
}

// Reflect asks the model to score a reply.
func (s *Service) Reflect(ctx context.Context, response, request string) models.Reflection {
	prompt, err := s.prompts.Render(prompts.Reflection, prompts.ReflectionData{
		Response: clipRunes(response, reflectionInputLimit),
		Request:  request,
	})
	if err != nil {
		zap.S().Warnf("Failed to render reflection prompt: %v", err)
		return DefaultReflection()
	}

	raw, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		zap.S().Warnf("Failed to get reflection: %v", err)
		return DefaultReflection()
	}

	var r models.Reflection
	if err := json.Unmarshal([]byte(stripFences(raw)), &r); err != nil {
		zap.S().Warnf("Failed to parse reflection: %v", err)
		return DefaultReflection()
	}
	r.QualityScore = min(max(r.QualityScore, 1), 10)
	return r
}

func (s *Service) record(plan models.ExecutionPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.plans++
	s.stats.steps += len(plan.Steps)
	s.stats.confidence += plan.Confidence
	s.stats.complexity[plan.Complexity]++
}

// Stats summarizes every plan created by this service.
func (s *Service) Stats() models.PlanningStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.PlanningStats{
		TotalPlans:             s.stats.plans,
		ComplexityDistribution: lo.Assign(s.stats.complexity),
	}
	if s.stats.plans > 0 {
		stats.AverageSteps = float64(s.stats.steps) / float64(s.stats.plans)
		stats.AverageConfidence = s.stats.confidence / float64(s.stats.plans)
	}
	return stats
}

// Trace renders a plan as markdown lines for display.
func Trace(plan models.ExecutionPlan) []string {
	ids := lo.Map(plan.ToolIDs(), func(id models.ToolID, _ int) string { return string(id) })

	lines := []string{
		"**Intent:** " + plan.UserIntent,
		"**Complexity:** " + string(plan.Complexity),
		"**Tools:** " + strings.Join(lo.Uniq(ids), ", "),
	}
	for _, step := range plan.Steps {
		lines = append(lines, fmt.Sprintf("**Step %d:** %s (using %s)", step.Step, step.Action, step.Tool))
	}
	return lines
}

func clipRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
