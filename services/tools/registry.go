// Package tools exposes the study modes as named tools the agent can plan
// with and dispatch to.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"studybuddy/models"
	"studybuddy/services/modes"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

var ErrUnknownTool = errors.New("unknown tool")

// Input is what every tool receives: the user's request, recent
// conversation and the session's document, if any.
type Input struct {
	Request  string
	History  string
	Document modes.Document
}

type Handler func(ctx context.Context, in Input) (string, error)

type Tool struct {
	ID               models.ToolID
	Description      string
	Parameters       []string
	Category         string
	RequiresDocument bool
	Handler          Handler
}

// Execution records one dispatch, successful or not.
type Execution struct {
	Tool         models.ToolID
	Success      bool
	Error        string
	ResultLength int
}

type ExecutionSummary struct {
	TotalExecutions int
	Successful      int
	Failed          int
	SuccessRate     float64
}

type Registry struct {
	mu      sync.RWMutex
	tools   map[models.ToolID]Tool
	order   []models.ToolID
	history []Execution
}

// NewRegistry registers every models.ToolID, each backed by its mode
// function.
func NewRegistry(m *modes.Service) *Registry {
	r := &Registry{tools: make(map[models.ToolID]Tool)}
	for _, id := range models.AllToolIDs {
		r.Register(defaultTool(id, m))
	}
	return r
}

// Register adds a tool, replacing any tool with the same ID in place.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[tool.ID]; !ok {
		r.order = append(r.order, tool.ID)
	}
	r.tools[tool.ID] = tool
}

func (r *Registry) Get(id models.ToolID) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[id]
	return tool, ok
}

// All returns the registered tools in registration order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(r.order, func(id models.ToolID, _ int) Tool { return r.tools[id] })
}

func (r *Registry) ByCategory(category string) []Tool {
	return lo.Filter(r.All(), func(t Tool, _ int) bool { return t.Category == category })
}

// DescribeAll formats the catalogue for planning prompts.
func (r *Registry) DescribeAll() string {
	descriptions := lo.Map(r.All(), func(t Tool, i int) string {
		return fmt.Sprintf("%d. **%s** (%s)\n   - %s\n   - Requires PDF: %s",
			i+1, t.ID, t.Category, t.Description, lo.Ternary(t.RequiresDocument, "Yes", "No"))
	})
	return strings.Join(descriptions, "\n\n")
}

// Execute dispatches to the tool's handler and records the outcome.
func (r *Registry) Execute(ctx context.Context, id models.ToolID, in Input) (string, error) {
	tool, ok := r.Get(id)
	if !ok || tool.Handler == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, id)
	}

	zap.S().Infof("Executing tool %s", id)
	result, err := tool.Handler(ctx, in)

	exec := Execution{Tool: id, Success: err == nil, ResultLength: len(result)}
	if err != nil {
		exec.Error = err.Error()
		zap.S().Errorf("Failed to execute tool %s: %v", id, err)
	}
	r.mu.Lock()
	r.history = append(r.history, exec)
	r.mu.Unlock()

	return result, err
}

func (r *Registry) ExecutionSummary() ExecutionSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.history)
	ok := lo.CountBy(r.history, func(e Execution) bool { return e.Success })
	summary := ExecutionSummary{TotalExecutions: total, Successful: ok, Failed: total - ok}
	if total > 0 {
		summary.SuccessRate = float64(ok) / float64(total)
	}
	return summary
}
