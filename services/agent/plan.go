package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"studybuddy/models"
	"studybuddy/services/tools"

	"github.com/invopop/jsonschema"
)

const defaultConfidence = 0.7

var ErrPlanParse = errors.New("invalid execution plan")

// PlanParseError describes why a model-produced plan was rejected.
type PlanParseError struct {
	Reason string
	Err    error
}

func (e *PlanParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrPlanParse, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrPlanParse, e.Reason)
}

func (e *PlanParseError) Is(target error) bool {
	return target == ErrPlanParse
}

func (e *PlanParseError) Unwrap() error {
	return e.Err
}

// planDocument is the JSON shape the planner model is asked to produce.
type planDocument struct {
	UserIntent           string         `json:"user_intent" jsonschema:"description=Clear statement of what the user wants"`
	Complexity           string         `json:"complexity,omitempty" jsonschema:"enum=simple,enum=moderate,enum=complex"`
	Reasoning            string         `json:"reasoning" jsonschema:"description=Brief explanation of the planning logic"`
	Steps                []stepDocument `json:"steps" jsonschema:"minItems=1"`
	ProactiveSuggestions []string       `json:"proactive_suggestions,omitempty" jsonschema:"description=What else could help the user next"`
	Confidence           *float64       `json:"confidence,omitempty" jsonschema:"minimum=0,maximum=1"`
}

type stepDocument struct {
	Step          int    `json:"step" jsonschema:"minimum=1"`
	Action        string `json:"action" jsonschema:"description=Brief description of this step"`
	Tool          string `json:"tool" jsonschema:"enum=concept_explainer,enum=content_summarizer,enum=quiz_generator,enum=question_solver,enum=answer_evaluator"`
	Reason        string `json:"reason,omitempty" jsonschema:"description=Why this step is needed"`
	Dependencies  []int  `json:"dependencies,omitempty" jsonschema:"description=Steps that must complete first"`
	EstimatedTime string `json:"estimated_time,omitempty" jsonschema:"enum=quick,enum=medium,enum=long"`
}

// PlanSchema returns the JSON Schema of the plan format, as embedded in
// planning prompts.
func PlanSchema() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	schema := reflector.Reflect(&planDocument{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("agent: plan schema: %v", err))
	}
	return string(out)
}

// ParsePlan decodes and validates a model response. Tools must be
// registered; missing complexity and confidence take the analyzed value
// and 0.7.
func ParsePlan(raw string, registry *tools.Registry, request string, analyzed models.Complexity) (models.ExecutionPlan, error) {
	body := stripFences(raw)
	if body == "" {
		return models.ExecutionPlan{}, &PlanParseError{Reason: "empty response"}
	}

	var doc planDocument
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return models.ExecutionPlan{}, &PlanParseError{Reason: "malformed JSON", Err: err}
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return models.ExecutionPlan{}, &PlanParseError{Reason: "trailing data after plan", Err: err}
	}

	if len(doc.Steps) == 0 {
		return models.ExecutionPlan{}, &PlanParseError{Reason: "plan has no steps"}
	}

	plan := models.ExecutionPlan{
		UserIntent:           strings.TrimSpace(doc.UserIntent),
		Complexity:           models.Complexity(strings.ToLower(strings.TrimSpace(doc.Complexity))),
		Reasoning:            doc.Reasoning,
		ProactiveSuggestions: doc.ProactiveSuggestions,
		Confidence:           defaultConfidence,
	}
	if plan.UserIntent == "" {
		plan.UserIntent = request
	}
	if plan.Reasoning == "" {
		plan.Reasoning = "Plan created"
	}
	if plan.Complexity == "" {
		plan.Complexity = analyzed
	}
	if !plan.Complexity.Valid() {
		return models.ExecutionPlan{}, &PlanParseError{Reason: fmt.Sprintf("unknown complexity %q", doc.Complexity)}
	}
	if doc.Confidence != nil {
		if *doc.Confidence < 0 || *doc.Confidence > 1 {
			return models.ExecutionPlan{}, &PlanParseError{Reason: fmt.Sprintf("confidence %v outside [0, 1]", *doc.Confidence)}
		}
		plan.Confidence = *doc.Confidence
	}

	for i, s := range doc.Steps {
		step, err := parseStep(s, registry)
		if err != nil {
			return models.ExecutionPlan{}, &PlanParseError{Reason: fmt.Sprintf("step %d: %s", i+1, err)}
		}
		plan.Steps = append(plan.Steps, step)
	}

	return plan, nil
}

func parseStep(s stepDocument, registry *tools.Registry) (models.PlanStep, error) {
	if s.Step <= 0 {
		return models.PlanStep{}, fmt.Errorf("step number %d is not positive", s.Step)
	}
	if strings.TrimSpace(s.Action) == "" {
		return models.PlanStep{}, errors.New("action is empty")
	}

	id := models.ToolID(strings.TrimSpace(s.Tool))
	if _, ok := registry.Get(id); !ok {
		return models.PlanStep{}, fmt.Errorf("unknown tool %q", s.Tool)
	}

	estimate := s.EstimatedTime
	switch estimate {
	case "":
		estimate = "quick"
	case "quick", "medium", "long":
	default:
		return models.PlanStep{}, fmt.Errorf("unknown estimated_time %q", s.EstimatedTime)
	}

	return models.PlanStep{
		Step:          s.Step,
		Action:        s.Action,
		Tool:          id,
		Reason:        s.Reason,
		Dependencies:  s.Dependencies,
		EstimatedTime: estimate,
	}, nil
}

// FallbackPlan is the single-step plan used whenever planning fails.
func FallbackPlan(registry *tools.Registry, request string, hasDocument bool) models.ExecutionPlan {
	tool := registry.Suggest(request, hasDocument)[0]

	return models.ExecutionPlan{
		UserIntent: request,
		Complexity: models.ComplexitySimple,
		Reasoning:  "Fallback plan - using best-guess tool",
		Steps: []models.PlanStep{{
			Step:          1,
			Action:        "Respond to user request",
			Tool:          tool,
			Reason:        "Direct response to user query",
			Dependencies:  []int{},
			EstimatedTime: "quick",
		}},
		ProactiveSuggestions: []string{"Would you like a quiz on this topic?"},
		Confidence:           0.6,
		Fallback:             true,
	}
}

// stripFences extracts the body of a ```json or ``` fenced block, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	for _, fence := range []string{"```json", "```"} {
		_, after, found := strings.Cut(s, fence)
		if !found {
			continue
		}
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	return s
}
