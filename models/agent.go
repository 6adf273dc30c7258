package models

// ToolID names one of the registered study tools.
type ToolID string

const (
	ToolConceptExplainer  ToolID = "concept_explainer"
	ToolContentSummarizer ToolID = "content_summarizer"
	ToolQuizGenerator     ToolID = "quiz_generator"
	ToolQuestionSolver    ToolID = "question_solver"
	ToolAnswerEvaluator   ToolID = "answer_evaluator"
)

// AllToolIDs lists every tool in declaration order.
var AllToolIDs = []ToolID{
	ToolConceptExplainer,
	ToolContentSummarizer,
	ToolQuizGenerator,
	ToolQuestionSolver,
	ToolAnswerEvaluator,
}

func (id ToolID) Valid() bool {
	for _, known := range AllToolIDs {
		if id == known {
			return true
		}
	}
	return false
}

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	}
	return false
}

type PlanStep struct {
	Step          int    `json:"step"`
	Action        string `json:"action"`
	Tool          ToolID `json:"tool"`
	Reason        string `json:"reason"`
	Dependencies  []int  `json:"dependencies"`
	EstimatedTime string `json:"estimated_time"`
}

type ExecutionPlan struct {
	UserIntent           string     `json:"user_intent"`
	Complexity           Complexity `json:"complexity"`
	Reasoning            string     `json:"reasoning"`
	Steps                []PlanStep `json:"steps"`
	ProactiveSuggestions []string   `json:"proactive_suggestions"`
	Confidence           float64    `json:"confidence"`
	Fallback             bool       `json:"fallback"`
}

// ToolIDs returns the tool of every step, in order.
func (p ExecutionPlan) ToolIDs() []ToolID {
	ids := make([]ToolID, 0, len(p.Steps))
	for _, step := range p.Steps {
		ids = append(ids, step.Tool)
	}
	return ids
}

// StepResult is the outcome of running one plan step.
type StepResult struct {
	Step   int    `json:"step"`
	Action string `json:"action"`
	Tool   ToolID `json:"tool"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r StepResult) Succeeded() bool {
	return r.Error == ""
}

type Reflection struct {
	QualityScore int      `json:"quality_score"`
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	Improvements []string `json:"improvements"`
	ShouldRetry  bool     `json:"should_retry"`
}

type PlanningStats struct {
	TotalPlans             int                `json:"total_plans"`
	AverageSteps           float64            `json:"avg_steps"`
	ComplexityDistribution map[Complexity]int `json:"complexity_distribution"`
	AverageConfidence      float64            `json:"avg_confidence"`
}
