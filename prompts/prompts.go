// Package prompts holds the catalogue of prompt templates used by the agent
// and the mode functions.
package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

const (
	System        = "system"
	Identity      = "identity"
	Greeting      = "greeting"
	Reasoning     = "reasoning"
	Planning      = "planning"
	Synthesis     = "synthesis"
	Reflection    = "reflection"
	Proactive     = "proactive"
	ErrorRecovery = "error_recovery"
	Explain       = "explain"
	Summarize     = "summarize"
	Quiz          = "quiz"
	Solve         = "solve"
	Evaluate      = "evaluate"
)

var required = []string{
	System, Identity, Greeting, Reasoning, Planning, Synthesis, Reflection,
	Proactive, ErrorRecovery, Explain, Summarize, Quiz, Solve, Evaluate,
}

type ReasoningData struct {
	Request     string
	Context     string
	HasDocument bool
	HasRAG      bool
	Topics      []string
}

type PlanningData struct {
	Request     string
	Context     string
	Tools       string
	HasDocument bool
	Complexity  string
	Schema      string
}

type SynthesisData struct {
	Request string
	Results string
}

type ReflectionData struct {
	Response string
	Request  string
}

type ProactiveData struct {
	Request  string
	Response string
	History  string
	Topics   []string
}

type ErrorRecoveryData struct {
	Tool    string
	Error   string
	Request string
}

type ExplainData struct {
	History  string
	Material string
	Concept  string
}

type SummarizeData struct {
	Instruction string
	Note        string
	History     string
	Content     string
}

type QuizData struct {
	History string
	Content string
}

type SolveData struct {
	Questions string
	Material  string
	History   string
}

type EvaluateData struct {
	Questions string
	Answers   string
	Material  string
	History   string
}

// Store renders named templates. It is immutable after construction and
// safe for concurrent use.
type Store struct {
	set *template.Template
	raw map[string]string
}

// Load parses the embedded template catalogue.
func Load() (*Store, error) {
	return Parse(defaultTemplates)
}

// MustLoad is Load for program start-up, where a broken catalogue is a bug.
func MustLoad() *Store {
	store, err := Load()
	if err != nil {
		panic(err)
	}
	return store
}

// Parse builds a Store from a YAML mapping of template name to body.
func Parse(data []byte) (*Store, error) {
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}

	var missing []string
	for _, name := range required {
		if _, ok := raw[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("prompt templates missing: %s", strings.Join(missing, ", "))
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	set := template.New("prompts").Funcs(template.FuncMap{"join": strings.Join})
	for _, name := range names {
		if _, err := set.New(name).Parse(raw[name]); err != nil {
			return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
		}
	}

	return &Store{set: set, raw: raw}, nil
}

// Render executes the named template and trims surrounding whitespace.
func (s *Store) Render(name string, data any) (string, error) {
	if s.set.Lookup(name) == nil {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}

	var buf bytes.Buffer
	if err := s.set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Text returns a template body verbatim, for templates without placeholders.
func (s *Store) Text(name string) string {
	return strings.TrimSpace(s.raw[name])
}
