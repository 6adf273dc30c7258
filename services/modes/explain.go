package modes

import (
	"context"

	"studybuddy/prompts"
)

// Explain explains a concept, grounding the answer in the uploaded
// document when one is loaded.
func (s *Service) Explain(ctx context.Context, concept, history string, doc Document) (string, error) {
	var material string
	if ready(doc) {
		if found := doc.Retrieve(ctx, concept, 3); found != "" {
			material = "[Relevant material from your uploaded PDF (RAG retrieval):]:\n" + found
		}
	} else if doc != nil && doc.Text() != "" {
		material = "[Content from your uploaded PDF:]:\n" + truncate(doc.Text(), rawTextLimit)
	}

	return s.complete(ctx, "explanation", prompts.Explain, prompts.ExplainData{
		History:  history,
		Material: material,
		Concept:  concept,
	})
}
