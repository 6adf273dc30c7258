package session

import (
	"context"

	"studybuddy/services/retriever"
)

// document is the session's uploaded material as seen by the mode
// functions: retrieval when indexed, raw text otherwise.
type document struct {
	retriever *retriever.Retriever
	text      string
}

func (d *document) IsReady() bool {
	return d.retriever.IsReady()
}

func (d *document) Retrieve(ctx context.Context, query string, k int) string {
	return d.retriever.Retrieve(ctx, query, k)
}

func (d *document) Text() string {
	return d.text
}
