// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"
)

// Reply is one scripted completion. A non-nil Err is returned instead of Text.
type Reply struct {
	Text string
	Err  error
}

// Fake returns scripted replies in order and records every prompt. Once the
// script is exhausted it answers with Default, or an error when Default is
// empty.
type Fake struct {
	mu      sync.Mutex
	script  []Reply
	Default string
	prompts []string
}

func New(replies ...string) *Fake {
	f := &Fake{}
	for _, r := range replies {
		f.script = append(f.script, Reply{Text: r})
	}
	return f
}

func (f *Fake) Push(replies ...Reply) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, replies...)
	return f
}

func (f *Fake) Name() string {
	return "fake"
}

func (f *Fake) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)

	if len(f.script) == 0 {
		if f.Default == "" {
			return "", fmt.Errorf("llmtest: no scripted reply for call %d", len(f.prompts))
		}
		return f.Default, nil
	}

	next := f.script[0]
	f.script = f.script[1:]
	return next.Text, next.Err
}

func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
