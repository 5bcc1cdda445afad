// Package testutil provides test doubles shared by dstask tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/handiism/dstask/internal/credentials"
)

// Answer is one scripted prompt answer. A non-nil Err is returned
// instead of Value.
type Answer struct {
	Value string
	Err   error
}

// ScriptedPrompter answers prompts from a queue and records the labels
// and defaults it was asked with.
type ScriptedPrompter struct {
	mu       sync.Mutex
	answers  []Answer
	Labels   []string
	Defaults []string
	Secrets  int
}

// NewScriptedPrompter queues answers in order.
func NewScriptedPrompter(answers ...string) *ScriptedPrompter {
	p := &ScriptedPrompter{}
	for _, a := range answers {
		p.answers = append(p.answers, Answer{Value: a})
	}
	return p
}

// Push queues more answers.
func (p *ScriptedPrompter) Push(answers ...Answer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answers = append(p.answers, answers...)
}

// Count returns how many prompts were shown.
func (p *ScriptedPrompter) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Labels)
}

func (p *ScriptedPrompter) next(label, def string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Labels = append(p.Labels, label)
	p.Defaults = append(p.Defaults, def)
	if len(p.answers) == 0 {
		return "", fmt.Errorf("unexpected prompt %q: %w", label, credentials.ErrAborted)
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a.Value, a.Err
}

// Prompt implements credentials.Prompter.
func (p *ScriptedPrompter) Prompt(_ context.Context, label, def string) (string, error) {
	v, err := p.next(label, def)
	if err != nil {
		return "", err
	}
	if v == "" {
		return def, nil
	}
	return v, nil
}

// PromptSecret implements credentials.Prompter.
func (p *ScriptedPrompter) PromptSecret(_ context.Context, label string) (string, error) {
	p.mu.Lock()
	p.Secrets++
	p.mu.Unlock()
	return p.next(label, "")
}

// FakeProvider is a credentials.Provider returning fixed values.
type FakeProvider struct {
	mu         sync.Mutex
	Credential credentials.Credential
	FetchErr   error
	Codes      []string
	CodeErr    error
	Fetches    int
	CodeCalls  int
}

// Fetch implements credentials.Provider.
func (f *FakeProvider) Fetch(_ context.Context, _ credentials.Reference) (credentials.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fetches++
	return f.Credential, f.FetchErr
}

// FetchFreshCode implements credentials.Provider, popping Codes in order.
func (f *FakeProvider) FetchFreshCode(_ context.Context, _ credentials.Reference) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CodeCalls++
	if f.CodeErr != nil {
		return "", f.CodeErr
	}
	if len(f.Codes) == 0 {
		return "", fmt.Errorf("%w: no code", credentials.ErrProvider)
	}
	c := f.Codes[0]
	f.Codes = f.Codes[1:]
	return c, nil
}
