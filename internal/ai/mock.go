package ai

import (
	"context"
	"strings"
	"sync"
)

// Mock is a scripted Client for tests and offline runs. Replies are matched by the
// first registered substring found in the prompt; Default is used otherwise.
type Mock struct {
	mu      sync.Mutex
	rules   []mockRule
	Default string
	Err     error
	Calls   []string
}

type mockRule struct {
	contains string
	reply    string
	err      error
}

// NewMock returns a Mock answering every prompt with reply.
func NewMock(reply string) *Mock {
	return &Mock{Default: reply}
}

// On registers a reply for prompts containing substr.
func (m *Mock) On(substr, reply string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{contains: substr, reply: reply})
	return m
}

// Fail registers an error for prompts containing substr.
func (m *Mock) Fail(substr string, err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{contains: substr, err: err})
	return m
}

func (m *Mock) Model() string       { return "mock" }
func (m *Mock) VisionModel() string { return "mock-vision" }

func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	return m.reply(ctx, prompt)
}

func (m *Mock) GenerateWithImage(ctx context.Context, prompt string, image []byte, _ string) (string, error) {
	if len(image) == 0 {
		return "", externalErr("empty image")
	}
	return m.reply(ctx, prompt)
}

func (m *Mock) reply(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", externalErr("%v", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, prompt)
	for _, r := range m.rules {
		if strings.Contains(prompt, r.contains) {
			if r.err != nil {
				return "", externalErr("%v", r.err)
			}
			return r.reply, nil
		}
	}
	if m.Err != nil {
		return "", externalErr("%v", m.Err)
	}
	return m.Default, nil
}

// CallCount returns how many prompts were answered.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
