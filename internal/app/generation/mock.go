package generation

import (
	"context"
	"sync"
)

// Call records one Generate invocation
type Call struct {
	Prompt            string
	SystemInstruction string
	Temperature       float32
}

// ScriptedGenerator returns canned responses in order and records every call
type ScriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     []Call
}

// NewScriptedGenerator replies with responses in turn, repeating the last one
func NewScriptedGenerator(responses ...string) *ScriptedGenerator {
	return &ScriptedGenerator{responses: responses}
}

// NewFailingGenerator always returns err
func NewFailingGenerator(err error) *ScriptedGenerator {
	return &ScriptedGenerator{err: err}
}

func (s *ScriptedGenerator) Generate(ctx context.Context, prompt, systemInstruction string, temperature float32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Prompt: prompt, SystemInstruction: systemInstruction, Temperature: temperature})
	if s.err != nil {
		return "", s.err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.responses) == 0 {
		return "", nil
	}
	idx := len(s.calls) - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

func (s *ScriptedGenerator) Name() string {
	return "scripted"
}

// Calls returns a copy of the recorded calls
func (s *ScriptedGenerator) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}
