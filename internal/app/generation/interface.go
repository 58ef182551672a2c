package generation

import "context"

// Generator produces text for a prompt under a system instruction
type Generator interface {
	Generate(ctx context.Context, prompt, systemInstruction string, temperature float32) (string, error)
	Name() string
}
