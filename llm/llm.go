// Package llm provides model access for the concierge agents.
//
// Agents depend on the Provider interface only; the concrete backend
// (Gemini or Claude) is selected at wiring time. Planning prompts ask for
// strict JSON, so the package also ships a tolerant decoder that salvages
// a JSON object from a noisy completion.
package llm

import "context"

// Request describes a single completion call.
type Request struct {
	// Prompt is the user-visible prompt text.
	Prompt string

	// System is an optional system instruction.
	System string

	// Temperature in [0,1]. Zero means provider default.
	Temperature float32

	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int

	// JSONOnly asks the model to respond with a JSON document and
	// nothing else. Providers that support a JSON response mode enable
	// it; others rely on the prompt.
	JSONOnly bool
}

// Provider generates a text completion for a request.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}
