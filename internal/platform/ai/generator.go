// Package ai abstracts the language-model backend used by the clinical
// report agents. The service layer talks to the Generator interface only;
// the OpenAI implementation lives in openai.go and tests substitute a mock.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message is a single chat turn sent to the model.
// Role must be one of: "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Generator produces a structured JSON document from a chat prompt.
// schemaTag names the expected output shape (e.g. "assessment_report") and
// is used for logging and error reporting only; the model is instructed
// about the shape through the prompt itself.
type Generator interface {
	Generate(ctx context.Context, messages []Message, schemaTag string) (json.RawMessage, error)
}

// GenerationError wraps an upstream model failure so that handlers can
// map it to a 502 response distinct from local validation errors.
type GenerationError struct {
	SchemaTag string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.SchemaTag, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
