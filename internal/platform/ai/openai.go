package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"
)

// OpenAIGenerator calls the OpenAI chat completion API in JSON mode and
// returns the raw JSON document produced by the model.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewOpenAIGenerator constructs an OpenAI-backed generator.
func NewOpenAIGenerator(apiKey, model string, logger zerolog.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Generate sends the message history to the chat completion API with JSON
// response formatting and validates that the reply parses as a JSON object.
func (g *OpenAIGenerator) Generate(ctx context.Context, messages []Message, schemaTag string) (json.RawMessage, error) {
	if g.client == nil {
		return nil, &GenerationError{SchemaTag: schemaTag, Err: errors.New("openai client not initialized")}
	}

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    oaMsgs,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		g.logger.Error().Err(err).Str("schema", schemaTag).Msg("chat completion failed")
		return nil, &GenerationError{SchemaTag: schemaTag, Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &GenerationError{SchemaTag: schemaTag, Err: errors.New("empty completion response")}
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = stripCodeFence(content)

	if !json.Valid([]byte(content)) {
		return nil, &GenerationError{SchemaTag: schemaTag, Err: fmt.Errorf("model returned invalid JSON")}
	}

	g.logger.Debug().
		Str("schema", schemaTag).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("report content generated")

	return json.RawMessage(content), nil
}

// stripCodeFence removes a surrounding markdown code fence if the model
// wrapped its JSON output in one despite JSON mode.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
