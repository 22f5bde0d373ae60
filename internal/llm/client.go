// Package llm talks to the OpenAI API using strict structured output. Every
// request carries a locked-down JSON Schema and every response is validated
// against it before a caller sees it.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey marks a structured call attempted without credentials.
// This is a per-item failure, not a run-fatal one.
var ErrMissingAPIKey = errors.New("openai api key is missing")

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Schema names a JSON Schema for a structured request.
type Schema struct {
	Name       string
	Definition map[string]any
}

// Service is the structured-output contract pipeline stages depend on.
type Service interface {
	Structured(ctx context.Context, messages []Message, schema Schema) (map[string]any, error)
}

// Client implements Service against the OpenAI chat completions API.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	logger      zerolog.Logger
}

// Options configures the client.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
}

func NewClient(opts Options, logger zerolog.Logger) *Client {
	client := &Client{
		model:       opts.Model,
		temperature: opts.Temperature,
		logger:      logger,
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return client
	}

	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	client.api = openai.NewClientWithConfig(config)
	return client
}

// Structured sends the messages with a strict schema response format and
// returns the decoded, schema-validated object.
func (c *Client) Structured(ctx context.Context, messages []Message, schema Schema) (map[string]any, error) {
	if c == nil || c.api == nil {
		return nil, ErrMissingAPIKey
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}
	if schema.Name == "" || len(schema.Definition) == 0 {
		return nil, fmt.Errorf("schema name and definition are required")
	}

	locked := LockdownSchema(schema.Definition)
	lockedJSON, err := json.Marshal(locked)
	if err != nil {
		return nil, fmt.Errorf("encode schema %s: %w", schema.Name, err)
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		role := message.Role
		if role == "" {
			role = openai.ChatMessageRoleUser
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: message.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    chatMessages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schema.Name,
				Schema: json.RawMessage(lockedJSON),
				Strict: true,
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion schema=%s: %w", schema.Name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty structured response schema=%s", schema.Name)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("empty structured response schema=%s", schema.Name)
	}

	payload, err := decodeAndValidate(content, schema.Name, lockedJSON)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("schema", schema.Name).
		Str("model", c.model).
		Msg("structured response accepted")

	return payload, nil
}

func decodeAndValidate(content, schemaName string, lockedJSON []byte) (map[string]any, error) {
	var instance any
	if err := json.Unmarshal([]byte(content), &instance); err != nil {
		return nil, fmt.Errorf("decode structured response schema=%s: %w", schemaName, err)
	}
	payload, ok := instance.(map[string]any)
	if !ok || len(payload) == 0 {
		return nil, fmt.Errorf("empty structured response schema=%s", schemaName)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	resource := schemaName + ".schema.json"
	if err := compiler.AddResource(resource, strings.NewReader(string(lockedJSON))); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", schemaName, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", schemaName, err)
	}

	if err := compiled.Validate(instance); err != nil {
		return nil, fmt.Errorf("structured response failed schema %s: %w", schemaName, err)
	}

	return payload, nil
}
