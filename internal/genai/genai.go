// Package genai generates question records with an OpenAI-compatible model.
// Returned records are deliberately left as raw maps: providers disagree on
// field names and answer encodings, and the normalizer is the single place
// that resolves those shapes.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new generation client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Request describes one generation call.
type Request struct {
	Topic        string
	GradeLevel   string
	NumQuestions int
	Kinds        []string // question type labels, free-form
}

const systemPrompt = `You are an assessment author. Respond with a single JSON object of the form
{"questions": [...]} where each element describes one question. Include for each
question a "type", the question text, answer options where applicable, and the
correct answer. Do not include any text outside the JSON object.`

// GenerateQuestions asks the model for raw question records. The response is
// only required to be a JSON object with a "questions" array; each element
// passes through untouched.
func (c *Client) GenerateQuestions(ctx context.Context, req Request) ([]map[string]any, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	return parseQuestions(raw)
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d assessment questions about %q.", req.NumQuestions, req.Topic)
	if req.GradeLevel != "" {
		fmt.Fprintf(&b, " Target grade level: %s.", req.GradeLevel)
	}
	if len(req.Kinds) > 0 {
		fmt.Fprintf(&b, " Use these question types: %s.", strings.Join(req.Kinds, ", "))
	}
	return b.String()
}

func parseQuestions(raw string) ([]map[string]any, error) {
	var payload struct {
		Questions []map[string]any `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("LLM returned no questions")
	}
	return payload.Questions, nil
}

// Ping verifies the endpoint is reachable and the model responds.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "ping"},
		},
		MaxTokens: 1,
	})
	if err != nil {
		return fmt.Errorf("LLM ping: %w", err)
	}
	return nil
}
