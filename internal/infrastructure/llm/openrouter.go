// Package llm adapts the OpenRouter chat API to the Completion port.
package llm

import (
	"context"
	"fmt"

	"github.com/revrost/go-openrouter"

	"RecipeImporter/internal/config"
	"RecipeImporter/internal/ports"
)

// OpenRouterClient invokes chat completions in JSON mode with a low
// temperature, as structured extraction requires.
type OpenRouterClient struct {
	client *openrouter.Client
	model  string
}

var _ ports.Completion = (*OpenRouterClient)(nil)

// NewOpenRouterClient builds a client from configuration.
func NewOpenRouterClient(cfg config.ExtractionConfig) *OpenRouterClient {
	return &OpenRouterClient{
		client: openrouter.NewClient(cfg.APIKey),
		model:  cfg.Model,
	}
}

// CompleteJSON issues one completion constrained to a JSON object response
// and returns the raw response text.
func (c *OpenRouterClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	request := openrouter.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		Messages: []openrouter.ChatCompletionMessage{
			{
				Role:    openrouter.ChatMessageRoleSystem,
				Content: openrouter.Content{Text: systemPrompt},
			},
			{
				Role:    openrouter.ChatMessageRoleUser,
				Content: openrouter.Content{Text: userPrompt},
			},
		},
		ResponseFormat: &openrouter.ChatCompletionResponseFormat{
			Type: openrouter.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	response, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("create completion: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return response.Choices[0].Message.Content.Text, nil
}
