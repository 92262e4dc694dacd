// Package openai renders agent preview replies so users can try a bot's
// personality before connecting it to WhatsApp.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Previewer generates a sample agent reply for a user message
type Previewer interface {
	Preview(ctx context.Context, agentName, agentType string, profile json.RawMessage, message string) (string, error)
}

// Client implements Previewer against the OpenAI chat API
type Client struct {
	api *openai.Client
}

// New creates a previewer. Returns nil when no API key is configured;
// callers treat a nil previewer as "preview disabled".
func New(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{api: openai.NewClient(apiKey)}
}

// Preview sends the agent's profile as a system prompt and returns the reply
func (c *Client) Preview(ctx context.Context, agentName, agentType string, profile json.RawMessage, message string) (string, error) {
	system := fmt.Sprintf(
		"You are %s, a %s WhatsApp agent. Reply in the customer's language, briefly. Agent profile: %s",
		agentName, agentType, string(profile),
	)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		MaxTokens: 300,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
