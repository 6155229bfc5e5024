package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicClient struct {
	client    *anthropic.Client
	model     anthropic.Model
	modelName string
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{
		client:    &client,
		model:     anthropic.Model("claude-haiku-4-5"),
		modelName: "claude-4.5-haiku",
	}
}

func (c *AnthropicClient) complete(system, user string) (string, error) {
	resp, err := c.client.Messages.New(context.Background(), anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}
	return cleanJSONResponse(resp.Content[0].Text), nil
}

func (c *AnthropicClient) ExtractStories(articles []Article, known []ThreadRef) ([]StoryCandidate, error) {
	content, err := c.complete(storyPrompt, storyUserPrompt(articles, known))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Stories []StoryCandidate `json:"stories"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse story response: %w, content: %s", err, content)
	}
	return parsed.Stories, nil
}

func (c *AnthropicClient) ExtractCharacters(articles []Article, known []CharacterRef) ([]CharacterCandidate, error) {
	content, err := c.complete(characterPrompt, characterUserPrompt(articles, known))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Characters []CharacterCandidate `json:"characters"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse character response: %w, content: %s", err, content)
	}
	return parsed.Characters, nil
}

func (c *AnthropicClient) DetectFollowUps(articles []Article, known []ThreadRef) ([]FollowUpCandidate, error) {
	content, err := c.complete(followupPrompt, storyUserPrompt(articles, known))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		FollowUps []FollowUpCandidate `json:"followups"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse followup response: %w, content: %s", err, content)
	}
	return parsed.FollowUps, nil
}
