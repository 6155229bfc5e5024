package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAIClient struct {
	client    *openai.Client
	model     openai.ChatModel
	modelName string
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		client:    &client,
		model:     openai.ChatModelGPT4oMini,
		modelName: "gpt-4o-mini",
	}
}

func (c *OpenAIClient) complete(system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(context.Background(), openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return cleanJSONResponse(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) ExtractStories(articles []Article, known []ThreadRef) ([]StoryCandidate, error) {
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

func (c *OpenAIClient) ExtractCharacters(articles []Article, known []CharacterRef) ([]CharacterCandidate, error) {
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

func (c *OpenAIClient) DetectFollowUps(articles []Article, known []ThreadRef) ([]FollowUpCandidate, error) {
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

// Embed computes one vector per input text via the embeddings API.
func (c *OpenAIClient) Embed(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.Embeddings.New(context.Background(), openai.EmbeddingNewParams{
		Model: openai.EmbeddingModelTextEmbedding3Small,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings error: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}
