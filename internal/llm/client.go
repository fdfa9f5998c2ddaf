// Package llm wraps the chat-completion and embedding API used by the RAG
// sidebar. Plain OpenAI and Azure OpenAI endpoints are both supported.
package llm

import (
	"context"
	"errors"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type Client struct {
	api            *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
}

func NewClientFromEnv() (*Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	var cfg openai.ClientConfig
	if endpoint := strings.TrimSpace(os.Getenv("AZURE_OPENAI_ENDPOINT")); endpoint != "" {
		cfg = openai.DefaultAzureConfig(apiKey, endpoint)
	} else {
		cfg = openai.DefaultConfig(apiKey)
	}

	chatModel := strings.TrimSpace(os.Getenv("OPENAI_CHAT_MODEL"))
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	embeddingModel := openai.EmbeddingModel(strings.TrimSpace(os.Getenv("OPENAI_EMBEDDING_MODEL")))
	if embeddingModel == "" {
		embeddingModel = openai.LargeEmbedding3
	}

	return &Client{
		api:            openai.NewClientWithConfig(cfg),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}, nil
}

// Summarize asks the chat model to condense the given chat transcript.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Summarize the following chat conversation:\n" + text,
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: c.embeddingModel,
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}
