package llm

import (
	"context"
	"os"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = openai.GPT4o

// OpenAIClient talks to the OpenAI chat completion API. Credentials come
// from the standard OPENAI_API_KEY environment variable.
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient returns a client for the OpenAI provider.
func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is not set")
	}
	if config.Model == "" {
		config.Model = defaultOpenAIModel
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		config: config,
	}, nil
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:     c.config.Model,
		MaxTokens: c.config.MaxTokens,
		Messages:  toOpenAIMessages(systemPrompt, messages),
	}

	return completeWithRetry(ctx, c.config.Retry, "openai", func() (string, error) {
		response, err := c.client.CreateChatCompletion(ctx, request)
		if err != nil {
			return "", err
		}
		if len(response.Choices) == 0 {
			return "", errors.New("empty completion response")
		}
		return response.Choices[0].Message.Content, nil
	})
}

func toOpenAIMessages(systemPrompt string, messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	out = append(out, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
