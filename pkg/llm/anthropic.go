package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

const defaultAnthropicModel = string(anthropic.ModelClaudeSonnet4_20250514)

// AnthropicClient talks to the Anthropic Messages API. Credentials come from
// the standard ANTHROPIC_API_KEY environment variable.
type AnthropicClient struct {
	client anthropic.Client
	config Config
}

// NewAnthropicClient returns a client for the Anthropic provider.
func NewAnthropicClient(config Config) *AnthropicClient {
	if config.Model == "" {
		config.Model = defaultAnthropicModel
	}
	return &AnthropicClient{
		client: anthropic.NewClient(),
		config: config,
	}
}

// Complete implements Client.
func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: toAnthropicMessages(messages),
	}

	return completeWithRetry(ctx, c.config.Retry, "anthropic", func() (string, error) {
		response, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		for _, block := range response.Content {
			if text, ok := block.AsAny().(anthropic.TextBlock); ok {
				sb.WriteString(text.Text)
			}
		}
		return sb.String(), nil
	})
}

func toAnthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}
