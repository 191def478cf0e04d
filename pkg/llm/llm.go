// Package llm provides a minimal completion client over the supported model
// providers. It backs the interview agent and the code scanner's refactoring
// step; the compiler never touches it, so compiled schemas stay fully
// deterministic.
package llm

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/skillmaker-ai/skillmaker/pkg/logger"
)

// Role values for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// Client sends a system prompt plus conversation to a model and returns the
// text of the reply.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error)
}

// RetryConfig controls retry behavior for provider calls.
type RetryConfig struct {
	Attempts     int    `mapstructure:"attempts"`
	InitialDelay int    `mapstructure:"initial_delay"` // milliseconds
	MaxDelay     int    `mapstructure:"max_delay"`     // milliseconds
	BackoffType  string `mapstructure:"backoff_type"`  // "exponential" or "fixed"
}

// Config selects and configures a provider.
type Config struct {
	Provider  string      `mapstructure:"provider"`
	Model     string      `mapstructure:"model"`
	MaxTokens int         `mapstructure:"max_tokens"`
	Retry     RetryConfig `mapstructure:"retry"`
}

// DefaultConfig returns the provider defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "anthropic",
		MaxTokens: 4096,
		Retry: RetryConfig{
			Attempts:     3,
			InitialDelay: 1000,
			MaxDelay:     10000,
			BackoffType:  "exponential",
		},
	}
}

// ConfigFromViper reads the provider configuration from viper, applying
// defaults for unset keys.
func ConfigFromViper() (Config, error) {
	config := DefaultConfig()
	if err := viper.Unmarshal(&config); err != nil {
		return config, errors.Wrap(err, "failed to decode llm configuration")
	}
	return config, nil
}

// NewClient returns the client for the configured provider.
func NewClient(config Config) (Client, error) {
	switch config.Provider {
	case "", "anthropic":
		return NewAnthropicClient(config), nil
	case "openai":
		return NewOpenAIClient(config)
	default:
		return nil, errors.Errorf("unsupported llm provider %q", config.Provider)
	}
}

// completeWithRetry wraps a provider call in the configured retry policy.
func completeWithRetry(ctx context.Context, config RetryConfig, provider string, fn func() (string, error)) (string, error) {
	var result string

	var delayType retry.DelayTypeFunc
	switch config.BackoffType {
	case "fixed":
		delayType = retry.FixedDelay
	default:
		delayType = retry.BackOffDelay
	}

	err := retry.Do(
		func() error {
			var apiErr error
			result, apiErr = fn()
			return apiErr
		},
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.Attempts(uint(config.Attempts)),
		retry.Delay(time.Duration(config.InitialDelay)*time.Millisecond),
		retry.MaxDelay(time.Duration(config.MaxDelay)*time.Millisecond),
		retry.DelayType(delayType),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).
				WithField("attempt", n+1).
				WithField("provider", provider).
				Warn("retrying model API call")
		}),
	)
	if err != nil {
		return "", errors.Wrapf(err, "%s API call failed", provider)
	}
	return result, nil
}
