package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"discord-digest/pkg/utils"
)

const (
	openAIEnvKey       = "OPENAI_API_KEY"
	defaultOpenAIModel = "gpt-4o"
)

// OpenAIProvider generates digests through the OpenAI chat completions API.
type OpenAIProvider struct {
	model  string
	logger *zap.Logger
}

// NewOpenAIProvider creates an OpenAI provider. An empty model selects the
// default.
func NewOpenAIProvider(model string, logger *zap.Logger) *OpenAIProvider {
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIProvider{
		model:  model,
		logger: logger.Named("llm_openai"),
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Available implements Provider.
func (p *OpenAIProvider) Available() bool {
	return os.Getenv(openAIEnvKey) != ""
}

// GenerateDigest implements Provider.
func (p *OpenAIProvider) GenerateDigest(ctx context.Context, req Request) (string, error) {
	apiKey := os.Getenv(openAIEnvKey)
	if apiKey == "" {
		return "", fmt.Errorf("%w: set %s", ErrNoProviderAvailable, openAIEnvKey)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(90*time.Second),
		option.WithMaxRetries(0),
	)

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(req)),
		},
		Model:     p.model,
		MaxTokens: openai.Int(maxOutputTokens),
	}

	digest, err := utils.WithRetry(ctx, func() (string, error) {
		resp, err := client.Chat.Completions.New(ctx, params)
		if err != nil {
			p.logger.Warn("OpenAI request failed", zap.Error(err))
			return "", fmt.Errorf("openai API error: %w", err)
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return "", ErrEmptyResponse
		}

		return resp.Choices[0].Message.Content, nil
	}, utils.GetLLMRetryOptions())
	if err != nil {
		return "", fmt.Errorf("failed to generate digest with OpenAI: %w", err)
	}

	return digest, nil
}
