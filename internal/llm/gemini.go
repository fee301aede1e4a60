package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"discord-digest/pkg/utils"
)

const (
	geminiEnvKey       = "GEMINI_API_KEY"
	defaultGeminiModel = "gemini-2.0-flash"
)

// GeminiProvider generates digests through the Google Gemini API.
type GeminiProvider struct {
	model  string
	logger *zap.Logger
}

// NewGeminiProvider creates a Gemini provider. An empty model selects the
// default.
func NewGeminiProvider(model string, logger *zap.Logger) *GeminiProvider {
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiProvider{
		model:  model,
		logger: logger.Named("llm_gemini"),
	}
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return "gemini" }

// Available implements Provider.
func (p *GeminiProvider) Available() bool {
	return os.Getenv(geminiEnvKey) != ""
}

// GenerateDigest implements Provider.
func (p *GeminiProvider) GenerateDigest(ctx context.Context, req Request) (string, error) {
	apiKey := os.Getenv(geminiEnvKey)
	if apiKey == "" {
		return "", fmt.Errorf("%w: set %s", ErrNoProviderAvailable, geminiEnvKey)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.SetMaxOutputTokens(maxOutputTokens)

	digest, err := utils.WithRetry(ctx, func() (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(userPrompt(req)))
		if err != nil {
			p.logger.Warn("Gemini request failed", zap.Error(err))
			return "", fmt.Errorf("gemini API error: %w", err)
		}

		text := responseText(resp)
		if text == "" {
			return "", ErrEmptyResponse
		}

		return text, nil
	}, utils.GetLLMRetryOptions())
	if err != nil {
		return "", fmt.Errorf("failed to generate digest with Gemini: %w", err)
	}

	return digest, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder

	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	return b.String()
}
