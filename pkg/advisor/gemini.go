package advisor

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/ExclusiveAccount/shastra-shield/pkg/config"
)

// GeminiProvider calls the Gemini API
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed provider
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

// Generate sends prompt to the model and returns its text
func (g *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// NewFromConfig builds an advisor from configuration. Without an API key, or
// when the client cannot be created, the advisor has no provider and every
// explanation is the unconfigured fallback.
func NewFromConfig(ctx context.Context, cfg config.Config, logger *logrus.Logger) *Advisor {
	if logger == nil {
		logger = logrus.New()
	}

	if !cfg.AdvisorEnabled() {
		logger.Debug("No API key set, text advisories disabled")
		return New(nil, cfg.AdvisorTimeout, logger)
	}

	provider, err := NewGeminiProvider(ctx, cfg.APIKey, cfg.AdvisorModel)
	if err != nil {
		logger.Warnf("Text advisories disabled: %v", err)
		return New(nil, cfg.AdvisorTimeout, logger)
	}

	logger.WithField("model", cfg.AdvisorModel).Info("Text advisories enabled")
	return New(provider, cfg.AdvisorTimeout, logger)
}
