// Package advisor produces short human-readable threat explanations through
// an optional external text-completion provider.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// FallbackUnconfigured is shown when no provider is configured.
	FallbackUnconfigured = "Anomaly neutralized via edge-level hardware baseline. Integrity Score: Optimal."
	// FallbackProviderError is shown when the provider call fails.
	FallbackProviderError = "Behavioral drift detected. Automated isolation active."
)

// ErrProviderUnavailable is returned by Explain when no provider is configured.
var ErrProviderUnavailable = errors.New("text-advisory provider not configured")

// ProviderError wraps a failed provider call
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("text-advisory provider failed: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Provider is an opaque text-completion service
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Advisor explains threats using an optional Provider
type Advisor struct {
	provider Provider
	timeout  time.Duration
	logger   *logrus.Logger
}

// New creates an advisor. A nil provider disables external calls.
func New(provider Provider, timeout time.Duration, logger *logrus.Logger) *Advisor {
	if logger == nil {
		logger = logrus.New()
	}

	return &Advisor{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

// Enabled reports whether a provider is configured
func (a *Advisor) Enabled() bool {
	return a.provider != nil
}

// Prompt builds the provider prompt for a threat
func Prompt(threatType, deviceName string) string {
	return fmt.Sprintf("Explain this IoT threat: %s targeting %s. Keep it under 40 words, sound like an AI security agent.",
		threatType, deviceName)
}

// Explain asks the provider for an explanation of threatType on deviceName.
// It returns ErrProviderUnavailable without calling out when no provider is
// configured, and a *ProviderError for any failed or empty response.
func (a *Advisor) Explain(ctx context.Context, threatType, deviceName string) (string, error) {
	if a.provider == nil {
		return "", ErrProviderUnavailable
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.provider.Generate(ctx, Prompt(threatType, deviceName))
	if err != nil {
		return "", &ProviderError{Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ProviderError{Err: errors.New("empty response")}
	}
	return text, nil
}

// ExplainText is Explain with failures replaced by the fixed fallback strings.
// It never fails.
func (a *Advisor) ExplainText(ctx context.Context, threatType, deviceName string) string {
	text, err := a.Explain(ctx, threatType, deviceName)
	if err != nil && !errors.Is(err, ErrProviderUnavailable) {
		a.logger.WithFields(logrus.Fields{
			"threat": threatType,
			"device": deviceName,
		}).Warnf("Advisory call failed: %v", err)
	}
	return Fallback(text, err)
}

// Fallback returns text, or the fallback string matching err when err is set
func Fallback(text string, err error) string {
	switch {
	case err == nil:
		return text
	case errors.Is(err, ErrProviderUnavailable):
		return FallbackUnconfigured
	default:
		return FallbackProviderError
	}
}
