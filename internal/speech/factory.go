package speech

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewProvider creates a Provider from configuration, wrapped with logging.
func NewProvider(ctx context.Context, cfg Config, logger *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI, cfg.Language)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini, cfg.Language)
	case "google":
		base, err = NewGoogleProvider(ctx, cfg.Google, cfg.Language)
	case "mock":
		base = NewMockProvider()
	case "none", "":
		base = Disabled{}
	default:
		return nil, fmt.Errorf("unknown speech provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s speech provider: %w", cfg.Provider, err)
	}

	return WithLogging(base, logger), nil
}

// Disabled is the provider used when speech is turned off. Every call fails
// with a ServiceError wrapping ErrDisabled.
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Transcribe(context.Context, Audio) (string, error) {
	return "", &ServiceError{Provider: "none", Op: OpTranscribe, Err: ErrDisabled}
}

func (Disabled) Synthesize(context.Context, string) ([]byte, error) {
	return nil, &ServiceError{Provider: "none", Op: OpSynthesize, Err: ErrDisabled}
}

// resolveModel maps a friendly model name to its provider ID, passing
// unknown names through.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
