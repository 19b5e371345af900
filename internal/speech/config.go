package speech

import "fmt"

// Config holds speech provider configuration.
type Config struct {
	// Provider selects the backend.
	// Values: "openai", "gemini", "google", "mock", "none"
	Provider string `koanf:"provider"`

	// Language is the BCP-47 code spoken by patients.
	Language string `koanf:"language"`

	OpenAI OpenAIConfig `koanf:"openai"`
	Gemini GeminiConfig `koanf:"gemini"`
	Google GoogleConfig `koanf:"google"`
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey   string `koanf:"api_key"`
	Model    string `koanf:"model"`     // Default: "whisper-1"
	TTSModel string `koanf:"tts_model"` // Default: "tts-1"
	Voice    string `koanf:"voice"`     // Default: "nova"
	BaseURL  string `koanf:"base_url"`  // Optional. OpenAI-compatible endpoint.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey   string `koanf:"api_key"`
	Model    string `koanf:"model"`     // Default: "gemini-flash"
	TTSModel string `koanf:"tts_model"` // Default: "gemini-flash-tts"
	Voice    string `koanf:"voice"`     // Default: "Kore"
}

// GoogleConfig holds Cloud Speech-to-Text configuration. The provider only
// transcribes.
type GoogleConfig struct {
	// CredentialsFile is a service account key. Empty uses application
	// default credentials.
	CredentialsFile string `koanf:"credentials_file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "mock",
		Language: "es-ES",
		OpenAI: OpenAIConfig{
			Model:    "whisper-1",
			TTSModel: "tts-1",
			Voice:    "nova",
		},
		Gemini: GeminiConfig{
			Model:    "gemini-flash",
			TTSModel: "gemini-flash-tts",
			Voice:    "Kore",
		},
	}
}

// Validate checks that the selected provider has its required settings.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("HABLA_SPEECH_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("HABLA_SPEECH_GEMINI_API_KEY is required for the gemini provider")
		}
	case "google", "mock", "none":
		// Google falls back to application default credentials.
	default:
		return fmt.Errorf("unknown speech provider: %q", c.Provider)
	}
	return nil
}
