// Package config loads habla configuration from defaults, an optional YAML
// file and HABLA_* environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/abhisek/habla/internal/logging"
	"github.com/abhisek/habla/internal/speech"
)

const (
	envPrefix         = "HABLA_"
	maxConfigFileSize = 1024 * 1024
)

// Config is the full application configuration.
type Config struct {
	DB     DBConfig       `koanf:"db"`
	Log    logging.Config `koanf:"log"`
	Speech speech.Config  `koanf:"speech"`
}

// DBConfig locates the SQLite database.
type DBConfig struct {
	// Path is the database file. Empty resolves to the XDG data directory.
	Path string `koanf:"path"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Log:    logging.DefaultConfig(),
		Speech: speech.DefaultConfig(),
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Speech.Validate(); err != nil {
		return fmt.Errorf("speech: %w", err)
	}
	return nil
}

// keys lists every configurable key. Environment variables map onto these
// by upper-casing and replacing dots with underscores.
var keys = []string{
	"db.path",
	"log.level",
	"log.format",
	"log.file",
	"speech.provider",
	"speech.language",
	"speech.openai.api_key",
	"speech.openai.model",
	"speech.openai.tts_model",
	"speech.openai.voice",
	"speech.openai.base_url",
	"speech.gemini.api_key",
	"speech.gemini.model",
	"speech.gemini.tts_model",
	"speech.gemini.voice",
	"speech.google.credentials_file",
}

// envAliases are short variable names kept for convenience.
var envAliases = map[string]string{
	"HABLA_DB": "db.path",
}

// Load reads configuration. Precedence, highest first:
//  1. HABLA_* environment variables (HABLA_SPEECH_PROVIDER -> speech.provider)
//  2. the YAML file at path, or the default path when path is empty
//  3. built-in defaults
//
// A missing file at the default path is not an error; a missing file at an
// explicit path is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	content, err := readConfigFile(path)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, err
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyFallbacks(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/habla/config.yaml, falling back to
// ~/.config/habla/config.yaml.
func DefaultPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "habla", "config.yaml"), nil
}

// envKey maps an environment variable name to a config key. Unknown
// variables map to "" and are ignored.
func envKey(name string) string {
	if k, ok := envAliases[name]; ok {
		return k
	}
	suffix := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	for _, k := range keys {
		if strings.ReplaceAll(k, ".", "_") == suffix {
			return k
		}
	}
	return ""
}

// applyFallbacks fills provider keys from the vendors' standard variables
// when habla-specific ones are unset.
func applyFallbacks(cfg *Config) {
	if cfg.Speech.OpenAI.APIKey == "" {
		cfg.Speech.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Speech.Gemini.APIKey == "" {
		cfg.Speech.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Speech.Google.CredentialsFile == "" {
		cfg.Speech.Google.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}
