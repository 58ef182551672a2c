package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// APIKeys holds all API keys loaded from environment
type APIKeys struct {
	OpenAI string
	Gemini string
}

// envPaths are tried in order; the first existing file wins
var envPaths = []string{
	".env",
	".env.local",
	"../.env",
	"../../.env",
}

// LoadEnv loads the first .env file found and returns its path.
// A missing file is not an error since keys may be set system-wide.
func LoadEnv() (string, error) {
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return "", fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			return envPath, nil
		}
	}
	return "", nil
}

// GetAPIKeys retrieves and validates API keys from environment variables
func GetAPIKeys() (*APIKeys, error) {
	apiKeys := &APIKeys{
		OpenAI: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Gemini: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
	}

	if apiKeys.OpenAI != "" {
		if err := ValidateAPIKey(apiKeys.OpenAI, "OpenAI"); err != nil {
			return nil, fmt.Errorf("invalid OPENAI_API_KEY format: %w", err)
		}
	}
	if apiKeys.Gemini != "" {
		if err := ValidateAPIKey(apiKeys.Gemini, "Gemini"); err != nil {
			return nil, fmt.Errorf("invalid GEMINI_API_KEY format: %w", err)
		}
	}

	return apiKeys, nil
}

// Available lists the providers that have a key
func (k *APIKeys) Available() []string {
	var out []string
	if k.Gemini != "" {
		out = append(out, "gemini")
	}
	if k.OpenAI != "" {
		out = append(out, "openai")
	}
	return out
}

// KeyFor returns the key of a provider name
func (k *APIKeys) KeyFor(provider string) string {
	switch provider {
	case "gemini":
		return k.Gemini
	case "openai":
		return k.OpenAI
	}
	return ""
}

// RequireAPIKey fails fast when the named provider has no key
func RequireAPIKey(apiKeys *APIKeys, provider string) error {
	if apiKeys.KeyFor(provider) == "" {
		return fmt.Errorf("%s provider requires %s_API_KEY in environment or .env file", provider, strings.ToUpper(provider))
	}
	return nil
}

// InitializeConfig loads environment and validates API keys.
// It returns the .env path that was loaded, if any.
func InitializeConfig() (*APIKeys, string, error) {
	envPath, err := LoadEnv()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load environment: %w", err)
	}

	apiKeys, err := GetAPIKeys()
	if err != nil {
		return nil, envPath, fmt.Errorf("failed to get API keys: %w", err)
	}

	return apiKeys, envPath, nil
}
