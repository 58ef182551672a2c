package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAPIKeys(t *testing.T) {
	testCases := []struct {
		name          string
		openaiKey     string
		geminiKey     string
		expectError   bool
		errorContains string
	}{
		{
			name:      "valid OpenAI key",
			openaiKey: "sk-1234567890abcdef1234567890abcdef",
		},
		{
			name:      "valid Gemini key",
			geminiKey: "AIzaTest-1234567890abcdef1234567890",
		},
		{
			name:      "both valid keys",
			openaiKey: "sk-1234567890abcdef1234567890abcdef",
			geminiKey: "AIzaTest-1234567890abcdef1234567890",
		},
		{
			name:          "invalid OpenAI key format",
			openaiKey:     "invalid-key",
			expectError:   true,
			errorContains: "invalid OPENAI_API_KEY format",
		},
		{
			name:          "OpenAI key too short",
			openaiKey:     "sk-short",
			expectError:   true,
			errorContains: "too short",
		},
		{
			name:          "invalid Gemini key format",
			geminiKey:     "invalid-key",
			expectError:   true,
			errorContains: "invalid GEMINI_API_KEY format",
		},
		{
			name:          "Gemini key too short",
			geminiKey:     "AIza-short",
			expectError:   true,
			errorContains: "too short",
		},
		{
			name: "empty keys are allowed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", tc.openaiKey)
			t.Setenv("GEMINI_API_KEY", tc.geminiKey)

			apiKeys, err := GetAPIKeys()

			if tc.expectError {
				assert.Error(t, err)
				if tc.errorContains != "" {
					assert.Contains(t, err.Error(), tc.errorContains)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.openaiKey, apiKeys.OpenAI)
				assert.Equal(t, tc.geminiKey, apiKeys.Gemini)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	keys := &APIKeys{Gemini: "AIzaTest-1234567890abcdef1234567890"}

	assert.NoError(t, RequireAPIKey(keys, "gemini"))
	err := RequireAPIKey(keys, "openai")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Equal(t, []string{"gemini"}, keys.Available())
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("VQA_TEST_ONLY=loaded\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("VQA_TEST_ONLY")
	})

	path, err := LoadEnv()

	require.NoError(t, err)
	assert.Equal(t, ".env", path)
	assert.Equal(t, "loaded", os.Getenv("VQA_TEST_ONLY"))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateTimeout(time.Second, "server"))
	assert.Error(t, ValidateTimeout(0, "server"))
	assert.Error(t, ValidateTimeout(time.Hour, "server"))
	assert.NoError(t, ValidateConcurrency(4, "search"))
	assert.Error(t, ValidateConcurrency(101, "search"))
	assert.NoError(t, ValidateRetries(0, "embedder"))
	assert.Error(t, ValidateRetries(-1, "embedder"))
	assert.Error(t, ValidateRetryDelay(61000, "embedder"))
	assert.NoError(t, ValidatePort(8080, "server"))
	assert.Error(t, ValidatePort(70000, "server"))
	assert.NoError(t, ValidateRatio(0.6, "breaker"))
	assert.Error(t, ValidateRatio(0, "breaker"))
}
