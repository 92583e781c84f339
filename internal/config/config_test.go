package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfig(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test-key")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DefaultLLMBaseURL, cfg.LLMBaseURL)
	assert.Equal(t, DefaultLLMModel, cfg.LLMModel)
	assert.Equal(t, DefaultDimension, cfg.VectorDimension)
	assert.Equal(t, DefaultTopK, cfg.VectorTopK)
	assert.Equal(t, DefaultNamespace, cfg.VectorNamespace)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_DISABLED", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY is required")
}

func TestLoad_DisabledScorerSkipsKeyCheck(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_DISABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.LLMDisabled)
}

func TestLoadOffline_NoScorerCredentialNeeded(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_DISABLED", "")
	t.Setenv("VECTOR_API_KEY", "pk-test")
	t.Setenv("VECTOR_HOST", "index.example.com")

	cfg, err := LoadOffline()
	require.NoError(t, err)
	assert.Equal(t, "pk-test", cfg.VectorAPIKey)
	assert.Equal(t, DefaultDimension, cfg.VectorDimension)
}

func TestLoadOffline_StillValidatesVectorSettings(t *testing.T) {
	t.Setenv("VECTOR_DIMENSION", "4")

	_, err := LoadOffline()
	assert.ErrorContains(t, err, "VECTOR_DIMENSION")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "valid config",
			config: Config{
				LLMAPIKey:       "sk-test",
				LLMMaxRetries:   3,
				VectorDimension: 768,
				VectorTopK:      5,
			},
			wantErr: "",
		},
		{
			name: "missing API key",
			config: Config{
				LLMMaxRetries:   3,
				VectorDimension: 768,
				VectorTopK:      5,
			},
			wantErr: "LLM_API_KEY is required",
		},
		{
			name: "disabled scorer without key",
			config: Config{
				LLMDisabled:     true,
				LLMMaxRetries:   3,
				VectorDimension: 768,
				VectorTopK:      5,
			},
			wantErr: "",
		},
		{
			name: "zero retries",
			config: Config{
				LLMAPIKey:       "sk-test",
				LLMMaxRetries:   0,
				VectorDimension: 768,
				VectorTopK:      5,
			},
			wantErr: "LLM_MAX_RETRIES",
		},
		{
			name: "tiny vector dimension",
			config: Config{
				LLMAPIKey:       "sk-test",
				LLMMaxRetries:   3,
				VectorDimension: 4,
				VectorTopK:      5,
			},
			wantErr: "VECTOR_DIMENSION",
		},
		{
			name: "zero top-k",
			config: Config{
				LLMAPIKey:       "sk-test",
				LLMMaxRetries:   3,
				VectorDimension: 768,
				VectorTopK:      0,
			},
			wantErr: "VECTOR_TOP_K",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "custom_value")

	assert.Equal(t, "custom_value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("NONEXISTENT_VAR", "default"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INVALID", "not_a_number")

	assert.Equal(t, 42, getEnvInt("TEST_INT", 0))
	assert.Equal(t, 99, getEnvInt("NONEXISTENT_VAR", 99))
	assert.Equal(t, 99, getEnvInt("TEST_INVALID", 99)) // Falls back on parse error
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BAD_BOOL", "yes-ish")

	assert.True(t, getEnvBool("TEST_BOOL", false))
	assert.False(t, getEnvBool("NONEXISTENT_VAR", false))
	assert.True(t, getEnvBool("TEST_BAD_BOOL", true)) // Falls back on parse error
}
