// 配置加载器测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearAPIKeyEnv 屏蔽宿主机上可能存在的密钥变量
func clearAPIKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PODSTUDIO_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	clearAPIKeyEnv(t)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.TextModel)
	assert.Empty(t, cfg.Gemini.APIKey)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	clearAPIKeyEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s
  api_keys: ["k1", "k2"]
  jwt:
    enabled: true
    secret: "s3cret"

gemini:
  api_key: "yaml-key"
  text_model: "gemini-2.5-pro"
  timeout: 45s

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.True(t, cfg.Server.JWT.Enabled)
	assert.Equal(t, "s3cret", cfg.Server.JWT.Secret)

	assert.Equal(t, "yaml-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.TextModel)
	assert.Equal(t, 45*time.Second, cfg.Gemini.Timeout)
	// 未覆盖的字段保留默认值
	assert.Equal(t, "imagen-4.0-generate-001", cfg.Gemini.ImageGenModel)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	clearAPIKeyEnv(t)

	envVars := map[string]string{
		"PODSTUDIO_SERVER_HTTP_PORT":            "7777",
		"PODSTUDIO_SERVER_CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"PODSTUDIO_SERVER_MAX_BODY_BYTES":       "1048576",
		"PODSTUDIO_GEMINI_API_KEY":              "env-key",
		"PODSTUDIO_GEMINI_TIMEOUT":              "10s",
		"PODSTUDIO_TELEMETRY_SAMPLE_RATE":       "0.5",
		"PODSTUDIO_LOG_LEVEL":                   "warn",
	}
	for k, v := range envVars {
		t.Setenv(k, v)
	}

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, int64(1048576), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "env-key", cfg.Gemini.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Gemini.Timeout)
	assert.InDelta(t, 0.5, cfg.Telemetry.SampleRate, 1e-9)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	clearAPIKeyEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
gemini:
  api_key: "yaml-key"
  text_model: "yaml-model"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	t.Setenv("PODSTUDIO_SERVER_HTTP_PORT", "9999")
	t.Setenv("PODSTUDIO_GEMINI_API_KEY", "env-key")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "env-key", cfg.Gemini.APIKey)
	// YAML 值应该保留（没有被环境变量覆盖）
	assert.Equal(t, "yaml-model", cfg.Gemini.TextModel)
}

func TestLoader_FallbackAPIKeyEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected string
	}{
		{
			name:     "GEMINI_API_KEY",
			env:      map[string]string{"GEMINI_API_KEY": "g-key"},
			expected: "g-key",
		},
		{
			name:     "API_KEY",
			env:      map[string]string{"API_KEY": "plain-key"},
			expected: "plain-key",
		},
		{
			name:     "GEMINI_API_KEY wins over API_KEY",
			env:      map[string]string{"GEMINI_API_KEY": "g-key", "API_KEY": "plain-key"},
			expected: "g-key",
		},
		{
			name:     "prefixed key wins over fallbacks",
			env:      map[string]string{"PODSTUDIO_GEMINI_API_KEY": "prefixed", "API_KEY": "plain-key"},
			expected: "prefixed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearAPIKeyEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := NewLoader().Load()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.Gemini.APIKey)
		})
	}
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	clearAPIKeyEnv(t)
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "6666")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, 6666, cfg.Server.HTTPPort)
}

func TestLoader_WithValidator(t *testing.T) {
	clearAPIKeyEnv(t)
	t.Setenv("PODSTUDIO_SERVER_HTTP_PORT", "80")

	validator := func(cfg *Config) error {
		if cfg.Server.HTTPPort < 1024 {
			return assert.AnError
		}
		return nil
	}

	_, err := NewLoader().
		WithValidator(validator).
		Load()
	assert.Error(t, err)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	clearAPIKeyEnv(t)
	t.Setenv("PODSTUDIO_GEMINI_TIMEOUT", "soon")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestLoader_NonExistentFile(t *testing.T) {
	clearAPIKeyEnv(t)

	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/config.yaml").
		Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	clearAPIKeyEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
server:
  http_port: [invalid
  this is not valid yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	_, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing api key is not a config error",
			modify:  func(c *Config) { c.Gemini.APIKey = "" },
			wantErr: false,
		},
		{
			name:    "invalid HTTP port (negative)",
			modify:  func(c *Config) { c.Server.HTTPPort = -1 },
			wantErr: true,
		},
		{
			name:    "invalid HTTP port (too large)",
			modify:  func(c *Config) { c.Server.HTTPPort = 70000 },
			wantErr: true,
		},
		{
			name:    "metrics port collides with HTTP port",
			modify:  func(c *Config) { c.Server.MetricsPort = c.Server.HTTPPort },
			wantErr: true,
		},
		{
			name:    "zero body limit",
			modify:  func(c *Config) { c.Server.MaxBodyBytes = 0 },
			wantErr: true,
		},
		{
			name:    "zero rate limit",
			modify:  func(c *Config) { c.Server.RateLimitRPS = 0 },
			wantErr: true,
		},
		{
			name:    "jwt enabled without secret",
			modify:  func(c *Config) { c.Server.JWT.Enabled = true },
			wantErr: true,
		},
		{
			name:    "zero gemini timeout",
			modify:  func(c *Config) { c.Gemini.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name: "telemetry sample rate out of range",
			modify: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.SampleRate = 1.5
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoader_NestedEnvPrefix(t *testing.T) {
	clearAPIKeyEnv(t)
	t.Setenv("PODSTUDIO_SERVER_JWT_ENABLED", "true")
	t.Setenv("PODSTUDIO_SERVER_JWT_SECRET", "s3cret")
	t.Setenv("PODSTUDIO_SERVER_API_KEYS", "k1, k2")
	t.Setenv("PODSTUDIO_LOG_ENABLE_CALLER", "false")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.True(t, cfg.Server.JWT.Enabled)
	assert.Equal(t, "s3cret", cfg.Server.JWT.Secret)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.False(t, cfg.Log.EnableCaller)
}
