package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFromFiles_Defaults(t *testing.T) {
	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "3m", config.Pipeline.ProducerTimeout)
	assert.Equal(t, 5, config.Pipeline.MaxConcurrency)
	assert.Equal(t, "gemini", config.Search.Mode)
	assert.Equal(t, LLMProviderGemini, config.LLM.DefaultProvider)
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	base := writeConfig(t, "base.toml", `
[pipeline]
producer_timeout = "90s"
max_concurrency = 2

[search]
mode = "disabled"
`)
	override := writeConfig(t, "override.toml", `
[pipeline]
max_concurrency = 8

[llm]
default_provider = "claude"
`)

	config, err := LoadFromFiles(base, "", override)
	require.NoError(t, err)

	assert.Equal(t, "90s", config.Pipeline.ProducerTimeout)
	assert.Equal(t, 8, config.Pipeline.MaxConcurrency)
	assert.Equal(t, "disabled", config.Search.Mode)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)
}

func TestLoadFromFiles_InvalidFile(t *testing.T) {
	bad := writeConfig(t, "bad.toml", "[pipeline\nmax_concurrency = ")

	_, err := LoadFromFiles(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file 1 of 1")

	_, err = LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadFromFiles_EnvOverridesFiles(t *testing.T) {
	path := writeConfig(t, "config.toml", "[search]\nmode = \"gemini\"\n")
	t.Setenv("MARKETLENS_SEARCH_MODE", "disabled")
	t.Setenv("MARKETLENS_MAX_CONCURRENCY", "3")
	t.Setenv("MARKETLENS_RESEARCH_YEAR", "not-a-year")
	t.Setenv("MARKETLENS_LOG_OUTPUT", " stdout , ")
	t.Setenv("MARKETLENS_LOG_DIR", "/tmp/marketlens-logs")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "disabled", config.Search.Mode)
	assert.Equal(t, 3, config.Pipeline.MaxConcurrency)
	assert.Equal(t, 0, config.Pipeline.ResearchYear)
	assert.Equal(t, []string{"stdout"}, config.Logging.Output)
	assert.Equal(t, "/tmp/marketlens-logs", config.Logging.Directory)
	assert.Equal(t, "marketlens.log", config.Logging.FileName)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, "debug", "")
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "gemini", config.Search.Mode)

	ApplyFlagOverrides(config, "", "disabled")
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "disabled", config.Search.Mode)
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("MARKETLENS_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("MARKETLENS_CLAUDE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	key, err := ResolveAPIKey("anthropic_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	key, err = ResolveAPIKey("gemini_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)

	_, err = ResolveAPIKey("gemini_api_key", "")
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, ParseDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
}
