package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `lists:
  - locale: en-US
    list_path: blog/en/config/picked-posts.json
    content_root: .
  - locale: zh-CN
    list_path: blog/zh/config/picked-posts.json
excerpt_engine: goldmark
minify: true
post_concurrency: 4
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "picked-posts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Lists, 2)
	assert.Equal(t, "../blog/en/config/picked-posts.json", cfg.Lists[0].ListPath)
	assert.Equal(t, "../blog/zh/config/picked-posts.json", cfg.Lists[1].ListPath)
	assert.Equal(t, defaultOutputName, cfg.OutputName)
}

func TestLoadConfig(t *testing.T) {
	t.Run("should load yaml config with defaults", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, testConfigYAML))
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, []ListConfig{
			{Locale: LocaleEnUS, ListPath: "blog/en/config/picked-posts.json", ContentRoot: "."},
			{Locale: LocaleZhCN, ListPath: "blog/zh/config/picked-posts.json", ContentRoot: "."},
		}, cfg.Lists)
		assert.Equal(t, defaultOutputName, cfg.OutputName)
		assert.Equal(t, ExcerptEngineGoldmark, cfg.ExcerptEngine)
		assert.True(t, cfg.Minify)
		assert.Equal(t, 4, cfg.PostConcurrency)
	})
	t.Run("should fail on missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("should fail on invalid yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "lists: [unclosed"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "no lists", mutate: func(c *Config) { c.Lists = nil }},
		{name: "unknown locale", mutate: func(c *Config) { c.Lists[0].Locale = "fr-FR" }},
		{name: "empty list path", mutate: func(c *Config) { c.Lists[1].ListPath = "" }},
		{name: "unknown excerpt engine", mutate: func(c *Config) { c.ExcerptEngine = "remark" }},
		{name: "negative concurrency", mutate: func(c *Config) { c.PostConcurrency = -1 }},
		{name: "empty output name", mutate: func(c *Config) { c.OutputName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
