package build

import (
	"fmt"
	"log/slog"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	LocaleEnUS = "en-US"
	LocaleZhCN = "zh-CN"

	ExcerptEngineGoMarkdown = "gomarkdown"
	ExcerptEngineGoldmark   = "goldmark"

	defaultOutputName = "picked-posts-info.js"
)

type (
	// ListConfig names one pick list. Post paths inside the list are relative to ContentRoot.
	ListConfig struct {
		Locale      string `yaml:"locale"`
		ListPath    string `yaml:"list_path"`
		ContentRoot string `yaml:"content_root"`
	}

	Config struct {
		Lists           []ListConfig `yaml:"lists"`
		OutputName      string       `yaml:"output_name"`
		ExcerptEngine   string       `yaml:"excerpt_engine"`
		Minify          bool         `yaml:"minify"`
		PostConcurrency int          `yaml:"post_concurrency"`
	}
)

// DefaultConfig returns the two locale lists the blog has always been built from.
func DefaultConfig() Config {
	return Config{
		Lists: []ListConfig{
			{Locale: LocaleEnUS, ListPath: "../blog/en/config/picked-posts.json", ContentRoot: ".."},
			{Locale: LocaleZhCN, ListPath: "../blog/zh/config/picked-posts.json", ContentRoot: ".."},
		},
		OutputName:    defaultOutputName,
		ExcerptEngine: ExcerptEngineGoMarkdown,
	}
}

// LoadConfig reads a yaml config file. Fields left empty fall back to DefaultConfig values,
// except Lists which must be given.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("error reading config file", "path", path, "error", err)
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		slog.Error("error parsing config file", "path", path, "error", err)
		return Config{}, fmt.Errorf("parse config %s: %w - %w", path, err, ErrInvalidConfig)
	}
	cfg.setDefaults()

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.OutputName == "" {
		c.OutputName = defaultOutputName
	}
	if c.ExcerptEngine == "" {
		c.ExcerptEngine = ExcerptEngineGoMarkdown
	}
	for i := range c.Lists {
		if c.Lists[i].ContentRoot == "" {
			c.Lists[i].ContentRoot = "."
		}
	}
}

func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Lists, validation.Required),
		validation.Field(&c.OutputName, validation.Required),
		validation.Field(&c.ExcerptEngine, validation.Required, validation.In(ExcerptEngineGoMarkdown, ExcerptEngineGoldmark)),
		validation.Field(&c.PostConcurrency, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (l ListConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Locale, validation.Required, validation.In(LocaleEnUS, LocaleZhCN)),
		validation.Field(&l.ListPath, validation.Required),
		validation.Field(&l.ContentRoot, validation.Required),
	)
}
