package build

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

const (
	yamlBrace      = "---"
	tomlBrace      = "+++"
	truncateMarker = "<!--truncate-->"
)

var _ MarkdownHandler = HandleMarkdown{}

// yaml.v3 decodes nested mappings as map[string]any, which keeps author records json encodable.
var frontMatterFormats = []*frontmatter.Format{
	frontmatter.NewFormat(yamlBrace, yamlBrace, yaml.Unmarshal),
	frontmatter.NewFormat(tomlBrace, tomlBrace, toml.Unmarshal),
}

type (
	Post struct {
		Path        string
		FrontMatter map[string]any
		Body        []byte
		// Excerpt is the part of Body before the truncate marker, empty when there is no marker.
		Excerpt []byte
	}

	MarkdownHandler interface {
		ReadPost(ctx context.Context, contentRoot, path string) ([]byte, error)
		ParsePost(ctx context.Context, path string, content []byte) (Post, error)
	}

	HandleMarkdown struct {
	}
)

func NewHandleMarkdown() *HandleMarkdown {
	return &HandleMarkdown{}
}

func (m HandleMarkdown) ReadPost(ctx context.Context, contentRoot, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath := filepath.Join(contentRoot, filepath.FromSlash(path))
	content, err := os.ReadFile(fullPath)
	if err != nil {
		slog.Error("error reading post", "path", fullPath, "error", err)
		return nil, err
	}
	return content, nil
}

func (m HandleMarkdown) ParsePost(_ context.Context, path string, content []byte) (Post, error) {
	matter := make(map[string]any)
	body, err := frontmatter.Parse(bytes.NewReader(content), &matter, frontMatterFormats...)
	if err != nil {
		slog.Error("error parsing front matter", "path", path, "error", err)
		return Post{}, fmt.Errorf("parse front matter %s: %w - %w", path, err, ErrMalformedFrontMatter)
	}
	if matter == nil {
		matter = make(map[string]any)
	}

	return Post{
		Path:        path,
		FrontMatter: matter,
		Body:        body,
		Excerpt:     excerptRegion(body),
	}, nil
}

func excerptRegion(body []byte) []byte {
	idx := bytes.Index(body, []byte(truncateMarker))
	if idx == -1 {
		return nil
	}
	return body[:idx]
}
