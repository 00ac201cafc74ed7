package build

import (
	"fmt"
	"log/slog"
	"math"
	"path"
	"strings"
	"time"

	"github.com/goodsign/monday"
)

const (
	isoDateLayout  = "2006-01-02T15:04:05.000Z07:00"
	pathDateLayout = "2006/01/02"

	imageURLSource = "image_url"
	imageURLTarget = "imageURL"
)

var postExtensions = []string{".md", ".mdx"}

type (
	Tag struct {
		Label     string `json:"label"`
		Permalink string `json:"permalink"`
	}

	// Entry is one generated record: the post's front matter with the derived fields on top.
	Entry map[string]any

	PostTransformer struct {
		excerpter Excerpter
	}
)

func NewPostTransformer(excerpter Excerpter) *PostTransformer {
	return &PostTransformer{excerpter: excerpter}
}

func (t PostTransformer) Transform(post Post) (Entry, error) {
	locale := DetectLocale(post.Path)
	settings := locales[locale]

	date, err := DateFromPath(post.Path)
	if err != nil {
		slog.Error("error reading date from post path", "path", post.Path, "error", err)
		return nil, err
	}

	permalink, err := Permalink(post.Path, settings.permalinkPrefix)
	if err != nil {
		slog.Error("error building permalink", "path", post.Path, "error", err)
		return nil, err
	}

	authors, err := NormalizeAuthors(post.FrontMatter["authors"])
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", post.Path, err)
	}

	tags, err := NormalizeTags(post.FrontMatter["tags"], settings.tagPrefix)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", post.Path, err)
	}

	summary := ""
	if t.excerpter != nil {
		summary = t.excerpter.Excerpt(post.Excerpt)
	}

	entry := make(Entry, len(post.FrontMatter)+6)
	for k, v := range post.FrontMatter {
		entry[k] = v
	}
	entry["authors"] = authors
	entry["tags"] = tags
	entry["summary"] = summary
	entry["permalink"] = permalink
	entry["date"] = date.Format(isoDateLayout)
	entry["formattedDate"] = monday.Format(date, settings.dateLayout, settings.dateLocale)

	return entry, nil
}

// DateFromPath finds the first year/month/day run of path segments and returns that day at
// midnight UTC.
func DateFromPath(p string) (time.Time, error) {
	segments := strings.Split(p, "/")
	for i := 0; i+2 < len(segments); i++ {
		y, m, d := segments[i], segments[i+1], segments[i+2]
		if !isDigits(y, 4) || !isDigits(m, 2) || !isDigits(d, 2) {
			continue
		}
		date, err := time.Parse(pathDateLayout, y+"/"+m+"/"+d)
		if err != nil {
			continue
		}
		return date, nil
	}
	return time.Time{}, fmt.Errorf("no yyyy/mm/dd segment in %s: %w", p, ErrUnrecognizedPathLayout)
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Permalink cuts prefix and the markdown extension from p.
func Permalink(p, prefix string) (string, error) {
	if !strings.HasPrefix(p, prefix+"/") {
		return "", fmt.Errorf("%s does not start with %s/: %w", p, prefix, ErrUnrecognizedPathLayout)
	}
	ext := path.Ext(p)
	known := false
	for _, e := range postExtensions {
		if ext == e {
			known = true
			break
		}
	}
	if !known {
		return "", fmt.Errorf("%s is not a markdown file: %w", p, ErrUnrecognizedPathLayout)
	}
	return strings.TrimSuffix(strings.TrimPrefix(p, prefix), ext), nil
}

// NormalizeAuthors returns a new author list where image_url is renamed to imageURL. The input
// records are left untouched.
func NormalizeAuthors(raw any) ([]any, error) {
	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case []map[string]any:
		list = make([]any, 0, len(v))
		for _, a := range v {
			list = append(list, a)
		}
	case nil:
		return nil, fmt.Errorf("authors missing: %w", ErrMalformedFrontMatter)
	default:
		return nil, fmt.Errorf("authors must be a list, got %T: %w", raw, ErrMalformedFrontMatter)
	}

	authors := make([]any, 0, len(list))
	for _, a := range list {
		authors = append(authors, normalizeAuthor(a))
	}
	return authors, nil
}

func normalizeAuthor(a any) any {
	record, ok := a.(map[string]any)
	if !ok {
		return a
	}
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}
	if v, ok := out[imageURLSource]; ok && !isEmptyValue(v) {
		out[imageURLTarget] = v
		delete(out, imageURLSource)
	}
	return out
}

func isEmptyValue(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return s == ""
	case bool:
		return !s
	case int:
		return s == 0
	case int64:
		return s == 0
	case uint64:
		return s == 0
	case float64:
		return s == 0 || math.IsNaN(s)
	}
	return false
}

func NormalizeTags(raw any, prefix string) ([]Tag, error) {
	var list []any
	switch v := raw.(type) {
	case nil:
		return []Tag{}, nil
	case []any:
		list = v
	case []string:
		list = make([]any, 0, len(v))
		for _, s := range v {
			list = append(list, s)
		}
	default:
		return nil, fmt.Errorf("tags must be a list, got %T: %w", raw, ErrMalformedFrontMatter)
	}

	tags := make([]Tag, 0, len(list))
	for _, item := range list {
		var label string
		switch v := item.(type) {
		case string:
			label = v
		case int, int64, uint64, float64, bool:
			label = fmt.Sprint(v)
		default:
			return nil, fmt.Errorf("tag %v is not a label: %w", item, ErrMalformedFrontMatter)
		}
		tags = append(tags, Tag{Label: label, Permalink: prefix + label})
	}
	return tags, nil
}
