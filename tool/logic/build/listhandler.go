package build

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const pickListSchemaJSON = `{
  "type": "array",
  "items": {"type": "string", "minLength": 1}
}`

var pickListSchema = jsonschema.MustCompileString("picked-posts.schema.json", pickListSchemaJSON)

var _ ListHandler = HandleList{}

type (
	ListHandler interface {
		ValidateLists(ctx context.Context, lists []ListConfig) error
		ReadPickList(ctx context.Context, path string) ([]string, error)
	}

	HandleList struct {
	}
)

func NewHandleList() *HandleList {
	return &HandleList{}
}

// ValidateLists checks that every list path is a regular file and reports every one that is not.
func (h HandleList) ValidateLists(ctx context.Context, lists []ListConfig) error {
	var errs []error
	for _, l := range lists {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := os.Stat(l.ListPath)
		if err != nil {
			slog.Error("error checking picked posts list", "path", l.ListPath, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w - %w", l.ListPath, err, ErrListNotFile))
			continue
		}
		if !info.Mode().IsRegular() {
			slog.Error("picked posts list is not a file", "path", l.ListPath)
			errs = append(errs, fmt.Errorf("%s is not a file: %w", l.ListPath, ErrListNotFile))
		}
	}
	return errors.Join(errs...)
}

func (h HandleList) ReadPickList(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("error reading picked posts list", "path", path, "error", err)
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Error("error parsing picked posts list", "path", path, "error", err)
		return nil, fmt.Errorf("parse %s: %w - %w", path, err, ErrInvalidPickList)
	}
	if err := pickListSchema.Validate(raw); err != nil {
		slog.Error("picked posts list does not match schema", "path", path, "error", err)
		return nil, fmt.Errorf("validate %s: %w - %w", path, err, ErrInvalidPickList)
	}

	items := raw.([]any)
	paths := make([]string, 0, len(items))
	for _, item := range items {
		paths = append(paths, item.(string))
	}
	return paths, nil
}
