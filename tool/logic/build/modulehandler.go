package build

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rmarken5/picked-posts/tool/logic/aws"
	"github.com/tdewolff/minify/v2/minify"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/picked-posts-info.js.tmpl
var moduleTemplateText string

var moduleTemplate = template.Must(template.New("picked-posts-info").Parse(moduleTemplateText))

var _ ModuleHandler = HandleModule{}

const ContentTypeJS = "text/javascript"

type (
	ModuleHandler interface {
		RenderModule(ctx context.Context, entries []Entry) ([]byte, error)
		ModulePath(listPath string) string
		WriteModule(ctx context.Context, listPath string, data []byte) (string, error)
		UploadModules(ctx context.Context, upload map[string][]byte) error
	}

	HandleModule struct {
		outputName string
		minify     bool
		awsClient  aws.S3Client
	}
)

func NewHandleModule(outputName string, minifyPayload bool, awsClient aws.S3Client) *HandleModule {
	return &HandleModule{
		outputName: outputName,
		minify:     minifyPayload,
		awsClient:  awsClient,
	}
}

func (h HandleModule) RenderModule(_ context.Context, entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		slog.Error("error encoding picked posts", "error", err)
		return nil, err
	}
	payload := strings.TrimSuffix(buf.String(), "\n")

	if h.minify {
		minified, err := minify.JSON(payload)
		if err != nil {
			slog.Error("error minifying picked posts", "error", err)
			return nil, err
		}
		payload = minified
	}

	out := &bytes.Buffer{}
	if err := moduleTemplate.Execute(out, payload); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (h HandleModule) ModulePath(listPath string) string {
	return filepath.Join(filepath.Dir(listPath), h.outputName)
}

// WriteModule replaces the module next to listPath. The content goes to a temp file first so a
// failed write never leaves half a module behind.
func (h HandleModule) WriteModule(ctx context.Context, listPath string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := h.ModulePath(listPath)
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+h.outputName+"-*")
	if err != nil {
		slog.Error("error creating module file", "path", target, "error", err)
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		slog.Error("error writing module file", "path", target, "error", err)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		slog.Error("error replacing module file", "path", target, "error", err)
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}

func (h HandleModule) UploadModules(ctx context.Context, upload map[string][]byte) error {
	errG, ctx := errgroup.WithContext(ctx)
	for k, data := range upload {
		errG.Go(func() error {
			return h.awsClient.WriteFileToBucket(ctx, k, ContentTypeJS, bytes.NewReader(data))
		})
	}
	return errG.Wait()
}
