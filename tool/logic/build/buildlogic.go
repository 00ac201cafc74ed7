package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/rmarken5/picked-posts/tool/logic/aws"
	"golang.org/x/sync/errgroup"
)

var _ PicksBuilder = BuildPicks{}

type (
	PicksBuilder interface {
		BuildPicks(ctx context.Context, lists []ListConfig) error
	}

	BuildPicks struct {
		listHandler     ListHandler
		markdownHandler MarkdownHandler
		moduleHandler   ModuleHandler
		transformer     *PostTransformer
		s3Client        aws.S3Client
		keyPrefix       string
		postConcurrency int
	}

	builtModule struct {
		list ListConfig
		path string
		data []byte
	}
)

func NewPicksBuilder(listHandler ListHandler, markdownHandler MarkdownHandler, moduleHandler ModuleHandler, transformer *PostTransformer, s3Client aws.S3Client, keyPrefix string, postConcurrency int) *BuildPicks {
	return &BuildPicks{
		listHandler:     listHandler,
		markdownHandler: markdownHandler,
		moduleHandler:   moduleHandler,
		transformer:     transformer,
		s3Client:        s3Client,
		keyPrefix:       keyPrefix,
		postConcurrency: postConcurrency,
	}
}

// NewFromConfig wires the file system handlers for cfg.
func NewFromConfig(cfg Config, s3Client aws.S3Client, keyPrefix string) (*BuildPicks, error) {
	excerpter, err := NewExcerpter(cfg.ExcerptEngine)
	if err != nil {
		return nil, err
	}
	if s3Client == nil {
		s3Client = aws.NoOp{}
	}
	return NewPicksBuilder(
		NewHandleList(),
		NewHandleMarkdown(),
		NewHandleModule(cfg.OutputName, cfg.Minify, s3Client),
		NewPostTransformer(excerpter),
		s3Client,
		keyPrefix,
		cfg.PostConcurrency,
	), nil
}

// BuildPicks checks every list exists, then generates one module per list. Lists are
// independent: a failing list does not stop the others, and every failure is in the returned
// error.
func (b BuildPicks) BuildPicks(ctx context.Context, lists []ListConfig) error {
	slog.Info("check picked blog config files exist", "lists", len(lists))
	if err := b.listHandler.ValidateLists(ctx, lists); err != nil {
		slog.Error("picked blog config files are missing", "error", err)
		return err
	}

	slog.Info("generate picked blog info files")
	errs := make([]error, len(lists))
	modules := make([]*builtModule, len(lists))

	var errG errgroup.Group
	errG.SetLimit(max(len(lists), 1))
	for i, l := range lists {
		errG.Go(func() error {
			slog.Info("picking from list", "list", l.ListPath, "locale", l.Locale)
			m, err := b.buildList(ctx, l)
			if err != nil {
				slog.Error("error generating picked posts", "list", l.ListPath, "error", err)
				errs[i] = fmt.Errorf("picking from %s: %w", l.ListPath, err)
				return nil
			}
			modules[i] = m
			return nil
		})
	}
	_ = errG.Wait()

	if err := b.publish(ctx, modules); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (b BuildPicks) buildList(ctx context.Context, l ListConfig) (*builtModule, error) {
	paths, err := b.listHandler.ReadPickList(ctx, l.ListPath)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(paths))
	errG, gctx := errgroup.WithContext(ctx)
	if b.postConcurrency > 0 {
		errG.SetLimit(b.postConcurrency)
	}
	for i, p := range paths {
		errG.Go(func() error {
			entry, err := b.buildEntry(gctx, l, p)
			if err != nil {
				return err
			}
			// results are stored by list position, not completion order
			entries[i] = entry
			return nil
		})
	}
	if err := errG.Wait(); err != nil {
		return nil, err
	}

	data, err := b.moduleHandler.RenderModule(ctx, entries)
	if err != nil {
		return nil, err
	}
	modulePath, err := b.moduleHandler.WriteModule(ctx, l.ListPath, data)
	if err != nil {
		return nil, err
	}
	slog.Info("wrote picked posts module", "path", modulePath, "posts", len(entries))

	return &builtModule{list: l, path: modulePath, data: data}, nil
}

func (b BuildPicks) buildEntry(ctx context.Context, l ListConfig, postPath string) (Entry, error) {
	content, err := b.markdownHandler.ReadPost(ctx, l.ContentRoot, postPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", postPath, err)
	}
	post, err := b.markdownHandler.ParsePost(ctx, postPath, content)
	if err != nil {
		return nil, err
	}
	if locale := DetectLocale(postPath); locale != l.Locale {
		slog.Warn("post locale differs from list locale", "post", postPath, "postLocale", locale, "listLocale", l.Locale)
	}
	return b.transformer.Transform(post)
}

// publish uploads the modules whose content differs from the bucket copy.
func (b BuildPicks) publish(ctx context.Context, modules []*builtModule) error {
	if b.s3Client == nil {
		return nil
	}
	upload := make(map[string][]byte)
	built := 0
	for _, m := range modules {
		if m != nil {
			built++
		}
	}
	if built == 0 {
		return nil
	}

	rHashes, err := b.s3Client.GetBucketHashes(ctx, b.keyPrefix)
	if err != nil {
		slog.Error("error calculating hash from s3", "error", err)
		return err
	}

	for _, m := range modules {
		if m == nil {
			continue
		}
		key := b.moduleKey(m)
		hash, err := aws.CalcMD5(bytes.NewReader(m.data))
		if err != nil {
			slog.Error("error calculating hash for module", "path", m.path, "error", err)
			return err
		}
		if shouldUpload(rHashes, key, hash) {
			slog.Info("No matching hash, writing module to s3", "key", key)
			upload[key] = m.data
		}
	}
	if len(upload) == 0 {
		return nil
	}
	return b.moduleHandler.UploadModules(ctx, upload)
}

func (b BuildPicks) moduleKey(m *builtModule) string {
	return path.Join(b.keyPrefix, m.list.Locale, filepath.Base(m.path))
}

func shouldUpload(rHashes map[string]string, lKey, lHash string) bool {
	if rHash, ok := rHashes[lKey]; !ok || lHash != rHash {
		return true
	}
	return false
}
