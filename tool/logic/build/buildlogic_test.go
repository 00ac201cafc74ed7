package build

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rmarken5/picked-posts/tool/logic/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// delayedMarkdown makes earlier posts finish last.
type delayedMarkdown struct {
	HandleMarkdown
	delays map[string]time.Duration
}

func (d delayedMarkdown) ReadPost(ctx context.Context, contentRoot, path string) ([]byte, error) {
	select {
	case <-time.After(d.delays[path]):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return d.HandleMarkdown.ReadPost(ctx, contentRoot, path)
}

func copyTestFiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.CopyFS(dir, os.DirFS("test-files")))
	return dir
}

func testLists(root string) []ListConfig {
	return []ListConfig{
		{Locale: LocaleEnUS, ListPath: filepath.Join(root, "blog/en/config/picked-posts.json"), ContentRoot: root},
		{Locale: LocaleZhCN, ListPath: filepath.Join(root, "blog/zh/config/picked-posts.json"), ContentRoot: root},
	}
}

func newTestBuilder(t *testing.T, markdown MarkdownHandler, s3 aws.S3Client) *BuildPicks {
	t.Helper()
	return NewPicksBuilder(
		NewHandleList(),
		markdown,
		NewHandleModule(defaultOutputName, false, s3),
		NewPostTransformer(GoMarkdownExcerpter{}),
		s3,
		"picked-posts",
		0,
	)
}

func readModule(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	s := string(data)
	require.True(t, strings.HasPrefix(s, moduleHeader+"const config = "))
	require.True(t, strings.HasSuffix(s, ";\nmodule.exports = config;"))
	s = strings.TrimPrefix(s, moduleHeader+"const config = ")
	s = strings.TrimSuffix(s, ";\nmodule.exports = config;")

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &entries))
	return entries
}

func TestBuildPicks_BuildPicks(t *testing.T) {
	ctx := context.Background()

	t.Run("should generate one module per list", func(t *testing.T) {
		root := copyTestFiles(t)
		err := newTestBuilder(t, HandleMarkdown{}, aws.NoOp{}).BuildPicks(ctx, testLists(root))
		require.NoError(t, err)

		en := readModule(t, filepath.Join(root, "blog/en/config", defaultOutputName))
		require.Len(t, en, 3)
		first := en[0]
		assert.Equal(t, "Example Post", first["title"])
		assert.Equal(t, "example", first["slug"])
		assert.Equal(t, "/blog/2022/07/30/example", first["permalink"])
		assert.Equal(t, "2022-07-30T00:00:00.000Z", first["date"])
		assert.Equal(t, "Jul 30, 2022", first["formattedDate"])
		assert.Equal(t, "Hello world, this is inline code and a link.", first["summary"])
		assert.Equal(t, []any{
			map[string]any{"label": "release", "permalink": "/blog/tags/release"},
			map[string]any{"label": "go", "permalink": "/blog/tags/go"},
		}, first["tags"])
		authors := first["authors"].([]any)
		assert.Equal(t, "https://github.com/jane.png", authors[0].(map[string]any)["imageURL"])
		assert.NotContains(t, authors[0], "image_url")
		assert.Equal(t, map[string]any{"name": "John Roe"}, authors[1])

		second := en[1]
		assert.Equal(t, "", second["summary"])
		assert.Equal(t, []any{}, second["tags"])
		assert.Equal(t, "Jan 05, 2021", second["formattedDate"])

		zh := readModule(t, filepath.Join(root, "blog/zh/config", defaultOutputName))
		require.Len(t, zh, 1)
		assert.Equal(t, "/zh/blog/2022/07/30/example", zh[0]["permalink"])
		assert.Equal(t, "2022年07月30日", zh[0]["formattedDate"])
		assert.Equal(t, "你好，世界。", zh[0]["summary"])
	})

	t.Run("should keep list order when reads finish out of order", func(t *testing.T) {
		root := copyTestFiles(t)
		markdown := delayedMarkdown{delays: map[string]time.Duration{
			"blog/en/blog/2022/07/30/example.md": 150 * time.Millisecond,
			"blog/en/blog/2021/01/05/second.md":  75 * time.Millisecond,
			"blog/en/blog/2020/03/15/third.md":   0,
		}}
		err := newTestBuilder(t, markdown, aws.NoOp{}).BuildPicks(ctx, testLists(root)[:1])
		require.NoError(t, err)

		en := readModule(t, filepath.Join(root, "blog/en/config", defaultOutputName))
		require.Len(t, en, 3)
		assert.Equal(t, "/blog/2022/07/30/example", en[0]["permalink"])
		assert.Equal(t, "/blog/2021/01/05/second", en[1]["permalink"])
		assert.Equal(t, "/blog/2020/03/15/third", en[2]["permalink"])
	})

	t.Run("should not generate anything when a list is missing", func(t *testing.T) {
		root := copyTestFiles(t)
		lists := testLists(root)
		require.NoError(t, os.Remove(lists[1].ListPath))

		err := newTestBuilder(t, HandleMarkdown{}, aws.NoOp{}).BuildPicks(ctx, lists)
		assert.ErrorIs(t, err, ErrListNotFile)

		assert.NoFileExists(t, filepath.Join(root, "blog/en/config", defaultOutputName))
		assert.NoFileExists(t, filepath.Join(root, "blog/zh/config", defaultOutputName))
	})

	t.Run("should report failing list and still write the other", func(t *testing.T) {
		root := copyTestFiles(t)
		lists := testLists(root)
		noAuthors := "blog/en/blog/2023/01/01/no-authors.md"
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.Dir(noAuthors)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, noAuthors), readTestFile(t, "posts/no-authors.md"), 0o644))
		require.NoError(t, os.WriteFile(lists[0].ListPath, []byte(`["`+noAuthors+`"]`), 0o644))

		err := newTestBuilder(t, HandleMarkdown{}, aws.NoOp{}).BuildPicks(ctx, lists)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedFrontMatter)
		assert.Contains(t, err.Error(), lists[0].ListPath)

		assert.NoFileExists(t, filepath.Join(root, "blog/en/config", defaultOutputName))
		assert.FileExists(t, filepath.Join(root, "blog/zh/config", defaultOutputName))
	})

	t.Run("should report every failing list", func(t *testing.T) {
		root := copyTestFiles(t)
		lists := testLists(root)
		require.NoError(t, os.WriteFile(lists[0].ListPath, []byte(`{"not": "a list"}`), 0o644))
		require.NoError(t, os.WriteFile(lists[1].ListPath, []byte(`["blog/zh/blog/2022/07/30/missing.md"]`), 0o644))

		err := newTestBuilder(t, HandleMarkdown{}, aws.NoOp{}).BuildPicks(ctx, lists)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPickList)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Contains(t, err.Error(), lists[0].ListPath)
		assert.Contains(t, err.Error(), lists[1].ListPath)
	})

	t.Run("should upload only changed modules", func(t *testing.T) {
		root := copyTestFiles(t)
		lists := testLists(root)

		// first run learns the module content
		first := &fakeS3{hashes: map[string]string{}}
		require.NoError(t, newTestBuilder(t, HandleMarkdown{}, first).BuildPicks(ctx, lists))
		require.Len(t, first.written, 2)

		zhData, err := os.ReadFile(filepath.Join(root, "blog/zh/config", defaultOutputName))
		require.NoError(t, err)
		zhHash, err := aws.CalcMD5(strings.NewReader(string(zhData)))
		require.NoError(t, err)

		second := &fakeS3{hashes: map[string]string{
			"picked-posts/zh-CN/picked-posts-info.js": zhHash,
			"picked-posts/en-US/picked-posts-info.js": "stale",
		}}
		require.NoError(t, newTestBuilder(t, HandleMarkdown{}, second).BuildPicks(ctx, lists))
		assert.Len(t, second.written, 1)
		assert.Contains(t, second.written, "picked-posts/en-US/picked-posts-info.js")
	})
}

func TestShouldUpload(t *testing.T) {
	hashes := map[string]string{"a": "1"}
	assert.False(t, shouldUpload(hashes, "a", "1"))
	assert.True(t, shouldUpload(hashes, "a", "2"))
	assert.True(t, shouldUpload(hashes, "b", "1"))
}

func TestNewFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExcerptEngine = ExcerptEngineGoldmark
	b, err := NewFromConfig(cfg, nil, "")
	require.NoError(t, err)
	assert.IsType(t, aws.NoOp{}, b.s3Client)

	cfg.ExcerptEngine = "remark"
	_, err = NewFromConfig(cfg, nil, "")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
