package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	sitepdf "github.com/alnah/go-sitepdf"
)

// fakePlugin records the pages it receives and links each one.
type fakePlugin struct {
	mu      sync.Mutex
	seen    []sitepdf.Page
	fail    map[string]error
	built   int
	closed  int
	buildFn func(context.Context) error
}

func (f *fakePlugin) OnPostPage(_ context.Context, page sitepdf.Page) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, page)
	if err := f.fail[page.SrcPath]; err != nil {
		return "", &sitepdf.PageError{Src: page.SrcPath, Err: err}
	}
	return strings.Replace(page.HTML, "</head>", `<link rel="alternate" href="page.pdf"></head>`, 1), nil
}

func (f *fakePlugin) OnPostBuild(ctx context.Context) error {
	f.mu.Lock()
	f.built++
	f.mu.Unlock()
	if f.buildFn != nil {
		return f.buildFn(ctx)
	}
	return nil
}

func (f *fakePlugin) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakePlugin) dests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.seen))
	for _, p := range f.seen {
		out = append(out, p.DestPath)
	}
	return out
}

func (f *fakePlugin) sources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.seen))
	for _, p := range f.seen {
		out = append(out, p.SrcPath)
	}
	sort.Strings(out)
	return out
}

const pageHTML = "<html><head><title>t</title></head><body><h1>T</h1></body></html>"

// makeSite lays out a docs tree and its built site under a temp dir.
func makeSite(t *testing.T) (docsDir, siteDir string) {
	t.Helper()
	root := t.TempDir()
	docsDir = filepath.Join(root, "docs")
	siteDir = filepath.Join(root, "site")

	files := map[string]string{
		"docs/index.md":            "# Home\n",
		"docs/guide.md":            "---\ntitle: Guide\npdf:\n  type: Manual\n---\n# Guide\n",
		"docs/api/ref.markdown":    "# Reference\n",
		"docs/draft.md":            "# Draft, never built\n",
		"docs/.hidden/secret.md":   "# Hidden\n",
		"docs/img/logo.png":        "png",
		"site/index.html":          pageHTML,
		"site/guide/index.html":    pageHTML,
		"site/api/ref/index.html":  pageHTML,
		"site/.hidden/secret.html": pageHTML,
	}
	for name, content := range files {
		writeFile(t, filepath.Join(root, filepath.FromSlash(name)), content)
	}
	return docsDir, siteDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
