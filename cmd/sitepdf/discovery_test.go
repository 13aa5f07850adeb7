package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	sitepdf "github.com/alnah/go-sitepdf"
)

// ---------------------------------------------------------------------------
// TestHTMLRelPath - Directory URL mapping
// ---------------------------------------------------------------------------

func TestHTMLRelPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{"index.md", "index.html"},
		{"README.md", "index.html"},
		{"guide.md", "guide/index.html"},
		{"a/b.md", "a/b/index.html"},
		{"a/index.md", "a/index.html"},
		{"a/b/c.markdown", "a/b/c/index.html"},
		{"release.notes.md", "release.notes/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			if got := htmlRelPath(tt.src); got != tt.want {
				t.Errorf("htmlRelPath(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDiscoverPages
// ---------------------------------------------------------------------------

func TestDiscoverPages(t *testing.T) {
	t.Parallel()

	docsDir, siteDir := makeSite(t)

	pages, missing, err := discoverPages(docsDir, siteDir)
	if err != nil {
		t.Fatalf("discoverPages() error: %v", err)
	}

	var srcs []string
	for _, p := range pages {
		srcs = append(srcs, p.SrcPath)
	}
	// WalkDir visits entries in lexical order.
	wantSrcs := []string{"api/ref.markdown", "guide.md", "index.md"}
	if !reflect.DeepEqual(srcs, wantSrcs) {
		t.Errorf("pages = %v, want %v", srcs, wantSrcs)
	}
	if !reflect.DeepEqual(missing, []string{"draft.md"}) {
		t.Errorf("missing = %v, want [draft.md]", missing)
	}
	if want := filepath.Join(siteDir, "guide", "index.html"); pages[1].HTMLPath != want {
		t.Errorf("HTMLPath = %q, want %q", pages[1].HTMLPath, want)
	}
}

func TestDiscoverPages_Errors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	writeFile(t, file, "x")
	empty := filepath.Join(root, "empty")
	if err := os.Mkdir(empty, 0o750); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		docs    string
		site    string
		wantErr error
	}{
		{"docs missing", filepath.Join(root, "nope"), root, os.ErrNotExist},
		{"site is a file", root, file, ErrNotDir},
		{"nothing built", empty, empty, ErrNoPages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := discoverPages(tt.docs, tt.site)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("discoverPages() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestReadPage
// ---------------------------------------------------------------------------

func TestReadPage(t *testing.T) {
	t.Parallel()

	docsDir, siteDir := makeSite(t)
	sp := sourcePage{
		SrcPath:  "guide.md",
		MDPath:   filepath.Join(docsDir, "guide.md"),
		HTMLPath: filepath.Join(siteDir, "guide", "index.html"),
	}

	page, err := readPage(sp)
	if err != nil {
		t.Fatalf("readPage() error: %v", err)
	}
	if page.HTML != pageHTML {
		t.Errorf("HTML = %q", page.HTML)
	}
	if !filepath.IsAbs(page.DestPath) {
		t.Errorf("DestPath should be absolute, got %q", page.DestPath)
	}
	if page.Meta["title"] != "Guide" {
		t.Errorf("Meta[title] = %v", page.Meta["title"])
	}
	pdf, ok := page.Meta["pdf"].(map[string]any)
	if !ok || pdf["type"] != "Manual" {
		t.Errorf("Meta[pdf] = %#v", page.Meta["pdf"])
	}
}

func TestReadPage_RevisionAsWritten(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		revision string
		want     any
	}{
		{name: "trailing zero", revision: "1.0", want: "1.0"},
		{name: "two digit minor", revision: "2.10", want: "2.10"},
		{name: "integer", revision: "3", want: "3"},
		{name: "quoted", revision: `"4.0"`, want: "4.0"},
		{name: "text", revision: "beta", want: "beta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			sp := sourcePage{
				SrcPath:  "guide.md",
				MDPath:   filepath.Join(dir, "guide.md"),
				HTMLPath: filepath.Join(dir, "guide.html"),
			}
			writeFile(t, sp.MDPath, "---\npdf:\n  revision: "+tt.revision+"\n---\n# Guide\n")
			writeFile(t, sp.HTMLPath, pageHTML)

			page, err := readPage(sp)
			if err != nil {
				t.Fatalf("readPage() error: %v", err)
			}
			pdf, _ := page.Meta["pdf"].(map[string]any)
			if pdf["revision"] != tt.want {
				t.Errorf("revision = %#v, want %#v", pdf["revision"], tt.want)
			}
			if got := sitepdf.ParseMetadata(page.Meta).Revision; got != tt.want {
				t.Errorf("ParseMetadata().Revision = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadPage_Errors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	badMD := filepath.Join(root, "bad.md")
	writeFile(t, badMD, "---\ntitle: [unclosed\n---\n# Bad\n")
	goodMD := filepath.Join(root, "good.md")
	writeFile(t, goodMD, "# Good\n")

	tests := []struct {
		name    string
		sp      sourcePage
		wantErr error
	}{
		{
			name:    "source missing",
			sp:      sourcePage{SrcPath: "x.md", MDPath: filepath.Join(root, "x.md")},
			wantErr: ErrReadPage,
		},
		{
			name:    "invalid front matter",
			sp:      sourcePage{SrcPath: "bad.md", MDPath: badMD},
			wantErr: ErrFrontMatter,
		},
		{
			name:    "page missing",
			sp:      sourcePage{SrcPath: "good.md", MDPath: goodMD, HTMLPath: filepath.Join(root, "good.html")},
			wantErr: os.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := readPage(tt.sp); !errors.Is(err, tt.wantErr) {
				t.Errorf("readPage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
