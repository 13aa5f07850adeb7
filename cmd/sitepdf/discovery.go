package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	sitepdf "github.com/alnah/go-sitepdf"
	"github.com/alnah/go-sitepdf/internal/hints"
	"github.com/alnah/go-sitepdf/internal/yamlutil"
)

// Sentinel errors for page discovery.
var (
	ErrNotDir      = errors.New("not a directory")
	ErrNoPages     = errors.New("no built page found")
	ErrReadPage    = errors.New("failed to read page")
	ErrFrontMatter = errors.New("invalid front matter")
)

// sourcePage pairs a Markdown source with its built HTML page.
type sourcePage struct {
	SrcPath  string // slash separated, relative to the docs directory
	MDPath   string
	HTMLPath string
}

// discoverPages walks docsDir for Markdown sources and maps each to its
// page under siteDir. Sources without a built page are returned apart.
func discoverPages(docsDir, siteDir string) (pages []sourcePage, missing []string, err error) {
	for _, dir := range []string{docsDir, siteDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, nil, err
		}
		if !info.IsDir() {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotDir, dir)
		}
	}

	err = filepath.WalkDir(docsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", p, err)
		}
		if d.IsDir() {
			if p != docsDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdown(p) {
			return nil
		}
		rel, err := filepath.Rel(docsDir, p)
		if err != nil {
			return err
		}
		src := filepath.ToSlash(rel)
		htmlPath := filepath.Join(siteDir, filepath.FromSlash(htmlRelPath(src)))
		if _, err := os.Stat(htmlPath); err != nil {
			missing = append(missing, src)
			return nil
		}
		pages = append(pages, sourcePage{SrcPath: src, MDPath: p, HTMLPath: htmlPath})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(pages) == 0 {
		return nil, missing, fmt.Errorf("%w: %s has no page built from %s%s", ErrNoPages, siteDir, docsDir, hints.ForSiteDir())
	}
	return pages, missing, nil
}

func isMarkdown(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".md" || ext == ".markdown"
}

// htmlRelPath maps a source to its page with directory URLs:
// index.md and README.md to index.html, a/b.md to a/b/index.html.
func htmlRelPath(src string) string {
	dir, file := path.Split(src)
	name := strings.TrimSuffix(file, path.Ext(file))
	if name == "index" || strings.EqualFold(name, "readme") {
		return path.Join(dir, "index.html")
	}
	return path.Join(dir, name, "index.html")
}

// revisionPath locates the revision in page front matter.
const revisionPath = "$." + sitepdf.MetadataKey + ".revision"

// keepRevisionText replaces a numeric revision with its text as written,
// so revision: 1.0 names the file Guide_R_1_0 rather than Guide_R_1.
func keepRevisionText(md []byte, meta map[string]any) {
	pdf, ok := meta[sitepdf.MetadataKey].(map[string]any)
	if !ok {
		return
	}
	if text, ok := yamlutil.NumberText(md, revisionPath); ok {
		pdf["revision"] = text
	}
}

// readPage loads the front matter of the source and the built HTML.
func readPage(sp sourcePage) (sitepdf.Page, error) {
	md, err := os.ReadFile(sp.MDPath) // #nosec G304 -- discovered path
	if err != nil {
		return sitepdf.Page{}, fmt.Errorf("%w: %w", ErrReadPage, err)
	}
	meta := map[string]any{}
	if _, err := yamlutil.UnmarshalFrontMatter(md, &meta); err != nil {
		return sitepdf.Page{}, fmt.Errorf("%w: %s: %v", ErrFrontMatter, sp.SrcPath, err)
	}
	keepRevisionText(md, meta)

	html, err := os.ReadFile(sp.HTMLPath) // #nosec G304 -- discovered path
	if err != nil {
		return sitepdf.Page{}, fmt.Errorf("%w: %w", ErrReadPage, err)
	}
	dest, err := filepath.Abs(sp.HTMLPath)
	if err != nil {
		return sitepdf.Page{}, fmt.Errorf("%w: %w", ErrReadPage, err)
	}

	return sitepdf.Page{
		SrcPath:  sp.SrcPath,
		DestPath: dest,
		HTML:     string(html),
		Meta:     meta,
	}, nil
}
