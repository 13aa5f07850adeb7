package sitepdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alnah/go-sitepdf/internal/assets"
)

// ---------------------------------------------------------------------------
// Test Doubles
// ---------------------------------------------------------------------------

// mapLoader serves styles and templates from maps.
type mapLoader struct {
	styles    map[string]string
	templates map[string]string
	styleErr  error
}

func (m *mapLoader) LoadStyle(name string) (string, error) {
	if m.styleErr != nil {
		return "", m.styleErr
	}
	css, ok := m.styles[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", assets.ErrStyleNotFound, name)
	}
	return css, nil
}

func (m *mapLoader) LoadTemplate(name string) (assets.Template, error) {
	content, ok := m.templates[name]
	if !ok {
		return assets.Template{}, fmt.Errorf("%w: %s", assets.ErrTemplateNotFound, name)
	}
	return assets.Template{Name: name, Ext: ".html", Content: content}, nil
}

var _ assets.AssetLoader = (*mapLoader)(nil)

// fakePDF records conversions and returns fixed bytes. Safe for concurrent
// use.
type fakePDF struct {
	mu     sync.Mutex
	output []byte
	err    error
	html   []string
	opts   []*pdfOptions
	closed int
}

func (f *fakePDF) ToPDF(ctx context.Context, htmlContent string, opts *pdfOptions) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.html = append(f.html, htmlContent)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output, nil
	}
	return []byte("%PDF-1.7 fake"), nil
}

func (f *fakePDF) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakePDF) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.html)
}

func (f *fakePDF) lastHTML() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.html) == 0 {
		return ""
	}
	return f.html[len(f.html)-1]
}

// fakeTOC is an in-memory rendered PDF, one slice of lines per page.
type fakeTOC struct {
	pages  [][]string
	closed bool
}

func (f *fakeTOC) NumPages() int { return len(f.pages) }

func (f *fakeTOC) PageLines(i int) ([]string, error) { return f.pages[i], nil }

func (f *fakeTOC) Close() error {
	f.closed = true
	return nil
}

// tocOpener returns an opener that always yields src and records paths.
func tocOpener(src *fakeTOC, opened *[]string) func(string) (tocSource, error) {
	return func(path string) (tocSource, error) {
		if opened != nil {
			*opened = append(*opened, path)
		}
		return src, nil
	}
}

// printedTOC returns an opener whose pages are the text of the last HTML
// pdf received, laid out by printedPages.
func printedTOC(pdf *fakePDF, opened *[]string) func(string) (tocSource, error) {
	return func(path string) (tocSource, error) {
		if opened != nil {
			*opened = append(*opened, path)
		}
		return &fakeTOC{pages: printedPages(pdf.lastHTML())}, nil
	}
}

// printedPages lays out rendered HTML the way the print stylesheets do: the
// cover and the table of contents on pages of their own without a footer,
// then body pages broken before each h2 and h3, each ending with its page
// number. Generated content (numbering, TOC page numbers) is part of the
// text, as in a printed PDF.
func printedPages(content string) [][]string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}

	var pages [][]string
	if cover := doc.Find("#doc-cover"); cover.Length() > 0 {
		var lines []string
		cover.Find("h1, h2, h3, p").Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				lines = append(lines, text)
			}
		})
		pages = append(pages, lines)
	}
	if toc := doc.Find("#doc-toc"); toc.Length() > 0 {
		lines := []string{strings.TrimSpace(toc.Find("h1").First().Text())}
		toc.Find("li > a").Each(func(_ int, a *goquery.Selection) {
			line := a.AttrOr("data-numbering", "") + strings.TrimSpace(a.Text())
			if page, ok := a.Attr("data-page"); ok {
				line += " " + page
			}
			lines = append(lines, line)
		})
		pages = append(pages, lines)
	}

	var body []string
	flush := func() {
		if len(body) > 0 {
			pages = append(pages, append(body, strconv.Itoa(len(pages)+1)))
			body = nil
		}
	}
	doc.Find("body").Children().Not("#doc-cover, #doc-toc").Each(func(_ int, s *goquery.Selection) {
		if s.Is("h2, h3") {
			flush()
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			body = append(body, s.AttrOr("data-numbering", "")+text)
		}
	})
	flush()
	return pages
}

// observedLogger returns a logger recording entries at level and above.
func observedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}
