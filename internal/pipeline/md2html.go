package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrMarkdownConversion indicates a Markdown fragment could not be converted.
var ErrMarkdownConversion = errors.New("markdown conversion failed")

// Highlight placeholders use Unicode Private Use Area characters so they
// pass through goldmark untouched and become <mark> tags afterwards.
const (
	markStart = "\uE000"
	markEnd   = "\uE001"
)

var (
	crlfOrCR         = regexp.MustCompile(`\r\n?`)
	highlightPattern = regexp.MustCompile(`==(.*?)==`)
)

// MarkdownConverter turns Markdown fragments, such as disclaimer templates
// written in Markdown, into HTML fragments.
type MarkdownConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// GoldmarkConverter converts Markdown with goldmark (GFM, footnotes,
// class-based syntax highlighting, heading ids).
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GoldmarkConverter.
func NewGoldmarkConverter() *GoldmarkConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)
	return &GoldmarkConverter{md: md}
}

// ToHTML converts Markdown content to an HTML fragment. ==text== becomes
// <mark>text</mark>. Goldmark has no context support, so conversion runs in
// a goroutine raced against ctx.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		src := crlfOrCR.ReplaceAllString(content, "\n")
		src = highlightPattern.ReplaceAllString(src, markStart+"$1"+markEnd)

		var buf bytes.Buffer
		if err := c.md.Convert([]byte(src), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrMarkdownConversion, err)}
			return
		}
		out := strings.ReplaceAll(buf.String(), markStart, "<mark>")
		done <- result{html: strings.ReplaceAll(out, markEnd, "</mark>")}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// Compile-time interface check.
var _ MarkdownConverter = (*GoldmarkConverter)(nil)
