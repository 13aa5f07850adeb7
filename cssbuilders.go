package sitepdf

import (
	"fmt"
	"strings"

	"github.com/alnah/go-sitepdf/internal/assets"
)

// cssVars are the values exposed to print stylesheets as custom properties
// on :root.
type cssVars struct {
	Author     string
	AuthorLogo string // resolved URL
	Copyright  string
	Title      string
	Subtitle   string
	Type       string
	Revision   string
	Filename   string
	SiteURL    string
	Chapter    string
}

// buildRootVarsCSS generates the :root block read by pdf-print.css for
// running headers, footers and the cover.
func buildRootVarsCSS(v cssVars) string {
	var buf strings.Builder
	buf.WriteString(":root {\n")
	for _, kv := range [][2]string{
		{"author", quoteCSS(v.Author)},
		{"author-logo", "url(" + quoteCSS(v.AuthorLogo) + ")"},
		{"copyright", quoteCSS(v.Copyright)},
		{"title", quoteCSS(v.Title)},
		{"subtitle", quoteCSS(v.Subtitle)},
		{"type", quoteCSS(v.Type)},
		{"revision", quoteCSS(v.Revision)},
		{"filename", quoteCSS(v.Filename)},
		{"site-url", quoteCSS(v.SiteURL)},
		{"chapter", quoteCSS(v.Chapter)},
	} {
		fmt.Fprintf(&buf, "  --%s: %s;\n", kv[0], kv[1])
	}
	buf.WriteString("}\n")
	return buf.String()
}

// quoteCSS returns s as a single-quoted CSS string.
func quoteCSS(s string) string {
	return "'" + escapeCSSString(s) + "'"
}

// escapeCSSString escapes a string for a single-quoted CSS string. HTML
// entities are decoded first. Hex escapes end with a space so a following
// hex digit is not read as part of the code point.
func escapeCSSString(s string) string {
	s = unescape(s)
	s = strings.ReplaceAll(s, `\`, `\5c `)
	s = strings.ReplaceAll(s, `'`, `\27 `)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", `\a `)
	return s
}

// printStyles concatenates the print stylesheets in cascade order: root
// variables, pdf-print, toc and cover when enabled, the theme stylesheet,
// then a user custom.css when the template directory provides one.
func printStyles(loader assets.AssetLoader, vars cssVars, toc, cover bool, themeCSS string) (string, error) {
	names := []string{assets.StylePrint}
	if toc {
		names = append(names, assets.StyleTOC)
	}
	if cover {
		names = append(names, assets.StyleCover)
	}

	parts := []string{buildRootVarsCSS(vars)}
	for _, name := range names {
		css, err := loader.LoadStyle(name)
		if err != nil {
			return "", fmt.Errorf("loading style %q: %w", name, err)
		}
		parts = append(parts, css)
	}
	if themeCSS != "" {
		parts = append(parts, themeCSS)
	}

	custom, err := loader.LoadStyle(assets.StyleCustom)
	switch {
	case err == nil:
		parts = append(parts, custom)
	case !assets.IsNotFound(err):
		return "", fmt.Errorf("loading style %q: %w", assets.StyleCustom, err)
	}
	return strings.Join(parts, "\n"), nil
}
