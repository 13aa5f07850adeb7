package sitepdf

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/alnah/go-sitepdf/internal/assets"
	"github.com/alnah/go-sitepdf/internal/fileutil"
	"github.com/alnah/go-sitepdf/internal/pipeline"
	"github.com/alnah/go-sitepdf/internal/yamlutil"
)

// Built-in theme names.
const (
	ThemeGeneric  = "generic"
	ThemeMaterial = "material"
	ThemeCinder   = "cinder"
)

// Theme adapts the output to the site theme: it contributes print CSS to
// the PDF and adds the PDF download link to the site page.
type Theme interface {
	Name() string
	// Stylesheet returns CSS appended to the print stylesheets.
	Stylesheet() string
	// AddLink returns siteHTML with a link to pdfHref added.
	AddLink(siteHTML, pdfHref string) (string, error)
}

// Compile-time interface checks.
var (
	_ Theme = (*builtinTheme)(nil)
	_ Theme = (*ExternalTheme)(nil)
)

// Insertion positions relative to the selected element.
const (
	PositionPrepend = "prepend"
	PositionAppend  = "append"
	PositionBefore  = "before"
	PositionAfter   = "after"
)

// builtinTheme is one of the themes shipped with the package.
type builtinTheme struct {
	name     string
	css      string
	selector string
	position string
	link     string // format with one %s for the escaped href
}

const materialButton = `<a class="md-content__button md-icon pdf-download" id="pdf_download" href="%[1]s" download title="Download PDF">` +
	`<span>Download </span>` +
	`<svg viewBox="0 0 24 24" xmlns="http://www.w3.org/2000/svg"><path d="M14 2H6a2 2 0 0 0-2 2v16a2 2 0 0 0 2 2h12a2 2 0 0 0 2-2V8l-6-6zm-1 7V3.5L18.5 9H13zm-1 9-4-4h2.5v-3h3v3H16l-4 4z" fill="red"/></svg>` +
	`</a>`

// newBuiltinTheme returns the built-in theme called name. The bool is
// false for unknown names.
func newBuiltinTheme(name string, loader assets.AssetLoader) (*builtinTheme, bool, error) {
	var t *builtinTheme
	switch name {
	case "", ThemeGeneric:
		t = &builtinTheme{
			name:     ThemeGeneric,
			selector: "head",
			position: PositionAppend,
			link:     `<link href="%[1]s" rel="alternate" title="PDF Export" type="application/pdf">`,
		}
	case ThemeMaterial:
		t = &builtinTheme{
			name:     ThemeMaterial,
			selector: "article.md-content__inner",
			position: PositionPrepend,
			link:     materialButton,
		}
	case ThemeCinder:
		t = &builtinTheme{
			name:     ThemeCinder,
			selector: "body footer",
			position: PositionPrepend,
			link:     `<small><a href="%[1]s" title="PDF Export" download="%[1]s" class="pdf-download">Download PDF</a></small>`,
		}
	default:
		return nil, false, nil
	}

	if t.name != ThemeGeneric {
		css, err := loader.LoadStyle(t.name)
		if err != nil {
			return nil, true, fmt.Errorf("loading %s theme style: %w", t.name, err)
		}
		t.css = css
	}
	return t, true, nil
}

func (t *builtinTheme) Name() string       { return t.name }
func (t *builtinTheme) Stylesheet() string { return t.css }

func (t *builtinTheme) AddLink(siteHTML, pdfHref string) (string, error) {
	link := fmt.Sprintf(t.link, template.HTMLEscapeString(pdfHref))
	return insertHTML(siteHTML, t.selector, t.position, link)
}

// ThemeHandler is the YAML descriptor of an external theme.
//
//	name: mytheme
//	stylesheet: theme/pdf.css       # file path, or inline CSS
//	selector: "div.page-footer"
//	position: append                # prepend, append, before, after
//	link: '<a class="pdf" href="{{.Href}}">PDF</a>'
type ThemeHandler struct {
	Name       string `yaml:"name"`
	Stylesheet string `yaml:"stylesheet"`
	Selector   string `yaml:"selector"`
	Position   string `yaml:"position"`
	Link       string `yaml:"link"`
}

// ExternalTheme is a theme described by a ThemeHandler file.
type ExternalTheme struct {
	name     string
	css      string
	selector string
	position string
	link     *template.Template
}

// LoadExternalTheme reads a ThemeHandler descriptor. A stylesheet that is
// not inline CSS is read relative to the descriptor's directory.
func LoadExternalTheme(path string) (*ExternalTheme, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided handler path
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrThemeHandler, err)
	}

	var h ThemeHandler
	if err := yamlutil.UnmarshalStrict(data, &h); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrThemeHandler, path, err)
	}
	return NewExternalTheme(h, filepath.Dir(path))
}

// NewExternalTheme validates h and builds the theme. baseDir anchors a
// relative stylesheet path.
func NewExternalTheme(h ThemeHandler, baseDir string) (*ExternalTheme, error) {
	if h.Selector == "" {
		return nil, fmt.Errorf("%w: selector is required", ErrThemeHandler)
	}
	if h.Link == "" {
		return nil, fmt.Errorf("%w: link is required", ErrThemeHandler)
	}
	position := strings.ToLower(h.Position)
	switch position {
	case "":
		position = PositionAppend
	case PositionPrepend, PositionAppend, PositionBefore, PositionAfter:
	default:
		return nil, fmt.Errorf("%w: unknown position %q", ErrThemeHandler, h.Position)
	}

	link, err := template.New("link").Parse(h.Link)
	if err != nil {
		return nil, fmt.Errorf("%w: link: %v", ErrThemeHandler, err)
	}

	css := h.Stylesheet
	if css != "" && !fileutil.IsCSS(css) {
		p := css
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		content, err := os.ReadFile(p) // #nosec G304 -- user-provided stylesheet
		if err != nil {
			return nil, fmt.Errorf("%w: stylesheet: %v", ErrThemeHandler, err)
		}
		css = string(content)
	}

	name := h.Name
	if name == "" {
		name = "external"
	}
	return &ExternalTheme{name: name, css: css, selector: h.Selector, position: position, link: link}, nil
}

func (t *ExternalTheme) Name() string       { return t.name }
func (t *ExternalTheme) Stylesheet() string { return t.css }

func (t *ExternalTheme) AddLink(siteHTML, pdfHref string) (string, error) {
	var buf bytes.Buffer
	if err := t.link.Execute(&buf, struct{ Href string }{pdfHref}); err != nil {
		return "", fmt.Errorf("%w: link: %v", ErrThemeHandler, err)
	}
	return insertHTML(siteHTML, t.selector, t.position, buf.String())
}

// LoadTheme returns the theme for a build. An external handler path takes
// precedence over the name; a handler that cannot be loaded and an
// unknown name are logged and fall back to the built-in themes.
func LoadTheme(name, handlerPath string, loader assets.AssetLoader, logger *zap.Logger) (Theme, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if handlerPath != "" {
		ext, err := LoadExternalTheme(handlerPath)
		if err == nil {
			return ext, nil
		}
		logger.Error("could not load theme handler", zap.String("path", handlerPath), zap.Error(err))
	}

	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	t, ok, err := newBuiltinTheme(key, loader)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Error("could not load theme handler", zap.String("theme", name),
			zap.Error(fmt.Errorf("%w: %q, using %s", ErrUnknownTheme, name, ThemeGeneric)))
		t, _, err = newBuiltinTheme(ThemeGeneric, loader)
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

// insertHTML parses page, places fragment relative to the first element
// matching selector and renders the page back.
func insertHTML(page, selector, position, fragment string) (string, error) {
	doc, err := pipeline.Parse(page)
	if err != nil {
		return "", err
	}

	target := goquery.NewDocumentFromNode(doc).Find(selector).First()
	if target.Length() == 0 {
		return "", fmt.Errorf("%w: %q", ErrThemeInsertion, selector)
	}

	switch position {
	case PositionPrepend:
		target.PrependHtml(fragment)
	case PositionBefore:
		target.BeforeHtml(fragment)
	case PositionAfter:
		target.AfterHtml(fragment)
	default:
		target.AppendHtml(fragment)
	}
	return pipeline.Render(doc)
}
