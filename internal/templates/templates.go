// Package templates renders cover, disclaimer and legal-terms templates
// with html/template. Templates are looked up through an assets loader;
// Markdown templates are executed first and then converted to HTML.
package templates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-sitepdf/internal/assets"
	"github.com/alnah/go-sitepdf/internal/dateutil"
	"github.com/alnah/go-sitepdf/internal/hints"
	"github.com/alnah/go-sitepdf/internal/pipeline"
)

// Sentinel errors for template rendering.
var (
	ErrNoTemplate     = errors.New("no template found")
	ErrTemplateParse  = errors.New("template parse failed")
	ErrTemplateRender = errors.New("template execution failed")
)

// Options configures a Renderer.
type Options struct {
	// Markdown converts .md templates after execution. Defaults to goldmark.
	Markdown pipeline.MarkdownConverter
	// SearchDirs are the directories to_url looks into for local files,
	// in order.
	SearchDirs []string
	// Logger receives template selection messages. Defaults to a no-op.
	Logger *zap.Logger
	// Now is the clock used by the date function. Defaults to time.Now.
	Now func() time.Time
}

// Renderer renders named templates. It is safe for concurrent use.
type Renderer struct {
	loader     assets.AssetLoader
	markdown   pipeline.MarkdownConverter
	searchDirs []string
	logger     *zap.Logger
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]*parsed
}

type parsed struct {
	tmpl     *template.Template
	markdown bool
}

// New creates a Renderer over loader.
func New(loader assets.AssetLoader, opts Options) *Renderer {
	r := &Renderer{
		loader:     loader,
		markdown:   opts.Markdown,
		searchDirs: opts.SearchDirs,
		logger:     opts.Logger,
		now:        opts.Now,
		cache:      make(map[string]*parsed),
	}
	if r.markdown == nil {
		r.markdown = pipeline.NewGoldmarkConverter()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Render renders the first of names that exists. Names that are not valid
// asset names are skipped like missing ones.
func (r *Renderer) Render(names []string, keywords map[string]any) (string, error) {
	for _, name := range names {
		p, err := r.lookup(name)
		if assets.IsNotFound(err) || errors.Is(err, assets.ErrInvalidAssetName) {
			continue
		}
		if err != nil {
			return "", err
		}

		r.logger.Debug("rendering template", zap.String("template", name))
		return r.execute(name, p, keywords)
	}
	return "", fmt.Errorf("%w among %s%s", ErrNoTemplate, strings.Join(names, ", "), hints.ForTemplateNotFound(names))
}

func (r *Renderer) lookup(name string) (*parsed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.cache[name]; ok {
		return p, nil
	}

	src, err := r.loader.LoadTemplate(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name + src.Ext).Funcs(r.funcs()).Parse(src.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s%s: %v", ErrTemplateParse, name, src.Ext, err)
	}

	p := &parsed{tmpl: tmpl, markdown: src.IsMarkdown()}
	r.cache[name] = p
	return p, nil
}

func (r *Renderer) execute(name string, p *parsed, keywords map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, keywords); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, name, err)
	}
	if !p.markdown {
		return buf.String(), nil
	}

	out, err := r.markdown.ToHTML(context.Background(), buf.String())
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, name, err)
	}
	return out, nil
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"strftime": strftime,
		"strptime": dateutil.Strptime,
		"date": func(value string) (string, error) {
			return dateutil.ResolveDate(value, r.now())
		},
		"to_url": r.toURL,
	}
}

// strftime formats a time, or a date string in RFC 3339 or YYYY-MM-DD
// form, with a strftime format. The value comes last so it can be piped:
// {{.now | strftime "%d %B %Y"}}.
func strftime(format string, value any) (string, error) {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return "", nil
		}
		t = *v
	case string:
		var err error
		if t, err = time.Parse(time.RFC3339, v); err != nil {
			if t, err = time.Parse(time.DateOnly, v); err != nil {
				return "", fmt.Errorf("%w: cannot read %q as a date", dateutil.ErrInvalidDateFormat, v)
			}
		}
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("%w: unsupported value of type %T", dateutil.ErrInvalidDateFormat, value)
	}
	return dateutil.Strftime(t, format)
}

// toURL returns URLs unchanged and resolves local paths against the search
// directories into file URLs. Unresolved paths are returned as given.
func (r *Renderer) toURL(pathname string) template.URL {
	if pathname == "" {
		return ""
	}
	if u, err := url.Parse(pathname); err == nil && (u.Scheme != "" || u.Host != "") && !isDrive(u.Scheme) {
		return template.URL(pathname) // #nosec G203 -- configured value
	}

	for _, dir := range r.searchDirs {
		if dir == "" {
			continue
		}
		candidate, err := filepath.Abs(filepath.Join(dir, pathname))
		if err != nil {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return template.URL(fileURL(candidate)) // #nosec G203 -- local file
		}
	}
	return template.URL(pathname) // #nosec G203 -- configured value
}

// ResolveURL resolves pathname like the to_url template function.
func (r *Renderer) ResolveURL(pathname string) string {
	return string(r.toURL(pathname))
}

// isDrive reports whether a parsed scheme is a Windows drive letter.
func isDrive(scheme string) bool {
	return len(scheme) == 1
}

func fileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

// Compile-time interface check.
var _ pipeline.TemplateRenderer = (*Renderer)(nil)
