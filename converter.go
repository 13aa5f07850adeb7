package sitepdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-sitepdf/internal/assets"
	"github.com/alnah/go-sitepdf/internal/config"
	"github.com/alnah/go-sitepdf/internal/fileutil"
	"github.com/alnah/go-sitepdf/internal/hints"
	"github.com/alnah/go-sitepdf/internal/pipeline"
	"github.com/alnah/go-sitepdf/internal/templates"
	"github.com/alnah/go-sitepdf/internal/toctext"
)

// defaultSiteURL is the local development server, used for links when no
// site_url is configured.
const defaultSiteURL = "http://127.0.0.1:8000/"

// reservedKeywords are front matter keys that select behavior rather than
// template content, so they never reach the template keywords.
var reservedKeywords = map[string]bool{"image": true, "disclaimer": true, "legal_terms": true}

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout   time.Duration
	workers   int
	configDir string
	docsDir   string
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the page rendering timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("sitepdf: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.opts.timeout = d
	}
}

// WithWorkers sets how many pages a Plugin converts at once. Zero or less
// sizes the pool from GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		c.opts.workers = n
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProjectDirs sets the directory of the configuration file, which
// anchors relative custom_template_path and theme_handler_path values, and
// the docs directory holding the Markdown sources.
func WithProjectDirs(configDir, docsDir string) Option {
	return func(c *Converter) {
		c.opts.configDir = configDir
		c.opts.docsDir = docsDir
	}
}

// WithTheme overrides the theme selected by the configuration.
func WithTheme(t Theme) Option {
	return func(c *Converter) {
		c.theme = t
	}
}

// WithClock sets the clock used for the now template keyword.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		if now != nil {
			c.now = now
		}
	}
}

// withPDFConverter replaces the browser backend.
func withPDFConverter(p pdfConverter) Option {
	return func(c *Converter) {
		c.pdf = p
	}
}

// withTOCOpener replaces how rendered PDFs are opened for text extraction.
func withTOCOpener(open func(path string) (tocSource, error)) Option {
	return func(c *Converter) {
		c.openTOC = open
	}
}

// tocSource is a page source that must be closed after extraction.
type tocSource interface {
	toctext.PageSource
	io.Closer
}

// openPDF opens a rendered PDF for text TOC extraction.
func openPDF(path string) (tocSource, error) {
	f, err := toctext.OpenPDF(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Converter turns built site pages into PDF files. The configuration is
// read-only after construction, so Convert may run for several pages at
// once as long as the PDF backend allows it; use a ConverterPool to get
// one browser per worker.
type Converter struct {
	cfg      *config.Config
	opts     converterConfig
	logger   *zap.Logger
	loader   assets.AssetLoader
	renderer *templates.Renderer
	injector *pipeline.Injector
	theme    Theme
	pdf      pdfConverter
	openTOC  func(path string) (tocSource, error)
	now      func() time.Time
}

// NewConverter creates a Converter for one build. A nil cfg uses
// config.Default.
func NewConverter(cfg *config.Config, opts ...Option) (*Converter, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Converter{
		cfg:     cfg,
		opts:    converterConfig{timeout: defaultTimeout},
		logger:  zap.NewNop(),
		openTOC: openPDF,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	loader, err := assets.NewAssetResolver(c.templateDir())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	c.loader = loader
	if dir := loader.CustomDir(); dir != "" {
		c.logger.Debug("using custom templates", zap.String("dir", dir))
	}

	if c.theme == nil {
		c.theme, err = LoadTheme(cfg.Theme, c.projectPath(cfg.ThemeHandlerPath), loader, c.logger)
		if err != nil {
			return nil, err
		}
	}

	c.renderer = templates.New(loader, templates.Options{
		SearchDirs: []string{c.opts.configDir, loader.CustomDir(), c.opts.docsDir, "."},
		Logger:     c.logger,
		Now:        c.now,
	})
	c.injector = pipeline.NewInjector(c.renderer, c.logger)

	if c.pdf == nil {
		c.pdf = newRodConverter(c.opts.timeout)
	}
	return c, nil
}

// Theme returns the theme used for print CSS and site links.
func (c *Converter) Theme() Theme {
	return c.theme
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	if c.pdf != nil {
		return c.pdf.Close()
	}
	return nil
}

// templateDir returns the custom template directory when it exists. A
// missing directory is not an error: the built-in templates are used.
func (c *Converter) templateDir() string {
	dir := c.projectPath(c.cfg.CustomTemplatePath)
	if dir == "" {
		return ""
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		c.logger.Debug("custom template directory not found, using built-in templates", zap.String("path", dir))
		return ""
	}
	return dir
}

// projectPath anchors a relative path at the configuration directory.
func (c *Converter) projectPath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.opts.configDir == "" {
		return p
	}
	return filepath.Join(c.opts.configDir, p)
}

// NewPageContext derives the per-page values of page. doc is the parsed
// page, used for the body title.
func (c *Converter) NewPageContext(page Page, doc *html.Node) PageContext {
	meta := ParseMetadata(page.Meta)
	bodyTitle := pipeline.H1Title(doc, stringValue(page.Meta["title"]))
	fileName := OutputName(meta, bodyTitle, page.SrcPath, c.logger)
	destDir := filepath.Dir(page.DestPath)
	if abs, err := filepath.Abs(destDir); err == nil {
		destDir = abs
	}

	siteURL := c.cfg.SiteURL
	if siteURL == "" {
		siteURL = defaultSiteURL
	}

	pc := PageContext{
		SrcPath:   page.SrcPath,
		SrcDir:    filepath.Join(c.opts.docsDir, filepath.Dir(filepath.FromSlash(page.SrcPath))),
		DestDir:   destDir,
		FileName:  fileName,
		SiteURL:   siteURL,
		SiteDir:   c.cfg.SiteDir,
		BodyTitle: bodyTitle,
		Meta:      meta,
	}
	pc.BaseURL = pipeline.PathToFileURL(pc.PDFPath())
	return pc
}

// Prepare parses page and runs the transformation pipeline. It returns the
// HTML handed to the PDF renderer and the page context it was built with.
func (c *Converter) Prepare(ctx context.Context, page Page) (string, PageContext, error) {
	p, err := c.prepare(ctx, page)
	if err != nil {
		return "", p.pc, err
	}
	return p.html, p.pc, nil
}

// prepared is a transformed page: the tree, its rendering and the text
// shape of its table of contents (title first, nil without a TOC).
type prepared struct {
	doc      *html.Node
	html     string
	pc       PageContext
	tocLines []string
}

func (c *Converter) prepare(ctx context.Context, page Page) (prepared, error) {
	if strings.TrimSpace(page.HTML) == "" {
		return prepared{}, ErrEmptyHTML
	}

	doc, err := pipeline.Parse(page.HTML)
	if err != nil {
		return prepared{}, err
	}
	p := prepared{doc: doc, pc: c.NewPageContext(page, doc)}

	p.tocLines, err = c.transform(ctx, doc, p.pc)
	if err != nil {
		return p, err
	}
	p.html, err = pipeline.Render(doc)
	return p, err
}

// Transform applies the pipeline to doc in place and renders it: styles,
// links and assets, heading ids, numbering and TOC, cover, disclaimer,
// legal terms. Cover and appendix failures are logged and skipped.
func (c *Converter) Transform(ctx context.Context, doc *html.Node, pc PageContext) (string, error) {
	if _, err := c.transform(ctx, doc, pc); err != nil {
		return "", err
	}
	return pipeline.Render(doc)
}

// transform runs the pipeline on doc and returns the text lines of the
// table of contents it inserted.
func (c *Converter) transform(ctx context.Context, doc *html.Node, pc PageContext) ([]string, error) {
	css, err := printStyles(c.loader, c.cssVars(pc), c.cfg.TOC, c.cfg.Cover, c.theme.Stylesheet())
	if err != nil {
		return nil, err
	}
	pipeline.InjectStyle(doc, css)

	if n := pipeline.RewriteLinks(doc, pc.Links()); n > 0 {
		c.logger.Debug("linearized tabbed blocks", zap.String("src", pc.SrcPath), zap.Int("blocks", n))
	}
	pipeline.EnsureHeadingIDs(doc)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tocLines []string
	if c.cfg.TOC {
		opts := pipeline.TOCOptions{Title: c.cfg.TOCTitle, Depth: c.cfg.TOCLevel}
		if tocLines, err = pipeline.InsertTOC(doc, opts, c.cfg.TOCNumbering); err != nil {
			return nil, err
		}
	}

	keywords := c.keywords(pc)
	if c.cfg.Cover {
		c.injector.Inject(doc, pipeline.Injection{
			Family:    pipeline.FamilyCover,
			DocType:   pc.Meta.Type,
			Keywords:  keywords,
			Image:     pc.Meta.Image,
			SourceDir: pc.SrcDir,
		})
	}
	if c.cfg.Disclaimer != "" || pc.Meta.Disclaimer != "" {
		c.injector.Inject(doc, pipeline.Injection{
			Family:   pipeline.FamilyDisclaimer,
			DocType:  pc.Meta.Type,
			Selector: pc.Meta.Disclaimer,
			Keywords: keywords,
		})
	}
	if c.cfg.IncludeLegalTerms || pc.Meta.LegalTerms != "" {
		c.injector.Inject(doc, pipeline.Injection{
			Family:   pipeline.FamilyLegalTerms,
			DocType:  pc.Meta.Type,
			Selector: pc.Meta.LegalTerms,
			Keywords: keywords,
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tocLines, nil
}

// Convert prepares page, renders the PDF next to the built page and, when
// the page asks for it, writes the text table of contents. A page with a
// table of contents is rendered twice: the first rendering gives the body
// page of each entry, printed next to it in the second.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, page Page) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	p, err := c.prepare(ctx, page)
	if err != nil {
		return nil, err
	}
	pc := p.pc
	if c.cfg.Debug {
		c.dumpDebug(pc, p.html)
	}

	pdfBytes, err := c.render(ctx, pc, p.html)
	if err != nil {
		return nil, err
	}
	if len(p.tocLines) > 1 {
		if pdfBytes, err = c.paginateTOC(ctx, &p, pdfBytes); err != nil {
			return nil, err
		}
		if c.cfg.Debug {
			c.dumpDebug(pc, p.html)
		}
	}

	res := &Result{HTML: []byte(p.html), PDF: pdfBytes, PDFPath: pc.PDFPath()}
	if !pc.Meta.TOCText {
		return res, nil
	}
	if !c.cfg.TOC || !c.cfg.TOCNumbering {
		c.logger.Info("skipping text table of contents"+hints.ForTOCText(), zap.String("src", pc.SrcPath))
		return res, nil
	}

	if err := c.writeTextTOC(pc); err != nil {
		return nil, err
	}
	res.TextPath = pc.TextPath()

	if c.cfg.EnableCSV {
		row, err := NewManifestRow(pc)
		if err != nil {
			return nil, err
		}
		res.Row = &row
	}
	return res, nil
}

// render prints out and writes it to the PDF path of pc.
func (c *Converter) render(ctx context.Context, pc PageContext, out string) ([]byte, error) {
	pdfBytes, err := c.pdf.ToPDF(ctx, out, &pdfOptions{MediaType: c.cfg.MediaType})
	if err != nil {
		return nil, fmt.Errorf("converting to PDF: %w", err)
	}
	if err := writeBytes(pc.PDFPath(), pdfBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWritePDF, err)
	}
	return pdfBytes, nil
}

// paginateTOC finds the TOC entries of p in the PDF just written, stores
// their pages on the TOC links and renders p again. When the first
// rendering cannot be read, or no entry is found in it, it is kept as is.
func (c *Converter) paginateTOC(ctx context.Context, p *prepared, pdfBytes []byte) ([]byte, error) {
	titles := p.tocLines[1:]
	pages, err := c.locateTOC(p.pc.PDFPath(), titles)
	if err != nil {
		c.logger.Warn("could not read page numbers for the table of contents",
			zap.String("src", p.pc.SrcPath), zap.Error(err))
		return pdfBytes, nil
	}

	found := pipeline.SetTOCPages(p.doc, pages)
	if found == 0 {
		c.logger.Warn("no table of contents entry found in the PDF", zap.String("src", p.pc.SrcPath))
		return pdfBytes, nil
	}
	if found < len(titles) {
		c.logger.Warn("some table of contents entries have no page number",
			zap.String("src", p.pc.SrcPath), zap.Int("entries", len(titles)), zap.Int("found", found))
	}

	numbered, err := pipeline.Render(p.doc)
	if err != nil {
		return nil, err
	}
	if pdfBytes, err = c.render(ctx, p.pc, numbered); err != nil {
		return nil, err
	}
	p.html = numbered
	return pdfBytes, nil
}

// locateTOC returns the body page of each title in the PDF at path.
func (c *Converter) locateTOC(path string, titles []string) ([]int, error) {
	src, err := c.openTOC(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()
	return toctext.Locate(src, titles, toctext.Options{})
}

// writeTextTOC reads the table of contents back from the rendered PDF.
func (c *Converter) writeTextTOC(pc PageContext) error {
	c.logger.Info("generating text table of contents",
		zap.String("src", pc.SrcPath), zap.String("txt", pc.FileName+".txt"))

	src, err := c.openTOC(pc.PDFPath())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTOCText, err)
	}
	defer func() { _ = src.Close() }()

	entries, err := toctext.WriteFile(pc.TextPath(), c.cfg.TOCTitle, src, toctext.Options{SkipCover: c.cfg.Cover})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTOCText, err)
	}
	c.logger.Debug("text table of contents written", zap.String("src", pc.SrcPath), zap.Int("entries", len(entries)))
	return nil
}

// dumpDebug writes the transformed HTML under the debug directory,
// mirroring the source tree. Failures are logged only.
func (c *Converter) dumpDebug(pc PageContext, out string) {
	rel := strings.TrimSuffix(filepath.FromSlash(pc.SrcPath), ".md") + ".html"
	path := filepath.Join(c.cfg.DebugDir, rel)
	if err := writeBytes(path, []byte(out)); err != nil {
		c.logger.Warn("could not write debug HTML", zap.String("src", pc.SrcPath),
			zap.Error(fmt.Errorf("%w: %v", ErrDebugDump, err)))
		return
	}
	c.logger.Info("debug HTML written", zap.String("src", pc.SrcPath), zap.String("path", path))
}

// keywords builds the template keywords of a page: extra values, site
// options, computed cover title, subtitle and image, then the page's pdf
// front matter.
func (c *Converter) keywords(pc PageContext) map[string]any {
	cfg := c.cfg
	kw := make(map[string]any, len(cfg.Extra)+len(pc.Meta.Raw)+12)
	for k, v := range cfg.Extra {
		kw[k] = v
	}

	kw["author"] = unescape(cfg.Author)
	kw["author_logo"] = cfg.AuthorLogo
	kw["copyright"] = unescape(cfg.Copyright)
	kw["disclaimer"] = unescape(cfg.Disclaimer)
	kw["site_url"] = unescape(pc.SiteURL)
	kw["now"] = c.now()

	kw["cover_title"] = unescape(firstNonEmpty(pc.Meta.Title, pc.BodyTitle, c.coverTitle()))
	kw["cover_subtitle"] = unescape(firstNonEmpty(pc.Meta.Subtitle, capitalize(pc.DocType()), cfg.CoverSubtitle))
	kw["cover_image"] = cfg.CoverImage(pc.DocType())

	for k, v := range pc.Meta.Raw {
		if reservedKeywords[k] {
			continue
		}
		if s, ok := v.(string); ok {
			v = unescape(s)
		}
		kw[k] = v
	}
	return kw
}

// cssVars computes the :root variables of a page.
func (c *Converter) cssVars(pc PageContext) cssVars {
	return cssVars{
		Author:     c.cfg.Author,
		AuthorLogo: c.renderer.ResolveURL(c.cfg.AuthorLogo),
		Copyright:  c.cfg.Copyright,
		Title:      firstNonEmpty(pc.Meta.Title, c.coverTitle()),
		Subtitle:   firstNonEmpty(pc.Meta.Subtitle, c.cfg.CoverSubtitle),
		Type:       pc.DocType(),
		Revision:   pc.Meta.Revision,
		Filename:   pc.Meta.Filename,
		SiteURL:    pc.SiteURL,
		Chapter:    pc.BodyTitle,
	}
}

// coverTitle is the configured cover title, defaulting to the site name.
func (c *Converter) coverTitle() string {
	if c.cfg.CoverTitle != "" {
		return c.cfg.CoverTitle
	}
	return c.cfg.SiteName
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// writeBytes writes data atomically, creating parent directories.
func writeBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
