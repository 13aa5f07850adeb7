package sitepdf

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-sitepdf/internal/config"
)

// Stats counts the outcome of a build.
type Stats struct {
	PDFs   int64
	Texts  int64
	Errors int64
}

// Plugin drives PDF generation across the pages of one site build. Its
// hooks may be called from several goroutines.
type Plugin struct {
	cfg      *config.Config
	logger   *zap.Logger
	theme    Theme
	pool     *ConverterPool
	manifest Manifest
	enabled  bool
	start    time.Time

	pdfs   atomic.Int64
	texts  atomic.Int64
	errors atomic.Int64
}

// NewPlugin validates cfg, loads the theme and prepares a converter pool.
// Browsers start on the first converted page. opts configure every
// converter of the pool.
func NewPlugin(cfg *config.Config, opts ...Option) (*Plugin, error) {
	first, err := NewConverter(cfg, opts...)
	if err != nil {
		return nil, err
	}

	p := &Plugin{
		cfg:     first.cfg,
		logger:  first.logger,
		theme:   first.theme,
		enabled: first.cfg.Enabled(),
		start:   time.Now(),
	}

	// Later converters share the theme instead of reloading it.
	opts = append(opts[:len(opts):len(opts)], WithTheme(first.theme))
	var seeded atomic.Bool
	p.pool = NewConverterPool(ResolvePoolSize(first.opts.workers), func() (*Converter, error) {
		if seeded.CompareAndSwap(false, true) {
			return first, nil
		}
		return NewConverter(first.cfg, opts...)
	})

	if !p.enabled {
		p.logger.Info("PDF generation is disabled", zap.String("env", first.cfg.EnabledIfEnv))
	}
	if first.cfg.Debug {
		p.logger.Info("debug mode, transformed HTML is kept", zap.String("dir", first.cfg.DebugDir))
	}
	return p, nil
}

// Enabled reports whether pages are converted.
func (p *Plugin) Enabled() bool {
	return p.enabled
}

// Theme returns the theme used for the PDF links.
func (p *Plugin) Theme() Theme {
	return p.theme
}

// Stats returns the counters so far.
func (p *Plugin) Stats() Stats {
	return Stats{PDFs: p.pdfs.Load(), Texts: p.texts.Load(), Errors: p.errors.Load()}
}

// OnPostPage converts one built page and returns its HTML with a link to
// the PDF. Skipped pages are returned unchanged. Conversion failures are
// counted and returned as *PageError.
func (p *Plugin) OnPostPage(ctx context.Context, page Page) (string, error) {
	if !p.enabled || !p.selected(page.SrcPath) {
		return page.HTML, nil
	}
	if meta := ParseMetadata(page.Meta); !meta.Build {
		p.logger.Debug("PDF build disabled by page metadata", zap.String("src", page.SrcPath))
		return page.HTML, nil
	}

	conv, err := p.pool.Acquire(ctx)
	if err != nil {
		p.errors.Add(1)
		return "", &PageError{Src: page.SrcPath, Err: err}
	}
	defer p.pool.Release(conv)

	started := time.Now()
	res, err := conv.Convert(ctx, page)
	if err != nil {
		p.errors.Add(1)
		p.logger.Error("PDF conversion failed", zap.String("src", page.SrcPath), zap.Error(err))
		return "", &PageError{Src: page.SrcPath, Err: err}
	}

	p.pdfs.Add(1)
	if res.TextPath != "" {
		p.texts.Add(1)
	}
	if res.Row != nil {
		p.manifest.Add(*res.Row)
	}
	p.logger.Info("converted page to PDF",
		zap.String("src", page.SrcPath),
		zap.String("pdf", res.PDFPath),
		zap.Duration("elapsed", time.Since(started)))

	linked, err := p.theme.AddLink(page.HTML, filepath.Base(res.PDFPath))
	if err != nil {
		p.logger.Warn("could not add PDF link", zap.String("src", page.SrcPath),
			zap.String("theme", p.theme.Name()), zap.Error(err))
		return page.HTML, nil
	}
	return linked, nil
}

// selected reports whether src passes the debug target filter.
func (p *Plugin) selected(src string) bool {
	if p.cfg.DebugTarget == "" {
		return true
	}
	return cleanSrc(src) == cleanSrc(p.cfg.DebugTarget)
}

func cleanSrc(src string) string {
	return strings.TrimPrefix(path.Clean(strings.ReplaceAll(src, `\`, "/")), "./")
}

// OnPostBuild logs the build summary and writes the CSV manifest when
// enabled. It returns the manifest error, if any.
func (p *Plugin) OnPostBuild(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	stats := p.Stats()
	p.logger.Info("PDF generation finished",
		zap.Int64("pdfs", stats.PDFs),
		zap.Int64("texts", stats.Texts),
		zap.Duration("elapsed", time.Since(p.start)))

	var csvErr error
	if p.cfg.EnableCSV {
		if err := ctx.Err(); err != nil {
			return err
		}
		csvPath := filepath.Join(p.cfg.SiteDir, p.cfg.CSVName)
		n, err := p.manifest.Write(csvPath)
		switch {
		case err != nil:
			p.logger.Error("could not write CSV manifest", zap.String("path", csvPath), zap.Error(err))
			csvErr = err
		case n > 0:
			p.logger.Info(fmt.Sprintf("generated %s from %d entries", p.cfg.CSVName, n), zap.String("path", csvPath))
		}
	}

	if stats.Errors > 0 {
		p.logger.Error("PDF generation had errors", zap.Int64("errors", stats.Errors))
	}
	return csvErr
}

// Close releases every browser of the pool.
func (p *Plugin) Close() error {
	return p.pool.Close()
}
