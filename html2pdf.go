package sitepdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-sitepdf/internal/fileutil"
	"github.com/alnah/go-sitepdf/internal/hints"
	"github.com/alnah/go-sitepdf/internal/pipeline"
	"github.com/alnah/go-sitepdf/internal/process"
)

// pdfConverter abstracts HTML to PDF conversion to allow different backends.
type pdfConverter interface {
	ToPDF(ctx context.Context, htmlContent string, opts *pdfOptions) ([]byte, error)
	Close() error
}

// pdfRenderer abstracts PDF rendering from an HTML file to enable testing without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error)
}

// Compile-time interface checks
var (
	_ pdfConverter = (*rodConverter)(nil)
	_ pdfRenderer  = (*rodRenderer)(nil)
)

// pdfOptions holds options for PDF generation.
type pdfOptions struct {
	MediaType string // CSS media emulated while printing, "print" or "screen"
}

// Fallback page margins in inches, used when the stylesheets set no @page
// margin. Page size always comes from CSS.
const marginInches = 0.4

// rodRenderer implements pdfRenderer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
}

// newRodRenderer creates a rodRenderer with the given timeout.
func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return nil
	}

	l := newLauncher()
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}
	r.launcher = l

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		r.killBrowser()
		return fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}
	r.browser = browser
	return nil
}

// newLauncher configures Chrome from the environment: ROD_BROWSER_BIN
// selects a preinstalled binary, and the sandbox is disabled in CI, with a
// custom binary, or when ROD_NO_SANDBOX=1.
func newLauncher() *launcher.Launcher {
	l := launcher.New().Headless(true)
	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}
	if bin != "" || os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}
	return l
}

// killBrowser stops the launched browser and its children. Callers hold mu.
func (r *rodRenderer) killBrowser() {
	if r.launcher == nil {
		return
	}
	process.KillTree(r.launcher.PID())
	r.launcher.Kill()
	r.launcher = nil
}

// Close releases browser resources.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.killBrowser()
	return err
}

// RenderFromFile opens a local HTML file in headless Chrome and renders it to PDF.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: pipeline.PathToFileURL(filePath)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	// Wait for page to load with timeout from context or default
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: no load event after %s%s", ErrPageLoad, timeout.Round(time.Millisecond), hints.ForTimeout())
		}
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if opts != nil && opts.MediaType != "" {
		if err := (proto.EmulationSetEmulatedMedia{Media: opts.MediaType}).Call(page); err != nil {
			return nil, fmt.Errorf("%w: emulating %s media: %v", ErrPDFGeneration, opts.MediaType, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(buildPDFOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	return pdfBuf, nil
}

// buildPDFOptions lets @page rules drive the page size and keeps
// backgrounds, which the cover relies on.
func buildPDFOptions() *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PreferCSSPageSize: true,
		PrintBackground:   true,
		MarginTop:         floatPtr(marginInches),
		MarginBottom:      floatPtr(marginInches),
		MarginLeft:        floatPtr(marginInches),
		MarginRight:       floatPtr(marginInches),
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// rodConverter converts HTML to PDF using headless Chrome via go-rod.
type rodConverter struct {
	renderer pdfRenderer
	closer   io.Closer
}

// newRodConverter creates a rodConverter with production renderer.
func newRodConverter(timeout time.Duration) *rodConverter {
	r := newRodRenderer(timeout)
	return &rodConverter{renderer: r, closer: r}
}

// ToPDF writes the HTML to a temporary file and renders it with headless
// Chrome. Asset references must already be absolute.
func (c *rodConverter) ToPDF(ctx context.Context, htmlContent string, opts *pdfOptions) ([]byte, error) {
	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return c.renderer.RenderFromFile(ctx, tmpPath, opts)
}

// Close releases browser resources.
func (c *rodConverter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
