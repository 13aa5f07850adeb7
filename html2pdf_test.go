package sitepdf

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher/flags"
)

// mockRenderer implements pdfRenderer for testing.
type mockRenderer struct {
	Result     []byte
	Err        error
	CalledWith string
	CalledOpts *pdfOptions
	Content    string
}

func (m *mockRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	m.CalledWith = filePath
	m.CalledOpts = opts
	if data, err := os.ReadFile(filePath); err == nil {
		m.Content = string(data)
	}
	return m.Result, m.Err
}

type mockCloser struct {
	closed int
	err    error
}

func (m *mockCloser) Close() error {
	m.closed++
	return m.err
}

// ---------------------------------------------------------------------------
// TestRodConverter_ToPDF - Temp File Handoff
// ---------------------------------------------------------------------------

func TestRodConverter_ToPDF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		html       string
		opts       *pdfOptions
		mock       *mockRenderer
		wantAnyErr bool
	}{
		{
			name: "successful render returns PDF bytes",
			html: "<html><body>Test</body></html>",
			mock: &mockRenderer{Result: []byte("%PDF-1.4 fake pdf content")},
		},
		{
			name:       "renderer error propagates",
			html:       "<html></html>",
			mock:       &mockRenderer{Err: errors.New("browser crashed")},
			wantAnyErr: true,
		},
		{
			name: "media type is forwarded",
			html: "<html></html>",
			opts: &pdfOptions{MediaType: "screen"},
			mock: &mockRenderer{Result: []byte("%PDF-1.4")},
		},
		{
			name: "unicode content succeeds",
			html: "<html><body>Bonjour à tous</body></html>",
			mock: &mockRenderer{Result: []byte("%PDF-1.4 unicode")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			converter := &rodConverter{renderer: tt.mock}
			result, err := converter.ToPDF(context.Background(), tt.html, tt.opts)

			if tt.wantAnyErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if string(result) != string(tt.mock.Result) {
				t.Errorf("expected result %q, got %q", tt.mock.Result, result)
			}
			if !strings.Contains(tt.mock.CalledWith, "sitepdf-") {
				t.Errorf("expected temp file path with 'sitepdf-', got %q", tt.mock.CalledWith)
			}
			if !strings.HasSuffix(tt.mock.CalledWith, ".html") {
				t.Errorf("expected .html temp file, got %q", tt.mock.CalledWith)
			}
			if tt.mock.Content != tt.html {
				t.Errorf("renderer read %q, want %q", tt.mock.Content, tt.html)
			}
			if tt.mock.CalledOpts != tt.opts {
				t.Errorf("opts = %v, want %v", tt.mock.CalledOpts, tt.opts)
			}
		})
	}
}

func TestRodConverter_ToPDF_RemovesTempFile(t *testing.T) {
	t.Parallel()

	mock := &mockRenderer{Result: []byte("%PDF-1.4")}
	converter := &rodConverter{renderer: mock}

	if _, err := converter.ToPDF(context.Background(), "<html></html>", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(mock.CalledWith); !os.IsNotExist(err) {
		t.Errorf("temp file %q should be removed, stat err = %v", mock.CalledWith, err)
	}
}

// ---------------------------------------------------------------------------
// TestRodConverter_Close
// ---------------------------------------------------------------------------

func TestRodConverter_Close(t *testing.T) {
	t.Parallel()

	t.Run("nil closer", func(t *testing.T) {
		t.Parallel()

		converter := &rodConverter{renderer: &mockRenderer{}}
		if err := converter.Close(); err != nil {
			t.Errorf("Close() = %v, want nil", err)
		}
	})

	t.Run("closer error propagates", func(t *testing.T) {
		t.Parallel()

		want := errors.New("boom")
		closer := &mockCloser{err: want}
		converter := &rodConverter{renderer: &mockRenderer{}, closer: closer}
		if err := converter.Close(); !errors.Is(err, want) {
			t.Errorf("Close() = %v, want %v", err, want)
		}
		if closer.closed != 1 {
			t.Errorf("closed %d times, want 1", closer.closed)
		}
	})
}

func TestNewRodConverter(t *testing.T) {
	t.Parallel()

	converter := newRodConverter(defaultTimeout)

	r, ok := converter.renderer.(*rodRenderer)
	if !ok {
		t.Fatalf("renderer is %T, want *rodRenderer", converter.renderer)
	}
	if r.timeout != defaultTimeout {
		t.Errorf("expected timeout %v, got %v", defaultTimeout, r.timeout)
	}
	if converter.closer != r {
		t.Error("closer should be the renderer")
	}
}

func TestRodRenderer_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRodRenderer(time.Second)
	if _, err := r.RenderFromFile(ctx, "/nonexistent.html", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("RenderFromFile() error = %v, want context.Canceled", err)
	}
	if r.browser != nil {
		t.Error("browser should not start for a canceled context")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() on idle renderer = %v", err)
	}
}

func TestBuildPDFOptions(t *testing.T) {
	t.Parallel()

	opts := buildPDFOptions()

	if !opts.PreferCSSPageSize {
		t.Error("expected CSS page size to be preferred")
	}
	if !opts.PrintBackground {
		t.Error("expected backgrounds to be printed")
	}
	for name, m := range map[string]*float64{
		"top": opts.MarginTop, "bottom": opts.MarginBottom,
		"left": opts.MarginLeft, "right": opts.MarginRight,
	} {
		if m == nil || *m != marginInches {
			t.Errorf("margin %s = %v, want %v", name, m, marginInches)
		}
	}
}

func TestNewLauncher_Sandbox(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		wantNoSandbox bool
	}{
		{name: "local default keeps sandbox"},
		{name: "CI", env: map[string]string{"CI": "true"}, wantNoSandbox: true},
		{name: "explicit opt out", env: map[string]string{"ROD_NO_SANDBOX": "1"}, wantNoSandbox: true},
		{name: "custom binary", env: map[string]string{"ROD_BROWSER_BIN": "/usr/bin/chromium"}, wantNoSandbox: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// t.Setenv forbids t.Parallel.
			for _, k := range []string{"CI", "ROD_NO_SANDBOX", "ROD_BROWSER_BIN"} {
				t.Setenv(k, tt.env[k])
			}

			l := newLauncher()
			if got := l.Has(flags.NoSandbox); got != tt.wantNoSandbox {
				t.Errorf("no-sandbox = %v, want %v", got, tt.wantNoSandbox)
			}
			if bin := tt.env["ROD_BROWSER_BIN"]; bin != "" && l.Get(flags.Bin) != bin {
				t.Errorf("bin = %q, want %q", l.Get(flags.Bin), bin)
			}
		})
	}
}
