package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	sitepdf "github.com/alnah/go-sitepdf"
	"github.com/alnah/go-sitepdf/internal/config"
	"github.com/alnah/go-sitepdf/internal/logging"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		// Success
		{"nil error", nil, ExitSuccess},

		// Browser errors (exit 4)
		{"browser connect", sitepdf.ErrBrowserConnect, ExitBrowser},
		{"page create", sitepdf.ErrPageCreate, ExitBrowser},
		{"page load", sitepdf.ErrPageLoad, ExitBrowser},
		{"pdf generation", sitepdf.ErrPDFGeneration, ExitBrowser},
		{"page error", &sitepdf.PageError{Src: "a.md", Err: sitepdf.ErrBrowserConnect}, ExitBrowser},
		{"pages failed on browser", fmt.Errorf("%w: 1 of 2: %w", ErrPagesFailed, sitepdf.ErrPageLoad), ExitBrowser},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"not a directory", ErrNotDir, ExitIO},
		{"no pages", ErrNoPages, ExitIO},
		{"read page", ErrReadPage, ExitIO},
		{"write page", ErrWritePage, ExitIO},
		{"write pdf", sitepdf.ErrWritePDF, ExitIO},
		{"manifest", sitepdf.ErrManifest, ExitIO},
		{"wrapped file not exist", fmt.Errorf("reading: %w", os.ErrNotExist), ExitIO},

		// Usage/config/validation errors (exit 2)
		{"usage", ErrUsage, ExitUsage},
		{"worker count", ErrInvalidWorkerCount, ExitUsage},
		{"front matter", ErrFrontMatter, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"empty config name", config.ErrEmptyConfigName, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid config", config.ErrInvalidConfig, ExitUsage},
		{"log level", logging.ErrInvalidLevel, ExitUsage},
		{"unknown theme", sitepdf.ErrUnknownTheme, ExitUsage},
		{"theme handler", sitepdf.ErrThemeHandler, ExitUsage},
		{"asset path", sitepdf.ErrInvalidAssetPath, ExitUsage},

		// General errors (exit 1)
		{"unknown error", errors.New("boom"), ExitGeneral},
		{"pages failed otherwise", ErrPagesFailed, ExitGeneral},
		{"text toc", sitepdf.ErrTOCText, ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodes_UnixConventions(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Error("exit codes must follow Unix conventions for 0, 1 and 2")
	}
	for _, code := range []int{ExitIO, ExitBrowser} {
		if code >= 126 {
			t.Errorf("custom exit code %d collides with shell reserved codes", code)
		}
	}
}
