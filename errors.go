package sitepdf

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	ErrEmptyHTML      = errors.New("page HTML cannot be empty")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrWritePDF       = errors.New("failed to write PDF")
	ErrTOCText        = errors.New("text table of contents failed")
	ErrManifest       = errors.New("failed to write CSV manifest")
	ErrDebugDump      = errors.New("failed to write debug HTML")

	// Theme errors.
	ErrUnknownTheme   = errors.New("unknown theme")
	ErrThemeHandler   = errors.New("invalid theme handler")
	ErrThemeInsertion = errors.New("theme insertion point not found")

	// Asset loading errors.
	ErrInvalidAssetPath = errors.New("invalid asset path")
)

// PageError reports a failed page conversion with its source path.
type PageError struct {
	Src string
	Err error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("converting %s: %v", e.Src, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}
