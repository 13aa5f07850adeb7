package main

import (
	"errors"
	"os"

	sitepdf "github.com/alnah/go-sitepdf"
	"github.com/alnah/go-sitepdf/internal/config"
	"github.com/alnah/go-sitepdf/internal/logging"
)

// Exit codes for the sitepdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every page converted
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or page metadata
	ExitIO      = 3 // Missing directory, unreadable or unwritable file
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, sitepdf.ErrBrowserConnect) ||
		errors.Is(err, sitepdf.ErrPageCreate) ||
		errors.Is(err, sitepdf.ErrPageLoad) ||
		errors.Is(err, sitepdf.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNotDir) ||
		errors.Is(err, ErrNoPages) ||
		errors.Is(err, ErrReadPage) ||
		errors.Is(err, ErrWritePage) ||
		errors.Is(err, sitepdf.ErrWritePDF) ||
		errors.Is(err, sitepdf.ErrManifest) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrFrontMatter) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, sitepdf.ErrUnknownTheme) ||
		errors.Is(err, sitepdf.ErrThemeHandler) ||
		errors.Is(err, sitepdf.ErrInvalidAssetPath) {
		return ExitUsage
	}

	return ExitGeneral
}
