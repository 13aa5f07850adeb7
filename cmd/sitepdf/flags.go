package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	sitepdf "github.com/alnah/go-sitepdf"
	"github.com/alnah/go-sitepdf/internal/config"
	"github.com/alnah/go-sitepdf/internal/logging"
)

// Sentinel errors for command line handling.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// cliFlags holds the parsed command line.
type cliFlags struct {
	config      string
	siteURL     string
	workers     int
	timeout     time.Duration
	verbose     bool
	quiet       bool
	debug       bool
	debugTarget string
	noCover     bool
	noTOC       bool
	csv         bool
	version     bool
}

// parseFlags parses args (without the program name) and returns the
// positional arguments. Parse errors wrap ErrUsage.
func parseFlags(args []string, stderr io.Writer) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("sitepdf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &cliFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.siteURL, "site-url", "", "public URL of the site")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "per page PDF timeout (e.g. 30s, 2m)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug details")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only log errors")
	fs.BoolVar(&f.debug, "debug", false, "keep the transformed HTML of each page")
	fs.StringVar(&f.debugTarget, "debug-target", "", "only convert this source page")
	fs.BoolVar(&f.noCover, "no-cover", false, "disable the cover page")
	fs.BoolVar(&f.noTOC, "no-toc", false, "disable the table of contents")
	fs.BoolVar(&f.csv, "csv", false, "write the CSV manifest of text tables of contents")
	fs.BoolVar(&f.version, "version", false, "print the version")

	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if f.verbose && f.quiet {
		return nil, nil, fmt.Errorf("%w: --verbose and --quiet are exclusive", ErrUsage)
	}
	if err := validateWorkers(f.workers); err != nil {
		return nil, nil, err
	}
	if f.timeout < 0 {
		return nil, nil, fmt.Errorf("%w: negative timeout %s", ErrUsage, f.timeout)
	}
	return f, fs.Args(), nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: sitepdf [flags] <docs-dir> <site-dir>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert every page of a built documentation site to PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  docs-dir    Markdown sources with their front matter")
	fmt.Fprintln(w, "  site-dir    Built site, one index.html per page")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > sitepdf.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, sitepdf.MaxPoolSize)
	}
	return nil
}

// loadConfig reads the config file, or the defaults without one, and
// applies the flags on top. It also returns the directory relative
// config paths are anchored at.
func loadConfig(f *cliFlags) (*config.Config, string, error) {
	cfg := config.Default()
	configDir := "."
	if f.config != "" {
		loaded, err := config.LoadConfig(f.config)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
		configDir = filepath.Dir(f.config)
	}

	if f.siteURL != "" {
		cfg.SiteURL = f.siteURL
	}
	if f.debug {
		cfg.Debug = true
	}
	if f.debugTarget != "" {
		cfg.DebugTarget = f.debugTarget
	}
	if f.noCover {
		cfg.Cover = false
	}
	if f.noTOC {
		cfg.TOC = false
	}
	if f.csv {
		cfg.EnableCSV = true
	}
	switch {
	case f.verbose:
		cfg.Verbose = true
		cfg.Log.Level = "debug"
	case f.quiet:
		cfg.Log.Level = "error"
	case cfg.Verbose && cfg.Log.Level == "":
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, configDir, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return logger, nil
}

// newPlugin is swapped in tests.
var newPlugin = func(cfg *config.Config, f *cliFlags, configDir, docsDir string, logger *zap.Logger) (sitePlugin, error) {
	opts := []sitepdf.Option{
		sitepdf.WithLogger(logger),
		sitepdf.WithWorkers(f.workers),
		sitepdf.WithProjectDirs(configDir, docsDir),
	}
	if f.timeout > 0 {
		opts = append(opts, sitepdf.WithTimeout(f.timeout))
	}
	p, err := sitepdf.NewPlugin(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return p, nil
}
