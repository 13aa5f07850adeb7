// Command sitepdf converts the pages of a built documentation site to PDF.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(runMain(os.Args[1:], os.Stdout, os.Stderr))
}

// runMain parses args, runs the build and maps the outcome to an exit code.
func runMain(args []string, stdout, stderr io.Writer) int {
	f, rest, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitCodeFor(err)
	}
	if f.version {
		fmt.Fprintf(stdout, "sitepdf %s\n", Version)
		return ExitSuccess
	}

	// maxprocs.Set only fails on an invalid GOMAXPROCS value, in which case
	// the runtime default stays.
	if f.verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			fmt.Fprintf(stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := run(ctx, f, rest); err != nil {
		fmt.Fprintln(stderr, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// run builds the PDFs of every page of one site.
func run(ctx context.Context, f *cliFlags, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: expected <docs-dir> <site-dir>, got %d arguments", ErrUsage, len(args))
	}
	docsDir, siteDir := args[0], args[1]

	cfg, configDir, err := loadConfig(f)
	if err != nil {
		return err
	}
	// Output paths are absolute; links only map onto the site URL when the
	// site directory is too.
	if cfg.SiteDir, err = filepath.Abs(siteDir); err != nil {
		return fmt.Errorf("%w: %w", ErrReadPage, err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	pages, missing, err := discoverPages(docsDir, siteDir)
	for _, src := range missing {
		logger.Warn("source has no built page", zap.String("src", src))
	}
	if err != nil {
		return err
	}
	logger.Debug("discovered pages", zap.Int("count", len(pages)), zap.String("docs", docsDir))

	plugin, err := newPlugin(cfg, f, configDir, docsDir, logger)
	if err != nil {
		return err
	}
	defer func() { _ = plugin.Close() }()

	results := buildSite(ctx, plugin, pages, f.workers, logger)
	if err := plugin.OnPostBuild(ctx); err != nil {
		return err
	}
	return summarize(results)
}
