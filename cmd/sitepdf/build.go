package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	sitepdf "github.com/alnah/go-sitepdf"
	"github.com/alnah/go-sitepdf/internal/fileutil"
)

const filePermissions = 0o644

// Sentinel errors for the site build.
var (
	ErrWritePage   = errors.New("failed to write page")
	ErrPagesFailed = errors.New("some pages failed")
)

// sitePlugin is the part of *sitepdf.Plugin the build drives.
type sitePlugin interface {
	OnPostPage(ctx context.Context, page sitepdf.Page) (string, error)
	OnPostBuild(ctx context.Context) error
	Close() error
}

var _ sitePlugin = (*sitepdf.Plugin)(nil)

// pageResult holds the outcome of one page.
type pageResult struct {
	Src      string
	Err      error
	Duration time.Duration
}

// buildSite feeds the pages to the plugin from a bounded set of workers.
// Results keep the order of pages.
func buildSite(ctx context.Context, plugin sitePlugin, pages []sourcePage, workers int, logger *zap.Logger) []pageResult {
	if len(pages) == 0 {
		return nil
	}
	concurrency := min(sitepdf.ResolvePoolSize(workers), len(pages))
	logger.Debug("building pages", zap.Int("pages", len(pages)), zap.Int("workers", concurrency))

	results := make([]pageResult, len(pages))
	jobs := make(chan int, len(pages))
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = pageResult{Src: pages[idx].SrcPath, Err: err}
					continue
				}
				results[idx] = buildPage(ctx, plugin, pages[idx], logger)
			}
		}()
	}

	for i := range pages {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// buildPage converts one page and writes the linked HTML back in place.
// Conversion failures are logged by the plugin.
func buildPage(ctx context.Context, plugin sitePlugin, sp sourcePage, logger *zap.Logger) pageResult {
	start := time.Now()
	res := pageResult{Src: sp.SrcPath}

	page, err := readPage(sp)
	if err != nil {
		logger.Error("could not read page", zap.String("src", sp.SrcPath), zap.Error(err))
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	out, err := plugin.OnPostPage(ctx, page)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	if out != page.HTML {
		err := fileutil.WriteFileAtomic(sp.HTMLPath, filePermissions, func(w io.Writer) error {
			_, err := io.WriteString(w, out)
			return err
		})
		if err != nil {
			logger.Error("could not write page", zap.String("path", sp.HTMLPath), zap.Error(err))
			res.Err = fmt.Errorf("%w: %w", ErrWritePage, err)
		}
	}
	res.Duration = time.Since(start)
	return res
}

// summarize returns nil when every page succeeded. Otherwise the error
// wraps ErrPagesFailed and the first page error.
func summarize(results []pageResult) error {
	var first error
	failed := 0
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failed++
		if first == nil {
			first = r.Err
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d: %w", ErrPagesFailed, failed, len(results), first)
}
