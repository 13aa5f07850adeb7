// Package toctext recovers the table of contents of a rendered PDF as plain
// text. The PDF carries no structure, so the TOC is located and parsed from
// the flattened text lines of its first pages.
package toctext

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/alnah/go-sitepdf/internal/fileutil"
)

// Sentinel errors for TOC extraction.
var (
	ErrTOCMismatch = errors.New("table of contents titles and page numbers do not match")
	ErrReadPage    = errors.New("cannot read PDF page text")
)

// PageSource gives access to the text lines of each page of a document.
type PageSource interface {
	NumPages() int
	// PageLines returns the non-empty text lines of page i (0-based) in
	// reading order.
	PageLines(i int) ([]string, error)
}

// Options controls where the scan starts.
type Options struct {
	// SkipCover starts the scan on the second page.
	SkipCover bool
}

// Entry is one TOC line: a numbered title and the page it points to.
type Entry struct {
	Title string
	Page  string
}

var (
	leaderDots    = regexp.MustCompile(`\s*\.{3,}\s*|\s+(?:\.\s*){3,}`)
	spaces        = regexp.MustCompile(`\s+`)
	pageThenTitle = regexp.MustCompile(`^(\d+)\s+(\d+(?:\.\d+)*\.\s+\S.*)$`)
	titleThenPage = regexp.MustCompile(`^(\d+(?:\.\d+)*\.\s+\S.*?)\s+(\d+)$`)
	titleOnly     = regexp.MustCompile(`^(\d+(?:\.\d+)*\.\s+\S.*)$`)
	pageOnly      = regexp.MustCompile(`^(\d+)$`)
)

// tocLine is a qualifying line split into its title and page tokens. Either
// may be empty, but not both.
type tocLine struct {
	title string
	page  string
}

// parseLine reports whether line looks like part of a TOC and splits it.
func parseLine(line string) (tocLine, bool) {
	line = leaderDots.ReplaceAllString(line, " ")
	line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))

	if m := pageThenTitle.FindStringSubmatch(line); m != nil {
		return tocLine{title: m[2], page: m[1]}, true
	}
	if m := titleThenPage.FindStringSubmatch(line); m != nil {
		return tocLine{title: m[1], page: m[2]}, true
	}
	if m := titleOnly.FindStringSubmatch(line); m != nil {
		return tocLine{title: m[1]}, true
	}
	if m := pageOnly.FindStringSubmatch(line); m != nil {
		return tocLine{page: m[1]}, true
	}
	return tocLine{}, false
}

// qualifying returns the TOC lines of one page. A bare page number only
// qualifies when it follows a title without a page on the same page, so
// running footers are not taken for entries.
func qualifying(lines []string) []tocLine {
	var (
		out     []tocLine
		pending int
	)
	for _, l := range lines {
		tl, ok := parseLine(l)
		switch {
		case !ok:
			continue
		case tl.title == "":
			if pending == 0 {
				continue
			}
			pending--
		case tl.page == "":
			pending++
		}
		out = append(out, tl)
	}
	return out
}

// Extract locates the TOC pages of src and returns its entries in order.
//
// Pages without qualifying lines are skipped until the TOC starts. The
// title of the first qualifying line is remembered as a fingerprint; the
// scan stops before the first later page whose first or second titled line
// repeats it (the numbered heading of the body), or at the first page
// without qualifying lines once the TOC has started. Titles and page
// numbers are then paired in order; differing counts fail with
// ErrTOCMismatch and no entries.
func Extract(src PageSource, opts Options) ([]Entry, error) {
	start := 0
	if opts.SkipCover {
		start = 1
	}

	var (
		collected   []tocLine
		fingerprint string
		started     bool
	)
	for i := start; i < src.NumPages(); i++ {
		lines, err := src.PageLines(i)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrReadPage, i+1, err)
		}
		q := qualifying(lines)

		if len(q) == 0 {
			if started {
				break
			}
			continue
		}
		if started && repeatsFingerprint(q, fingerprint) {
			break
		}
		if fingerprint == "" {
			fingerprint = firstTitle(q)
		}
		started = true
		collected = append(collected, q...)
	}

	var titles, pages []string
	for _, tl := range collected {
		if tl.title != "" {
			titles = append(titles, tl.title)
		}
		if tl.page != "" {
			pages = append(pages, tl.page)
		}
	}
	if len(titles) != len(pages) {
		return nil, fmt.Errorf("%w: %d titles, %d page numbers", ErrTOCMismatch, len(titles), len(pages))
	}

	entries := make([]Entry, len(titles))
	for i := range titles {
		entries[i] = Entry{Title: titles[i], Page: pages[i]}
	}
	return entries, nil
}

// repeatsFingerprint checks the first two titled lines of a page.
func repeatsFingerprint(q []tocLine, fingerprint string) bool {
	if fingerprint == "" {
		return false
	}
	seen := 0
	for _, tl := range q {
		if tl.title == "" {
			continue
		}
		if tl.title == fingerprint {
			return true
		}
		if seen++; seen == 2 {
			break
		}
	}
	return false
}

func firstTitle(q []tocLine) string {
	for _, tl := range q {
		if tl.title != "" {
			return tl.title
		}
	}
	return ""
}

// Locate returns the 1-based page on which each title appears in the body
// of src, or 0 when it is not found. src is a rendering whose table of
// contents lists the titles without page numbers, before the body.
//
// Text is compared without whitespace, and a title may wrap over
// consecutive lines. The first occurrence of every title is taken to be
// the TOC, so the body starts after the last page holding one; titles are
// then searched in order from there, never moving backwards.
func Locate(src PageSource, titles []string, opts Options) ([]int, error) {
	start := 0
	if opts.SkipCover {
		start = 1
	}

	var pages [][]string
	for i := start; i < src.NumPages(); i++ {
		lines, err := src.PageLines(i)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrReadPage, i+1, err)
		}
		compacted := make([]string, len(lines))
		for j, l := range lines {
			compacted[j] = compact(l)
		}
		pages = append(pages, compacted)
	}

	wanted := make([]string, len(titles))
	bodyStart := 0
	for i, t := range titles {
		wanted[i] = compact(t)
		if p := findTitle(pages, wanted[i], 0); p >= bodyStart {
			bodyStart = p + 1
		}
	}

	found := make([]int, len(titles))
	from := bodyStart
	for i, w := range wanted {
		p := findTitle(pages, w, from)
		if p < 0 {
			continue
		}
		found[i] = start + p + 1
		from = p
	}
	return found, nil
}

// findTitle returns the index of the first page at or after from holding
// want on one line or spread over consecutive lines, or -1.
func findTitle(pages [][]string, want string, from int) int {
	if want == "" {
		return -1
	}
	for p := from; p < len(pages); p++ {
		lines := pages[p]
		for i := range lines {
			acc := ""
			for j := i; j < len(lines); j++ {
				acc += lines[j]
				if acc == want {
					return p
				}
				if !strings.HasPrefix(want, acc) {
					break
				}
			}
		}
	}
	return -1
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Write writes title on the first line followed by one "title<TAB>page"
// line per entry.
func Write(w io.Writer, title string, entries []Entry) error {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteByte('\n')
	for _, e := range entries {
		sb.WriteString(e.Title)
		sb.WriteByte('\t')
		sb.WriteString(e.Page)
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteFile extracts the TOC of src and writes it to path. Nothing is
// written when extraction fails.
func WriteFile(path, title string, src PageSource, opts Options) ([]Entry, error) {
	entries, err := Extract(src, opts)
	if err != nil {
		return nil, err
	}
	err = fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return Write(w, title, entries)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
