package sitepdf

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/alnah/go-sitepdf/internal/fileutil"
	"github.com/alnah/go-sitepdf/internal/pipeline"
)

// unknownDocType fills the type column when a page sets none.
const unknownDocType = "None"

// ManifestRow is one line of the CSV export: a published PDF and its text
// table of contents. Src orders the rows and is not exported.
type ManifestRow struct {
	Src          string
	Title        string
	Type         string
	Revision     string
	PDFURL       string
	PDFChecksum  string
	TextURL      string
	TextChecksum string
}

// Record returns the CSV fields of the row. Columns four and five are
// reserved and always empty.
func (r ManifestRow) Record() []string {
	return []string{r.Title, r.Type, r.Revision, "", "", r.PDFURL, r.PDFChecksum, r.TextURL, r.TextChecksum}
}

// NewManifestRow describes the PDF and text files written for pc. Both
// files must exist.
func NewManifestRow(pc PageContext) (ManifestRow, error) {
	title, rev, found := strings.Cut(pc.FileName, revisionSeparator)
	row := ManifestRow{
		Src:     pc.SrcPath,
		Title:   title,
		Type:    pc.Meta.Type,
		PDFURL:  publicURL(pc.PDFPath(), pc),
		TextURL: publicURL(pc.TextPath(), pc),
	}
	if found {
		row.Revision = "R_" + rev
	}
	if row.Type == "" {
		row.Type = unknownDocType
	}

	var err error
	if row.PDFChecksum, err = fileutil.MD5File(pc.PDFPath()); err != nil {
		return ManifestRow{}, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	if row.TextChecksum, err = fileutil.MD5File(pc.TextPath()); err != nil {
		return ManifestRow{}, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	return row, nil
}

// publicURL maps a local output file onto the site URL, or returns its
// file URI when it lives outside any known output directory.
func publicURL(path string, pc PageContext) string {
	if u, ok := pipeline.PublicURL(path, pc.SiteURL, pc.SiteDir); ok {
		return u
	}
	return pipeline.PathToFileURL(path)
}

// Manifest collects rows across pages. It is safe for concurrent use.
type Manifest struct {
	mu   sync.Mutex
	rows []ManifestRow
}

// Add appends a row.
func (m *Manifest) Add(row ManifestRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row)
}

// Len returns the number of rows.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// WriteTo writes all rows as CSV, sorted by source path so the output
// does not depend on the order pages finished in.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	m.mu.Lock()
	rows := slices.Clone(m.rows)
	m.mu.Unlock()
	slices.SortStableFunc(rows, func(a, b ManifestRow) int {
		return strings.Compare(a.Src, b.Src)
	})

	cw := &countingWriter{w: w}
	out := csv.NewWriter(cw)
	for _, r := range rows {
		if err := out.Write(r.Record()); err != nil {
			return cw.n, err
		}
	}
	out.Flush()
	return cw.n, out.Error()
}

// Write writes the manifest to path and returns the number of rows. No file
// is created when there are no rows.
func (m *Manifest) Write(path string) (int, error) {
	n := m.Len()
	if n == 0 {
		return 0, nil
	}
	err := fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, err := m.WriteTo(w)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	return n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
