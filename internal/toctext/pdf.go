package toctext

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrOpenPDF indicates the PDF file could not be opened or parsed.
var ErrOpenPDF = errors.New("cannot open PDF")

// wordGap is the horizontal gap, as a fraction of the font size, above
// which two text runs on a row are separated by a space.
const wordGap = 0.15

// PDFFile reads page text rows from a PDF file.
type PDFFile struct {
	f *os.File
	r *pdf.Reader
}

// OpenPDF opens the PDF at path. The caller must Close it.
func OpenPDF(path string) (*PDFFile, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenPDF, err)
	}
	return &PDFFile{f: f, r: r}, nil
}

// NumPages returns the page count.
func (p *PDFFile) NumPages() int {
	return p.r.NumPage()
}

// PageLines returns the text rows of page i (0-based), top to bottom.
func (p *PDFFile) PageLines(i int) ([]string, error) {
	page := p.r.Page(i + 1)
	if page.V.IsNull() {
		return nil, nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := joinRow(row.Content); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// Close releases the underlying file.
func (p *PDFFile) Close() error {
	return p.f.Close()
}

// joinRow concatenates the text runs of one row left to right, inserting a
// space where runs are visibly apart.
func joinRow(texts []pdf.Text) string {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].X < sorted[b].X })

	var sb strings.Builder
	for i, t := range sorted {
		if i > 0 {
			prev := sorted[i-1]
			if t.X-(prev.X+prev.W) > prev.FontSize*wordGap && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
	}
	return strings.TrimSpace(sb.String())
}

// Compile-time interface check.
var _ PageSource = (*PDFFile)(nil)
