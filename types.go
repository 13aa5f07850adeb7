package sitepdf

import (
	"fmt"
	"html"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-sitepdf/internal/pipeline"
)

// MetadataKey is the front matter key holding the per-page PDF options.
const MetadataKey = "pdf"

// DefaultDocType is used for the subtitle and CSS variables when a page
// sets no type.
const DefaultDocType = "Documentation"

// Page is one built page handed over by the host.
type Page struct {
	SrcPath  string         // source path relative to the docs directory, e.g. "guide/index.md"
	DestPath string         // absolute path of the built HTML file
	HTML     string         // rendered site HTML
	Meta     map[string]any // page front matter
}

// Metadata holds the PDF options of one page, read from the "pdf" front
// matter namespace.
type Metadata struct {
	Title      string
	Subtitle   string
	Type       string
	Revision   string
	Filename   string
	Image      *pipeline.CoverImage
	Disclaimer string // disclaimer template selector
	LegalTerms string // legal terms template selector
	Build      bool   // false skips the page
	TOCText    bool   // write a text table of contents next to the PDF

	// Raw is the whole namespace, merged into template keywords.
	Raw map[string]any
}

// ParseMetadata reads the "pdf" namespace of page front matter. Missing or
// malformed values keep their defaults.
func ParseMetadata(front map[string]any) Metadata {
	m := Metadata{Build: true, Raw: map[string]any{}}

	raw, ok := front[MetadataKey].(map[string]any)
	if !ok {
		return m
	}
	m.Raw = raw

	m.Title = stringValue(raw["title"])
	m.Subtitle = stringValue(raw["subtitle"])
	m.Type = stringValue(raw["type"])
	m.Revision = stringValue(raw["revision"])
	m.Filename = stringValue(raw["filename"])
	m.Disclaimer = stringValue(raw["disclaimer"])
	m.LegalTerms = stringValue(raw["legal_terms"])
	if b, ok := raw["build"].(bool); ok {
		m.Build = b
	}
	if b, ok := raw["toc_txt"].(bool); ok {
		m.TOCText = b
	}
	if img, ok := raw["image"].(map[string]any); ok {
		m.Image = &pipeline.CoverImage{
			ID:    stringValue(img["id"]),
			Src:   stringValue(img["src"]),
			Style: stringValue(img["style"]),
		}
		if m.Image.ID == "" || m.Image.Src == "" {
			m.Image = nil
		}
	}
	return m
}

// stringValue renders scalar front matter values as text. Numbers such
// as revision: 1.2 arrive as floats.
func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// PageContext carries everything that varies per page. It is built once
// per page and passed by value, so pages never share mutable state.
type PageContext struct {
	SrcPath   string // source path relative to the docs directory
	SrcDir    string // directory of the source document, for cover images
	DestDir   string // directory receiving the PDF
	FileName  string // sanitized output name, without extension
	BaseURL   string // file URI of the PDF, base for relative references
	SiteURL   string
	SiteDir   string
	BodyTitle string // first h1 of the page, or the metadata title
	Meta      Metadata
}

// PDFPath returns the path of the PDF file.
func (pc PageContext) PDFPath() string {
	return filepath.Join(pc.DestDir, pc.FileName+".pdf")
}

// TextPath returns the path of the text table of contents.
func (pc PageContext) TextPath() string {
	return filepath.Join(pc.DestDir, pc.FileName+".txt")
}

// DocType returns the page type, or DefaultDocType.
func (pc PageContext) DocType() string {
	if pc.Meta.Type != "" {
		return pc.Meta.Type
	}
	return DefaultDocType
}

// Links returns the link rewriting parameters of the page.
func (pc PageContext) Links() pipeline.PageLinks {
	return pipeline.PageLinks{BaseURL: pc.BaseURL, SiteURL: pc.SiteURL, SiteDir: pc.SiteDir}
}

// Result holds the output of one page conversion.
type Result struct {
	HTML     []byte // transformed HTML handed to the renderer
	PDF      []byte
	PDFPath  string
	TextPath string       // empty when no text table of contents was written
	Row      *ManifestRow // nil unless CSV export is enabled and a text TOC was written
}

// unescape decodes HTML entities in configured and front matter strings.
func unescape(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return html.UnescapeString(s)
}
