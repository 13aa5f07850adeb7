package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// mockRenderer serves templates from a map and records lookups.
type mockRenderer struct {
	templates map[string]string
	err       error
	tried     []string
}

func (m *mockRenderer) Render(names []string, _ map[string]any) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	for _, n := range names {
		m.tried = append(m.tried, n)
		if tmpl, ok := m.templates[n]; ok {
			return tmpl, nil
		}
	}
	return "", errors.New("no template among " + strings.Join(names, ", "))
}

func newObservedInjector(r TemplateRenderer) (*Injector, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewInjector(r, zap.New(core)), logs
}

const injectPage = `<html><head></head><body><h1 id="t">Title</h1><p>content</p></body></html>`

// ---------------------------------------------------------------------------
// TestInjection_Candidates
// ---------------------------------------------------------------------------

func TestInjection_Candidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		inj  Injection
		want []string
	}{
		{
			name: "cover without type",
			inj:  Injection{Family: FamilyCover},
			want: []string{"cover", "default_cover"},
		},
		{
			name: "cover with type",
			inj:  Injection{Family: FamilyCover, DocType: "Release Notes"},
			want: []string{"release_notes_cover", "cover", "default_cover"},
		},
		{
			name: "legal terms with selector",
			inj:  Injection{Family: FamilyLegalTerms, DocType: "Manual", Selector: "eu_terms"},
			want: []string{"eu_terms", "manual_legal_terms", "legal_terms", "default_legal_terms"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.inj.Candidates(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestInjector_Cover
// ---------------------------------------------------------------------------

func TestInjector_CoverFirstChild(t *testing.T) {
	t.Parallel()

	r := &mockRenderer{templates: map[string]string{
		"manual_cover": `<article id="doc-cover"><h1>Manual</h1></article><p>ignored</p>`,
		"cover":        `<article id="doc-cover"><h1>generic</h1></article>`,
	}}
	inj, logs := newObservedInjector(r)
	doc := mustParse(t, injectPage)

	if !inj.Inject(doc, Injection{Family: FamilyCover, DocType: "Manual"}) {
		t.Fatal("Inject() = false, want true")
	}

	first := Body(doc).FirstChild
	if id, _ := GetAttr(first, "id"); id != CoverID {
		t.Fatalf("first body child id = %q, want %q", id, CoverID)
	}
	if got := TextContent(first); got != "Manual" {
		t.Errorf("cover text = %q, want type-specific template", got)
	}
	if strings.Contains(mustRender(t, doc), "ignored") {
		t.Error("only the cover article should be inserted")
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected logs: %v", logs.All())
	}
}

func TestInjector_BrokenCoverLeavesDocumentUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		renderer *mockRenderer
	}{
		{
			name:     "template path missing",
			renderer: &mockRenderer{templates: map[string]string{}},
		},
		{
			name:     "render error",
			renderer: &mockRenderer{err: errors.New("template: cover:3: unexpected EOF")},
		},
		{
			name:     "no cover article",
			renderer: &mockRenderer{templates: map[string]string{"cover": `<div>no article</div>`}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inj, logs := newObservedInjector(tt.renderer)
			doc := mustParse(t, injectPage)
			before := mustRender(t, doc)

			if inj.Inject(doc, Injection{Family: FamilyCover}) {
				t.Error("Inject() = true, want false")
			}
			if after := mustRender(t, doc); after != before {
				t.Errorf("document changed:\nbefore %s\nafter  %s", before, after)
			}
			if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 1 {
				t.Errorf("error logs = %d, want exactly 1", n)
			}
		})
	}
}

func TestInjector_CoverImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bg.png"), []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}
	const cover = `<article id="doc-cover"><div id="bg">placeholder</div></article>`

	tests := []struct {
		name        string
		image       CoverImage
		wantStyle   string
		wantText    string
		wantErrLogs int
		wantWarn    int
	}{
		{
			name:      "existing image sets background",
			image:     CoverImage{ID: "bg", Src: "bg.png", Style: "background-size: cover;"},
			wantStyle: "background-image: url('" + PathToFileURL(filepath.Join(dir, "bg.png")) + "'); background-size: cover;",
			wantText:  "placeholder",
		},
		{
			name:        "missing image shows notice",
			image:       CoverImage{ID: "bg", Src: "nope.png"},
			wantText:    "File not found: nope.png",
			wantErrLogs: 1,
		},
		{
			name:     "missing target leaves cover untouched",
			image:    CoverImage{ID: "absent", Src: "bg.png"},
			wantText: "placeholder",
			wantWarn: 1,
		},
		{
			name:      "remote image is used as is",
			image:     CoverImage{ID: "bg", Src: "https://cdn.test/bg.png"},
			wantStyle: "background-image: url('https://cdn.test/bg.png');",
			wantText:  "placeholder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inj, logs := newObservedInjector(&mockRenderer{templates: map[string]string{"cover": cover}})
			doc := mustParse(t, injectPage)
			img := tt.image

			if !inj.Inject(doc, Injection{Family: FamilyCover, Image: &img, SourceDir: dir}) {
				t.Fatal("Inject() = false, want true")
			}

			target := FindByID(doc, "bg")
			style, _ := GetAttr(target, "style")
			if style != tt.wantStyle {
				t.Errorf("style = %q, want %q", style, tt.wantStyle)
			}
			if got := TextContent(target); got != tt.wantText {
				t.Errorf("text = %q, want %q", got, tt.wantText)
			}
			if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != tt.wantErrLogs {
				t.Errorf("error logs = %d, want %d", n, tt.wantErrLogs)
			}
			if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != tt.wantWarn {
				t.Errorf("warn logs = %d, want %d", n, tt.wantWarn)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestInjector_Appendix - disclaimer and legal terms
// ---------------------------------------------------------------------------

func TestInjector_AppendixAppendedWithPageBreak(t *testing.T) {
	t.Parallel()

	r := &mockRenderer{templates: map[string]string{
		"default_disclaimer":  `<h2>Limitation of Liability</h2><p>No warranty.</p>`,
		"default_legal_terms": `<h2 id="given">Terms</h2><h3>Governing Law</h3>`,
	}}
	inj, logs := newObservedInjector(r)
	doc := mustParse(t, injectPage)

	if !inj.Inject(doc, Injection{Family: FamilyDisclaimer}) {
		t.Fatal("disclaimer Inject() = false")
	}
	if !inj.Inject(doc, Injection{Family: FamilyLegalTerms}) {
		t.Fatal("legal terms Inject() = false")
	}

	body := Body(doc)
	last := body.LastChild
	prev := last.PrevSibling
	if class, _ := GetAttr(prev, "class"); class != "pdf-disclaimer" {
		t.Errorf("second to last body child class = %q, want pdf-disclaimer", class)
	}
	if class, _ := GetAttr(last, "class"); class != "pdf-legal-terms" {
		t.Errorf("last body child class = %q, want pdf-legal-terms", class)
	}
	if style, _ := GetAttr(last, "style"); style != "page-break-before: always;" {
		t.Errorf("wrapper style = %q", style)
	}

	if FindByID(prev, "limitation-of-liability") == nil {
		t.Error("disclaimer heading id should be backfilled from its text")
	}
	if FindByID(last, "given") == nil || FindByID(last, "governing-law") == nil {
		t.Error("legal heading ids should be kept or backfilled")
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected logs: %v", logs.All())
	}
}

func TestInjector_AppendixFailureIsLogged(t *testing.T) {
	t.Parallel()

	inj, logs := newObservedInjector(&mockRenderer{templates: map[string]string{}})
	doc := mustParse(t, injectPage)
	before := mustRender(t, doc)

	if inj.Inject(doc, Injection{Family: FamilyLegalTerms, Selector: "missing"}) {
		t.Error("Inject() = true, want false")
	}
	if after := mustRender(t, doc); after != before {
		t.Error("document changed on failure")
	}
	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(entries) != 1 {
		t.Fatalf("error logs = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["family"]; got != "legal_terms" {
		t.Errorf("family field = %v, want legal_terms", got)
	}
}
