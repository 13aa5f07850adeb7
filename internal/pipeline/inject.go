package pipeline

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-sitepdf/internal/hints"
)

// Sentinel errors for fragment injection.
var (
	ErrCoverRender    = errors.New("cover template rendering failed")
	ErrFragmentRender = errors.New("fragment template rendering failed")
)

// CoverID is the id the cover template must give its root article.
const CoverID = "doc-cover"

// Family identifies a group of templates injected into the document.
type Family string

// Template families.
const (
	FamilyCover      Family = "cover"
	FamilyDisclaimer Family = "disclaimer"
	FamilyLegalTerms Family = "legal_terms"
)

// defaultPrefix marks the built-in fallback template of a family.
const defaultPrefix = "default_"

// TemplateRenderer renders the first existing template among names with
// the given keywords. It fails when none of the names resolves.
type TemplateRenderer interface {
	Render(names []string, keywords map[string]any) (string, error)
}

// CoverImage wires an image as the background of one cover element.
type CoverImage struct {
	ID    string // id of the target element in the rendered cover
	Src   string // image path, relative to the source document directory
	Style string // extra CSS appended after the background rule
}

// Injection describes one fragment to render and splice into a page.
type Injection struct {
	Family    Family
	DocType   string         // document type, used for the most specific template
	Selector  string         // explicit template name tried first, optional
	Keywords  map[string]any // template keywords
	Image     *CoverImage    // cover only
	SourceDir string         // directory of the source document
}

// Candidates returns the template names tried for the injection, most
// specific first: explicit selector, type-specific, generic, default.
func (inj Injection) Candidates() []string {
	var names []string
	if inj.Selector != "" {
		names = append(names, inj.Selector)
	}
	if t := typeKey(inj.DocType); t != "" {
		names = append(names, t+"_"+string(inj.Family))
	}
	return append(names, string(inj.Family), defaultPrefix+string(inj.Family))
}

// Injector renders template fragments and splices them into documents.
type Injector struct {
	renderer TemplateRenderer
	logger   *zap.Logger
}

// NewInjector creates an Injector. A nil logger discards output.
func NewInjector(renderer TemplateRenderer, logger *zap.Logger) *Injector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Injector{renderer: renderer, logger: logger}
}

// Inject renders the fragment described by inj and splices it into doc:
// covers become the first child of body, other families are appended at
// the end of body behind a page break. Any failure is logged once and
// leaves doc untouched. Reports whether the fragment was inserted.
func (i *Injector) Inject(doc *html.Node, inj Injection) bool {
	body := Body(doc)
	if body == nil {
		i.logger.Error("cannot inject fragment", zap.String("family", string(inj.Family)), zap.Error(ErrNoBody))
		return false
	}

	var (
		fragment *html.Node
		err      error
	)
	if inj.Family == FamilyCover {
		fragment, err = i.buildCover(inj)
	} else {
		fragment, err = i.buildAppendix(inj)
	}
	if err != nil {
		i.logger.Error("cannot inject fragment", zap.String("family", string(inj.Family)), zap.Error(err))
		return false
	}

	if inj.Family == FamilyCover {
		PrependChild(body, fragment)
	} else {
		body.AppendChild(fragment)
	}
	return true
}

// render renders and parses the injection template into detached nodes.
func (i *Injector) render(inj Injection) ([]*html.Node, error) {
	out, err := i.renderer.Render(inj.Candidates(), inj.Keywords)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFragmentRender, err)
	}
	return ParseFragment(out)
}

func (i *Injector) buildCover(inj Injection) (*html.Node, error) {
	nodes, err := i.render(inj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoverRender, err)
	}

	holder := newElement(atom.Div)
	for _, n := range nodes {
		holder.AppendChild(n)
	}
	cover := FindByID(holder, CoverID)
	if cover == nil || cover.DataAtom != atom.Article {
		return nil, fmt.Errorf("%w: no article#%s in rendered template", ErrCoverRender, CoverID)
	}
	cover.Parent.RemoveChild(cover)

	if inj.Image != nil {
		i.wireCoverImage(cover, *inj.Image, inj.SourceDir)
	}
	return cover, nil
}

// wireCoverImage sets the background of the element with img.ID. A missing
// element is logged and ignored; a missing file replaces the element content
// with a visible notice.
func (i *Injector) wireCoverImage(cover *html.Node, img CoverImage, sourceDir string) {
	target := FindByID(cover, img.ID)
	if target == nil {
		i.logger.Warn("cover image target not found", zap.String("id", img.ID))
		return
	}

	src := img.Src
	if !URLIsAbsolute(src) {
		if !filepath.IsAbs(src) {
			src = filepath.Join(sourceDir, src)
		}
		if _, err := os.Stat(src); err != nil {
			i.logger.Error("cover image not found"+hints.ForCoverImage(), zap.String("src", src), zap.Error(err))
			for target.FirstChild != nil {
				target.RemoveChild(target.FirstChild)
			}
			target.AppendChild(newText("File not found: " + img.Src))
			return
		}
		src = PathToFileURL(src)
	}

	style := fmt.Sprintf("background-image: url('%s');", src)
	if extra := strings.TrimSpace(img.Style); extra != "" {
		style += " " + extra
	}
	SetAttr(target, "style", style)
}

func (i *Injector) buildAppendix(inj Injection) (*html.Node, error) {
	nodes, err := i.render(inj)
	if err != nil {
		return nil, err
	}

	wrapper := newElement(atom.Div,
		html.Attribute{Key: "class", Val: "pdf-" + strings.ReplaceAll(string(inj.Family), "_", "-")},
		html.Attribute{Key: "style", Val: "page-break-before: always;"},
	)
	for _, n := range nodes {
		wrapper.AppendChild(n)
	}
	EnsureHeadingIDs(wrapper)
	return wrapper, nil
}

// typeKey turns a document type into a template name component.
func typeKey(docType string) string {
	return strings.Join(strings.Fields(strings.ToLower(docType)), "_")
}

// PathToFileURL converts an absolute path to a file:// URL.
func PathToFileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}
