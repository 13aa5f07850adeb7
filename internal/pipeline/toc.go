package pipeline

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TOCID is the id of the generated table-of-contents article.
const TOCID = "doc-toc"

// DefaultTOCTitle is used when no title is configured.
const DefaultTOCTitle = "Table of Contents"

// TOCOptions configures table-of-contents generation.
type TOCOptions struct {
	Title string // heading of the TOC article
	Depth int    // deepest heading level listed, 1-6
}

// Shape selects the output form of a table of contents.
type Shape int

const (
	// ShapeHTML produces a nested-list article for the document body.
	ShapeHTML Shape = iota
	// ShapeText produces flat plain-text lines.
	ShapeText
)

// tocEntry is one emitted heading and the entries nested under it.
type tocEntry struct {
	heading  Heading
	children []*tocEntry
}

// collectTOC walks headings h1-h6 in document order and nests them with
// strict parent gating: an entry at level L attaches to the latest entry at
// level L-1 and is dropped when there is none. h1 entries always emit and
// reset every deeper holder. Levels deeper than depth are ignored.
func collectTOC(doc *html.Node, depth int) []*tocEntry {
	var roots []*tocEntry
	var holders [MaxDepth + 1]*tocEntry

	for _, h := range Headings(doc, 1, MaxDepth) {
		if h.Level > depth {
			continue
		}

		entry := &tocEntry{heading: h}
		if h.Level == 1 {
			roots = append(roots, entry)
		} else {
			parent := holders[h.Level-1]
			if parent == nil {
				continue
			}
			parent.children = append(parent.children, entry)
		}

		holders[h.Level] = entry
		for l := h.Level + 1; l <= MaxDepth; l++ {
			holders[l] = nil
		}
	}
	return roots
}

// tocResult carries the rendering of one shape.
type tocResult struct {
	article *html.Node
	lines   []string
}

// renderTOC runs the shared traversal and renders it in the given shape.
// The zero result is returned when opts.Depth is outside 1-6.
func renderTOC(doc *html.Node, opts TOCOptions, shape Shape) tocResult {
	if !ValidDepth(opts.Depth) {
		return tocResult{}
	}
	title := opts.Title
	if title == "" {
		title = DefaultTOCTitle
	}

	entries := collectTOC(doc, opts.Depth)
	if shape == ShapeText {
		return tocResult{lines: tocLines(title, entries)}
	}
	return tocResult{article: tocArticle(title, entries)}
}

// BuildTOC returns the table-of-contents article for doc, or nil when
// opts.Depth is outside 1-6. The document is not modified.
func BuildTOC(doc *html.Node, opts TOCOptions) *html.Node {
	return renderTOC(doc, opts, ShapeHTML).article
}

// TextTOC returns the plain-text table of contents of doc, title first,
// one line per entry. Returns nil when opts.Depth is outside 1-6.
func TextTOC(doc *html.Node, opts TOCOptions) []string {
	return renderTOC(doc, opts, ShapeText).lines
}

// InsertTOC numbers headings when numbered is set, builds the HTML table of
// contents and places it as the first child of body. It returns the
// plain-text shape of the same entries, title first. It is a no-op when
// opts.Depth is outside 1-6.
func InsertTOC(doc *html.Node, opts TOCOptions, numbered bool) ([]string, error) {
	if !ValidDepth(opts.Depth) {
		return nil, nil
	}
	body := Body(doc)
	if body == nil {
		return nil, ErrNoBody
	}

	if numbered {
		NumberHeadings(doc, opts.Depth)
	}
	lines := TextTOC(doc, opts)
	PrependChild(body, BuildTOC(doc, opts))
	return lines, nil
}

// PageAttr holds the printed page of a TOC entry.
const PageAttr = "data-page"

// SetTOCPages stores pages[i] on the i-th entry link of the table of
// contents, in the order of the text shape. Zero pages are skipped. It
// returns the number of links updated.
func SetTOCPages(doc *html.Node, pages []int) int {
	toc := FindByID(doc, TOCID)
	if toc == nil {
		return 0
	}
	i, set := 0, 0
	walkElements(toc, func(n *html.Node) bool {
		if n.DataAtom != atom.A || n.Parent == nil || n.Parent.DataAtom != atom.Li {
			return true
		}
		if i < len(pages) && pages[i] > 0 {
			SetAttr(n, PageAttr, strconv.Itoa(pages[i]))
			set++
		}
		i++
		return true
	})
	return set
}

func tocArticle(title string, entries []*tocEntry) *html.Node {
	article := newElement(atom.Article, html.Attribute{Key: "id", Val: TOCID})
	h1 := newElement(atom.H1)
	h1.AppendChild(newText(title))
	article.AppendChild(h1)

	// The root list exists even when no heading qualifies.
	root := newElement(atom.Ul)
	article.AppendChild(root)
	appendListItems(root, entries)
	return article
}

func appendListItems(ul *html.Node, entries []*tocEntry) {
	for _, e := range entries {
		li := newElement(atom.Li)
		// Level-1 entries stay empty; only deeper levels carry a link.
		if e.heading.Level > 1 {
			li.AppendChild(entryLink(e.heading))
		}
		if len(e.children) > 0 {
			sub := newElement(atom.Ul)
			appendListItems(sub, e.children)
			li.AppendChild(sub)
		}
		ul.AppendChild(li)
	}
}

func entryLink(h Heading) *html.Node {
	a := newElement(atom.A, html.Attribute{Key: "href", Val: "#" + h.ID()})
	if prefix, ok := h.Numbering(); ok {
		SetAttr(a, NumberingAttr, prefix)
	}
	appendInlineContent(a, h.Node)
	return a
}

// appendInlineContent copies the children of src into dst. Child anchors
// contribute only their first child so links never nest; permalink anchors
// are skipped.
func appendInlineContent(dst, src *html.Node) {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.A {
			if isPermalink(c) || c.FirstChild == nil {
				continue
			}
			dst.AppendChild(CloneNode(c.FirstChild))
			continue
		}
		dst.AppendChild(CloneNode(c))
	}
}

func isPermalink(a *html.Node) bool {
	class, _ := GetAttr(a, "class")
	for _, f := range strings.Fields(class) {
		if f == "headerlink" {
			return true
		}
	}
	return false
}

var textArtifacts = strings.NewReplacer(`\`, "", "`", "")

func tocLines(title string, entries []*tocEntry) []string {
	lines := []string{title}
	var walk func([]*tocEntry)
	walk = func(entries []*tocEntry) {
		for _, e := range entries {
			// Level-1 entries carry no text, matching the HTML shape.
			if e.heading.Level > 1 {
				lines = append(lines, entryText(e.heading))
			}
			walk(e.children)
		}
	}
	walk(entries)
	return lines
}

func entryText(h Heading) string {
	holder := newElement(atom.P)
	appendInlineContent(holder, h.Node)
	text := strings.Join(strings.Fields(TextContent(holder)), " ")
	if prefix, ok := h.Numbering(); ok {
		text = prefix + text
	}
	return textArtifacts.Replace(text)
}
