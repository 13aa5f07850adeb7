package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sentinel errors for document tree operations.
var (
	ErrParseHTML  = errors.New("failed to parse HTML")
	ErrRenderHTML = errors.New("failed to render HTML")
	ErrNoBody     = errors.New("document has no body")
)

// Parse parses a full HTML page. The parser always synthesizes the html,
// head and body elements, so the returned tree has exactly one of each.
func Parse(content string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseHTML, err)
	}
	return doc, nil
}

// ParseFragment parses an HTML snippet in body context, returning the
// top-level nodes detached from any parent.
func ParseFragment(content string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseHTML, err)
	}
	return nodes, nil
}

// Render serializes the document tree back to HTML text.
func Render(doc *html.Node) (string, error) {
	var buf strings.Builder
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderHTML, err)
	}
	return buf.String(), nil
}

// Body returns the body element of a parsed page, or nil.
func Body(doc *html.Node) *html.Node {
	return findElement(doc, atom.Body)
}

// Head returns the head element of a parsed page, or nil.
func Head(doc *html.Node) *html.Node {
	return findElement(doc, atom.Head)
}

// InjectStyle appends a <style> element holding css to the document head.
// Empty css is ignored. Closing-tag sequences are escaped so the CSS cannot
// end the style element early.
func InjectStyle(doc *html.Node, css string) {
	if strings.TrimSpace(css) == "" {
		return
	}
	head := Head(doc)
	if head == nil {
		return
	}
	style := newElement(atom.Style)
	style.AppendChild(newText(sanitizeCSS(css)))
	head.AppendChild(style)
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// PrependChild inserts n as the first child of parent.
func PrependChild(parent, n *html.Node) {
	if parent.FirstChild == nil {
		parent.AppendChild(n)
		return
	}
	parent.InsertBefore(n, parent.FirstChild)
}

// InsertAfter inserts n as the next sibling of ref.
func InsertAfter(ref, n *html.Node) {
	if ref.NextSibling == nil {
		ref.Parent.AppendChild(n)
		return
	}
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// TextContent returns the concatenated text of n and its descendants.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// GetAttr returns the value of the named attribute.
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// FindByID returns the first element under root with the given id.
func FindByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	walkElements(root, func(n *html.Node) bool {
		if v, ok := GetAttr(n, "id"); ok && v == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// walkElements visits element nodes in document order until fn returns false.
func walkElements(n *html.Node, fn func(*html.Node) bool) bool {
	if n.Type == html.ElementNode && !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walkElements(c, fn) {
			return false
		}
	}
	return true
}

func findElement(root *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walkElements(root, func(n *html.Node) bool {
		if n.DataAtom == a {
			found = n
			return false
		}
		return true
	})
	return found
}

func newElement(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func newText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
