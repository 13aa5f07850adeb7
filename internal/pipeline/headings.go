package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Heading is a heading element together with its level (1-6).
type Heading struct {
	Node  *html.Node
	Level int
}

// ID returns the heading's id attribute, or empty.
func (h Heading) ID() string {
	id, _ := GetAttr(h.Node, "id")
	return id
}

// Numbering returns the numbering prefix attached by NumberHeadings.
func (h Heading) Numbering() (string, bool) {
	return GetAttr(h.Node, NumberingAttr)
}

var (
	slugSpaceRe   = regexp.MustCompile(`\s+`)
	slugInvalidRe = regexp.MustCompile(`[^\p{L}\p{N}_-]`)
	slugHyphensRe = regexp.MustCompile(`-{2,}`)
	titleIDRe     = regexp.MustCompile(`^[\w-]+$`)
	titleNumRe    = regexp.MustCompile(`^[\d.]+ `)
)

// HeadingLevel returns 1-6 for h1-h6 elements and 0 for anything else.
func HeadingLevel(n *html.Node) int {
	if n == nil || n.Type != html.ElementNode {
		return 0
	}
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// Headings returns the headings under root whose level lies in
// [minLevel, maxLevel], as a single document-order stream.
func Headings(root *html.Node, minLevel, maxLevel int) []Heading {
	var out []Heading
	walkElements(root, func(n *html.Node) bool {
		if lvl := HeadingLevel(n); lvl >= minLevel && lvl <= maxLevel && lvl > 0 {
			out = append(out, Heading{Node: n, Level: lvl})
		}
		return true
	})
	return out
}

// Slugify derives an anchor id from heading text: lowercase, whitespace
// runs become hyphens, characters other than letters, digits, underscore
// and hyphen are dropped, repeated hyphens collapse.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = slugSpaceRe.ReplaceAllString(s, "-")
	s = slugInvalidRe.ReplaceAllString(s, "")
	s = slugHyphensRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// EnsureHeadingIDs assigns a slug id to every heading under root that
// lacks one. Generated ids never collide with ids already present under root.
func EnsureHeadingIDs(root *html.Node) {
	taken := make(map[string]bool)
	walkElements(root, func(n *html.Node) bool {
		if id, ok := GetAttr(n, "id"); ok && id != "" {
			taken[id] = true
		}
		return true
	})

	for i, h := range Headings(root, 1, 6) {
		if h.ID() != "" {
			continue
		}
		base := Slugify(TextContent(h.Node))
		if base == "" {
			base = "heading-" + strconv.Itoa(i+1)
		}
		id := base
		for n := 1; taken[id]; n++ {
			id = base + "-" + strconv.Itoa(n)
		}
		taken[id] = true
		SetAttr(h.Node, "id", id)
	}
}

// H1Title returns the text of the first h1 carrying a word-like id, with
// any leading numbering removed. Returns fallback when there is none.
func H1Title(doc *html.Node, fallback string) string {
	for _, h := range Headings(doc, 1, 1) {
		if !titleIDRe.MatchString(h.ID()) {
			continue
		}
		title := strings.TrimSpace(TextContent(h.Node))
		title = titleNumRe.ReplaceAllString(title, "")
		if title != "" {
			return title
		}
	}
	return fallback
}
