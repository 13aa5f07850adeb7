package pipeline

import "golang.org/x/net/html"

// CloneNode returns a deep copy of n that shares no state with the source.
// The copy is detached: it has no parent and no siblings.
func CloneNode(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}

	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		clone.Attr = make([]html.Attribute, len(n.Attr))
		copy(clone.Attr, n.Attr)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(CloneNode(c))
	}
	return clone
}
