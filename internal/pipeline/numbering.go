package pipeline

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// NumberingAttr holds the hierarchical prefix assigned to a heading.
const NumberingAttr = "data-numbering"

// Heading depth bounds accepted by the TOC and numbering steps.
const (
	MinDepth = 1
	MaxDepth = 6
)

// ValidDepth reports whether depth is a usable TOC depth.
func ValidDepth(depth int) bool {
	return depth >= MinDepth && depth <= MaxDepth
}

// NumberHeadings attaches a "1.2.3. " style prefix to every h2-h<maxLevel>
// under doc, in document order. Headings deeper than maxLevel are neither
// numbered nor counted; h1 never takes part. No-op for depths outside 1-6.
func NumberHeadings(doc *html.Node, maxLevel int) {
	if !ValidDepth(maxLevel) {
		return
	}

	// counters[i] is the counter for heading level i+2.
	var counters [MaxDepth - 1]int
	for _, h := range Headings(doc, 2, maxLevel) {
		idx := h.Level - 2
		counters[idx]++
		for j := idx + 1; j < len(counters); j++ {
			counters[j] = 0
		}
		SetAttr(h.Node, NumberingAttr, formatNumbering(counters[:idx+1]))
	}
}

func formatNumbering(counters []int) string {
	parts := make([]string, len(counters))
	for i, c := range counters {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ".") + ". "
}
