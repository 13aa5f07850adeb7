package yamlutil

import (
	"bytes"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
)

var frontMatterDelim = []byte("---")

// SplitFrontMatter separates a leading YAML front matter block, delimited
// by "---" lines, from the document body. Without a front matter block it
// returns nil and the whole input.
func SplitFrontMatter(content []byte) (frontMatter, body []byte) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	first, rest, ok := cutLine(content)
	if !ok || !bytes.Equal(bytes.TrimRight(first, " \t"), frontMatterDelim) {
		return nil, content
	}

	start := len(content) - len(rest)
	for offset := start; offset < len(content); {
		line, next, _ := cutLine(content[offset:])
		if bytes.Equal(bytes.TrimRight(line, " \t"), frontMatterDelim) ||
			bytes.Equal(bytes.TrimRight(line, " \t"), []byte("...")) {
			return content[start:offset], next
		}
		offset = len(content) - len(next)
	}
	return nil, content
}

// UnmarshalFrontMatter decodes the front matter of content into v and
// returns the body. A document without front matter leaves v untouched.
func UnmarshalFrontMatter(content []byte, v any) ([]byte, error) {
	fm, body := SplitFrontMatter(content)
	if len(bytes.TrimSpace(fm)) == 0 {
		return body, nil
	}
	if err := Unmarshal(fm, v); err != nil {
		return nil, err
	}
	return body, nil
}

// NumberText returns the number at path (a YAML path such as
// "$.pdf.revision") in the front matter of content, as written. Decoding
// turns revision: 1.0 into the float 1; this keeps "1.0". ok is false when
// the value is missing or not a number.
func NumberText(content []byte, path string) (text string, ok bool) {
	fm, _ := SplitFrontMatter(content)
	if len(bytes.TrimSpace(fm)) == 0 || len(fm) > MaxInputSize {
		return "", false
	}
	p, err := yaml.PathString(path)
	if err != nil {
		return "", false
	}
	file, err := parser.ParseBytes(fm, 0)
	if err != nil {
		return "", false
	}
	node, err := p.FilterFile(file)
	if err != nil || node == nil {
		return "", false
	}
	switch node.Type() {
	case ast.IntegerType, ast.FloatType:
		return node.GetToken().Value, true
	}
	return "", false
}

// cutLine returns the first line of b without its line ending and the
// remainder. ok is false when b has no line terminator.
func cutLine(b []byte) (line, rest []byte, ok bool) {
	line, rest, ok = bytes.Cut(b, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, ok
}
