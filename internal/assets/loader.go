package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrInvalidBasePath  = errors.New("invalid template directory")
	ErrAssetRead        = errors.New("failed to read asset")
	ErrPathTraversal    = errors.New("asset path escapes the template directory")
)

// Built-in style names.
const (
	StylePrint  = "pdf-print"
	StyleTOC    = "toc"
	StyleCover  = "cover"
	StyleCustom = "custom"
)

// TemplateExtensions lists the file extensions tried for a template name,
// in order.
var TemplateExtensions = []string{".html.tmpl", ".html.gotmpl", ".html", ".htm", ".md"}

// Template is a loaded template source.
type Template struct {
	Name    string // name without extension
	Ext     string // matched extension, one of TemplateExtensions
	Content string
}

// IsMarkdown reports whether the template body is Markdown.
func (t Template) IsMarkdown() bool {
	return t.Ext == ".md"
}

// AssetLoader defines the contract for loading CSS styles and templates.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadTemplate loads a template by name (without extension).
	// Returns ErrTemplateNotFound if no supported extension matches.
	LoadTemplate(name string) (Template, error)
}

// ValidateAssetName checks that an asset name is safe for use as a filename.
// Names may not be empty or contain path separators or dots.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

// findTemplate tries name with each of TemplateExtensions. read must
// return an error matching fs.ErrNotExist for a missing file.
func findTemplate(name string, read func(fileName string) (string, error)) (Template, error) {
	if err := ValidateAssetName(name); err != nil {
		return Template{}, err
	}
	for _, ext := range TemplateExtensions {
		content, err := read(name + ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Template{}, err
		}
		return Template{Name: name, Ext: ext, Content: content}, nil
	}
	return Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
}

// IsNotFound reports whether err means the asset does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStyleNotFound) || errors.Is(err, ErrTemplateNotFound)
}
