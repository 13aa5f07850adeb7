package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
)

// builtin holds the default stylesheets and templates.
//
//go:embed styles templates
var builtin embed.FS

// EmbeddedLoader serves the defaults compiled into the binary.
type EmbeddedLoader struct {
	fsys fs.FS
}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{fsys: builtin}
}

// LoadStyle loads styles/{name}.css.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	content, err := fs.ReadFile(e.fsys, path.Join("styles", name+".css"))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	return string(content), nil
}

// LoadTemplate loads templates/{name}{ext}. Only default_* templates ship
// with the binary.
func (e *EmbeddedLoader) LoadTemplate(name string) (Template, error) {
	return findTemplate(name, func(fileName string) (string, error) {
		content, err := fs.ReadFile(e.fsys, path.Join("templates", fileName))
		return string(content), err
	})
}

var _ AssetLoader = (*EmbeddedLoader)(nil)
