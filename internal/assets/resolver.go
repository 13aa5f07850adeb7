package assets

// AssetResolver looks up assets in the project template directory first
// and falls back to the built-in ones. Only not-found errors fall back: a
// broken or unreadable custom file is reported.
type AssetResolver struct {
	custom   *FilesystemLoader // nil without a template directory
	embedded *EmbeddedLoader
}

// NewAssetResolver creates an AssetResolver. An empty dir uses only the
// built-in assets; otherwise dir must be a readable directory.
func NewAssetResolver(dir string) (*AssetResolver, error) {
	r := &AssetResolver{embedded: NewEmbeddedLoader()}
	if dir == "" {
		return r, nil
	}
	custom, err := NewFilesystemLoader(dir)
	if err != nil {
		return nil, err
	}
	r.custom = custom
	return r, nil
}

// CustomDir returns the resolved template directory, or "" when only the
// built-in assets are used.
func (r *AssetResolver) CustomDir() string {
	if r.custom == nil {
		return ""
	}
	return r.custom.BasePath()
}

func (r *AssetResolver) LoadStyle(name string) (string, error) {
	if r.custom != nil {
		css, err := r.custom.LoadStyle(name)
		if err == nil || !IsNotFound(err) {
			return css, err
		}
	}
	return r.embedded.LoadStyle(name)
}

func (r *AssetResolver) LoadTemplate(name string) (Template, error) {
	if r.custom != nil {
		tmpl, err := r.custom.LoadTemplate(name)
		if err == nil || !IsNotFound(err) {
			return tmpl, err
		}
	}
	return r.embedded.LoadTemplate(name)
}

var _ AssetLoader = (*AssetResolver)(nil)
