// Package assets provides the print stylesheets and the cover, disclaimer
// and legal-terms templates injected into PDF pages.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in styles/ and templates/ (go:embed)
//	    ├── FilesystemLoader  - user directory (custom_template_path)
//	    └── AssetResolver     - custom first, embedded on not-found
//
// Templates are looked up by name with each of TemplateExtensions in turn,
// so "cover" matches cover.html.tmpl, cover.html or cover.md.
//
// # Directory Structure
//
// The user directory is flat:
//
//	{custom_template_path}/
//	├── cover.html            # overrides default_cover
//	├── manual_cover.html     # cover for documents of type "Manual"
//	├── disclaimer.md         # Markdown templates are converted to HTML
//	└── custom.css            # appended after the built-in styles
//
// # Security
//
// Asset names are validated to prevent path traversal. FilesystemLoader
// resolves symlinks and verifies paths stay within its base directory.
package assets
