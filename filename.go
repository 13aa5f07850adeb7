package sitepdf

import (
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-sitepdf/internal/fileutil"
)

// revisionSeparator joins the document name and its revision in output
// file names. The CSV manifest splits on it.
const revisionSeparator = "_R_"

// OutputName returns the sanitized PDF base name for a page: the metadata
// filename, else the metadata title, else the body title, else the source
// base name without .md. A non-empty revision is appended with dots turned
// into underscores. Falling back to the source name is logged, never fatal.
func OutputName(meta Metadata, bodyTitle, srcPath string, logger *zap.Logger) string {
	name := firstNonEmpty(meta.Filename, meta.Title, bodyTitle)
	if name == "" {
		name = strings.TrimSuffix(path.Base(strings.ReplaceAll(srcPath, `\`, "/")), ".md")
		if logger != nil {
			logger.Warn("no filename, title or heading for the PDF document, using the source name",
				zap.String("src", srcPath), zap.String("filename", name))
		}
	}

	if meta.Revision != "" {
		name += revisionSeparator + strings.ReplaceAll(meta.Revision, ".", "_")
	}
	if safe := fileutil.SecureFilename(name); safe != "" {
		return safe
	}
	return fallbackName
}

// fallbackName is used when sanitizing leaves nothing.
const fallbackName = "document"

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
