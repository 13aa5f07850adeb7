// Package hints builds the short remediation notes appended to error
// messages, each rendered as "\n  hint: <text>".
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-sitepdf/internal/fileutil"
)

const prefix = "\n  hint: "

// ciVars are set by common CI runners.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}

// IsInContainer reports whether the process runs in a Docker container.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

func inCI() bool {
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect suggests the rod environment variables that usually
// fix a browser that will not start.
func ForBrowserConnect() string {
	var notes []string
	if (inCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		notes = append(notes, "set ROD_NO_SANDBOX=1 when running in Docker or CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		notes = append(notes, "set ROD_BROWSER_BIN to use an installed Chrome")
	}
	return join(notes...)
}

// ForTimeout is appended when a page never finishes loading.
func ForTimeout() string {
	return join("pages with many images or diagrams may need a longer --timeout")
}

// ForConfigNotFound points at --config and the user config location, if
// it was among the searched paths.
func ForConfigNotFound(searched []string) string {
	note := "use --config /path/to/sitepdf.yaml"
	for _, p := range searched {
		if strings.Contains(p, ".config/go-sitepdf") {
			note += " or create " + p
			break
		}
	}
	return join(note)
}

// ForSiteDir is appended when the built site directory is unusable.
func ForSiteDir() string {
	return join("build the site first and pass its output directory (e.g. site/)")
}

// ForTemplateNotFound lists the template names that were tried.
func ForTemplateNotFound(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	return join("tried templates: " + strings.Join(candidates, ", ") + "; check custom_template_path")
}

// ForCoverImage is appended when a cover image cannot be read.
func ForCoverImage() string {
	return join("image paths are relative to the Markdown source; supported formats: PNG, JPG, SVG, or a URL")
}

// ForTOCText is appended when the text table of contents is skipped.
func ForTOCText() string {
	return join("toc_txt needs both toc and toc_numbering enabled in the plugin config")
}

// join renders notes as a single hint, or "" when there are none.
func join(notes ...string) string {
	var kept []string
	for _, n := range notes {
		if n != "" {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return prefix + strings.Join(kept, "; ")
}
