package pipeline

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	// urlSchemeRe matches any reference that starts with a URL scheme.
	urlSchemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9.+-]+:`)
	// relativeDocRe matches dot-prefixed relative references.
	relativeDocRe = regexp.MustCompile(`^\.{1,2}[\w\-.~$&+,/:;=?@%#*]*$`)
	windowsPathRe = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

	posixBuildDirRe   = regexp.MustCompile(`^(/tmp|tmp)/(mkdocs|pages)[\w\-]+`)
	windowsBuildDirRe = regexp.MustCompile(`^[\w\-:\\]+\\+(temp|Temp)\\+(mkdocs|pages)[\w\-]+`)
	siteOutputDirRe   = regexp.MustCompile(`^[\w\-.~$&+,/:;=?@%#* \\]+[/\\]site(?:[/\\]|$)`)
)

// PageLinks locates one page inside the build for link rewriting.
type PageLinks struct {
	BaseURL string // file:// URI of the page's output file
	SiteURL string // public URL of the site root
	SiteDir string // final output directory of the site, optional
}

// IsInternal reports whether href targets a fragment of the same page.
func IsInternal(href string) bool {
	return strings.HasPrefix(href, "#")
}

// URLIsAbsolute reports whether href carries a URL scheme.
func URLIsAbsolute(href string) bool {
	return urlSchemeRe.MatchString(href)
}

// IsAbsPath reports whether href is an absolute filesystem path in either
// POSIX or Windows form.
func IsAbsPath(href string) bool {
	return strings.HasPrefix(href, "/") ||
		strings.HasPrefix(href, `\\`) ||
		windowsPathRe.MatchString(href)
}

// IsDoc reports whether href points at another page of the site.
func IsDoc(href string) bool {
	if relativeDocRe.MatchString(href) {
		return true
	}
	if URLIsAbsolute(href) || IsAbsPath(href) {
		return false
	}
	p, _, _ := splitRef(href)
	return strings.HasPrefix(path.Ext(path.Base(p)), ".html")
}

// RewriteDocLink resolves a cross-page href against the directory of
// baseURL and maps the resulting local path onto the public site URL.
// Internal, absolute and non-document references are returned unchanged,
// as is any reference whose resolved path matches no known output prefix.
func RewriteDocLink(href string, links PageLinks) string {
	if IsInternal(href) || !IsDoc(href) {
		return href
	}

	baseDir := path.Dir(filepathFromURL(links.BaseURL))
	p, query, fragment := splitRef(href)

	resolved := path.Clean(path.Join(baseDir, p))
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(resolved, "/") {
		resolved += "/"
	}

	mapped, ok := SiteURLFor(resolved, links.SiteURL, links.SiteDir)
	if !ok {
		return href
	}
	return iriToURI(mapped + query + fragment)
}

// SiteURLFor replaces a known local output prefix of absPath with siteURL
// (trailing slash trimmed). Recognized prefixes, in order: the configured
// site directory, a temporary build directory, a trailing "site" output
// directory. Reports false when none matches.
func SiteURLFor(absPath, siteURL, siteDir string) (string, bool) {
	site := strings.TrimRight(siteURL, "/")

	if siteDir != "" {
		dir := strings.TrimRight(toSlash(siteDir), "/")
		p := toSlash(absPath)
		if p == dir || strings.HasPrefix(p, dir+"/") {
			return site + strings.TrimPrefix(p, dir), true
		}
	}

	if isWindowsShape(absPath) {
		win := strings.ReplaceAll(strings.TrimPrefix(absPath, "/"), "/", `\`)
		for _, re := range []*regexp.Regexp{windowsBuildDirRe, siteOutputDirRe} {
			if end := prefixEnd(re, win); end >= 0 {
				return site + strings.ReplaceAll(win[end:], `\`, "/"), true
			}
		}
		return "", false
	}

	for _, re := range []*regexp.Regexp{posixBuildDirRe, siteOutputDirRe} {
		if end := prefixEnd(re, absPath); end >= 0 {
			return site + absPath[end:], true
		}
	}
	return "", false
}

// PublicURL maps a local output file onto its public site URL, escaped
// as a URI. Reports false when the path is outside any known output prefix.
func PublicURL(absPath, siteURL, siteDir string) (string, bool) {
	mapped, ok := SiteURLFor(absPath, siteURL, siteDir)
	if !ok {
		return "", false
	}
	return iriToURI(mapped), true
}

// prefixEnd returns the end offset of the prefix matched by re, not
// counting a trailing separator, or -1.
func prefixEnd(re *regexp.Regexp, s string) int {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return -1
	}
	end := loc[1]
	if end > 0 && (s[end-1] == '/' || s[end-1] == '\\') {
		end--
	}
	return end
}

// AbsolutizeAsset joins a relative asset reference against baseURL.
// References with a scheme or an absolute path pass through.
func AbsolutizeAsset(ref, baseURL string) string {
	if ref == "" || URLIsAbsolute(ref) || IsAbsPath(ref) || IsInternal(ref) {
		return ref
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ref
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(rel).String()
}

// RewriteLinks rewrites cross-page anchors, absolutizes assets and
// linearizes tabbed widgets, in that order. It returns the number of
// restructured tab blocks.
func RewriteLinks(doc *html.Node, links PageLinks) int {
	sel := goquery.NewDocumentFromNode(doc)

	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if rewritten := RewriteDocLink(href, links); rewritten != href {
			a.SetAttr("href", rewritten)
		}
	})

	AbsolutizeAssets(doc, links.BaseURL)
	return RestructureTabbed(doc)
}

// AbsolutizeAssets rewrites link[href] and every [src] attribute under doc
// to absolute URIs. Running it twice leaves the second pass unchanged.
func AbsolutizeAssets(doc *html.Node, baseURL string) {
	sel := goquery.NewDocumentFromNode(doc)
	rewrite := func(attr string) func(int, *goquery.Selection) {
		return func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(attr)
			if abs := AbsolutizeAsset(v, baseURL); abs != v {
				s.SetAttr(attr, abs)
			}
		}
	}
	sel.Find("link[href]").Each(rewrite("href"))
	sel.Find("[src]").Each(rewrite("src"))
}

var tabbedLabelRe = regexp.MustCompile(`^__tabbed_[\d_]+$`)

// Class names of the tabbed widget markup.
const (
	tabbedBlockClass   = "tabbed-block"
	tabbedContentClass = "tabbed-content"
	linearBlockClass   = "new_tabbed_block"
)

// RestructureTabbed turns tabbed widgets into linear content. Every tab
// block is renamed to an always-visible class and moved right after the
// label at the same position; the original content wrappers are removed.
// Pairing is positional. Returns the number of blocks moved.
func RestructureTabbed(doc *html.Node) int {
	sel := goquery.NewDocumentFromNode(doc)

	labels := sel.Find("label[for]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("for")
		return tabbedLabelRe.MatchString(v)
	}).Nodes
	blocks := sel.Find("div." + tabbedBlockClass).Nodes
	contents := sel.Find("div." + tabbedContentClass).Nodes

	for _, b := range blocks {
		SetAttr(b, "class", linearBlockClass)
	}

	moved := min(len(labels), len(blocks))
	for i := 0; i < moved; i++ {
		if p := blocks[i].Parent; p != nil {
			p.RemoveChild(blocks[i])
		}
		InsertAfter(labels[i], blocks[i])
	}

	for _, c := range contents {
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
	}
	return moved
}

// splitRef separates the path part of a reference from its query and
// fragment (both returned with their leading marker).
func splitRef(ref string) (p, query, fragment string) {
	p = ref
	if i := strings.Index(p, "#"); i >= 0 {
		p, fragment = p[:i], p[i:]
	}
	if i := strings.Index(p, "?"); i >= 0 {
		p, query = p[:i], p[i:]
	}
	return p, query, fragment
}

// filepathFromURL returns the slash-separated local path of a file URI.
// Non-URI input is returned in slash form.
func filepathFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Scheme != "file" {
		return toSlash(u)
	}
	return parsed.Path
}

func isWindowsShape(p string) bool {
	return windowsPathRe.MatchString(strings.TrimPrefix(p, "/")) || strings.Contains(p, `\`)
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// iriToURI percent-encodes characters that are not valid in a URI while
// keeping reserved delimiters intact.
func iriToURI(iri string) string {
	u, err := url.Parse(iri)
	if err != nil {
		return iri
	}
	return u.String()
}
