// Package sitepdf exports the pages of a built documentation site to PDF
// using headless Chrome.
//
// # Quick Start
//
// Load a configuration, create a plugin, and hand it every built page:
//
//	cfg, err := config.LoadConfig("sitepdf.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p, err := sitepdf.NewPlugin(cfg, sitepdf.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	siteHTML, err := p.OnPostPage(ctx, sitepdf.Page{
//	    SrcPath:  "guide/index.md",
//	    DestPath: "/srv/site/guide/index.html",
//	    HTML:     rendered,
//	    Meta:     frontMatter,
//	})
//	...
//	err = p.OnPostBuild(ctx)
//
// OnPostPage writes the PDF next to the page and returns the site HTML with
// a download link added by the configured theme.
//
// # Conversion Pipeline
//
// Each page goes through these stages on one parsed HTML tree:
//
//  1. Page counter and print stylesheets (root variables, pdf-print, toc,
//     cover, theme, custom.css)
//  2. Link and asset rewriting, tabbed widget linearization
//  3. Heading ids and numbering
//  4. Table of contents at the top of body
//  5. Cover at position zero, disclaimer and legal terms appended
//  6. PDF rendering via headless Chrome (go-rod)
//  7. Optional text table of contents read back from the PDF
//
// Pages are independent: the build configuration is immutable and every
// per-page value travels in a PageContext, so pages may be converted in
// parallel with a ConverterPool.
//
// # Front Matter
//
// Per-page options live under the pdf key:
//
//	pdf:
//	  title: User Guide
//	  subtitle: Installation and setup
//	  type: Manual
//	  revision: "2.1"
//	  filename: user-guide
//	  image: {id: cover-image, src: img/cover.png, style: "background-size: cover;"}
//	  disclaimer: custom_disclaimer
//	  legal_terms: eu_legal_terms
//	  build: true
//	  toc_txt: true
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set CI=true to disable the Chrome
// sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package sitepdf
