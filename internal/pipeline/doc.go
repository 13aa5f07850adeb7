// Package pipeline implements the per-page DOM transformation pipeline that
// prepares a rendered site page for PDF output.
//
// All stages work on one parsed golang.org/x/net/html tree:
//   - Link and asset rewriting (cross-page links to site URLs, asset
//     references to absolute URIs, tabbed widgets to linear blocks)
//   - Heading numbering ("1.2. " prefixes in a data attribute)
//   - Table of contents in two shapes sharing one traversal: a nested-list
//     article for the body and flat text lines for the text export
//   - Cover, disclaimer and legal-terms injection from templates
//
// Selection by CSS selector goes through goquery; tree edits are done on
// the underlying nodes. PDF rendering and template lookup live elsewhere:
// this package only sees a TemplateRenderer.
package pipeline
