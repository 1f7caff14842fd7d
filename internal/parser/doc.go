// Package parser fetches a single page and extracts its words and links.
//
// Parser implements crawler.PageParser. It never reports an error to the
// traversal engine: a page that cannot be fetched or parsed is returned as
// an empty crawler.Page and the failure is logged at debug level.
//
// Both http(s):// and file:// URLs are supported, so a directory of HTML
// files can be crawled without a web server.
//
// Design decision: We parse with golang.org/x/net/html and select with
// goquery on top of the parsed tree because:
//  1. x/net/html copes with the malformed HTML common on the web
//  2. goquery selectors keep text and link extraction short
//  3. Both libraries work on the same *html.Node tree
package parser
