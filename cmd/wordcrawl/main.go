// Package main provides the entry point for the wordcrawl CLI.
//
// wordcrawl follows links from one or more start pages in parallel,
// up to a depth limit and a deadline, and reports the most popular
// words it found.
//
// Usage:
//
//	wordcrawl crawl https://example.com/
//	wordcrawl crawl -c crawl.yaml
//	wordcrawl history
//
// See --help for all available options.
package main

// main is the entry point for wordcrawl.
func main() {
	Execute()
}
