// Package profile records how much wall time a crawl spends in each
// operation and writes the totals as a Markdown table.
//
// A Recorder is safe for concurrent use, so it can time the page parser
// while many traversal tasks call it at once. The recorded time of an
// operation that runs on several goroutines is the sum over goroutines and
// may exceed the elapsed time of the crawl.
package profile
