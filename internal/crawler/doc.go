// Package crawler implements the traversal engine of wordcrawl.
//
// # Architecture
//
// A traversal starts one task per start URL. Each task is a recursive call
// that gates on depth, deadline, ignored patterns and the visited set, then
// asks a PageParser for the page's words and links, merges the words into the
// shared WordCounts and forks one child task per link. A task returns only
// after all of its children (and, transitively, their descendants) returned.
//
// Design decision: We use a goroutine per task joined by an errgroup rather
// than a fixed worker pool with a queue because:
//  1. Fork/join keeps the depth of every task on its own stack frame
//  2. A parent cannot finish before its descendants, by construction
//  3. Parallelism is still bounded, by a semaphore around the parse step
//
// # Shared state
//
//   - VisitedSet: Claim is an atomic insert-if-absent
//   - WordCounts: Add is an atomic insert-or-add
//
// Ignored patterns and the deadline are read-only for the whole traversal.
//
// # Usage
//
//	result := crawler.RunTraversal(ctx, []string{"https://example.com/"},
//	    3, time.Now().Add(time.Minute), ignored, parser,
//	    crawler.WithParallelism(8))
package crawler
