package crawler

import (
	"context"
	"log/slog"
	"regexp"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// PageParser turns one URL into the words and outbound links of that page.
//
// Implementations must be safe for concurrent use and must never fail:
// any fetch or parse problem is reported as an empty Page.
type PageParser interface {
	Parse(ctx context.Context, url string) Page
}

// PageParserFunc adapts a function to the PageParser interface.
type PageParserFunc func(ctx context.Context, url string) Page

// Parse calls f(ctx, url).
func (f PageParserFunc) Parse(ctx context.Context, url string) Page {
	return f(ctx, url)
}

// Page is what a PageParser found on one page.
type Page struct {
	// WordCounts maps each word on the page to its number of occurrences.
	WordCounts map[string]int

	// Links are the outbound links of the page, in document order.
	Links []string
}

// Clock tells the current time. Traversals read it once per task.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f().
func (f ClockFunc) Now() time.Time {
	return f()
}

// Result is the final state of a traversal.
type Result struct {
	// WordCounts holds the summed word counts of every visited page.
	WordCounts map[string]int

	// VisitedURLs lists every visited URL once, in lexical order.
	VisitedURLs []string
}

// Option configures a traversal.
type Option func(*traversal)

// WithClock sets the clock compared against the deadline.
func WithClock(c Clock) Option {
	return func(t *traversal) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithParallelism limits how many pages are parsed at the same time.
// Non-positive values keep the default, runtime.NumCPU().
func WithParallelism(n int) Option {
	return func(t *traversal) {
		if n > 0 {
			t.parallelism = n
		}
	}
}

// WithLogger sets the logger used for per-task debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(t *traversal) {
		t.logger = logger
	}
}

// traversal holds everything shared by the tasks of one run.
// Only counts and visited are written after construction.
type traversal struct {
	counts      *WordCounts
	visited     *VisitedSet
	deadline    time.Time
	clock       Clock
	ignored     []*regexp.Regexp
	parser      PageParser
	parallelism int
	slots       *semaphore.Weighted
	logger      *slog.Logger
}

// RunTraversal visits every page reachable from startURLs within maxDepth
// levels and returns the combined word counts and the visited URLs.
//
// A start URL counts as depth 1: maxDepth 1 visits only the start URLs,
// maxDepth 0 visits nothing. Tasks that start after deadline, or after ctx
// is cancelled, end without visiting. A URL that matches any ignored pattern
// is neither visited nor counted.
//
// RunTraversal returns once every task has finished.
func RunTraversal(
	ctx context.Context,
	startURLs []string,
	maxDepth int,
	deadline time.Time,
	ignored []*regexp.Regexp,
	parser PageParser,
	opts ...Option,
) *Result {
	t := &traversal{
		counts:      NewWordCounts(),
		visited:     NewVisitedSet(),
		deadline:    deadline,
		clock:       ClockFunc(time.Now),
		ignored:     ignored,
		parser:      parser,
		parallelism: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.slots = semaphore.NewWeighted(int64(t.parallelism))

	t.logger.Debug("traversal started",
		"start_urls", len(startURLs),
		"max_depth", maxDepth,
		"deadline", deadline,
		"parallelism", t.parallelism,
	)

	t.visitAll(ctx, startURLs, maxDepth)

	result := &Result{
		WordCounts:  t.counts.Snapshot(),
		VisitedURLs: t.visited.Snapshot(),
	}

	t.logger.Debug("traversal finished",
		"visited", len(result.VisitedURLs),
		"words", len(result.WordCounts),
	)

	return result
}

// visitAll runs one task per URL concurrently and waits for all of them.
func (t *traversal) visitAll(ctx context.Context, urls []string, depth int) {
	var g errgroup.Group
	for _, u := range urls {
		g.Go(func() error {
			t.visit(ctx, u, depth)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors
}

// visit is one task. The checks run in a fixed order and each one ends the
// task early; see the package documentation.
func (t *traversal) visit(ctx context.Context, url string, depth int) {
	if depth <= 0 {
		return
	}
	if ctx.Err() != nil || t.clock.Now().After(t.deadline) {
		return
	}
	if t.isIgnored(url) {
		return
	}
	if !t.visited.Claim(url) {
		return
	}

	page, ok := t.parse(ctx, url)
	if !ok {
		return
	}

	t.counts.Merge(page.WordCounts)

	t.logger.Debug("page visited",
		"url", url,
		"depth", depth,
		"words", len(page.WordCounts),
		"links", len(page.Links),
	)

	t.visitAll(ctx, page.Links, depth-1)
}

// parse runs the parser while holding one parallelism slot.
// It reports false when no slot could be acquired before ctx was done.
func (t *traversal) parse(ctx context.Context, url string) (Page, bool) {
	if err := t.slots.Acquire(ctx, 1); err != nil {
		return Page{}, false
	}
	defer t.slots.Release(1)
	return t.parser.Parse(ctx, url), true
}

// isIgnored reports whether url matches any ignored pattern.
func (t *traversal) isIgnored(url string) bool {
	for _, p := range t.ignored {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}
