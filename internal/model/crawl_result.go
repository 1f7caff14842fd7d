package model

import (
	"time"

	"github.com/nao1215/wordcrawl/internal/crawler"
)

// CrawlResult is the outcome of one traversal.
type CrawlResult struct {
	// ID identifies the run in the database. Empty until saved.
	ID string `json:"id,omitempty"`

	// StartURLs are the URLs the traversal started from.
	StartURLs []string `json:"startUrls"`

	// MaxDepth is the depth budget of every start URL.
	MaxDepth int `json:"maxDepth"`

	// StartedAt is when the traversal started.
	StartedAt time.Time `json:"startedAt"`

	// Deadline is the time after which no new page was visited.
	Deadline time.Time `json:"deadline"`

	// Elapsed is the wall time of the traversal.
	Elapsed time.Duration `json:"elapsed"`

	// WordCounts holds the most popular words and their counts.
	// It is limited to the configured popular word count.
	WordCounts map[string]int `json:"wordCounts"`

	// AllWordCounts holds every word of the traversal. It is stored in the
	// history database for cross-run totals but left out of reports.
	AllWordCounts map[string]int `json:"-"`

	// TotalWords is the number of distinct words seen before ranking.
	TotalWords int `json:"totalWords"`

	// URLsVisited is the number of distinct pages visited.
	URLsVisited int `json:"urlsVisited"`

	// VisitedURLs lists the visited pages.
	VisitedURLs []string `json:"visitedUrls,omitempty"`

	// TimedOut is true when the traversal ended after its deadline,
	// meaning some pages may have been skipped.
	TimedOut bool `json:"timedOut"`
}

// NewCrawlResult builds a CrawlResult from a finished traversal.
// Only the popular most frequent words are kept; popular <= 0 keeps all.
func NewCrawlResult(
	res *crawler.Result,
	startURLs []string,
	maxDepth int,
	startedAt, finishedAt, deadline time.Time,
	popular int,
) *CrawlResult {
	ranked := PopularWords(res.WordCounts, popular)
	counts := make(map[string]int, len(ranked))
	for _, wc := range ranked {
		counts[wc.Word] = wc.Count
	}

	return &CrawlResult{
		StartURLs:     startURLs,
		MaxDepth:      maxDepth,
		StartedAt:     startedAt,
		Deadline:      deadline,
		Elapsed:       finishedAt.Sub(startedAt),
		WordCounts:    counts,
		AllWordCounts: res.WordCounts,
		TotalWords:    len(res.WordCounts),
		URLsVisited:   len(res.VisitedURLs),
		VisitedURLs:   res.VisitedURLs,
		TimedOut:      finishedAt.After(deadline),
	}
}

// RankedWords returns WordCounts in popularity order.
func (r *CrawlResult) RankedWords() []WordCount {
	return PopularWords(r.WordCounts, 0)
}
