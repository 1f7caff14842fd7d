package profile

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/wordcrawl/internal/crawler"
)

// Entry is the accumulated timing of one operation.
type Entry struct {
	Name  string
	Calls int
	Total time.Duration
}

// Average returns the mean duration of one call.
func (e Entry) Average() time.Duration {
	if e.Calls == 0 {
		return 0
	}
	return e.Total / time.Duration(e.Calls)
}

// Recorder accumulates durations per operation name.
type Recorder struct {
	mu      sync.Mutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Track starts timing name and returns the function that stops it.
//
//	defer rec.Track("crawl")()
func (r *Recorder) Track(name string) func() {
	start := r.now()
	return func() {
		r.Record(name, r.now().Sub(start))
	}
}

// Record adds one call of duration d to name.
func (r *Recorder) Record(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		e = &Entry{Name: name}
		r.entries[name] = e
	}
	e.Calls++
	e.Total += d
}

// Entries returns the recorded operations, slowest total first.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, *e)
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return entries
}

// Parser wraps p so that every Parse call is recorded under "parse".
func Parser(r *Recorder, p crawler.PageParser) crawler.PageParser {
	return crawler.PageParserFunc(func(ctx context.Context, url string) crawler.Page {
		defer r.Track("parse")()
		return p.Parse(ctx, url)
	})
}

// WriteMarkdown writes the recorded operations as a Markdown section
// headed with the given time.
func (r *Recorder) WriteMarkdown(w io.Writer, at time.Time) error {
	md := markdown.NewMarkdown(w)

	md.H2("Run at " + at.Format(time.RFC1123))
	md.PlainText("")

	entries := r.Entries()
	if len(entries) == 0 {
		md.PlainText("No operations recorded.")
		md.PlainText("")
		return md.Build()
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			"`" + e.Name + "`",
			strconv.Itoa(e.Calls),
			e.Total.Round(time.Microsecond).String(),
			e.Average().Round(time.Microsecond).String(),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Operation", "Calls", "Total", "Average"},
		Rows:   rows,
	})
	md.PlainText("")

	return md.Build()
}

// AppendToFile appends the Markdown section to path, creating the file and
// its directory when needed.
func (r *Recorder) AppendToFile(path string, at time.Time) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create profile directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to open profile file: %w", err)
	}
	defer f.Close()

	return r.WriteMarkdown(f, at)
}
