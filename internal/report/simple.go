package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/wordcrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds the list of visited URLs.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the visited URLs.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the result in human-readable format.
func (w *SimpleWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeWords(&sb, result)
	if w.verbose {
		w.writeVisited(&sb, result)
	}

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run summary.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.CrawlResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         WORDCRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Start Pages:    %s\n", strings.Join(result.StartURLs, ", "))
	fmt.Fprintf(sb, "Crawl Date:     %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Max Depth:      %d\n", result.MaxDepth)
	fmt.Fprintf(sb, "Elapsed:        %s\n", result.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(sb, "URLs Visited:   %d\n", result.URLsVisited)
	fmt.Fprintf(sb, "Distinct Words: %d\n", result.TotalWords)
	fmt.Fprintf(sb, "Status:         %s\n", statusText(result))
	sb.WriteString("\n")
}

// writeWords writes the popular words, one per line.
func (w *SimpleWriter) writeWords(sb *strings.Builder, result *model.CrawlResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("POPULAR WORDS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	ranked := result.RankedWords()
	if len(ranked) == 0 {
		sb.WriteString("No words found.\n\n")
		return
	}

	width := 0
	for _, wc := range ranked {
		width = max(width, len(wc.Word))
	}
	for i, wc := range ranked {
		fmt.Fprintf(sb, "%3d. %-*s %d\n", i+1, width, wc.Word, wc.Count)
	}
	sb.WriteString("\n")
}

// writeVisited writes every visited URL.
func (w *SimpleWriter) writeVisited(sb *strings.Builder, result *model.CrawlResult) {
	sb.WriteString("VISITED URLS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	for _, u := range result.VisitedURLs {
		fmt.Fprintf(sb, "  %s\n", u)
	}
	sb.WriteString("\n")
}
