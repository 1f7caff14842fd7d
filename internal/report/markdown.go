package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/wordcrawl/internal/model"
)

// maxPieSlices limits the pie chart to the most popular words.
const maxPieSlices = 8

// MarkdownWriter outputs results in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the result in Markdown format.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeWords(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.CrawlResult) {
	md.H1("Wordcrawl Report")
	md.PlainText("")

	rows := [][]string{
		{"Crawl Date", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Max Depth", strconv.Itoa(result.MaxDepth)},
		{"Elapsed", result.Elapsed.Round(time.Millisecond).String()},
		{"URLs Visited", strconv.Itoa(result.URLsVisited)},
		{"Distinct Words", strconv.Itoa(result.TotalWords)},
		{"Status", statusText(result)},
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(result.StartURLs) > 0 {
		md.H2("Start Pages")
		md.PlainText("")
		md.BulletList(result.StartURLs...)
		md.PlainText("")
	}

	if result.TimedOut {
		md.Warningf("The deadline was reached before the traversal finished; counts are partial.")
		md.PlainText("")
	}
}

// writeWords writes the popular word table and chart.
func (w *MarkdownWriter) writeWords(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Popular Words")
	md.PlainText("")

	ranked := result.RankedWords()
	if len(ranked) == 0 {
		md.PlainText("No words found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(ranked))
	for i, wc := range ranked {
		rows[i] = []string{strconv.Itoa(i + 1), wc.Word, strconv.Itoa(wc.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Word", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, ranked)
}

// writePieChart writes a mermaid pie chart of the most popular words.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, ranked []model.WordCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Word Distribution"),
		piechart.WithShowData(true),
	)

	for _, wc := range ranked[:min(len(ranked), maxPieSlices)] {
		chart.LabelAndIntValue(wc.Word, uint64(wc.Count)) //nolint:gosec // counts are positive
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [wordcrawl](https://github.com/nao1215/wordcrawl)*")
}
