package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/wordcrawl/internal/model"
)

// JSONWriter outputs results in JSON format.
//
// The document always carries "wordCounts" and "urlsVisited"; the other
// fields of model.CrawlResult describe the run.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// includeVisited keeps the list of visited URLs in the output.
	includeVisited bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVisitedURLs includes the visited URL list in the output.
func WithVisitedURLs(include bool) JSONWriterOption {
	return func(w *JSONWriter) {
		w.includeVisited = include
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the result in JSON format.
func (w *JSONWriter) Write(result *model.CrawlResult) (int, error) {
	out := *result
	if !w.includeVisited {
		out.VisitedURLs = nil
	}
	if out.WordCounts == nil {
		out.WordCounts = map[string]int{}
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(&out, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(&out)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
