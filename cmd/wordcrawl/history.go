package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/wordcrawl/internal/config"
	"github.com/nao1215/wordcrawl/internal/database"
	"github.com/nao1215/wordcrawl/internal/model"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs or words listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past crawl runs",
		Long: `History lists the crawl runs saved in the local database, newest first.

Examples:
  # List recent runs
  wordcrawl history

  # Show the full result of one run
  wordcrawl history --id 3f2c7a4e-...

  # Show the most frequent words across all runs
  wordcrawl history --words -l 50

  # Output as JSON
  wordcrawl history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("id", "", "Show the result of the run with this id")
	cmd.Flags().Bool("words", false, "Show word totals aggregated across all runs")
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Maximum number of runs or words to show (0: all)")
	cmd.Flags().String("env-file", "", "Environment file with WORDCRAWL_* overrides (default: .env if present)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown (mutually exclusive with --json)")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	id       string
	words    bool
	limit    int
	json     bool
	markdown bool
	verbose  bool
	dbDir    string
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	opts, err := parseHistoryFlags(cmd)
	if err != nil {
		return err
	}
	return runHistory(cmd.Context(), opts, cmd.OutOrStdout())
}

// parseHistoryFlags reads the history flags and the database location.
func parseHistoryFlags(cmd *cobra.Command) (*historyOptions, error) {
	flags := cmd.Flags()
	opts := &historyOptions{verbose: getVerboseFlag(cmd)}

	var err error
	if opts.id, err = flags.GetString("id"); err != nil {
		return nil, err
	}
	if opts.words, err = flags.GetBool("words"); err != nil {
		return nil, err
	}
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if opts.json && opts.markdown {
		return nil, config.ErrConflictingReportFormats
	}
	if opts.id != "" && opts.words {
		return nil, errors.New("--id and --words cannot be used together")
	}

	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	fileEnv, err := config.LoadEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	cfg := config.NewConfig()
	if err := cfg.ApplyEnv(config.EnvLookup(fileEnv)); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	opts.dbDir = cfg.DBDir

	return opts, nil
}

// runHistory prints the requested history view.
func runHistory(ctx context.Context, opts *historyOptions, out io.Writer) error {
	if _, err := os.Stat(filepath.Join(opts.dbDir, database.FileName)); os.IsNotExist(err) {
		fmt.Fprintln(out, "No crawl history.")
		return nil
	}

	db, err := database.Open(opts.dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	switch {
	case opts.id != "":
		result, err := db.GetCrawlResult(ctx, opts.id)
		if err != nil {
			return err
		}
		_, err = newReportWriter(opts.json, opts.markdown, opts.verbose, out).Write(result)
		return err
	case opts.words:
		totals, err := db.WordTotals(ctx, opts.limit)
		if err != nil {
			return err
		}
		return writeWordTotals(out, totals, opts)
	default:
		runs, err := db.ListCrawlRuns(ctx, opts.limit)
		if err != nil {
			return err
		}
		return writeRuns(out, runs, opts)
	}
}

// writeRuns prints the run list in the requested format.
func writeRuns(out io.Writer, runs []database.RunMetadata, opts *historyOptions) error {
	if opts.json {
		if runs == nil {
			runs = []database.RunMetadata{}
		}
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No crawl history.")
		return nil
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		status := "complete"
		if r.TimedOut {
			status = "partial"
		}
		rows[i] = []string{
			r.ID,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			strings.Join(r.StartURLs, " "),
			strconv.Itoa(r.MaxDepth),
			strconv.Itoa(r.URLsVisited),
			r.Elapsed.Round(time.Millisecond).String(),
			status,
		}
	}
	headers := []string{"ID", "Date", "Start Pages", "Depth", "URLs", "Elapsed", "Status"}

	if opts.markdown {
		md := markdown.NewMarkdown(out)
		md.H1("Crawl History")
		md.PlainText("")
		md.Table(markdown.TableSet{Header: headers, Rows: rows})
		return md.Build()
	}

	for _, row := range rows {
		fmt.Fprintf(out, "%s  %s  depth=%s urls=%s elapsed=%s %s\n  %s\n",
			row[0], row[1], row[3], row[4], row[5], row[6], row[2])
	}
	return nil
}

// writeWordTotals prints aggregated word totals in the requested format.
func writeWordTotals(out io.Writer, totals []model.WordCount, opts *historyOptions) error {
	if opts.json {
		if totals == nil {
			totals = []model.WordCount{}
		}
		return writeJSON(out, totals)
	}

	if len(totals) == 0 {
		fmt.Fprintln(out, "No words recorded.")
		return nil
	}

	if opts.markdown {
		rows := make([][]string, len(totals))
		for i, wc := range totals {
			rows[i] = []string{strconv.Itoa(i + 1), wc.Word, strconv.Itoa(wc.Count)}
		}
		md := markdown.NewMarkdown(out)
		md.H1("Word Totals")
		md.PlainText("")
		md.Table(markdown.TableSet{Header: []string{"Rank", "Word", "Count"}, Rows: rows})
		return md.Build()
	}

	width := 0
	for _, wc := range totals {
		width = max(width, len(wc.Word))
	}
	for i, wc := range totals {
		fmt.Fprintf(out, "%3d. %-*s %d\n", i+1, width, wc.Word, wc.Count)
	}
	return nil
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
