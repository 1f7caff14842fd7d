package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/nao1215/wordcrawl/internal/config"
	"github.com/nao1215/wordcrawl/internal/crawler"
	"github.com/nao1215/wordcrawl/internal/database"
	applog "github.com/nao1215/wordcrawl/internal/log"
	"github.com/nao1215/wordcrawl/internal/model"
	"github.com/nao1215/wordcrawl/internal/parser"
	"github.com/nao1215/wordcrawl/internal/profile"
	"github.com/nao1215/wordcrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl pages and count the most popular words",
		Long: `Crawl visits the given start pages and the pages they link to, in parallel,
up to the maximum depth, and reports the most frequent words.

No new page is visited after the timeout elapses; pages already being
parsed are finished and their words are counted.

Examples:
  # Crawl a site three links deep
  wordcrawl crawl -d 3 https://example.com/

  # Skip images and a private area, stop after 30 seconds
  wordcrawl crawl -t 30s --ignore-url '.*\.png' --ignore-url 'https://example\.com/private/.*' https://example.com/

  # Use the start pages and settings from a configuration file
  wordcrawl crawl -c crawl.yaml

  # Write a Markdown report
  wordcrawl crawl -m -o report.md https://example.com/`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wordcrawl in current or home directory)")
	cmd.Flags().String("env-file", "",
		"Environment file with WORDCRAWL_* overrides (default: .env if present)")

	// Traversal flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth (1 visits only the start pages)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Stop visiting new pages after this duration")
	cmd.Flags().IntP("parallelism", "p", 0,
		"Maximum number of pages parsed at once (0: number of CPUs)")
	cmd.Flags().StringArray("ignore-url", nil,
		"Regular expression for URLs to skip; must match the whole URL (repeatable)")
	cmd.Flags().StringArray("ignore-word", nil,
		"Regular expression for words not to count; must match the whole word (repeatable)")
	cmd.Flags().Float64("rate", 0,
		"Maximum requests per second across the crawl (0: unlimited)")

	// Report flags
	cmd.Flags().IntP("popular", "n", config.DefaultPopularWordCount,
		"Number of most popular words to report (0: all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("profile-output", "",
		"Append a timing table for this run to the given Markdown file")

	// Storage and logging flags
	cmd.Flags().Bool("no-db", false,
		"Do not save the result to the history database")
	cmd.Flags().String("log-file", "",
		"Also write logs to this file (rotated)")
	cmd.Flags().Bool("log-json", false,
		"Write logs as JSON instead of text")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closer, err := applog.NewLogger(applog.Options{
		Writer:  cmd.ErrOrStderr(),
		Verbose: cfg.Verbose,
		JSON:    cfg.LogJSON,
		File:    cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	// An interrupt ends the crawl the same way the deadline does.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildConfig creates a Config from defaults, the config file, the
// environment and cobra command flags, in increasing order of precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use defaults if no file found.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		f.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	fileEnv, err := config.LoadEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(config.EnvLookup(fileEnv)); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	// Flags override the file only when given explicitly.
	if flags.Changed("depth") {
		if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("parallelism") {
		n, err := flags.GetInt("parallelism")
		if err != nil {
			return nil, err
		}
		// 0 keeps the value from the file, the environment or the CPU count.
		if n != 0 {
			cfg.Parallelism = n
		}
	}
	if flags.Changed("popular") {
		if cfg.PopularWordCount, err = flags.GetInt("popular"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rate") {
		if cfg.RequestsPerSecond, err = flags.GetFloat64("rate"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output") {
		if cfg.ResultPath, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("profile-output") {
		if cfg.ProfileOutputPath, err = flags.GetString("profile-output"); err != nil {
			return nil, err
		}
	}
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}
	if flags.Changed("log-file") {
		if cfg.LogFile, err = flags.GetString("log-file"); err != nil {
			return nil, err
		}
	}

	ignoreURLs, err := flags.GetStringArray("ignore-url")
	if err != nil {
		return nil, err
	}
	cfg.IgnoredURLs = append(cfg.IgnoredURLs, ignoreURLs...)

	ignoreWords, err := flags.GetStringArray("ignore-word")
	if err != nil {
		return nil, err
	}
	cfg.IgnoredWords = append(cfg.IgnoredWords, ignoreWords...)

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}

	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	cfg.Verbose = getVerboseFlag(cmd)

	// Start pages given as arguments replace those of the config file.
	if len(args) > 0 {
		cfg.StartPages = args
	}

	return cfg, nil
}

// newPageParser creates the page parser described by cfg.
func newPageParser(cfg *config.Config, ignoredWords []*regexp.Regexp, logger *slog.Logger) *parser.Parser {
	opts := []parser.Option{
		parser.WithUserAgent(cfg.UserAgent),
		parser.WithCookie(cfg.Cookie),
		parser.WithHeaders(cfg.Headers),
		parser.WithMaxBodySize(cfg.MaxBodySize),
		parser.WithIgnoredWords(ignoredWords),
		parser.WithFileRoots(parser.FileRoots(cfg.StartPages)...),
		parser.WithLogger(logger),
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, parser.WithRateLimit(cfg.RequestsPerSecond, max(1, int(cfg.RequestsPerSecond))))
	}
	return parser.New(opts...)
}

// runCrawl executes the crawl described by cfg and writes its report to out.
func runCrawl(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	ignoredURLs, err := config.CompilePatterns(cfg.IgnoredURLs)
	if err != nil {
		return err
	}
	ignoredWords, err := config.CompilePatterns(cfg.IgnoredWords)
	if err != nil {
		return err
	}

	rec := profile.NewRecorder()
	var pageParser crawler.PageParser = newPageParser(cfg, ignoredWords, logger)
	if cfg.ProfileOutputPath != "" {
		pageParser = profile.Parser(rec, pageParser)
	}

	logger.Info("starting crawl",
		"startPages", cfg.StartPages,
		"maxDepth", cfg.MaxDepth,
		"timeout", cfg.Timeout,
		"parallelism", cfg.Parallelism,
		"saveToDB", cfg.SaveToDB,
	)

	startedAt := time.Now()
	deadline := startedAt.Add(cfg.Timeout)

	stopTimer := rec.Track("traversal")
	res := crawler.RunTraversal(ctx, cfg.StartPages, cfg.MaxDepth, deadline, ignoredURLs, pageParser,
		crawler.WithParallelism(cfg.Parallelism),
		crawler.WithLogger(logger),
	)
	stopTimer()
	finishedAt := time.Now()

	result := model.NewCrawlResult(res, cfg.StartPages, cfg.MaxDepth, startedAt, finishedAt, deadline, cfg.PopularWordCount)
	if ctx.Err() != nil {
		logger.Warn("crawl interrupted, results are partial", "error", ctx.Err())
		result.TimedOut = true
	}

	logger.Info("crawl finished",
		"urlsVisited", result.URLsVisited,
		"distinctWords", result.TotalWords,
		"elapsed", result.Elapsed,
		"timedOut", result.TimedOut,
	)

	// Saved before writing so the report carries the run id.
	if err := saveCrawlResult(ctx, cfg, result, logger); err != nil {
		logger.Error("failed to save crawl result", "error", err)
	}

	stopTimer = rec.Track("report")
	err = outputReport(cfg, out, result)
	stopTimer()
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.ProfileOutputPath != "" {
		if err := rec.AppendToFile(cfg.ProfileOutputPath, startedAt); err != nil {
			return fmt.Errorf("failed to write profile: %w", err)
		}
	}

	return nil
}

// outputReport writes the result in the configured format to the configured
// destination.
func outputReport(cfg *config.Config, stdout io.Writer, result *model.CrawlResult) error {
	output := stdout
	if cfg.ResultPath != "" {
		dir := filepath.Dir(cfg.ResultPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ResultPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	_, err := newReportWriter(cfg.JSONReport, cfg.MarkdownReport, cfg.Verbose, output).Write(result)
	return err
}

// newReportWriter selects the report writer for the requested format.
func newReportWriter(jsonReport, markdownReport, verbose bool, output io.Writer) report.Writer {
	switch {
	case jsonReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVisitedURLs(verbose))
	case markdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(verbose))
	}
}

// saveCrawlResult saves the result to the database if enabled.
func saveCrawlResult(ctx context.Context, cfg *config.Config, result *model.CrawlResult, logger *slog.Logger) error {
	if !cfg.SaveToDB {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Partial results of an interrupted crawl are saved too.
	if err := db.SaveCrawlResult(context.WithoutCancel(ctx), result); err != nil {
		return err
	}

	logger.Info("crawl result saved to database", "id", result.ID, "path", db.Path())
	return nil
}
