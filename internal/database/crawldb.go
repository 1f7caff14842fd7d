package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wordcrawl/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "wordcrawl.db"

// timestampLayout is the fixed-width layout runs are stored with, so that
// ORDER BY timestamp sorts chronologically.
const timestampLayout = "2006-01-02 15:04:05.000"

// ErrRunNotFound is returned when no crawl run has the requested ID.
var ErrRunNotFound = errors.New("crawl run not found")

// CrawlDB provides SQLite-based storage for crawl runs.
//
// Design decision: A single database file holds every run so that word
// totals can be aggregated across runs with one SQL query.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// newID generates run identifiers.
	newID func() string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
		newID:  uuid.NewString,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the path of the database file.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per traversal
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		start_urls TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		max_depth INTEGER NOT NULL,
		urls_visited INTEGER NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		timed_out INTEGER NOT NULL DEFAULT 0,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON crawl_runs(timestamp);

	-- Popular words of each run
	CREATE TABLE IF NOT EXISTS word_counts (
		run_id TEXT NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		word TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (run_id, word)
	);

	CREATE INDEX IF NOT EXISTS idx_words_word ON word_counts(word);

	-- Pages visited by each run
	CREATE TABLE IF NOT EXISTS visited_urls (
		run_id TEXT NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		PRIMARY KEY (run_id, url)
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveCrawlResult stores a crawl result and assigns it a new ID.
// The ID is written back to result.ID. The word_counts table receives
// AllWordCounts, or WordCounts when AllWordCounts is nil, so that
// WordTotals sums every word and not only each run's popular ones.
func (cdb *CrawlDB) SaveCrawlResult(ctx context.Context, result *model.CrawlResult) (err error) {
	id := cdb.newID()
	result.ID = id

	startJSON, err := json.Marshal(result.StartURLs)
	if err != nil {
		return fmt.Errorf("failed to serialize start urls: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (id, start_urls, timestamp, max_depth, urls_visited, elapsed_ms, timed_out, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		string(startJSON),
		result.StartedAt.UTC().Format(timestampLayout),
		result.MaxDepth,
		result.URLsVisited,
		result.Elapsed.Milliseconds(),
		result.TimedOut,
		string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl run: %w", err)
	}

	words := result.AllWordCounts
	if words == nil {
		words = result.WordCounts
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO word_counts (run_id, word, count) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare word count insert: %w", err)
	}
	defer stmt.Close()
	for word, count := range words {
		if _, err = stmt.ExecContext(ctx, id, word, count); err != nil {
			return fmt.Errorf("failed to save word count: %w", err)
		}
	}

	for _, u := range result.VisitedURLs {
		if _, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO visited_urls (run_id, url) VALUES (?, ?)",
			id, u,
		); err != nil {
			return fmt.Errorf("failed to save visited url: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit crawl run: %w", err)
	}
	return nil
}

// GetCrawlResult retrieves a crawl result by its run ID.
// Returns ErrRunNotFound when no run has that ID.
func (cdb *CrawlDB) GetCrawlResult(ctx context.Context, id string) (*model.CrawlResult, error) {
	var resultJSON string
	err := cdb.db.QueryRowContext(ctx,
		"SELECT result_json FROM crawl_runs WHERE id = ?", id,
	).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}

	var result model.CrawlResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse crawl result: %w", err)
	}
	result.ID = id

	return &result, nil
}

// RunMetadata contains summary information about a crawl run.
// This is used for displaying history without loading the full result.
type RunMetadata struct {
	// ID is the run identifier.
	ID string `json:"id"`

	// StartURLs are the URLs the run started from.
	StartURLs []string `json:"startUrls"`

	// Timestamp is when the run started.
	Timestamp time.Time `json:"timestamp"`

	// MaxDepth is the depth budget of the run.
	MaxDepth int `json:"maxDepth"`

	// URLsVisited is the number of pages the run visited.
	URLsVisited int `json:"urlsVisited"`

	// Elapsed is the wall time of the run.
	Elapsed time.Duration `json:"elapsed"`

	// TimedOut reports whether the run hit its deadline.
	TimedOut bool `json:"timedOut"`
}

// ListCrawlRuns returns run metadata, newest first.
// A limit <= 0 returns every run.
func (cdb *CrawlDB) ListCrawlRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, start_urls, timestamp, max_depth, urls_visited, elapsed_ms, timed_out
	FROM crawl_runs
	ORDER BY timestamp DESC, id
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var startJSON, timestamp string
		var elapsedMS int64

		if err := rows.Scan(
			&meta.ID,
			&startJSON,
			&timestamp,
			&meta.MaxDepth,
			&meta.URLsVisited,
			&elapsedMS,
			&meta.TimedOut,
		); err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}

		if err := json.Unmarshal([]byte(startJSON), &meta.StartURLs); err != nil {
			meta.StartURLs = nil
		}
		meta.Timestamp = parseTimestamp(timestamp)
		meta.Elapsed = time.Duration(elapsedMS) * time.Millisecond

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetWordCounts returns every stored word count of one run.
// Returns ErrRunNotFound when no run has that ID.
func (cdb *CrawlDB) GetWordCounts(ctx context.Context, id string) (map[string]int, error) {
	var exists int
	if err := cdb.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM crawl_runs WHERE id = ?", id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check crawl run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	rows, err := cdb.db.QueryContext(ctx,
		"SELECT word, count FROM word_counts WHERE run_id = ?", id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get word counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var word string
		var count int
		if err := rows.Scan(&word, &count); err != nil {
			return nil, fmt.Errorf("failed to scan word count: %w", err)
		}
		counts[word] = count
	}

	return counts, rows.Err()
}

// WordTotals sums word counts across every stored run and returns the
// limit most frequent words. A limit <= 0 returns every word.
func (cdb *CrawlDB) WordTotals(ctx context.Context, limit int) ([]model.WordCount, error) {
	query := `
	SELECT word, SUM(count) AS total
	FROM word_counts
	GROUP BY word
	ORDER BY total DESC, LENGTH(word) DESC, word ASC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate word counts: %w", err)
	}
	defer rows.Close()

	var totals []model.WordCount
	for rows.Next() {
		var wc model.WordCount
		if err := rows.Scan(&wc.Word, &wc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan word total: %w", err)
		}
		totals = append(totals, wc)
	}

	return totals, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // DATETIME columns scanned as time.Time
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
