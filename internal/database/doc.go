// Package database provides SQLite-based storage for wordcrawl.
//
// This package implements the CrawlDB, which stores:
//   - One row per crawl run with its settings and full result as JSON
//   - The popular word counts of each run, for cross-run aggregation
//   - The URLs visited by each run
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode lets the history command read while a crawl writes
//
// Runs are identified by random UUIDs so that databases copied between
// machines can be merged without id collisions.
package database
