// Package model defines the data structures shared by the CLI, the report
// writers and the database.
//
//   - CrawlResult: the outcome of one traversal, ready for output
//   - WordCount: one ranked entry of the popular-word list
//
// Design decision: We keep these types out of the crawler package so that
// the traversal engine stays free of presentation and storage concerns,
// while report and database can share one serializable shape.
package model
