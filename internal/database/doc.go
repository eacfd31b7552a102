// Package database keeps a history of crawl runs in SQLite.
//
// The history is opt-in: the crawl command saves a run only when asked to,
// and the crawler itself never reads from it. Each row holds the run
// metadata, the ranked result as JSON and a SHA3-256 digest of the result,
// so identical outcomes can be spotted without decoding the JSON.
//
// The driver is modernc.org/sqlite, which is pure Go, so the binary stays
// CGO-free and the database is a single file.
package database
