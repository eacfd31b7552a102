// Package model defines the data structures shared by the crawler, the
// report writers and the run history store.
//
// This package contains the following main types:
//   - Page: what a page fetcher returns for one address
//   - WordCount and CrawlResult: the ranked outcome of one crawl
//   - Run: one crawl invocation as kept in the history database
//
// Models live in their own package so that crawler, report and database can
// share them without import cycles.
package model
