// Package pipeline orchestrates the crawl workflow for one or many servers.
//
// A Pipeline runs an ordered list of Steps against a single report:
// probe the origin, crawl it, summarize the statistics. Steps carry
// their own configuration and report failures either as pipeline errors
// or as recorded report state, depending on severity.
//
// BatchProcessor fans a pipeline factory out over multiple reports with
// a bounded level of concurrency. The crawl of each individual server
// remains strictly sequential; only distinct servers run in parallel.
package pipeline
