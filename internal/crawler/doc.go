// Package crawler implements the recursive traversal of a Gopher server.
//
// # Architecture
//
// The Crawler walks a server depth-first: it fetches a directory listing,
// dispatches each entry in listing order, and recurses synchronously into
// sub-directories before moving to the next sibling. Traversal is strictly
// single-threaded; a directory's entire subtree completes (or fails) before
// its next sibling begins. Parallel fetching does not belong here;
// multi-target concurrency lives in the pipeline package, where each target
// still gets its own sequential crawl.
//
// Two dedup sets prevent repeated work:
//   - the visited-path set keeps any (endpoint, selector) from being fetched
//     twice, which is also what terminates recursion on cyclic listings
//   - the counted-directory set keeps the directory counter idempotent,
//     independent of visitation ordering
//
// Entries pointing outside the origin server are never crawled; they are
// probed for liveness at most once per distinct endpoint.
//
// Failures during traversal of one entry are recorded into the shared
// statistics aggregate and traversal continues; no per-entry failure aborts
// the crawl. Only context cancellation unwinds the recursion.
//
// The Sink persists fetched files to a flat directory and folds every
// successful fetch into the statistics aggregate through its single
// recording entry point.
package crawler
