// Package github wraps the GitHub API calls the adapter scan relies on.
//
// The wrapper exposes three operations: repository search with full
// pagination, single-repository lookup (used for fork-chain walking),
// and a file-presence probe (used to confirm an io-package.json manifest
// in a candidate's default branch).
//
// # Rate Limiting
//
// GitHub meters the search API separately from the core API, so the
// client keeps two rate limiters:
//
//  1. Search: a token bucket pacing at ~0.4 requests/second, under the
//     30/minute authenticated search limit.
//
//  2. Core: ~1.2 requests/second against the 5,000/hour pool used by
//     repository lookups and content probes.
//
// Both limiters also track the X-RateLimit-Remaining and
// X-RateLimit-Reset headers and sit out until reset when a pool is
// nearly drained. Requests are strictly sequential; nothing here issues
// concurrent calls.
//
// # The Search Ceiling
//
// The search API never returns more than 1,000 results for one query.
// Requests past that depth fail with a 422 ("Only the first 1000 search
// results are available"). SearchRepositories maps that response to
// [ErrSearchCapped] so the scan driver can subdivide the query into
// smaller date strata; every other error surfaces through the
// [APIError]/[RateLimitError] taxonomy.
//
// # Authentication
//
// A personal access token is passed as a static oauth2 token source.
// Unauthenticated clients work but are limited to 10 search requests
// per minute, which makes a full scan impractically slow.
package github
