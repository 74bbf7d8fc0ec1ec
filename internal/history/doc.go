// Package history keeps a per-run audit trail next to the ledger.
//
// The ledger only holds the latest state of each repository; the
// history database records one row per completed scan (counters,
// effective query, timings) so churn across runs can be inspected with
// the history command. It uses modernc.org/sqlite, a pure Go driver,
// so no CGO is involved.
package history
