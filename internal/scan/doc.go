// Package scan drives the discovery of ioBroker adapter repositories.
//
// A scan walks the strata produced by internal/plan, one at a time and
// strictly sequentially, through a fetcher that honours the search
// API's pagination and rate limits. Two signals mark a stratum as
// saturated: the platform's "first 1000 results" rejection, or a
// reported total at the ceiling. Either way the yearly stratum is
// replaced by its twelve monthly sub-strata, each fetched under the
// same contract. Months that still saturate are logged and kept
// partial; no finer subdivision exists.
//
// Raw records pass through a membership filter with two deliberate
// policy variants: strict (naming convention plus a manifest probe)
// and heuristic (name, description, and topic signals, no extra API
// calls). Matches are projected into ledger entries, optionally
// enriched with the fork chain's ultimate ancestor and with the
// adapter's standing in the official ioBroker registry.
//
// Errors split four ways: saturation recovers locally; a 404 from the
// manifest probe is a definitive negative; other probe and enrichment
// failures degrade to warnings with conservative defaults; everything
// else aborts the run before the ledger is finalised.
package scan
