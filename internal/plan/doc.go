// Package plan builds the search strategies that let a scan enumerate
// every matching repository despite the platform's 1,000-result ceiling
// per query.
//
// A single "iobroker" search matches far more than 1,000 repositories,
// and the search API silently truncates past the ceiling. The planner
// therefore partitions the result space into disjoint strata: one per
// creation year, crossed with three fork/archive partitions (live
// sources, live forks, archived). The union of the strata covers the
// whole space, and each stratum is expected to stay under the ceiling.
//
// When a yearly stratum still saturates the ceiling, [Subdivide] splits
// it into twelve monthly strata covering the same partition. Months are
// the finest granularity; a month that itself saturates is reported as
// a warning rather than subdivided further.
//
// All functions here are pure; the scan driver in internal/scan owns
// the iteration and the fetching.
package plan
