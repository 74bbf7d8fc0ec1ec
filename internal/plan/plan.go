package plan

import (
	"fmt"
	"time"
)

const (
	// FloorYear is the oldest creation year the planner covers.
	// The first ioBroker repositories appeared in 2014.
	FloorYear = 2014

	// DefaultBaseQuery matches repositories whose name or description
	// mentions ioBroker.
	DefaultBaseQuery = "iobroker in:name,description"
)

// Partition is one of the three fork/archive slices of the search space.
// The search syntax cannot express "fork or archived or neither" in a
// single query, so the planner crosses every date stratum with all three.
type Partition string

const (
	// PartitionSource covers live, non-fork repositories.
	PartitionSource Partition = "source"

	// PartitionFork covers live forks.
	PartitionFork Partition = "fork"

	// PartitionArchived covers archived repositories, forks included.
	PartitionArchived Partition = "archived"
)

// AllPartitions returns the partitions in scan order.
func AllPartitions() []Partition {
	return []Partition{PartitionSource, PartitionFork, PartitionArchived}
}

// Qualifiers returns the search qualifiers selecting this partition.
func (p Partition) Qualifiers() string {
	switch p {
	case PartitionFork:
		return "fork:true archived:false"
	case PartitionArchived:
		return "archived:true"
	default:
		return "fork:false archived:false"
	}
}

// Strategy is one stratum of the search space: the base query crossed
// with a creation-date range and a fork/archive partition. A zero Month
// means the whole year. Strategies are immutable values; the fetcher
// consumes them as-is.
type Strategy struct {
	Base      string
	Extra     string
	Year      int
	Month     time.Month // 0 = whole year
	Partition Partition
}

// Query renders the full search query string for this stratum.
func (s Strategy) Query() string {
	start, end := s.Interval()
	q := fmt.Sprintf("%s created:%s..%s %s", s.Base, start, end, s.Partition.Qualifiers())
	if s.Extra != "" {
		q += " " + s.Extra
	}
	return q
}

// Interval returns the inclusive creation-date range as ISO dates.
func (s Strategy) Interval() (start, end string) {
	if s.Month == 0 {
		return fmt.Sprintf("%04d-01-01", s.Year), fmt.Sprintf("%04d-12-31", s.Year)
	}
	last := MonthEnd(s.Year, s.Month)
	return fmt.Sprintf("%04d-%02d-01", s.Year, s.Month),
		fmt.Sprintf("%04d-%02d-%02d", s.Year, s.Month, last)
}

// Description returns a short human-readable label for log output.
func (s Strategy) Description() string {
	if s.Month == 0 {
		return fmt.Sprintf("%d %s", s.Year, s.Partition)
	}
	return fmt.Sprintf("%d-%02d %s", s.Year, s.Month, s.Partition)
}

// Plan builds the ordered list of yearly strategies covering every
// creation year from 'to' down to 'from', crossed with the three
// fork/archive partitions. Most recent year first so that incremental
// runs surface new activity early in the logs.
func Plan(base, extra string, from, to int) []Strategy {
	if base == "" {
		base = DefaultBaseQuery
	}
	if from < FloorYear {
		from = FloorYear
	}
	if to < from {
		to = from
	}

	strategies := make([]Strategy, 0, (to-from+1)*3)
	for year := to; year >= from; year-- {
		for _, part := range AllPartitions() {
			strategies = append(strategies, Strategy{
				Base:      base,
				Extra:     extra,
				Year:      year,
				Partition: part,
			})
		}
	}
	return strategies
}

// Subdivide splits a yearly strategy into its twelve monthly strata,
// keeping the same partition and qualifiers. Used when a yearly stratum
// saturates the result ceiling. Calling it on an already-monthly
// strategy returns nil; months are the finest granularity supported.
func Subdivide(s Strategy) []Strategy {
	if s.Month != 0 {
		return nil
	}
	months := make([]Strategy, 0, 12)
	for m := time.January; m <= time.December; m++ {
		sub := s
		sub.Month = m
		months = append(months, sub)
	}
	return months
}

// MonthEnd returns the last day of the given month, leap years included.
// Day zero of the following month normalises to the last day of this one.
func MonthEnd(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
