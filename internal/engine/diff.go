package engine

import (
	"slices"
)

// Partition is the three-way split of today's and yesterday's key sets.
// Each slice is sorted.
type Partition struct {
	New        []string
	Removed    []string
	Persisting []string
}

// Diff computes new = today - yesterday, removed = yesterday - today and
// persisting = today intersect yesterday. Keys match exactly; blank keys must be
// excluded by the caller.
func Diff(today, yesterday map[string]struct{}) Partition {
	p := Partition{
		New:        []string{},
		Removed:    []string{},
		Persisting: []string{},
	}

	for key := range today {
		if _, ok := yesterday[key]; ok {
			p.Persisting = append(p.Persisting, key)
		} else {
			p.New = append(p.New, key)
		}
	}
	for key := range yesterday {
		if _, ok := today[key]; !ok {
			p.Removed = append(p.Removed, key)
		}
	}

	slices.Sort(p.New)
	slices.Sort(p.Removed)
	slices.Sort(p.Persisting)
	return p
}

// Len returns the number of keys across all three categories.
func (p Partition) Len() int {
	return len(p.New) + len(p.Removed) + len(p.Persisting)
}
