package engine

import (
	"cmp"
	"slices"
	"time"

	"github.com/roach88/sigtrack/internal/track"
)

// Baseline supplies managed-population denominators for summary ratios.
// The boolean is false when no baseline exists for the group.
type Baseline interface {
	UnitPopulation(orgUnit string) (int, bool)
	TechnicianPopulation(orgUnit, technician string) (int, bool)
}

// NoBaseline has no populations; every summary ratio is omitted.
type NoBaseline struct{}

func (NoBaseline) UnitPopulation(string) (int, bool) { return 0, false }

func (NoBaseline) TechnicianPopulation(string, string) (int, bool) { return 0, false }

type groupKey struct {
	unit string
	tech string
}

// Aggregate rolls change records up per (org unit, technician).
//
// CurrentTotal is NEW + PERSISTING. The org unit and technician of a REMOVED
// record come from yesterday's snapshot, so a removed item counts against
// the group it was last seen in. Rows are ordered by unit then technician.
func Aggregate(date time.Time, changes []track.ChangeRecord, baseline Baseline) []track.DailySummary {
	if baseline == nil {
		baseline = NoBaseline{}
	}

	groups := make(map[groupKey]*track.DailySummary)
	for _, rec := range changes {
		k := groupKey{unit: rec.Item.OrgUnit, tech: rec.Item.Technician}
		s, ok := groups[k]
		if !ok {
			s = &track.DailySummary{
				ReportDate: track.Day(date),
				OrgUnit:    k.unit,
				Technician: k.tech,
			}
			groups[k] = s
		}
		switch rec.Category {
		case track.CategoryNew:
			s.NewCount++
		case track.CategoryPersisting:
			s.PersistingCount++
		case track.CategoryRemoved:
			s.RemovedCount++
		}
	}

	out := make([]track.DailySummary, 0, len(groups))
	for k, s := range groups {
		s.CurrentTotal = s.NewCount + s.PersistingCount
		if pop, ok := baseline.TechnicianPopulation(k.unit, k.tech); ok {
			s.ManagedPopulation, s.Ratio = populationRatio(s.CurrentTotal, pop)
		}
		out = append(out, *s)
	}

	slices.SortFunc(out, func(a, b track.DailySummary) int {
		if c := cmp.Compare(a.OrgUnit, b.OrgUnit); c != 0 {
			return c
		}
		return cmp.Compare(a.Technician, b.Technician)
	})
	return out
}

// RollupUnits sums daily summaries per org unit and joins the unit-level
// baseline. Rows are ordered by unit.
func RollupUnits(summaries []track.DailySummary, baseline Baseline) []track.UnitSummary {
	if baseline == nil {
		baseline = NoBaseline{}
	}

	units := make(map[string]*track.UnitSummary)
	for _, s := range summaries {
		u, ok := units[s.OrgUnit]
		if !ok {
			u = &track.UnitSummary{ReportDate: s.ReportDate, OrgUnit: s.OrgUnit}
			units[s.OrgUnit] = u
		}
		u.CurrentTotal += s.CurrentTotal
		u.NewCount += s.NewCount
		u.RemovedCount += s.RemovedCount
		u.PersistingCount += s.PersistingCount
	}

	out := make([]track.UnitSummary, 0, len(units))
	for unit, u := range units {
		if pop, ok := baseline.UnitPopulation(unit); ok {
			u.ManagedPopulation, u.Ratio = populationRatio(u.CurrentTotal, pop)
		}
		out = append(out, *u)
	}

	slices.SortFunc(out, func(a, b track.UnitSummary) int {
		return cmp.Compare(a.OrgUnit, b.OrgUnit)
	})
	return out
}

// populationRatio returns the population and total/population. A zero or
// negative population is treated as no baseline: both are nil.
func populationRatio(total, pop int) (*int, *float64) {
	if pop <= 0 {
		return nil, nil
	}
	p := pop
	r := float64(total) / float64(pop)
	return &p, &r
}
