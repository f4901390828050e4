package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigtrack/internal/track"
)

func change(category track.Category, key, unit, tech string) track.ChangeRecord {
	return track.ChangeRecord{
		ReportDate:      day("2024-03-07"),
		Key:             key,
		Category:        category,
		Item:            item(key, unit, tech),
		ConsecutiveDays: 1,
	}
}

func TestAggregate(t *testing.T) {
	changes := []track.ChangeRecord{
		change(track.CategoryNew, "a", "East", "zed"),
		change(track.CategoryNew, "b", "East", "amy"),
		change(track.CategoryPersisting, "c", "East", "amy"),
		change(track.CategoryRemoved, "d", "East", "amy"),
		change(track.CategoryRemoved, "e", "West", "amy"),
	}
	baseline := mapBaseline{techs: map[string]int{"East/amy": 8, "West/amy": 0}}

	got := Aggregate(day("2024-03-07"), changes, baseline)
	require.Len(t, got, 3)

	assert.Equal(t, "East", got[0].OrgUnit)
	assert.Equal(t, "amy", got[0].Technician)
	assert.Equal(t, 2, got[0].CurrentTotal)
	assert.Equal(t, 1, got[0].NewCount)
	assert.Equal(t, 1, got[0].PersistingCount)
	assert.Equal(t, 1, got[0].RemovedCount)
	require.NotNil(t, got[0].Ratio)
	assert.Equal(t, 0.25, *got[0].Ratio)

	assert.Equal(t, "zed", got[1].Technician)
	assert.Nil(t, got[1].ManagedPopulation, "no baseline for the group")

	assert.Equal(t, "West", got[2].OrgUnit)
	assert.Equal(t, 0, got[2].CurrentTotal)
	assert.Nil(t, got[2].ManagedPopulation, "zero population counts as no baseline")
	assert.Nil(t, got[2].Ratio, "zero population has no ratio")
}

func TestRollupUnits_NonPositivePopulation(t *testing.T) {
	summaries := Aggregate(day("2024-03-07"), []track.ChangeRecord{
		change(track.CategoryNew, "a", "East", "amy"),
		change(track.CategoryNew, "b", "West", "bob"),
	}, nil)

	got := RollupUnits(summaries, mapBaseline{units: map[string]int{"East": 0, "West": -2}})
	require.Len(t, got, 2)
	for _, u := range got {
		assert.Nil(t, u.ManagedPopulation, u.OrgUnit)
		assert.Nil(t, u.Ratio, u.OrgUnit)
	}
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(day("2024-03-07"), nil, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAggregate_BlankUnitAndTechnician(t *testing.T) {
	got := Aggregate(day("2024-03-07"), []track.ChangeRecord{
		change(track.CategoryNew, "a", "", ""),
		change(track.CategoryNew, "b", "", ""),
	}, NoBaseline{})
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].CurrentTotal)
}

func TestRollupUnits(t *testing.T) {
	summaries := Aggregate(day("2024-03-07"), []track.ChangeRecord{
		change(track.CategoryNew, "a", "East", "amy"),
		change(track.CategoryPersisting, "b", "East", "bob"),
		change(track.CategoryRemoved, "c", "East", "bob"),
		change(track.CategoryNew, "d", "West", "cat"),
	}, nil)

	got := RollupUnits(summaries, mapBaseline{units: map[string]int{"East": 5}})
	require.Len(t, got, 2)

	east := got[0]
	assert.Equal(t, "East", east.OrgUnit)
	assert.Equal(t, 2, east.CurrentTotal)
	assert.Equal(t, 1, east.NewCount)
	assert.Equal(t, 1, east.PersistingCount)
	assert.Equal(t, 1, east.RemovedCount)
	require.NotNil(t, east.Ratio)
	assert.Equal(t, 0.4, *east.Ratio)
	assert.Equal(t, day("2024-03-07"), east.ReportDate)

	assert.Equal(t, "West", got[1].OrgUnit)
	assert.Nil(t, got[1].Ratio)
}
