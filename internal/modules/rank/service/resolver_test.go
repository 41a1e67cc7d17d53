package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableLoads(t *testing.T) {
	table := DefaultTable()

	tiers := table.Ascending()
	require.Len(t, tiers, 10)
	assert.Equal(t, "Crewman", table.Bottom().Name)
	assert.Equal(t, "Fleet Admiral", table.Top().Name)
	assert.Equal(t, int64(0), tiers[0].MinXP)
}

func TestResolveExamples(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name       string
		xp         float64
		overridden bool
		wantName   string
		wantProg   float64
	}{
		{"zero", 0, false, "Crewman", 0},
		{"just below ensign", 999, false, "Crewman", 99.9},
		{"ensign floor", 1000, false, "Ensign", 0},
		{"mid ensign", 1750, false, "Ensign", 50},
		{"top tier floor", 500000, false, "Fleet Admiral", 100},
		{"top tier inside range", 750000, false, "Fleet Admiral", 100},
		{"above top max", 5_000_000, false, "Fleet Admiral", 100},
		{"override at zero", 0, true, "Fleet Admiral", 100},
		{"override with xp", 1500, true, "Fleet Admiral", 100},
		{"negative treated as zero", -50, false, "Crewman", 0},
		{"nan treated as zero", math.NaN(), false, "Crewman", 0},
		{"inf treated as zero", math.Inf(1), false, "Crewman", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Resolve(tt.xp, tt.overridden)
			assert.Equal(t, tt.wantName, got.Name())
			assert.InDelta(t, tt.wantProg, got.Progress, 0.001)
			assert.Equal(t, tt.overridden, got.IsOverridden)
		})
	}
}

func TestResolveOverrideReportsActualXP(t *testing.T) {
	got := DefaultTable().Resolve(1234, true)
	assert.Equal(t, float64(1234), got.XP)
	assert.Nil(t, got.Next)
	assert.Equal(t, "Max Level", got.NextName())
}

func TestResolveProperties(t *testing.T) {
	table := DefaultTable()
	top := table.Top()

	prevLevel := 0
	for xp := int64(0); xp <= 1_200_000; xp += 997 {
		got := table.Resolve(float64(xp), false)

		// totality: the matched tier contains xp (top tier is open-ended)
		assert.GreaterOrEqual(t, xp, got.Threshold.MinXP)
		if got.Level() != top.Level {
			assert.LessOrEqual(t, xp, got.Threshold.MaxXP)
		}

		assert.GreaterOrEqual(t, got.Level(), prevLevel, "level must not drop at xp=%d", xp)
		prevLevel = got.Level()

		assert.GreaterOrEqual(t, got.Progress, float64(0))
		assert.LessOrEqual(t, got.Progress, float64(100))

		assert.Equal(t, top.Level, table.Resolve(float64(xp), true).Level())
	}
}

func TestResolveNextAndTarget(t *testing.T) {
	got := DefaultTable().Resolve(1200, false)
	require.NotNil(t, got.Next)
	assert.Equal(t, "Lieutenant Junior Grade", got.NextName())
	assert.Equal(t, int64(2500), got.TargetXP())
	assert.Equal(t, 1, got.Pips())
}
