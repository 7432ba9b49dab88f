package service

import (
	"math"
	"testing"

	"starsgame/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGenerateCrashPoint(t *testing.T) {
	tests := []struct {
		name      string
		houseEdge float64
		r         float64
		expected  string
	}{
		{"lowest draw clamps to minimum", 0.30, 0, "1.00"},
		{"plain division", 0.30, 0.5, "1.40"},
		{"no edge doubles at half", 0, 0.5, "2.00"},
		{"truncates instead of rounding", 0, 0.7, "3.33"},
		{"highest draw clamps to maximum", 0.30, math.Nextafter(1, 0), "100.00"},
		{"out of range draw is clamped", 0.30, 1.5, "100.00"},
		{"negative draw is clamped", 0.30, -1, "1.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			point := GenerateCrashPoint(tt.houseEdge, tt.r)
			assert.Equal(t, tt.expected, point.StringFixed(2))
		})
	}
}

func TestGenerateCrashPoint_RangeAndPrecision(t *testing.T) {
	rng := newSeededSource(7)
	for i := 0; i < 20000; i++ {
		point := GenerateCrashPoint(0.30, rng.Float64())
		assert.True(t, point.GreaterThanOrEqual(MinCrashPoint), "point %s below minimum", point)
		assert.True(t, point.LessThanOrEqual(MaxCrashPoint), "point %s above maximum", point)
		assert.True(t, point.Equal(point.Truncate(2)), "point %s has more than two decimals", point)
	}
}

func TestTruncateMultiplier(t *testing.T) {
	assert.Equal(t, "1.82", TruncateMultiplier(math.Exp(0.6)).StringFixed(2))
	assert.Equal(t, "2.99", TruncateMultiplier(2.999).StringFixed(2))
	assert.Equal(t, "2.35", TruncateMultiplier(2.35).StringFixed(2))
	assert.Equal(t, "1.00", TruncateMultiplier(1).StringFixed(2))
}

func TestMultiplierAt(t *testing.T) {
	assert.Equal(t, 1.0, MultiplierAt(0, DefaultGrowthRate))
	assert.Equal(t, 1.0, MultiplierAt(-500, DefaultGrowthRate))
	assert.InDelta(t, 1.8221, MultiplierAt(10000, DefaultGrowthRate), 0.0001)
	assert.InDelta(t, 2.5043, MultiplierAt(15300, DefaultGrowthRate), 0.0001)
}

func TestFlightDurationMs(t *testing.T) {
	assert.Equal(t, int64(15272), FlightDurationMs(decimal.RequireFromString("2.50"), DefaultGrowthRate))
	assert.Equal(t, int64(0), FlightDurationMs(MinCrashPoint, DefaultGrowthRate))
}

func TestPhaseAt(t *testing.T) {
	round := &models.Round{
		ID:         1,
		CrashPoint: decimal.RequireFromString("2.50"),
		StartTime:  1_000_000,
	}

	t.Run("pending before start", func(t *testing.T) {
		phase := PhaseAt(round, 997_000, DefaultGrowthRate)
		assert.Equal(t, models.RoundStatusPending, phase.Status)
		assert.Equal(t, int64(3000), phase.CountdownMs)
		assert.Equal(t, 1.0, phase.Multiplier)
	})

	t.Run("flying below crash point", func(t *testing.T) {
		phase := PhaseAt(round, 1_010_000, DefaultGrowthRate)
		assert.Equal(t, models.RoundStatusFlying, phase.Status)
		assert.InDelta(t, 1.8221, phase.Multiplier, 0.0001)
	})

	t.Run("ended at crash point", func(t *testing.T) {
		phase := PhaseAt(round, 1_015_300, DefaultGrowthRate)
		assert.Equal(t, models.RoundStatusEnded, phase.Status)
		assert.Equal(t, 2.5, phase.Multiplier)
	})
}

func TestPhaseAt_NeverGoesBackward(t *testing.T) {
	rank := map[models.RoundStatus]int{
		models.RoundStatusPending: 0,
		models.RoundStatusFlying:  1,
		models.RoundStatusEnded:   2,
	}

	rng := newSeededSource(11)
	for i := 0; i < 50; i++ {
		round := &models.Round{
			CrashPoint: GenerateCrashPoint(0.30, rng.Float64()),
			StartTime:  10_000,
		}

		previous := -1
		for now := int64(0); now < 100_000; now += 50 {
			current := rank[PhaseAt(round, now, DefaultGrowthRate).Status]
			assert.GreaterOrEqual(t, current, previous, "phase went backward at %d for %s", now, round.CrashPoint)
			previous = current
		}
	}
}

func TestRotationDue(t *testing.T) {
	round := &models.Round{
		CrashPoint: decimal.RequireFromString("2.50"),
		StartTime:  1_000_000,
	}
	settle := int64(4000)

	assert.False(t, RotationDue(round, 1_000_000+15272+settle, DefaultGrowthRate, settle))
	assert.True(t, RotationDue(round, 1_000_000+15272+settle+1, DefaultGrowthRate, settle))
}
