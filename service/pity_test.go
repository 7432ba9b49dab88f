package service

import (
	"testing"

	"starsgame/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpinWeighted(t *testing.T) {
	items := testCase().Items

	tests := []struct {
		name     string
		r        float64
		expected string
	}{
		{"start of wheel", 0, "a"},
		{"inside first slice", 0.69, "a"},
		{"boundary moves to next slice", 0.70, "b"},
		{"inside second slice", 0.80, "b"},
		{"boundary of last slice", 0.95, "c"},
		{"end of wheel", 0.9999, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := SpinWeighted(items, itemWeight, tt.r)
			require.True(t, ok)
			assert.Equal(t, tt.expected, item.ID)
		})
	}
}

func TestSpinWeighted_NothingToPick(t *testing.T) {
	_, ok := SpinWeighted([]models.CaseItem{}, itemWeight, 0.5)
	assert.False(t, ok)

	_, ok = SpinWeighted([]models.CaseItem{{ID: "x", Weight: 0}}, itemWeight, 0.5)
	assert.False(t, ok)
}

func TestSpinWeighted_SkipsNonPositiveWeights(t *testing.T) {
	items := []models.CaseItem{
		{ID: "zero", Weight: 0},
		{ID: "one", Weight: 1},
		{ID: "negative", Weight: -3},
	}
	for _, r := range []float64{0, 0.5, 0.9999} {
		item, ok := SpinWeighted(items, itemWeight, r)
		require.True(t, ok)
		assert.Equal(t, "one", item.ID)
	}
}

func TestPityDraw(t *testing.T) {
	items := testCase().Items

	t.Run("cheapest winning item", func(t *testing.T) {
		item, ok := PityDraw(items, 200, newSequenceSource(0.5), 0.95)
		require.True(t, ok)
		assert.Equal(t, "b", item.ID)
	})

	t.Run("spin over the rest", func(t *testing.T) {
		item, ok := PityDraw(items, 200, newSequenceSource(0.97, 0), 0.95)
		require.True(t, ok)
		assert.Equal(t, "c", item.ID)
	})

	t.Run("single winning item", func(t *testing.T) {
		item, ok := PityDraw(items, 1000, newSequenceSource(0.99), 0.95)
		require.True(t, ok)
		assert.Equal(t, "c", item.ID)
	})

	t.Run("no winning item", func(t *testing.T) {
		_, ok := PityDraw(items, 1500, newSequenceSource(0.1), 0.95)
		assert.False(t, ok)
	})
}

func TestPityDraw_CheapestShare(t *testing.T) {
	items := testCase().Items
	rng := newSeededSource(42)

	const draws = 10000
	cheapest := 0
	for i := 0; i < draws; i++ {
		item, ok := PityDraw(items, 200, rng, 0.95)
		require.True(t, ok)
		require.True(t, item.IsWinFor(200))
		if item.ID == "b" {
			cheapest++
		}
	}

	assert.InDelta(t, 0.95, float64(cheapest)/draws, 0.02)
}

func TestNextLossCount(t *testing.T) {
	items := testCase().Items

	assert.Equal(t, 3, NextLossCount(2, items[0], 200))
	assert.Equal(t, 0, NextLossCount(3, items[1], 200))
	// Equal value is still a loss
	assert.Equal(t, 1, NextLossCount(0, models.CaseItem{Value: 200}, 200))
}
