package service

import (
	"slices"

	"starsgame/models"
)

func itemWeight(item models.CaseItem) float64 {
	return item.Weight
}

// DrawItem runs the unrestricted weighted draw over all items of a case
func DrawItem(items []models.CaseItem, rng RandomSource) (models.CaseItem, bool) {
	return SpinWeighted(items, itemWeight, rng.Float64())
}

// PityDraw draws from the items worth more than price. With probability
// cheapestChance the cheapest of them is returned, otherwise a weighted spin
// over the others decides. ok is false when no item beats the price.
func PityDraw(items []models.CaseItem, price int64, rng RandomSource, cheapestChance float64) (models.CaseItem, bool) {
	winning := make([]models.CaseItem, 0, len(items))
	for _, item := range items {
		if item.IsWinFor(price) {
			winning = append(winning, item)
		}
	}
	if len(winning) == 0 {
		return models.CaseItem{}, false
	}

	slices.SortStableFunc(winning, func(a, b models.CaseItem) int {
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		}
		return 0
	})

	cheapest := winning[0]
	if len(winning) == 1 || rng.Float64() < cheapestChance {
		return cheapest, true
	}

	if item, ok := SpinWeighted(winning[1:], itemWeight, rng.Float64()); ok {
		return item, true
	}
	return cheapest, true
}

// NextLossCount returns the loss streak after drawing item from a case bought at price
func NextLossCount(current int, item models.CaseItem, price int64) int {
	if item.IsWinFor(price) {
		return 0
	}
	return current + 1
}
