package service

// SpinWeighted picks one candidate by roulette-wheel selection.
// r is uniform on [0, 1) and is scaled to the total weight. Candidates with a
// non-positive weight are never picked. ok is false when nothing can be picked.
func SpinWeighted[T any](candidates []T, weight func(T) float64, r float64) (picked T, ok bool) {
	var total float64
	for _, c := range candidates {
		if w := weight(c); w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return picked, false
	}

	threshold := r * total
	var cumulative float64
	lastIndex := -1
	for i, c := range candidates {
		w := weight(c)
		if w <= 0 {
			continue
		}
		cumulative += w
		lastIndex = i
		if cumulative > threshold {
			return c, true
		}
	}

	// Floating point sums can leave the threshold just past the end
	return candidates[lastIndex], true
}
