package utils

import "math/rand/v2"

// Shuffle returns a uniformly shuffled copy of items.
func Shuffle[T any](rng *rand.Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// MostCommon returns the most frequent element of items. On a tie the element
// whose first occurrence comes earliest wins, so shuffling beforehand turns
// the tie-break into a weighted random pick. ok is false for empty input.
func MostCommon[T comparable](items []T) (mode T, ok bool) {
	counts := make(map[T]int, len(items))
	best := 0
	for _, item := range items {
		counts[item]++
	}
	for _, item := range items {
		if c := counts[item]; c > best {
			best = c
			mode = item
			ok = true
		}
	}
	return mode, ok
}

// Unique returns items without duplicates, keeping first occurrences.
func Unique[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
