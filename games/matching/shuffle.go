/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package matching

import (
	"math/rand/v2"
)

// Source supplies uniformly distributed integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

func sourceOrDefault(src Source) Source {
	if src == nil {
		return globalSource{}
	}
	return src
}

// Shuffle returns a new slice holding the elements of in in random order.
// in is left untouched.
func Shuffle[T any](src Source, in []T) []T {
	src = sourceOrDefault(src)

	out := make([]T, len(in))
	copy(out, in)

	for i := len(out) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}

	return out
}

// SamplePool draws size random cards from deck.
func SamplePool(src Source, deck Deck, size int) []Card {
	size = max(0, min(size, len(deck)))

	return Shuffle(src, deck)[:size]
}
