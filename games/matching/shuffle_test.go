package matching

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShufflePermutation(t *testing.T) {
	src := rand.New(rand.NewPCG(1, 2))

	for n := 0; n <= 30; n++ {
		in := make([]int, n)
		for i := range in {
			in[i] = i % 7
		}
		orig := slices.Clone(in)

		out := Shuffle(src, in)

		assert.Equal(t, orig, in, "input must not change")
		assert.ElementsMatch(t, in, out)
	}
}

func TestShuffleReachesEveryOrder(t *testing.T) {
	src := rand.New(rand.NewPCG(3, 4))
	seen := make(map[[3]string]int)

	for range 600 {
		out := Shuffle(src, []string{"a", "b", "c"})
		seen[[3]string(out)]++
	}

	assert.Len(t, seen, 6)
	for order, n := range seen {
		assert.Greater(t, n, 50, "%v drawn too rarely", order)
	}
}

func TestShuffleDefaultSource(t *testing.T) {
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, Shuffle(nil, []int{1, 2, 3, 4}))
}

func TestSamplePool(t *testing.T) {
	src := rand.New(rand.NewPCG(5, 6))
	deck := BuildDeck(ParsePairs(SampleData))

	pool := SamplePool(src, deck, 8)
	assert.Len(t, pool, 8)
	for _, c := range pool {
		assert.Contains(t, deck, c)
	}

	assert.Len(t, SamplePool(src, deck[:2], 4), 2)
	assert.Empty(t, SamplePool(src, deck, -1))
	assert.Empty(t, SamplePool(src, nil, 8))
}
