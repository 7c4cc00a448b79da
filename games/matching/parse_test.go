package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePairsSeparators(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Pair
	}{
		{name: "em dash", line: "A — B", want: Pair{Term: "A", Def: "B"}},
		{name: "hyphen", line: "A - B", want: Pair{Term: "A", Def: "B"}},
		{name: "colon", line: "A: B", want: Pair{Term: "A", Def: "B"}},
		{name: "comma", line: "A, B", want: Pair{Term: "A", Def: "B"}},
		{name: "hyphenated term", line: "hard-working — puts in a lot of effort", want: Pair{Term: "hard-working", Def: "puts in a lot of effort"}},
		{name: "surrounding space", line: "   tall   —   of great height  ", want: Pair{Term: "tall", Def: "of great height"}},
		{name: "later separators rejoined", line: "moody — changes feelings, often: quickly", want: Pair{Term: "moody", Def: "changes feelings often quickly"}},
		{name: "semicolon kept", line: "rude — not polite; impolite", want: Pair{Term: "rude", Def: "not polite; impolite"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []Pair{tt.want}, ParsePairs(tt.line))
		})
	}
}

func TestParsePairsDropsMalformedLines(t *testing.T) {
	lines := []string{
		"no separator here",
		"hard-working",
		"A:B",
		"A -",
		": B",
		"— only a definition",
		"A ,",
		"",
		"   ",
	}

	for _, line := range lines {
		assert.Empty(t, ParsePairs(line), "%q", line)
	}
}

func TestParsePairsOrderAndDuplicates(t *testing.T) {
	text := "\n\nshy — nervous\r\nbogus line\npolite: kind\n\nshy — nervous\n"

	assert.Equal(t, []Pair{
		{Term: "shy", Def: "nervous"},
		{Term: "polite", Def: "kind"},
		{Term: "shy", Def: "nervous"},
	}, ParsePairs(text))
}

func TestParsePairsSample(t *testing.T) {
	pairs := ParsePairs(SampleData)

	assert.Len(t, pairs, 20)
	assert.Equal(t, Pair{Term: "polite", Def: "shows good manners and respect"}, pairs[0])
	assert.Equal(t, Pair{Term: "quiet", Def: "speaks little; not noisy"}, pairs[19])
}
