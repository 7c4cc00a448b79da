/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package matching

import (
	"crypto/rand"
)

const idLength = 8

// Card is a pair placed on the board. ID changes every time a deck is built;
// Key is stable for the same term and definition.
type Card struct {
	ID   string `json:"id"`
	Term string `json:"term"`
	Def  string `json:"def"`
	Key  string `json:"key"`
}

// Deck is every card parsed from the current text, in input order.
type Deck []Card

// PairKey is the value two cards must share to count as a match.
func PairKey(term, def string) string {
	return term + "::" + def
}

// Matches reports whether c and other come from the same pair.
func (c Card) Matches(other Card) bool {
	return c.Key == other.Key
}

// BuildDeck turns pairs into cards, one per pair, in input order.
func BuildDeck(pairs []Pair) Deck {
	deck := make(Deck, 0, len(pairs))

	for _, p := range pairs {
		deck = append(deck, Card{
			ID:   randomID(idLength),
			Term: p.Term,
			Def:  p.Def,
			Key:  PairKey(p.Term, p.Def),
		})
	}

	return deck
}

// randomID returns n characters from [a-z0-9], discarding bytes that would
// skew the distribution.
func randomID(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	const max = byte(255 - (256 % len(letters)))

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)

	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}

		for _, b := range buf {
			if b <= max {
				out = append(out, letters[int(b)%len(letters)])
				if len(out) == n {
					return string(out)
				}
			}
		}
	}

	return string(out)
}
