package domino

import (
	"fmt"
	"math/rand/v2"
)

// MaxPip is the highest pip value in a double-six set.
const MaxPip = 6

// SetSize is the number of tiles in a double-six set.
const SetSize = (MaxPip + 1) * (MaxPip + 2) / 2

// Tile is a pair of pip values.
type Tile struct {
	A int `json:"a"`
	B int `json:"b"`
}

func (t Tile) String() string {
	return fmt.Sprintf("[%d|%d]", t.A, t.B)
}

// Flip returns the tile with its pips swapped.
func (t Tile) Flip() Tile {
	return Tile{A: t.B, B: t.A}
}

// Canonical returns the tile with the lower pip first.
func (t Tile) Canonical() Tile {
	if t.A > t.B {
		return t.Flip()
	}
	return t
}

// Valid reports whether both pips are in range.
func (t Tile) Valid() bool {
	return t.A >= 0 && t.A <= MaxPip && t.B >= 0 && t.B <= MaxPip
}

// Has reports whether either pip equals v.
func (t Tile) Has(v int) bool {
	return t.A == v || t.B == v
}

// NewSet returns a fresh double-six set, one tile per unordered pair, a <= b.
func NewSet() []Tile {
	tiles := make([]Tile, 0, SetSize)
	for a := 0; a <= MaxPip; a++ {
		for b := a; b <= MaxPip; b++ {
			tiles = append(tiles, Tile{A: a, B: b})
		}
	}
	return tiles
}

// Shuffle permutes tiles in place, swapping each index from the last down to
// the second with a uniformly chosen index at or below it.
func Shuffle(tiles []Tile, r *rand.Rand) {
	for i := len(tiles) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		tiles[i], tiles[j] = tiles[j], tiles[i]
	}
}
