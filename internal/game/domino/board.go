package domino

import "fmt"

// Side names an open end of the chain.
type Side string

const (
	SideAny   Side = ""
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ParseSide accepts "", "left" or "right".
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideAny, SideLeft, SideRight:
		return Side(s), nil
	}
	return SideAny, fmt.Errorf("unknown side %q", s)
}

// Board is the chain of placed tiles. Tiles are stored oriented, so the open
// ends are always the first tile's A and the last tile's B.
type Board []Tile

// Ends returns the left and right open ends. ok is false on an empty board.
func (b Board) Ends() (left, right int, ok bool) {
	if len(b) == 0 {
		return 0, 0, false
	}
	return b[0].A, b[len(b)-1].B, true
}

// IsValidMove reports whether t may be placed on the board: any tile starts an
// empty board, otherwise either pip must equal either open end.
func IsValidMove(t Tile, b Board) bool {
	left, right, ok := b.Ends()
	if !ok {
		return true
	}
	return t.Has(left) || t.Has(right)
}

// Attach places t on the board and returns the new chain. The right end is
// tried before the left unless side pins one. The placed tile is flipped so the
// matching pip faces the chain.
func (b Board) Attach(t Tile, side Side) (Board, bool) {
	left, right, ok := b.Ends()
	if !ok {
		return append(b, t), true
	}
	if side != SideLeft && t.Has(right) {
		if t.A != right {
			t = t.Flip()
		}
		return append(b, t), true
	}
	if side != SideRight && t.Has(left) {
		if t.B != left {
			t = t.Flip()
		}
		out := make(Board, 0, len(b)+1)
		out = append(out, t)
		return append(out, b...), true
	}
	return b, false
}
