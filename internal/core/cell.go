package core

// CellUpdate is one accepted grid mutation. History entries are append-only.
type CellUpdate struct {
	X         int
	Y         int
	Char      string
	PlayerID  string
	Timestamp int64 // unix milliseconds
}

// Grid is a square grid of single-character cells; "" is an unset cell.
// Rows are indexed by x, columns by y.
type Grid [][]string

// NewGrid returns an all-empty grid of the given size.
func NewGrid(size int) Grid {
	g := make(Grid, size)
	for i := range g {
		g[i] = make([]string, size)
	}
	return g
}

// Clone returns a deep copy so callers never alias live state.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Contains reports whether (x, y) addresses an existing cell.
func (g Grid) Contains(x, y int) bool {
	if x < 0 || y < 0 || x >= len(g) {
		return false
	}
	return y < len(g[x])
}

// GameState is the snapshot sent to a freshly joined connection.
type GameState struct {
	Grid      Grid
	History   []CellUpdate
	Timestamp int64
}
