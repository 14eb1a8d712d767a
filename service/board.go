package service

import (
	"encoding/json"
	"errors"
)

// Board dimensions. The arena is a fixed square grid addressed row-major:
// idx = y*BoardSize + x.
const (
	BoardSize  = 32
	BoardCells = BoardSize * BoardSize
)

// ErrCellOccupied is returned by Occupy for a non-empty cell. The match
// state machine checks occupancy before occupying, so seeing this error
// means the collision logic itself is broken.
var ErrCellOccupied = errors.New("cell is already occupied")

// Side identifies one of the two players.
type Side int

const (
	Red Side = iota
	Blue
)

func (s Side) String() string {
	if s == Red {
		return "Red"
	}
	return "Blue"
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == Red {
		return Blue
	}
	return Red
}

// Occupancy is the owner of a single cell. It serializes to "Red", "Blue"
// or null so snapshots match what the spectator renderer expects.
type Occupancy struct {
	owner Side
	taken bool
}

// Taken reports whether the cell is part of either trail.
func (o Occupancy) Taken() bool {
	return o.taken
}

func (o Occupancy) MarshalJSON() ([]byte, error) {
	if !o.taken {
		return []byte("null"), nil
	}
	return json.Marshal(o.owner.String())
}

// Board is the trail grid. Cells are append-only: once a cell is owned it
// never changes for the rest of the match.
type Board struct {
	cells [BoardCells]Occupancy
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// CellIndex converts grid coordinates to a row-major cell index.
func CellIndex(x, y int) int {
	return y*BoardSize + x
}

// CellCoords converts a row-major cell index back to grid coordinates.
func CellCoords(idx int) (x, y int) {
	return idx % BoardSize, idx / BoardSize
}

// InBounds reports whether (x, y) is on the grid.
func InBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

// Occupied reports whether the cell at idx belongs to either trail.
func (b *Board) Occupied(idx int) bool {
	return b.cells[idx].taken
}

// Occupy marks the cell at idx as owned by s. Occupying a non-empty cell
// returns ErrCellOccupied.
func (b *Board) Occupy(idx int, s Side) error {
	if b.cells[idx].taken {
		return ErrCellOccupied
	}
	b.cells[idx] = Occupancy{owner: s, taken: true}
	return nil
}

// Snapshot returns a copy of the current occupancy, row-major.
func (b *Board) Snapshot() []Occupancy {
	data := make([]Occupancy, BoardCells)
	copy(data, b.cells[:])
	return data
}
