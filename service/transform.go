package service

// Frame transforms between the canonical board and each player's view.
//
// The match state machine works entirely in the canonical frame, where Red
// starts at cell 484. Blue's bot is shown a point-reflected board so that it
// too observes itself starting at 484 and moving in a consistent frame; the
// reflection is its own inverse.

// ReflectCell maps a canonical cell index into the blue frame (and back).
func ReflectCell(idx int) int {
	return BoardCells - 1 - idx
}

// ReflectMove maps a move between the canonical and blue frames.
func ReflectMove(m Move) Move {
	switch m {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// ViewCell maps a canonical cell index into s's frame.
func (s Side) ViewCell(idx int) int {
	if s == Blue {
		return ReflectCell(idx)
	}
	return idx
}

// CanonicalMove maps a move received in s's frame into the canonical frame.
func (s Side) CanonicalMove(m Move) Move {
	if s == Blue {
		return ReflectMove(m)
	}
	return m
}
