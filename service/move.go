package service

// Move is one of the four cardinal directions, in whatever frame it was
// produced in. Up decreases y, Down increases y.
type Move int

const (
	Up Move = iota
	Down
	Left
	Right
)

func (m Move) String() string {
	switch m {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "right"
	}
}

// Delta returns the unit step for m.
func (m Move) Delta() (dx, dy int) {
	switch m {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	default:
		return 1, 0
	}
}

// parseMoveLine maps one wire line to a move. The protocol admits exactly
// "u\n", "d\n", "l\n" or "r\n"; anything else is malformed.
func parseMoveLine(line string) (Move, bool) {
	if len(line) != 2 || line[1] != '\n' {
		return 0, false
	}
	switch line[0] {
	case 'u':
		return Up, true
	case 'd':
		return Down, true
	case 'l':
		return Left, true
	case 'r':
		return Right, true
	}
	return 0, false
}

// Outcome is the terminal result of a match.
type Outcome int

const (
	RedWins Outcome = iota
	BlueWins
	Tie
)

func (o Outcome) String() string {
	switch o {
	case RedWins:
		return "red wins"
	case BlueWins:
		return "blue wins"
	default:
		return "tie"
	}
}

// terminalLine is the line sent to s's socket for outcome o.
func (o Outcome) terminalLine(s Side) string {
	if o == Tie {
		return "TIE\n"
	}
	winner := Red
	if o == BlueWins {
		winner = Blue
	}
	if s == winner {
		return "WIN\n"
	}
	return "LOSS\n"
}

// outcomeFor maps the per-turn crash set to an outcome. No crash means the
// match continues.
func outcomeFor(redCrashed, blueCrashed bool) (Outcome, bool) {
	switch {
	case redCrashed && blueCrashed:
		return Tie, true
	case redCrashed:
		return BlueWins, true
	case blueCrashed:
		return RedWins, true
	}
	return 0, false
}
