package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/google/uuid"
)

// Match-related errors.
var (
	ErrMissingClient = errors.New("match needs two seated clients")
)

// Starting cells in the canonical frame. Blue's start is the point
// reflection of Red's, so both bots observe themselves starting at 484.
const (
	redStartCell  = 484
	blueStartCell = BoardCells - 1 - redStartCell
)

type playerState struct {
	client *Client
	pos    int
	alive  bool
}

// turnInput is one connection's contribution to a turn: a move already
// translated into the canonical frame, or the fault that forfeited it.
type turnInput struct {
	mv  Move
	err error
}

// Match referees one game between two seated clients. It owns the board and
// both player states exclusively: every mutation happens on the Start
// goroutine, and the per-connection read paths only ever hand back immutable
// turnInput values, so no locking is needed around match state.
//
// After every completed turn the canonical board snapshot is published as an
// encoded payload on the state channel; the terminal turn's snapshot goes to
// the end channel instead.
type Match struct {
	id    uuid.UUID
	board *Board
	red   *playerState
	blue  *playerState
	turn  int

	turnTimeout time.Duration
	extraDelay  time.Duration

	stateChan chan []byte
	endChan   chan []byte
	logger    general_i.Logger
}

// MatchConfig carries the match dependencies.
type MatchConfig struct {
	Red  *Client // seated Red client
	Blue *Client // seated Blue client

	TurnTimeout time.Duration // per-turn response deadline, per connection
	ExtraDelay  time.Duration // artificial pause appended to each turn

	Logger general_i.Logger
}

// NewMatch creates a match with both trails seeded at their starting cells.
func NewMatch(c *MatchConfig) (*Match, error) {
	if c.Red == nil || c.Blue == nil {
		return nil, ErrMissingClient
	}

	board := NewBoard()
	if err := board.Occupy(redStartCell, Red); err != nil {
		return nil, err
	}
	if err := board.Occupy(blueStartCell, Blue); err != nil {
		return nil, err
	}

	return &Match{
		id:          uuid.New(),
		board:       board,
		red:         &playerState{client: c.Red, pos: redStartCell, alive: true},
		blue:        &playerState{client: c.Blue, pos: blueStartCell, alive: true},
		turnTimeout: c.TurnTimeout,
		extraDelay:  c.ExtraDelay,
		stateChan:   make(chan []byte),
		endChan:     make(chan []byte, 1),
		logger:      c.Logger,
	}, nil
}

// ID returns the match identifier used for log correlation.
func (m *Match) ID() uuid.UUID {
	return m.id
}

// Start runs the match to completion: the name-exchange verdict, then the
// turn loop, then terminal delivery and connection teardown. It returns an
// error only for an invariant violation in the match logic itself; bot
// misbehavior is part of normal play and resolves into an outcome.
func (m *Match) Start() error {
	defer close(m.endChan)
	defer m.closeClients()

	m.logger.Info(fmt.Sprintf("match %s: %q (red) vs %q (blue)", m.id, m.red.client.Name(), m.blue.client.Name()))

	// A fault during the name exchange is scored before any turn runs.
	if o, over := outcomeFor(m.red.client.HandshakeErr() != nil, m.blue.client.HandshakeErr() != nil); over {
		m.finish(o)
		return nil
	}

	m.publish(m.stateChan)

	for {
		redCh := m.promptAndCollect(m.red, m.blue)
		blueCh := m.promptAndCollect(m.blue, m.red)
		redIn, blueIn := <-redCh, <-blueCh

		over, err := m.resolveTurn(redIn, blueIn)
		if err != nil {
			return fmt.Errorf("match %s aborted on turn %d: %w", m.id, m.turn, err)
		}
		if over {
			return nil
		}

		m.publish(m.stateChan)
		if m.extraDelay > 0 {
			time.Sleep(m.extraDelay)
		}
	}
}

// Stop abandons the match by tearing down both connections; any in-flight
// reads fail and the turn loop resolves on its next cycle.
func (m *Match) Stop() {
	m.closeClients()
}

// StateChan returns the per-turn snapshot channel.
func (m *Match) StateChan() <-chan []byte {
	return m.stateChan
}

// EndChan returns the channel carrying the terminal snapshot.
func (m *Match) EndChan() <-chan []byte {
	return m.endChan
}

// promptAndCollect sends p its transformed position pair and collects the
// turn's move in the background. The response deadline starts the moment
// this connection's prompt is written; the two connections' deadlines are
// deliberately independent of each other.
func (m *Match) promptAndCollect(p, other *playerState) <-chan turnInput {
	ch := make(chan turnInput, 1)
	side := p.client.Side()
	if err := p.client.SendPositions(side.ViewCell(p.pos), side.ViewCell(other.pos)); err != nil {
		ch <- turnInput{err: ErrConnClosed}
		return ch
	}
	go func() {
		mv, err := p.client.ReadMove(m.turnTimeout)
		if err != nil {
			ch <- turnInput{err: err}
			return
		}
		ch <- turnInput{mv: side.CanonicalMove(mv)}
	}()
	return ch
}

// resolveTurn applies one simultaneous-move cycle. Both candidates are
// judged against the same pre-turn board, so neither move can see the
// other's; a shared candidate cell crashes both players.
func (m *Match) resolveTurn(redIn, blueIn turnInput) (over bool, err error) {
	redCand, redOK := m.candidate(m.red, Red, redIn)
	blueCand, blueOK := m.candidate(m.blue, Blue, blueIn)

	redCrash := !redOK || m.board.Occupied(redCand)
	blueCrash := !blueOK || m.board.Occupied(blueCand)
	if redOK && blueOK && redCand == blueCand {
		redCrash, blueCrash = true, true
	}

	if !redCrash {
		if err := m.board.Occupy(redCand, Red); err != nil {
			return false, err
		}
		m.red.pos = redCand
	}
	if !blueCrash {
		if err := m.board.Occupy(blueCand, Blue); err != nil {
			return false, err
		}
		m.blue.pos = blueCand
	}
	m.red.alive = !redCrash
	m.blue.alive = !blueCrash

	if o, over := outcomeFor(redCrash, blueCrash); over {
		m.finish(o)
		return true, nil
	}
	m.turn++
	return false, nil
}

// candidate computes p's next cell from the pre-turn position, or reports
// that p has no legal candidate this turn.
func (m *Match) candidate(p *playerState, side Side, in turnInput) (int, bool) {
	if in.err != nil {
		m.logger.Warning(fmt.Sprintf("match %s turn %d: %s forfeits: %v", m.id, m.turn, side, in.err))
		return 0, false
	}
	x, y := CellCoords(p.pos)
	dx, dy := in.mv.Delta()
	x, y = x+dx, y+dy
	if !InBounds(x, y) {
		return 0, false
	}
	return CellIndex(x, y), true
}

// finish delivers the terminal lines and the final snapshot. Write errors
// are swallowed: a bot that already hung up still loses or wins the same way.
func (m *Match) finish(o Outcome) {
	m.logger.Info(fmt.Sprintf("match %s finished after %d turns: %s", m.id, m.turn, o))
	if err := m.red.client.SendTerminal(o); err != nil {
		m.logger.Warning(fmt.Sprintf("match %s: delivering terminal to red: %v", m.id, err))
	}
	if err := m.blue.client.SendTerminal(o); err != nil {
		m.logger.Warning(fmt.Sprintf("match %s: delivering terminal to blue: %v", m.id, err))
	}
	m.publish(m.endChan)
}

// publish encodes the canonical snapshot and hands it to ch. Encoding
// failures are logged and dropped; spectator delivery never affects play.
func (m *Match) publish(ch chan []byte) {
	payload, err := json.Marshal(RenderData{
		Width:  BoardSize,
		Height: BoardSize,
		Data:   m.board.Snapshot(),
	})
	if err != nil {
		m.logger.Error(fmt.Sprintf("match %s: encoding snapshot: %v", m.id, err))
		return
	}
	ch <- payload
}

func (m *Match) closeClients() {
	m.red.client.Close()
	m.blue.client.Close()
}
