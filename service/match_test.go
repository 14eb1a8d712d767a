package service

import (
	"bufio"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"
)

// testBot drives one side of a match over an in-memory pipe. The match
// prompts Red before Blue each turn, so tests read lines in that order.
type testBot struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func (b *testBot) readLine() string {
	b.t.Helper()
	_ = b.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := b.r.ReadString('\n')
	if err != nil {
		b.t.Fatalf("reading from server: %v", err)
	}
	return strings.TrimSuffix(line, "\n")
}

func (b *testBot) send(line string) {
	b.t.Helper()
	_ = b.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := b.conn.Write([]byte(line)); err != nil {
		b.t.Fatalf("writing to server: %v", err)
	}
}

func newTestMatch(t *testing.T, timeout time.Duration) (*Match, *testBot, *testBot) {
	t.Helper()
	redSrv, redConn := net.Pipe()
	blueSrv, blueConn := net.Pipe()
	redClient := NewClient(redSrv)
	blueClient := NewClient(blueSrv)
	redClient.side, redClient.name = Red, "red-bot"
	blueClient.side, blueClient.name = Blue, "blue-bot"

	m, err := NewMatch(&MatchConfig{
		Red:         redClient,
		Blue:        blueClient,
		TurnTimeout: timeout,
		Logger:      newTestLogger(t),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Stop)
	t.Cleanup(func() { _ = redConn.Close() })
	t.Cleanup(func() { _ = blueConn.Close() })
	return m, &testBot{t: t, conn: redConn, r: bufio.NewReader(redConn)},
		&testBot{t: t, conn: blueConn, r: bufio.NewReader(blueConn)}
}

// startMatch runs the match in the background, collecting every published
// snapshot the way main's relay does.
func startMatch(m *Match) (<-chan error, <-chan []byte) {
	frames := make(chan []byte, 64)
	go func() {
		defer close(frames)
		for {
			select {
			case p := <-m.StateChan():
				frames <- p
			case p, ok := <-m.EndChan():
				if ok {
					frames <- p
				} else {
					return
				}
			}
		}
	}()
	errCh := make(chan error, 1)
	go func() { errCh <- m.Start() }()
	return errCh, frames
}

func waitMatch(t *testing.T, errCh <-chan error) {
	t.Helper()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("match aborted: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("match did not finish")
	}
}

// takenCells decodes a snapshot payload into owner-by-index.
func takenCells(t *testing.T, payload []byte) map[int]string {
	t.Helper()
	var decoded struct {
		Data []*string `json:"data"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}
	taken := make(map[int]string)
	for idx, owner := range decoded.Data {
		if owner != nil {
			taken[idx] = *owner
		}
	}
	return taken
}

func TestMatchOpeningTrace(t *testing.T) {
	m, red, blue := newTestMatch(t, 500*time.Millisecond)
	errCh, _ := startMatch(m)

	// Both bots observe themselves at 484 and the opponent at 539.
	if got := red.readLine(); got != "484 539" {
		t.Fatalf("red prompt = %q, want %q", got, "484 539")
	}
	if got := blue.readLine(); got != "484 539" {
		t.Fatalf("blue prompt = %q, want %q", got, "484 539")
	}

	// Red steps right; Blue steps right in its own frame, which is a
	// canonical step left. Both frames then show 485 538.
	red.send("r\n")
	blue.send("r\n")
	if got := red.readLine(); got != "485 538" {
		t.Fatalf("red turn-1 prompt = %q, want %q", got, "485 538")
	}
	if got := blue.readLine(); got != "485 538" {
		t.Fatalf("blue turn-1 prompt = %q, want %q", got, "485 538")
	}

	// Garbage from both ends the match as a tie.
	red.send("x\n")
	blue.send("x\n")
	if got := red.readLine(); got != "TIE" {
		t.Errorf("red terminal = %q, want TIE", got)
	}
	if got := blue.readLine(); got != "TIE" {
		t.Errorf("blue terminal = %q, want TIE", got)
	}
	waitMatch(t, errCh)
}

func TestMatchHeadOnCollision(t *testing.T) {
	m, red, blue := newTestMatch(t, 500*time.Millisecond)
	m.red.pos = CellIndex(10, 10)
	m.blue.pos = CellIndex(12, 10)
	errCh, _ := startMatch(m)

	red.readLine()
	blue.readLine()
	// Both candidates land on (11, 10); a shared cell crashes both.
	red.send("r\n")
	blue.send("r\n")
	if got := red.readLine(); got != "TIE" {
		t.Errorf("red terminal = %q, want TIE", got)
	}
	if got := blue.readLine(); got != "TIE" {
		t.Errorf("blue terminal = %q, want TIE", got)
	}
	waitMatch(t, errCh)
}

func TestMatchWallCrashes(t *testing.T) {
	tests := []struct {
		name string
		pos  int
		move string
	}{
		{"left wall", CellIndex(0, 5), "l\n"},
		{"right wall", CellIndex(31, 5), "r\n"},
		{"top wall", CellIndex(5, 0), "u\n"},
		{"bottom wall", CellIndex(5, 31), "d\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, red, blue := newTestMatch(t, 500*time.Millisecond)
			m.red.pos = tt.pos
			errCh, _ := startMatch(m)

			red.readLine()
			blue.readLine()
			red.send(tt.move)
			blue.send("u\n")
			if got := red.readLine(); got != "LOSS" {
				t.Errorf("red terminal = %q, want LOSS", got)
			}
			if got := blue.readLine(); got != "WIN" {
				t.Errorf("blue terminal = %q, want WIN", got)
			}
			waitMatch(t, errCh)
		})
	}
}

func TestMatchTrailCollision(t *testing.T) {
	m, red, blue := newTestMatch(t, 500*time.Millisecond)
	m.red.pos = CellIndex(10, 10)
	if err := m.board.Occupy(CellIndex(11, 10), Blue); err != nil {
		t.Fatal(err)
	}
	errCh, _ := startMatch(m)

	red.readLine()
	blue.readLine()
	red.send("r\n")
	blue.send("u\n")
	if got := red.readLine(); got != "LOSS" {
		t.Errorf("red terminal = %q, want LOSS", got)
	}
	if got := blue.readLine(); got != "WIN" {
		t.Errorf("blue terminal = %q, want WIN", got)
	}
	waitMatch(t, errCh)
}

func TestMatchOwnTrailCollision(t *testing.T) {
	m, red, blue := newTestMatch(t, 500*time.Millisecond)
	errCh, _ := startMatch(m)

	red.readLine()
	blue.readLine()
	red.send("r\n")
	blue.send("r\n")
	red.readLine()
	blue.readLine()
	// Stepping back onto the cell just vacated hits Red's own trail.
	red.send("l\n")
	blue.send("r\n")
	if got := red.readLine(); got != "LOSS" {
		t.Errorf("red terminal = %q, want LOSS", got)
	}
	if got := blue.readLine(); got != "WIN" {
		t.Errorf("blue terminal = %q, want WIN", got)
	}
	waitMatch(t, errCh)
}

func TestMatchTimeoutForfeit(t *testing.T) {
	m, red, blue := newTestMatch(t, 60*time.Millisecond)
	errCh, _ := startMatch(m)

	red.readLine()
	blue.readLine()
	// Red stays silent past its deadline.
	blue.send("u\n")
	if got := red.readLine(); got != "LOSS" {
		t.Errorf("red terminal = %q, want LOSS", got)
	}
	if got := blue.readLine(); got != "WIN" {
		t.Errorf("blue terminal = %q, want WIN", got)
	}
	waitMatch(t, errCh)
}

func TestMatchBothTimeoutTie(t *testing.T) {
	m, red, blue := newTestMatch(t, 60*time.Millisecond)
	errCh, _ := startMatch(m)

	red.readLine()
	blue.readLine()
	if got := red.readLine(); got != "TIE" {
		t.Errorf("red terminal = %q, want TIE", got)
	}
	if got := blue.readLine(); got != "TIE" {
		t.Errorf("blue terminal = %q, want TIE", got)
	}
	waitMatch(t, errCh)
}

func TestMatchMalformedMoveScoredLikeTimeout(t *testing.T) {
	m, red, blue := newTestMatch(t, 500*time.Millisecond)
	errCh, _ := startMatch(m)

	red.readLine()
	blue.readLine()
	red.send("x\n")
	blue.send("u\n")
	if got := red.readLine(); got != "LOSS" {
		t.Errorf("red terminal = %q, want LOSS", got)
	}
	if got := blue.readLine(); got != "WIN" {
		t.Errorf("blue terminal = %q, want WIN", got)
	}
	waitMatch(t, errCh)
}

func TestMatchDisconnectForfeit(t *testing.T) {
	m, red, blue := newTestMatch(t, 500*time.Millisecond)
	errCh, _ := startMatch(m)

	red.readLine()
	blue.readLine()
	_ = red.conn.Close()
	blue.send("u\n")
	if got := blue.readLine(); got != "WIN" {
		t.Errorf("blue terminal = %q, want WIN", got)
	}
	waitMatch(t, errCh)
}

func TestMatchHandshakeFaultResolvesBeforePlay(t *testing.T) {
	m, red, blue := newTestMatch(t, 500*time.Millisecond)
	m.red.client.handshakeErr = ErrMoveDeadline
	errCh, _ := startMatch(m)

	// No position prompt is ever sent; the first line is the terminal.
	if got := red.readLine(); got != "LOSS" {
		t.Errorf("red terminal = %q, want LOSS", got)
	}
	if got := blue.readLine(); got != "WIN" {
		t.Errorf("blue terminal = %q, want WIN", got)
	}
	waitMatch(t, errCh)
}

func TestMatchPublishesSnapshots(t *testing.T) {
	m, red, blue := newTestMatch(t, 500*time.Millisecond)
	errCh, frames := startMatch(m)

	red.readLine()
	blue.readLine()
	red.send("r\n")
	blue.send("r\n")
	red.readLine()
	blue.readLine()
	red.send("x\n")
	blue.send("x\n")
	red.readLine()
	blue.readLine()
	waitMatch(t, errCh)

	var all [][]byte
	for p := range frames {
		all = append(all, p)
	}
	if len(all) < 2 {
		t.Fatalf("published %d snapshots, want at least 2", len(all))
	}

	initial := takenCells(t, all[0])
	if len(initial) != 2 || initial[484] != "Red" || initial[539] != "Blue" {
		t.Errorf("initial snapshot = %v, want only 484=Red and 539=Blue", initial)
	}

	final := takenCells(t, all[len(all)-1])
	want := map[int]string{484: "Red", 485: "Red", 539: "Blue", 538: "Blue"}
	if len(final) != len(want) {
		t.Fatalf("final snapshot has %d taken cells, want %d", len(final), len(want))
	}
	for idx, owner := range want {
		if final[idx] != owner {
			t.Errorf("final snapshot cell %d = %q, want %q", idx, final[idx], owner)
		}
	}
}
