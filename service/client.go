package service

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Per-client fault kinds. All of them forfeit the turn they occur on; none
// of them is visible to the opposing bot.
var (
	ErrMoveDeadline  = errors.New("client took too long to respond")
	ErrMalformedMove = errors.New("client sent an unparsable line")
	ErrConnClosed    = errors.New("client closed the connection")
)

// Client is one seated bot connection. A background goroutine pumps
// newline-terminated lines into a channel so reads can honor per-turn
// deadlines without the match loop ever blocking on a socket. A line that
// arrives after its deadline stays buffered and is judged as the next
// turn's input, which matches how a line-buffered reader behaves.
type Client struct {
	conn  net.Conn
	name  string
	side  Side
	lines chan lineResult

	// handshakeErr records a failed identifier read; the match scores it
	// as a pre-start crash.
	handshakeErr error

	done      chan struct{}
	closeOnce sync.Once
}

type lineResult struct {
	text string
	err  error
}

// NewClient wraps an accepted connection and starts its line pump.
func NewClient(conn net.Conn) *Client {
	c := &Client{
		conn:  conn,
		lines: make(chan lineResult),
		done:  make(chan struct{}),
	}
	go c.pump()
	return c
}

func (c *Client) pump() {
	r := bufio.NewReader(c.conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			select {
			case c.lines <- lineResult{err: ErrConnClosed}:
			case <-c.done:
			}
			return
		}
		select {
		case c.lines <- lineResult{text: line}:
		case <-c.done:
			return
		}
	}
}

// Name returns the identifier line the bot sent on connect.
func (c *Client) Name() string {
	return c.name
}

// Side returns the side this client was seated as.
func (c *Client) Side() Side {
	return c.side
}

// HandshakeErr returns the fault recorded during the name exchange, if any.
func (c *Client) HandshakeErr() error {
	return c.handshakeErr
}

// readLine waits for the next full line, up to the deadline.
func (c *Client) readLine(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-c.lines:
		return res.text, res.err
	case <-timer.C:
		return "", ErrMoveDeadline
	}
}

// ReadName reads the bot's identifier line. The identifier is stored for
// logging only and is not validated further.
func (c *Client) ReadName(timeout time.Duration) error {
	line, err := c.readLine(timeout)
	if err != nil {
		return err
	}
	c.name = strings.TrimSpace(line)
	return nil
}

// ReadMove reads one move line in the client's own frame. Timeouts and
// garbage both come back as errors; the caller scores them identically.
func (c *Client) ReadMove(timeout time.Duration) (Move, error) {
	line, err := c.readLine(timeout)
	if err != nil {
		return 0, err
	}
	m, ok := parseMoveLine(line)
	if !ok {
		return 0, ErrMalformedMove
	}
	return m, nil
}

// SendPositions writes the per-turn position pair, already transformed
// into this client's frame.
func (c *Client) SendPositions(self, other int) error {
	_, err := fmt.Fprintf(c.conn, "%d %d\n", self, other)
	return err
}

// SendTerminal writes the WIN/LOSS/TIE line for this client's side.
func (c *Client) SendTerminal(o Outcome) error {
	_, err := fmt.Fprint(c.conn, o.terminalLine(c.side))
	return err
}

// Close tears the connection down and releases the line pump. Safe to call
// more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
