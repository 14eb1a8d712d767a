package service

import (
	"fmt"
	"net"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
)

// Lobby accepts exactly two bot connections and seats them. Whichever
// connection's identifier line is fully received first plays Red; the
// other plays Blue. Once both players are seated the lobby has no further
// responsibility.
type Lobby struct {
	listener    net.Listener
	nameTimeout time.Duration
	logger      general_i.Logger
}

// LobbyConfig carries the lobby's dependencies.
type LobbyConfig struct {
	Addr        string
	NameTimeout time.Duration
	Logger      general_i.Logger
}

// NewLobby opens the player listener.
func NewLobby(c *LobbyConfig) (*Lobby, error) {
	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return nil, fmt.Errorf("listening for players: %w", err)
	}
	c.Logger.Info(fmt.Sprintf("listening for player connections on %s", ln.Addr()))
	return &Lobby{
		listener:    ln,
		nameTimeout: c.NameTimeout,
		logger:      c.Logger,
	}, nil
}

// Addr returns the address the lobby is listening on.
func (l *Lobby) Addr() string {
	return l.listener.Addr().String()
}

type seatResult struct {
	client *Client
	err    error
}

// SeatPlayers blocks until two connections have arrived and both identifier
// reads have completed, then closes the listener and returns the seated
// clients. A failed identifier read does not fail seating: the fault is
// recorded on the client and scored by the match as a pre-start crash.
func (l *Lobby) SeatPlayers() (red, blue *Client, err error) {
	defer func() {
		_ = l.listener.Close()
	}()

	seated := make(chan seatResult, 2)
	for i := 0; i < 2; i++ {
		l.logger.Info(fmt.Sprintf("waiting for player %d", i+1))
		conn, err := l.listener.Accept()
		if err != nil {
			return nil, nil, fmt.Errorf("accepting player connection: %w", err)
		}
		client := NewClient(conn)
		go func() {
			err := client.ReadName(l.nameTimeout)
			seated <- seatResult{client: client, err: err}
		}()
	}

	first, second := <-seated, <-seated
	// The first completed identifier takes Red, unless it was a fault and
	// the other identifier arrived intact.
	if first.err != nil && second.err == nil {
		first, second = second, first
	}
	first.client.side = Red
	second.client.side = Blue
	first.client.handshakeErr = first.err
	second.client.handshakeErr = second.err

	for _, r := range []seatResult{first, second} {
		if r.err != nil {
			l.logger.Warning(fmt.Sprintf("%s forfeited during the name exchange: %v", r.client.side, r.err))
		} else {
			l.logger.Info(fmt.Sprintf("seated %q as %s", r.client.Name(), r.client.side))
		}
	}
	return first.client, second.client, nil
}
