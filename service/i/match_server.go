package i

// MatchServer defines the interface for one refereed match.
type MatchServer interface {
	// Start runs the match to completion. It returns an error only for an
	// invariant violation in the match logic itself.
	Start() error

	// Stop abandons the match by tearing down both connections.
	Stop()

	// StateChan returns the per-turn snapshot channel.
	StateChan() <-chan []byte

	// EndChan returns the channel carrying the terminal snapshot.
	EndChan() <-chan []byte
}
