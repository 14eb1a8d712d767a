package i

// Broadcaster fans match snapshots out to spectator streams. Publishing
// must never block, whatever the subscribers are doing.
type Broadcaster interface {
	// Publish delivers an encoded snapshot to all subscribers.
	Publish([]byte)

	// Subscribe registers a stream and returns its id and receive channel.
	Subscribe() (int, <-chan []byte)

	// Unsubscribe removes a previously registered stream.
	Unsubscribe(int)
}
