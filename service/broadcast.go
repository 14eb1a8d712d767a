package service

import "sync"

// RenderData is the spectator payload: the full canonical board, row-major,
// with "Red"/"Blue"/null cells. The shape is fixed by the existing renderer.
type RenderData struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Data   []Occupancy `json:"data"`
}

// Hub fans encoded snapshots out to spectator subscribers. Delivery is
// latest-wins: every subscriber has a one-slot buffer and a publish that
// finds it full replaces the stale snapshot. A slow or absent spectator can
// miss intermediate frames but can never block the turn loop.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan []byte
	nextID int
	latest []byte
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan []byte)}
}

// Publish delivers payload to all subscribers without ever blocking.
func (h *Hub) Publish(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = payload
	for _, ch := range h.subs {
		select {
		case ch <- payload:
		default:
			// Replace the stale frame. The drain and the send are both
			// guarded so a concurrently-reading subscriber can't block us.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- payload:
			default:
			}
		}
	}
}

// Subscribe registers a spectator stream. The channel is primed with the
// most recent snapshot, if there is one.
func (h *Hub) Subscribe() (int, <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan []byte, 1)
	if h.latest != nil {
		ch <- h.latest
	}
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a spectator stream.
func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}
