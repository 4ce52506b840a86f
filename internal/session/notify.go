package session

import (
	"sync"

	"github.com/RyanBlaney/tremor-analyzer/pkg/analysis"
	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
)

// EventType identifies what changed
type EventType string

const (
	EventSample       EventType = "sample"
	EventStateChanged EventType = "state_changed"
	EventResult       EventType = "result"
)

// Event is delivered to subscribers. Only the field matching Type is set,
// apart from SessionID and State which are always filled.
type Event struct {
	Type      EventType        `json:"type"`
	SessionID string           `json:"session_id"`
	State     State            `json:"state"`
	Sample    *motion.Sample   `json:"sample,omitempty"`
	Result    *analysis.Result `json:"result,omitempty"`
}

// DefaultSubscriberBuffer is used when Subscribe is given a non-positive size
const DefaultSubscriberBuffer = 64

type hub struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func (h *hub) subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]chan Event)
	}
	id := h.next
	h.next++
	ch := make(chan Event, buffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

// publish never blocks: a subscriber whose channel is full misses the event
func (h *hub) publish(ev Event) (dropped int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	return dropped
}
