package core

import (
	"sync"
	"time"

	"podledger/core/types"
)

const defaultFeedCapacity = 256

// EventEntry is one ledger event as seen by feed subscribers. Sequence
// numbers are dense per process and let a reconnecting client notice gaps.
type EventEntry struct {
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	EmittedAt  int64             `json:"emittedAt"`
}

// EventFeed fans ledger events out to subscribers while retaining a bounded
// backlog for late joiners. Delivery is fire-and-forget: a subscriber that
// cannot keep up loses events rather than blocking the ledger.
type EventFeed struct {
	mu       sync.Mutex
	capacity int
	backlog  []EventEntry
	nextSeq  uint64
	subs     map[int]chan EventEntry
	nextSub  int
}

// NewEventFeed constructs a feed retaining up to capacity recent events.
func NewEventFeed(capacity int) *EventFeed {
	if capacity <= 0 {
		capacity = defaultFeedCapacity
	}
	return &EventFeed{
		capacity: capacity,
		subs:     make(map[int]chan EventEntry),
	}
}

// Publish appends the event to the backlog and offers it to every subscriber.
func (f *EventFeed) Publish(evt *types.Event) {
	if f == nil || evt == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entry := EventEntry{
		Sequence:   f.nextSeq,
		Type:       evt.Type,
		Attributes: evt.Attributes,
		EmittedAt:  time.Now().Unix(),
	}
	f.nextSeq++
	f.backlog = append(f.backlog, entry)
	if len(f.backlog) > f.capacity {
		f.backlog = f.backlog[len(f.backlog)-f.capacity:]
	}
	for _, ch := range f.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}

// Subscribe registers a new consumer. It returns the live channel, a cancel
// function releasing the subscription, and a copy of the current backlog.
func (f *EventFeed) Subscribe() (<-chan EventEntry, func(), []EventEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	ch := make(chan EventEntry, 64)
	f.subs[id] = ch
	backlog := append([]EventEntry{}, f.backlog...)
	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}
	return ch, cancel, backlog
}
