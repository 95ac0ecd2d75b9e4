package shortlist

import (
	"context"
	"sync"
	"time"

	"talent-shortlist/internal/models"
)

type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
)

// ChangeEvent describes one successful mutation of the shortlist. Views that
// render the list re-read it when they receive one.
type ChangeEvent struct {
	Type    EventType               `json:"type"`
	Key     string                  `json:"key"`
	EntryID string                  `json:"entryId"`
	Entry   *models.CandidateRecord `json:"entry,omitempty"`
	Origin  string                  `json:"origin,omitempty"`
	At      time.Time               `json:"at"`
}

// Notifier receives change events after the write that caused them has committed.
type Notifier interface {
	Notify(ctx context.Context, event ChangeEvent) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event ChangeEvent) error

func (f NotifierFunc) Notify(ctx context.Context, event ChangeEvent) error {
	return f(ctx, event)
}

// Broadcaster fans events out to in-process subscribers. A subscriber whose
// buffer is full misses the event rather than blocking the writer.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[int]chan ChangeEvent
	nextID  int
	dropped int
	closed  bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan ChangeEvent)}
}

// Subscribe registers a listener. The returned cancel func unregisters it and
// closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe(buffer int) (<-chan ChangeEvent, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan ChangeEvent, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

func (b *Broadcaster) Notify(_ context.Context, event ChangeEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.dropped++
		}
	}
	return nil
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Broadcaster) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close unregisters every subscriber and closes their channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
