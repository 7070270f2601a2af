package app

import (
	"sync"
	"time"

	"github.com/yourusername/yt-stream-go/internal/domain"
)

// channelBuffer bounds how many undelivered events a subscriber may lag
// behind before delta events start being dropped.
const channelBuffer = 32

// ProgressChannel is one live server-to-client event channel. It is owned
// by the registry; consumers only ever range over Events.
type ProgressChannel struct {
	events chan domain.ProgressEvent
	once   sync.Once
}

// Events is the receive side consumed by the progress transport. It is
// closed when the channel is removed from the registry.
func (c *ProgressChannel) Events() <-chan domain.ProgressEvent {
	return c.events
}

func (c *ProgressChannel) close() {
	c.once.Do(func() { close(c.events) })
}

// ProgressRegistry maps an opaque request identifier to at most one live
// progress channel. Callers are expected to supply identifiers with
// effectively-unique entropy; a second registration under the same id
// replaces (and closes) the first rather than queueing subscribers.
type ProgressRegistry struct {
	mu       sync.Mutex
	channels map[string]*ProgressChannel
}

// NewProgressRegistry creates an empty registry.
func NewProgressRegistry() *ProgressRegistry {
	return &ProgressRegistry{channels: make(map[string]*ProgressChannel)}
}

// Register creates and returns the live channel for id. Last writer wins:
// any previous channel under the same id is closed and replaced.
func (r *ProgressRegistry) Register(id string) *ProgressChannel {
	ch := &ProgressChannel{events: make(chan domain.ProgressEvent, channelBuffer)}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.channels[id]; ok {
		prev.close()
	}
	r.channels[id] = ch
	return ch
}

// Push delivers a delta event to the channel registered under id. It
// reports whether the event was delivered: false when no channel is
// registered or the subscriber is too far behind. It never blocks and
// never fails the caller.
func (r *ProgressRegistry) Push(id string, ev domain.ProgressEvent) bool {
	if id == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[id]
	if !ok {
		return false
	}
	select {
	case ch.events <- ev:
		return true
	default:
		return false
	}
}

// Finish delivers a terminal event and removes the channel. The channel is
// removed from the registry before closing, so no further writes can occur
// once it has emitted a terminal event. Safe to call for unknown ids.
func (r *ProgressRegistry) Finish(id string, ev domain.ProgressEvent) {
	if id == "" {
		return
	}
	r.mu.Lock()
	ch, ok := r.channels[id]
	if ok {
		delete(r.channels, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	// Give a slow subscriber a moment to drain before the terminal event;
	// drop it rather than block the download path.
	select {
	case ch.events <- ev:
	case <-time.After(time.Second):
	}
	ch.close()
}

// CloseAndRemove removes the channel without a terminal event, used when
// the transport-level connection goes away. Double removal is a no-op.
func (r *ProgressRegistry) CloseAndRemove(id string) {
	r.mu.Lock()
	ch, ok := r.channels[id]
	if ok {
		delete(r.channels, id)
	}
	r.mu.Unlock()
	if ok {
		ch.close()
	}
}

// Registered reports whether a channel currently exists for id.
func (r *ProgressRegistry) Registered(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.channels[id]
	return ok
}
