package pulse

import (
	"context"
	"sort"
	"sync"

	"github.com/deskaudio/pulse/proto"
)

// An Event reports that an entity was created, changed or removed.
type Event struct {
	// Type is "new", "change" or "remove".
	Type string `json:"type" yaml:"type"`
	// Facility is the kind of entity, such as "sink" or "sink-input".
	Facility string `json:"facility" yaml:"facility"`
	// Index is the index of the entity.
	Index proto.Index `json:"index" yaml:"index"`

	Raw proto.SubscriptionEventType `json:"-" yaml:"-"`
}

// Subscribe asks the server to send events for the facilities in mask.
// A later call replaces the mask; SubscriptionMaskNull stops all events.
func (c *Client) Subscribe(ctx context.Context, mask proto.SubscriptionMask) error {
	return c.request(ctx, &proto.Subscribe{Mask: mask}, nil)
}

// Observe registers fn to receive every event. fn runs on a goroutine of
// its own, in the order the events arrived, and may issue requests. The
// returned function unregisters fn.
func (c *Client) Observe(fn func(Event)) (unregister func()) {
	return c.events.observe(fn)
}

func (c *Client) onEvent(ev *proto.SubscribeEvent) {
	e := Event{
		Type:     ev.Event.TypeName(),
		Facility: ev.Event.FacilityName(),
		Index:    ev.Index,
		Raw:      ev.Event,
	}
	if !ev.Event.Valid() {
		c.log.Warn("pulseaudio: event with unknown facility or type", "event", uint32(ev.Event), "index", ev.Index)
	}
	c.cfg.Metrics.observeEvent(e)
	c.events.push(e)
}

func (c *Client) deliver(e Event) {
	c.log.Debug("pulseaudio: event", "type", e.Type, "facility", e.Facility, "index", e.Index)
}

// eventQueue hands events to observers on one goroutine. It never blocks
// the read loop.
type eventQueue struct {
	mu        sync.Mutex
	pending   []Event
	observers map[int]func(Event)
	nextID    int
	started   bool
	closed    bool

	wake chan struct{}
	done chan struct{}
	hook func(Event)
}

func newEventQueue(hook func(Event)) *eventQueue {
	return &eventQueue{
		observers: make(map[int]func(Event)),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		hook:      hook,
	}
}

func (q *eventQueue) start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	go q.run()
}

func (q *eventQueue) observe(fn func(Event)) func() {
	q.mu.Lock()
	id := q.nextID
	q.nextID++
	q.observers[id] = fn
	q.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			q.mu.Lock()
			delete(q.observers, id)
			q.mu.Unlock()
		})
	}
}

func (q *eventQueue) push(e Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, e)
	q.mu.Unlock()
	q.signal()
}

// close stops the queue once the events already pushed are delivered.
func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *eventQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *eventQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		closed := q.closed
		q.mu.Unlock()

		for _, e := range batch {
			q.dispatch(e)
		}
		if len(batch) == 0 {
			if closed {
				return
			}
			<-q.wake
		}
	}
}

func (q *eventQueue) dispatch(e Event) {
	q.hook(e)
	q.mu.Lock()
	ids := make([]int, 0, len(q.observers))
	for id := range q.observers {
		ids = append(ids, id)
	}
	q.mu.Unlock()
	sort.Ints(ids)
	for _, id := range ids {
		q.mu.Lock()
		fn, ok := q.observers[id]
		q.mu.Unlock()
		if ok {
			fn(e)
		}
	}
}
