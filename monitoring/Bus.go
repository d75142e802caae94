package monitoring

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher publishes events
type Publisher interface {
	Publish(e Event)
}

// Nop is a Publisher which discards all events
type Nop struct{}

// Publish implements the Publisher interface
func (Nop) Publish(Event) {}

// Handler handles a published event
type Handler func(e Event)

// Bus delivers published events to the handlers subscribed to their
// Kind, in the order the handlers were subscribed. Handlers are called
// synchronously on the publishing goroutine. A Bus is safe for
// concurrent use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	enabled  bool

	run uuid.UUID
	now func() time.Time
}

// NewBus returns a new, enabled Bus which stamps events with a newly
// generated run id
func NewBus() *Bus {
	return NewBusWithRun(uuid.New())
}

// NewBusWithRun returns a new, enabled Bus which stamps events with the
// argument run id
func NewBusWithRun(run uuid.UUID) *Bus {
	return &Bus{
		handlers: make(map[Kind][]Handler),
		enabled:  true,
		run:      run,
		now:      time.Now,
	}
}

// Run returns the run id of the Bus
func (b *Bus) Run() uuid.UUID {
	return b.run
}

// Subscribe registers h to be called for every published event of
// Kind k
func (b *Bus) Subscribe(k Kind, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[k] = append(b.handlers[k], h)
}

// Publish delivers e to all handlers subscribed to its Kind. An event
// without a run id or time is stamped with those of the Bus. Publish
// does nothing while the Bus is disabled.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	if !b.enabled {
		b.mu.RUnlock()
		return
	}
	handlers := b.handlers[e.Kind()]
	b.mu.RUnlock()

	m := e.meta()
	if m.Run == uuid.Nil {
		m.Run = b.run
	}
	if m.Time.IsZero() {
		m.Time = b.now()
	}

	for _, h := range handlers {
		h(e)
	}
}

// Enable enables publishing
func (b *Bus) Enable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = true
}

// Disable disables publishing, all events published while disabled
// are dropped
func (b *Bus) Disable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = false
}

// Enabled returns whether the Bus is enabled
func (b *Bus) Enabled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.enabled
}
