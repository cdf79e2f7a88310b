package notify

import (
	"context"
	"sync"
	"time"

	"github.com/besofuls/EVTrade/internal/metrics"
	"github.com/google/uuid"
)

// Kind classifies a toast.
type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Error   Kind = "error"
)

// Default display timings: a toast stays up for DisplayDuration, then gets a
// short closing grace before removal so a renderer can animate it out.
const (
	DisplayDuration = 5 * time.Second
	ClosingGrace    = 280 * time.Millisecond
)

// Toast is one transient message.
type Toast struct {
	ID      string
	Message string
	Kind    Kind
	ShownAt time.Time
}

// Event is delivered to subscribers when the queue changes.
type Event struct {
	Added   *Toast
	Removed string // toast ID, set on removal
}

// Notifier is a process-wide queue of transient messages. Any component may
// enqueue; entries self-dismiss after DisplayDuration. Insertion order is
// preserved and duplicates are not deduplicated.
type Notifier struct {
	display time.Duration
	grace   time.Duration
	metrics *metrics.AppMetrics

	mu     sync.Mutex
	queue  []Toast
	timers map[string]*time.Timer
	subs   map[int]chan Event
	nextID int
	closed bool
}

// New creates a notifier with the default timings.
func New(m *metrics.AppMetrics) *Notifier {
	return NewWithTimings(m, DisplayDuration, ClosingGrace)
}

// NewWithTimings creates a notifier with explicit timings, used by tests to
// keep runs fast.
func NewWithTimings(m *metrics.AppMetrics, display, grace time.Duration) *Notifier {
	return &Notifier{
		display: display,
		grace:   grace,
		metrics: m,
		timers:  map[string]*time.Timer{},
		subs:    map[int]chan Event{},
	}
}

// Show enqueues a message and schedules its dismissal. The generated toast
// ID is returned for callers that want to remove it early.
func (n *Notifier) Show(message string, kind Kind) string {
	toast := Toast{
		ID:      uuid.NewString(),
		Message: message,
		Kind:    kind,
		ShownAt: time.Now(),
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ""
	}
	n.queue = append(n.queue, toast)
	n.timers[toast.ID] = time.AfterFunc(n.display+n.grace, func() {
		n.Remove(toast.ID)
	})
	n.publishLocked(Event{Added: &toast})
	n.mu.Unlock()

	if n.metrics != nil {
		n.metrics.ToastsShown.Add(context.Background(), 1)
	}
	return toast.ID
}

// Remove dismisses a toast early. Removing an unknown or already-dismissed
// ID is a no-op.
func (n *Notifier) Remove(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if timer, ok := n.timers[id]; ok {
		timer.Stop()
		delete(n.timers, id)
	}

	for i, toast := range n.queue {
		if toast.ID == id {
			n.queue = append(n.queue[:i], n.queue[i+1:]...)
			n.publishLocked(Event{Removed: id})
			return
		}
	}
}

// Active returns the queued toasts in insertion order.
func (n *Notifier) Active() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Toast, len(n.queue))
	copy(out, n.queue)
	return out
}

// Subscribe registers a listener for queue changes. The cancel function
// releases the subscription.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = ch
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if existing, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(existing)
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

// Close stops all pending dismissal timers and drops the queue.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	for id, timer := range n.timers {
		timer.Stop()
		delete(n.timers, id)
	}
	n.queue = nil
}

func (n *Notifier) publishLocked(event Event) {
	for _, ch := range n.subs {
		select {
		case ch <- event:
		default:
			// Slow subscriber; drop rather than block the queue.
		}
	}
}
