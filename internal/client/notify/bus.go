// Package notify is the process-wide toast bus. Producers (the gateway,
// REPL commands) emit short messages; consumers subscribe and render them.
// Every toast is removed automatically ToastTTL after it was created, even
// if nobody renders it.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ToastTTL is how long a toast stays visible.
const ToastTTL = 4000 * time.Millisecond

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type Toast struct {
	ID        string
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

type EventKind int

const (
	Added EventKind = iota
	Removed
)

func (k EventKind) String() string {
	if k == Added {
		return "added"
	}
	return "removed"
}

// Event is delivered to subscribers for every change of the visible set.
type Event struct {
	Kind  EventKind
	Toast Toast
}

type Option func(*Bus)

// WithTTL overrides ToastTTL.
func WithTTL(d time.Duration) Option {
	return func(b *Bus) { b.ttl = d }
}

// WithClock sets the source of CreatedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) { b.now = now }
}

type Bus struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	toasts  []Toast
	timers  map[string]*time.Timer
	subs    map[int]func(Event)
	nextSub int
	closed  bool
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{
		ttl:    ToastTTL,
		now:    time.Now,
		timers: make(map[string]*time.Timer),
		subs:   make(map[int]func(Event)),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Emit shows a new toast and returns its id. A closed bus drops the toast
// and returns "".
func (b *Bus) Emit(message string, sev Severity) string {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ""
	}

	t := Toast{
		ID:        newID(),
		Message:   message,
		Severity:  sev,
		CreatedAt: b.now(),
	}
	b.toasts = append(b.toasts, t)
	b.timers[t.ID] = time.AfterFunc(b.ttl, func() { b.Dismiss(t.ID) })
	subs := b.subscribersLocked()
	b.mu.Unlock()

	publish(subs, Event{Kind: Added, Toast: t})
	return t.ID
}

func (b *Bus) Info(message string) string    { return b.Emit(message, SeverityInfo) }
func (b *Bus) Success(message string) string { return b.Emit(message, SeveritySuccess) }
func (b *Bus) Error(message string) string   { return b.Emit(message, SeverityError) }

// Dismiss removes the toast now. Unknown or already removed ids are ignored,
// so the expiry timer firing after a manual dismiss is a no-op.
func (b *Bus) Dismiss(id string) {
	b.mu.Lock()
	idx := -1
	for i, t := range b.toasts {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return
	}

	t := b.toasts[idx]
	b.toasts = append(b.toasts[:idx], b.toasts[idx+1:]...)
	if timer, ok := b.timers[id]; ok {
		timer.Stop()
		delete(b.timers, id)
	}
	subs := b.subscribersLocked()
	b.mu.Unlock()

	publish(subs, Event{Kind: Removed, Toast: t})
}

// Toasts returns the visible toasts in emission order.
func (b *Bus) Toasts() []Toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Toast, len(b.toasts))
	copy(out, b.toasts)
	return out
}

// Subscribe registers fn for every Added and Removed event and returns a
// function that unregisters it. fn runs outside the bus lock, on the
// emitting goroutine or on the expiry timer's goroutine.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// ErrorSink adapts the bus to the plain callback the gateway reports
// failures through.
func (b *Bus) ErrorSink() func(message string) {
	return func(message string) { b.Error(message) }
}

// Reset drops every visible toast without notifying subscribers.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimersLocked()
	b.toasts = nil
}

// Close stops pending expiry timers. Later emits are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.stopTimersLocked()
}

func (b *Bus) stopTimersLocked() {
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
}

func (b *Bus) subscribersLocked() []func(Event) {
	out := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		out = append(out, fn)
	}
	return out
}

func publish(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
