package watch

import (
	"sync"
	"time"
)

// Debouncer delays processing until file activity settles.
// Rapid events for the same key are coalesced into one callback fired
// once the delay has passed without a new event.
type Debouncer struct {
	delay    time.Duration
	pending  map[string]*time.Timer
	callback func(key string)
	mu       sync.Mutex
}

// NewDebouncer creates a new Debouncer with the specified delay and callback.
func NewDebouncer(delay time.Duration, callback func(key string)) *Debouncer {
	return &Debouncer{
		delay:    delay,
		pending:  make(map[string]*time.Timer),
		callback: callback,
	}
}

// Add schedules key for processing after the debounce delay.
// A key already pending has its timer restarted.
func (d *Debouncer) Add(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, exists := d.pending[key]; exists {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// a newer Add replaced this timer
		if d.pending[key] != timer {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()

		// Invoke the callback outside the lock to avoid potential deadlocks
		if d.callback != nil {
			d.callback(key)
		}
	})
	d.pending[key] = timer
}

// CancelAll cancels all pending processing.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, timer := range d.pending {
		timer.Stop()
		delete(d.pending, key)
	}
}

// PendingCount returns the number of keys currently pending.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// IsPending returns true if key is currently pending.
func (d *Debouncer) IsPending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, exists := d.pending[key]
	return exists
}
