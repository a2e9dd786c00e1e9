// Package testclock provides a manual clock for tests. It implements
// clock.WithTickerAndDelayedExecution from k8s.io/utils and fires
// AfterFunc callbacks after releasing its lock, so a callback may
// schedule follow-up work on the same clock without deadlocking.
package testclock

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Clock is a fake clock.Clock driven by Step and SetTime. The zero
// value is not usable; construct with New.
type Clock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*waiter
}

type waiter struct {
	due     time.Time
	ch      chan time.Time
	fn      func()
	stopped bool

	// period reschedules the waiter after each fire (tickers).
	period time.Duration
}

var _ clock.WithTickerAndDelayedExecution = (*Clock)(nil)

func New(t time.Time) *Clock {
	return &Clock{now: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Step advances the clock and fires everything that came due, in due
// order. Callbacks run on the calling goroutine with the lock released;
// timers they schedule during the same Step still fire if due.
func (c *Clock) Step(d time.Duration) {
	c.mu.Lock()
	c.advanceLocked(c.now.Add(d))
}

// SetTime jumps the clock to an absolute time. A forward jump fires due
// waiters; a backward jump only moves the clock.
func (c *Clock) SetTime(t time.Time) {
	c.mu.Lock()
	if t.Before(c.now) {
		c.now = t
		c.mu.Unlock()
		return
	}
	c.advanceLocked(t)
}

// advanceLocked is entered holding the lock and returns with it
// released. The clock sits at each waiter's due time while that waiter
// fires, so a callback scheduling a follow-up timer sees the fire time
// as now and a cascade due within the advance resolves in one call.
func (c *Clock) advanceLocked(target time.Time) {
	for {
		idx := -1
		for i, w := range c.waiters {
			if w.stopped || w.due.After(target) {
				continue
			}
			if idx < 0 || w.due.Before(c.waiters[idx].due) {
				idx = i
			}
		}
		if idx < 0 {
			break
		}
		w := c.waiters[idx]
		if w.due.After(c.now) {
			c.now = w.due
		}
		fired := c.now
		if w.period > 0 {
			w.due = w.due.Add(w.period)
		} else {
			w.stopped = true
		}
		if w.fn != nil {
			fn := w.fn
			c.mu.Unlock()
			fn()
			c.mu.Lock()
			continue
		}
		select {
		case w.ch <- fired:
		default:
		}
	}
	c.now = target
	c.compactLocked()
	c.mu.Unlock()
}

func (c *Clock) compactLocked() {
	live := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.stopped {
			live = append(live, w)
		}
	}
	c.waiters = live
}

func (c *Clock) addWaiter(w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waiters = append(c.waiters, w)
}

// Waiters returns the number of pending timers and tickers.
func (c *Clock) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.waiters {
		if !w.stopped {
			n++
		}
	}
	return n
}

func (c *Clock) After(d time.Duration) <-chan time.Time {
	return c.NewTimer(d).C()
}

func (c *Clock) NewTimer(d time.Duration) clock.Timer {
	w := &waiter{
		due: c.Now().Add(d),
		ch:  make(chan time.Time, 1),
	}
	c.addWaiter(w)
	return &timer{clock: c, w: w}
}

func (c *Clock) AfterFunc(d time.Duration, f func()) clock.Timer {
	w := &waiter{
		due: c.Now().Add(d),
		ch:  make(chan time.Time, 1),
		fn:  f,
	}
	c.addWaiter(w)
	return &timer{clock: c, w: w}
}

// Sleep returns immediately; tests drive time explicitly.
func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.advanceLocked(c.now.Add(d))
}

func (c *Clock) Tick(d time.Duration) <-chan time.Time {
	return c.NewTicker(d).C()
}

func (c *Clock) NewTicker(d time.Duration) clock.Ticker {
	w := &waiter{
		due:    c.Now().Add(d),
		ch:     make(chan time.Time, 1),
		period: d,
	}
	c.addWaiter(w)
	return &ticker{clock: c, w: w}
}

type timer struct {
	clock *Clock
	w     *waiter
}

func (t *timer) C() <-chan time.Time { return t.w.ch }

func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.w.stopped
	t.w.stopped = true
	return active
}

func (t *timer) Reset(d time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.w.stopped
	t.w.stopped = false
	t.w.due = t.clock.now.Add(d)
	// A fired waiter may already have been pruned from the list.
	present := false
	for _, w := range t.clock.waiters {
		if w == t.w {
			present = true
			break
		}
	}
	if !present {
		t.clock.waiters = append(t.clock.waiters, t.w)
	}
	return active
}

type ticker struct {
	clock *Clock
	w     *waiter
}

func (t *ticker) C() <-chan time.Time { return t.w.ch }

func (t *ticker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.w.stopped = true
}
