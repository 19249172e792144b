package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Callbacks and channels fire from
// Advance, on the caller's goroutine, once their deadline is reached.
type Fake struct {
	mu      sync.Mutex
	current time.Time
	waiters []*fakeTimer
	created int // monotonically increasing count of timers ever created
}

type fakeTimer struct {
	clk     *Fake
	fireAt  time.Time
	fn      func()
	stopped bool
	fired   bool
}

// NewFake returns a Fake clock reading start.
func NewFake(start time.Time) *Fake {
	return &Fake{current: start}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Fake) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.mu.Lock()
	t := &fakeTimer{clk: c, fireAt: c.current.Add(d)}
	t.fn = func() { ch <- t.fireAt }
	c.addLocked(t)
	c.mu.Unlock()
	return ch
}

func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clk: c, fireAt: c.current.Add(d), fn: f}
	c.addLocked(t)
	return t
}

func (c *Fake) addLocked(t *fakeTimer) {
	c.waiters = append(c.waiters, t)
	c.created++
}

// Advance moves the clock forward by d and runs every pending timer whose
// deadline has been reached, in deadline order.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	now := c.current
	var due, remaining []*fakeTimer
	for _, t := range c.waiters {
		switch {
		case t.stopped:
		case !now.Before(t.fireAt):
			t.fired = true
			due = append(due, t)
		default:
			remaining = append(remaining, t)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()

	for i := 1; i < len(due); i++ {
		for j := i; j > 0 && due[j].fireAt.Before(due[j-1].fireAt); j-- {
			due[j], due[j-1] = due[j-1], due[j]
		}
	}
	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.waiters {
		if !t.stopped {
			n++
		}
	}
	return n
}

// WaitForTimers blocks until at least n timers have ever been created or
// timeout elapses. The cumulative count keeps this reliable when earlier
// timers were already consumed.
func (c *Fake) WaitForTimers(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		have := c.created
		c.mu.Unlock()
		if have >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
