package timer

import (
	"sync"
	"time"
)

// Countdown owns at most one repeating timer. Starting it always cancels the
// previous run first, and ticks from a cancelled run are dropped even if the
// scheduler already dispatched them.
type Countdown struct {
	scheduler  Scheduler
	period     time.Duration
	mutex      sync.Mutex
	timerId    int64
	generation uint64
	remaining  int
	active     bool
}

func NewCountdown(scheduler Scheduler, period time.Duration) *Countdown {
	if period <= 0 {
		period = time.Second
	}
	return &Countdown{scheduler: scheduler, period: period}
}

// Start begins counting down from seconds. onTick receives the remaining count
// after each period; onExpire runs once after the tick that reaches zero.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onExpire func()) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cancelLocked()
	c.generation++
	gen := c.generation
	c.remaining = seconds
	c.active = true
	c.timerId = c.scheduler.AddTimer(c.period, c.period, func() {
		c.tick(gen, onTick, onExpire)
	})
}

func (c *Countdown) tick(gen uint64, onTick func(int), onExpire func()) {
	c.mutex.Lock()
	if !c.active || gen != c.generation {
		c.mutex.Unlock()
		return
	}
	c.remaining--
	remaining := c.remaining
	if remaining <= 0 {
		c.cancelLocked()
	}
	c.mutex.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if remaining <= 0 && onExpire != nil {
		onExpire()
	}
}

// Stop cancels the running countdown, if any.
func (c *Countdown) Stop() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cancelLocked()
}

func (c *Countdown) cancelLocked() {
	if c.active {
		c.scheduler.RemoveTimer(c.timerId)
	}
	c.active = false
	c.timerId = 0
}

// Active reports whether a countdown is running.
func (c *Countdown) Active() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.active
}

// Remaining returns the seconds left on the running countdown.
func (c *Countdown) Remaining() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.remaining
}
