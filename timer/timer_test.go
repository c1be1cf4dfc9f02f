package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

// ManualScheduler is a test double for the Scheduler interface.
// Timers only fire when the test calls Fire.
type ManualScheduler struct {
	nextId int64
	tasks  map[int64]func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{tasks: make(map[int64]func())}
}

func (s *ManualScheduler) AddTimer(delay time.Duration, interval time.Duration, callback func()) int64 {
	s.nextId++
	s.tasks[s.nextId] = callback
	return s.nextId
}

func (s *ManualScheduler) RemoveTimer(timerId int64) {
	delete(s.tasks, timerId)
}

// Fire runs every registered timer once.
func (s *ManualScheduler) Fire() {
	for _, cb := range s.snapshot() {
		cb()
	}
}

func (s *ManualScheduler) snapshot() []func() {
	cbs := make([]func(), 0, len(s.tasks))
	for _, cb := range s.tasks {
		cbs = append(cbs, cb)
	}
	return cbs
}

func TestTimerManager_OneShotFires(t *testing.T) {
	m := NewTimerManagerWithResolution(5 * time.Millisecond)
	defer m.Stop()

	fired := make(chan struct{}, 1)
	m.AddTimer(10*time.Millisecond, 0, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("Expected the timer to fire within a second")
	}
	if m.Len() != 0 {
		t.Errorf("Expected a one-shot timer to leave the queue, got %d pending", m.Len())
	}
}

func TestTimerManager_RemoveTimer(t *testing.T) {
	m := NewTimerManagerWithResolution(5 * time.Millisecond)
	defer m.Stop()

	var count int32
	id := m.AddTimer(30*time.Millisecond, 0, func() { atomic.AddInt32(&count, 1) })
	m.RemoveTimer(id)

	time.Sleep(80 * time.Millisecond)
	if atomic.LoadInt32(&count) != 0 {
		t.Error("A removed timer should never fire")
	}
}

func TestTimerManager_Repeating(t *testing.T) {
	m := NewTimerManagerWithResolution(5 * time.Millisecond)
	defer m.Stop()

	var count int32
	id := m.AddTimer(5*time.Millisecond, 5*time.Millisecond, func() { atomic.AddInt32(&count, 1) })

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&count) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	m.RemoveTimer(id)
	if atomic.LoadInt32(&count) < 3 {
		t.Errorf("Expected a repeating timer to fire at least 3 times, got %d", count)
	}
}

func TestTimerManager_BurstOfDueTimers(t *testing.T) {
	m := NewTimerManagerWithResolution(5 * time.Millisecond)
	defer m.Stop()

	const burst = 1500
	var fired int32
	for i := 0; i < burst; i++ {
		m.AddTimer(0, 0, func() { atomic.AddInt32(&fired, 1) })
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&fired) < burst && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := atomic.LoadInt32(&fired); got != burst {
		t.Fatalf("Expected %d timers to fire, got %d", burst, got)
	}

	pending := make(chan int, 1)
	go func() { pending <- m.Len() }()
	select {
	case n := <-pending:
		if n != 0 {
			t.Errorf("Expected an empty queue, got %d pending", n)
		}
	case <-time.After(time.Second):
		t.Fatal("Len blocked after a burst of due timers")
	}
}

func TestCountdown_TicksThenExpires(t *testing.T) {
	sched := NewManualScheduler()
	c := NewCountdown(sched, time.Second)

	var ticks []int
	expired := 0
	c.Start(3, func(r int) { ticks = append(ticks, r) }, func() { expired++ })

	for i := 0; i < 5; i++ {
		sched.Fire()
	}

	if len(ticks) != 3 || ticks[0] != 2 || ticks[2] != 0 {
		t.Errorf("Expected ticks [2 1 0], got %v", ticks)
	}
	if expired != 1 {
		t.Errorf("Expected exactly one expiry, got %d", expired)
	}
	if c.Active() {
		t.Error("Countdown should be inactive after expiry")
	}
	if len(sched.tasks) != 0 {
		t.Errorf("Expected the timer to be removed, %d remain", len(sched.tasks))
	}
}

func TestCountdown_RestartKeepsOneTimer(t *testing.T) {
	sched := NewManualScheduler()
	c := NewCountdown(sched, time.Second)

	firstExpired := 0
	c.Start(1, nil, func() { firstExpired++ })
	secondExpired := 0
	c.Start(2, nil, func() { secondExpired++ })

	if len(sched.tasks) != 1 {
		t.Fatalf("Expected exactly one active timer, got %d", len(sched.tasks))
	}

	sched.Fire()
	sched.Fire()
	if firstExpired != 0 {
		t.Error("The replaced countdown must never expire")
	}
	if secondExpired != 1 {
		t.Errorf("Expected the new countdown to expire once, got %d", secondExpired)
	}
}

func TestCountdown_StaleTickIgnored(t *testing.T) {
	sched := NewManualScheduler()
	c := NewCountdown(sched, time.Second)

	var stale func()
	c.Start(1, nil, func() { t.Error("Stopped countdown expired") })
	for _, cb := range sched.tasks {
		stale = cb
	}
	c.Stop()

	// Simulate a callback the scheduler dispatched just before removal.
	stale()
	if c.Active() {
		t.Error("Countdown should stay stopped")
	}
}
