package module

import "time"

// Timer tracks the elapsed time of a processing bracket. Unset endpoints are
// tracked explicitly rather than as zero times.
type Timer struct {
	now      func() time.Time
	initial  time.Time
	final    time.Time
	started  bool
	finished bool
	running  bool
	total    time.Duration
}

// NewTimer returns a timer using the wall clock. Its initial time is set, so
// Elapsed on a fresh module measures time since construction.
func NewTimer() *Timer {
	return NewTimerWithClock(time.Now)
}

// NewTimerWithClock returns a timer that reads time from now.
func NewTimerWithClock(now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	t := &Timer{now: now}
	t.ResetInitial()
	return t
}

// Start opens a new bracket.
func (t *Timer) Start() {
	t.ResetInitial()
	t.running = true
}

// Stop closes the bracket opened by Start and adds it to the running total.
// Without an open bracket it returns 0 and leaves the total unchanged.
func (t *Timer) Stop() time.Duration {
	if !t.running {
		return 0
	}
	t.running = false
	t.ResetFinal()
	elapsed := t.span()
	t.total += elapsed
	return elapsed
}

// Elapsed returns final minus initial, never negative. When final is unset
// it is set to the current time first.
func (t *Timer) Elapsed() time.Duration {
	if !t.started {
		return 0
	}
	if !t.finished {
		t.ResetFinal()
	}
	return t.span()
}

// ResetInitial sets the initial time to now and clears the final time.
func (t *Timer) ResetInitial() {
	t.initial = t.now()
	t.started = true
	t.finished = false
}

// ResetFinal sets the final time to now.
func (t *Timer) ResetFinal() {
	t.final = t.now()
	t.finished = true
}

// Total is the accumulated duration of every Start/Stop bracket.
func (t *Timer) Total() time.Duration { return t.total }

// Initial returns the initial time and whether it is set.
func (t *Timer) Initial() (time.Time, bool) { return t.initial, t.started }

// Final returns the final time and whether it is set.
func (t *Timer) Final() (time.Time, bool) { return t.final, t.finished }

func (t *Timer) span() time.Duration {
	d := t.final.Sub(t.initial)
	if d < 0 {
		return 0
	}
	return d
}
