package utils

import "time"

// Timer measures elapsed wall-clock time between a start and a stop event.
// Create one with [NewTimer], which starts measuring immediately. Call
// [Timer.Stop] to capture the elapsed duration, then read it with
// [Timer.GetDuration]. Used for request latency attributes in logs and spans.
type Timer struct {
	startTime time.Time
	duration  time.Duration
}

// NewTimer creates a Timer and starts it by recording the current time.
func NewTimer() *Timer {
	return &Timer{startTime: time.Now()}
}

// Start resets the timer's start instant to now, beginning a fresh
// measurement. It can be called repeatedly to reuse the same instance.
func (t *Timer) Start() {
	t.startTime = time.Now()
}

// Stop records the elapsed time since the last call to [Timer.Start] (or
// since construction via [NewTimer]).
func (t *Timer) Stop() {
	t.duration = time.Since(t.startTime)
}

// GetDuration returns the duration captured by the most recent call to
// [Timer.Stop]. Zero if Stop has not been called yet.
func (t *Timer) GetDuration() time.Duration {
	return t.duration
}
