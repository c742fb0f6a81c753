package worker

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// fixedSchedule is a fixed delay list: retry N uses delays[N-1], and any
// retry past the end of the list reuses the last delay rather than growing
// further. The Outbox Worker's [30s, 120s, 480s] schedule is expressed this
// way instead of an exponential curve, since the delays need to land on
// exact values rather than a growth factor.
type fixedSchedule struct {
	delays []time.Duration
}

// newFixedSchedule builds a fixedSchedule; panics if delays is empty, since
// a schedule with nothing in it is a programming error, not a runtime one.
func newFixedSchedule(delays ...time.Duration) *fixedSchedule {
	if len(delays) == 0 {
		panic("worker: fixedSchedule requires at least one delay")
	}
	return &fixedSchedule{delays: delays}
}

// delayFor returns the delay for the attempt'th retry (1-indexed).
func (f *fixedSchedule) delayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(f.delays) {
		attempt = len(f.delays)
	}
	return f.delays[attempt-1]
}

// Cursor returns a backoff.BackOff positioned at startAttempt (the payment's
// persisted retry count). Each call advances the cursor by one retry, so a
// fresh cursor built from Postgres-persisted state on every poll tick
// reproduces the same sequence a long-lived backoff.BackOff would have
// produced had the worker process never restarted between retries.
func (f *fixedSchedule) Cursor(startAttempt int) backoff.BackOff {
	return &fixedScheduleCursor{schedule: f, attempt: startAttempt}
}

type fixedScheduleCursor struct {
	schedule *fixedSchedule
	attempt  int
}

func (c *fixedScheduleCursor) NextBackOff() time.Duration {
	c.attempt++
	return c.schedule.delayFor(c.attempt)
}

func (c *fixedScheduleCursor) Reset() { c.attempt = 0 }

var _ backoff.BackOff = (*fixedScheduleCursor)(nil)

// outboxRetrySchedule is the Outbox Worker's fixed retry schedule.
var outboxRetrySchedule = newFixedSchedule(30*time.Second, 120*time.Second, 480*time.Second)
