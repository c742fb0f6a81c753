package worker

import (
	"testing"
	"time"
)

func TestFixedSchedule_DelayForIsOneIndexed(t *testing.T) {
	s := newFixedSchedule(30*time.Second, 120*time.Second, 480*time.Second)

	if got := s.delayFor(1); got != 30*time.Second {
		t.Errorf("expected first retry delay of 30s, got %v", got)
	}
	if got := s.delayFor(2); got != 120*time.Second {
		t.Errorf("expected second retry delay of 120s, got %v", got)
	}
	if got := s.delayFor(3); got != 480*time.Second {
		t.Errorf("expected third retry delay of 480s, got %v", got)
	}
}

func TestFixedSchedule_DelayForClampsBelowFirstAttempt(t *testing.T) {
	s := newFixedSchedule(30*time.Second, 120*time.Second)
	if got := s.delayFor(0); got != 30*time.Second {
		t.Errorf("expected attempt 0 to clamp to the first delay, got %v", got)
	}
	if got := s.delayFor(-5); got != 30*time.Second {
		t.Errorf("expected a negative attempt to clamp to the first delay, got %v", got)
	}
}

func TestFixedSchedule_DelayForClampsPastEndOfSchedule(t *testing.T) {
	s := newFixedSchedule(30*time.Second, 120*time.Second, 480*time.Second)
	if got := s.delayFor(4); got != 480*time.Second {
		t.Errorf("expected an attempt past the schedule to reuse the last delay, got %v", got)
	}
	if got := s.delayFor(100); got != 480*time.Second {
		t.Errorf("expected a far-future attempt to reuse the last delay, got %v", got)
	}
}

func TestFixedSchedule_NewPanicsOnEmptyDelays(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected newFixedSchedule() with no delays to panic")
		}
	}()
	newFixedSchedule()
}

func TestFixedSchedule_CursorAdvancesThroughSchedule(t *testing.T) {
	s := newFixedSchedule(30*time.Second, 120*time.Second, 480*time.Second)
	c := s.Cursor(0)

	if got := c.NextBackOff(); got != 30*time.Second {
		t.Errorf("expected first cursor delay of 30s, got %v", got)
	}
	if got := c.NextBackOff(); got != 120*time.Second {
		t.Errorf("expected second cursor delay of 120s, got %v", got)
	}
	if got := c.NextBackOff(); got != 480*time.Second {
		t.Errorf("expected third cursor delay of 480s, got %v", got)
	}
	if got := c.NextBackOff(); got != 480*time.Second {
		t.Errorf("expected a cursor past the schedule to reuse the last delay, got %v", got)
	}
}

func TestFixedSchedule_CursorResetReturnsToFirstDelay(t *testing.T) {
	s := newFixedSchedule(30*time.Second, 120*time.Second, 480*time.Second)
	c := s.Cursor(1)
	_ = c.NextBackOff() // advances to attempt 2, delay 120s

	c.Reset()
	if got := c.NextBackOff(); got != 30*time.Second {
		t.Errorf("expected Reset to return the cursor to attempt 1, got %v", got)
	}
}

func TestOutboxRetrySchedule_MatchesConfiguredDelays(t *testing.T) {
	want := []time.Duration{30 * time.Second, 120 * time.Second, 480 * time.Second}
	for i, d := range want {
		if got := outboxRetrySchedule.delayFor(i + 1); got != d {
			t.Errorf("retry %d: expected %v, got %v", i+1, d, got)
		}
	}
}
